package loader

import "testing"

func TestParseRaw_ReifiesShortTags(t *testing.T) {
	data := []byte(`
Resources:
  Bucket:
    Type: AWS::S3::Bucket
    Properties:
      BucketName: !Sub "bucket-${AWS::Region}"
`)

	l := New()
	doc, err := l.ParseRaw(data)
	if err != nil {
		t.Fatalf("ParseRaw() error = %v", err)
	}

	resources, ok := doc["Resources"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected Resources to be a mapping, got %#v", doc["Resources"])
	}
	bucket, ok := resources["Bucket"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected Bucket to be a mapping, got %#v", resources["Bucket"])
	}
	props, ok := bucket["Properties"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected Properties to be a mapping, got %#v", bucket["Properties"])
	}
	name, ok := props["BucketName"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected BucketName to be reified into a map, got %#v", props["BucketName"])
	}
	if _, ok := name["Fn::Sub"]; !ok {
		t.Fatalf("expected Fn::Sub key, got %#v", name)
	}
}

func TestParseRaw_ExtraTagsReifyCustomShortTags(t *testing.T) {
	data := []byte(`
Resources:
  Bucket:
    Type: AWS::S3::Bucket
    Properties:
      BucketName: !MyMacro foo
`)

	l := New()
	if _, err := l.ParseRaw(data); err != nil {
		t.Fatalf("ParseRaw() error = %v", err)
	}

	l.ExtraTags = map[string]string{"!MyMacro": "Fn::MyMacro"}
	doc, err := l.ParseRaw(data)
	if err != nil {
		t.Fatalf("ParseRaw() with ExtraTags error = %v", err)
	}

	resources := doc["Resources"].(map[string]interface{})
	bucket := resources["Bucket"].(map[string]interface{})
	props := bucket["Properties"].(map[string]interface{})
	name, ok := props["BucketName"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected BucketName to be reified into a map, got %#v", props["BucketName"])
	}
	if v, ok := name["Fn::MyMacro"]; !ok || v != "foo" {
		t.Fatalf("expected Fn::MyMacro: foo, got %#v", name)
	}
}

func TestParseRaw_AutoDetectsJSON(t *testing.T) {
	l := New()
	doc, err := l.ParseRaw([]byte(`{"Resources": {"Bucket": {"Type": "AWS::S3::Bucket"}}}`))
	if err != nil {
		t.Fatalf("ParseRaw() error = %v", err)
	}
	if _, ok := doc["Resources"]; !ok {
		t.Fatalf("expected Resources key in parsed document")
	}
}

func TestValidateTemplate(t *testing.T) {
	if err := ValidateTemplate(map[string]interface{}{}); err == nil {
		t.Fatal("expected error for template without Resources")
	}
	if err := ValidateTemplate(map[string]interface{}{"Resources": "not-a-map"}); err == nil {
		t.Fatal("expected error for non-mapping Resources")
	}
	if err := ValidateTemplate(map[string]interface{}{"Resources": map[string]interface{}{}}); err != nil {
		t.Fatalf("expected nil error for valid shape, got %v", err)
	}
}

func TestIsIntrinsic(t *testing.T) {
	if !IsIntrinsic(map[string]interface{}{"Ref": "X"}) {
		t.Error("expected Ref to be recognized as intrinsic")
	}
	if IsIntrinsic(map[string]interface{}{"Ref": "X", "Extra": "Y"}) {
		t.Error("a two-key map is not a valid single-key intrinsic")
	}
	if IsIntrinsic("plain string") {
		t.Error("a plain string is not an intrinsic")
	}
}
