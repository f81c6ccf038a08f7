package utils

import "reflect"
import "testing"

func TestDeepMerge(t *testing.T) {
	tests := []struct {
		name     string
		dst      map[string]interface{}
		src      map[string]interface{}
		expected map[string]interface{}
	}{
		{
			name:     "empty maps",
			dst:      map[string]interface{}{},
			src:      map[string]interface{}{},
			expected: map[string]interface{}{},
		},
		{
			name:     "src overwrites dst",
			dst:      map[string]interface{}{"a": 1},
			src:      map[string]interface{}{"a": 2},
			expected: map[string]interface{}{"a": 2},
		},
		{
			name:     "merge adds new keys",
			dst:      map[string]interface{}{"a": 1},
			src:      map[string]interface{}{"b": 2},
			expected: map[string]interface{}{"a": 1, "b": 2},
		},
		{
			name: "deep merge nested maps",
			dst: map[string]interface{}{
				"outer": map[string]interface{}{"a": 1, "b": 2},
			},
			src: map[string]interface{}{
				"outer": map[string]interface{}{"b": 3, "c": 4},
			},
			expected: map[string]interface{}{
				"outer": map[string]interface{}{"a": 1, "b": 3, "c": 4},
			},
		},
		{
			name: "non-map overwrites map",
			dst: map[string]interface{}{
				"key": map[string]interface{}{"nested": 1},
			},
			src: map[string]interface{}{
				"key": "string value",
			},
			expected: map[string]interface{}{"key": "string value"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DeepMerge(tt.dst, tt.src)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("DeepMerge() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestDeepCopy(t *testing.T) {
	input := map[string]interface{}{
		"resources": map[string]interface{}{
			"function": map[string]interface{}{
				"type": "AWS::Lambda::Function",
				"tags": []interface{}{
					map[string]interface{}{"Key": "Name", "Value": "Test"},
				},
			},
		},
	}

	result := DeepCopy(input)
	if !reflect.DeepEqual(result, input) {
		t.Errorf("DeepCopy() = %v, want %v", result, input)
	}

	resources := result["resources"].(map[string]interface{})
	function := resources["function"].(map[string]interface{})
	tags := function["tags"].([]interface{})
	tags[0].(map[string]interface{})["Value"] = "mutated"

	origTags := input["resources"].(map[string]interface{})["function"].(map[string]interface{})["tags"].([]interface{})
	if origTags[0].(map[string]interface{})["Value"] != "Test" {
		t.Error("DeepCopy() did not create an independent copy")
	}
}

func TestCopyValue_ScalarsReturnedAsIs(t *testing.T) {
	if CopyValue("x") != "x" {
		t.Error("expected string scalar to be returned unchanged")
	}
	if CopyValue(42) != 42 {
		t.Error("expected int scalar to be returned unchanged")
	}
	if CopyValue(nil) != nil {
		t.Error("expected nil to be returned unchanged")
	}
}

func TestCopyValue_MapIsDeepCopied(t *testing.T) {
	original := map[string]interface{}{"k": "v"}
	copied := CopyValue(original).(map[string]interface{})
	copied["k"] = "mutated"

	if original["k"] != "v" {
		t.Fatal("mutating the copied map affected the original")
	}
}

func TestCopyValue_SliceIsDeepCopied(t *testing.T) {
	original := []interface{}{map[string]interface{}{"k": "v"}}
	copied := CopyValue(original).([]interface{})

	copied[0].(map[string]interface{})["k"] = "mutated"

	if original[0].(map[string]interface{})["k"] != "v" {
		t.Fatal("mutating the copied slice affected the original")
	}
}
