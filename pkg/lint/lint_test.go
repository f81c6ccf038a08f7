package lint

import (
	"strings"
	"testing"
)

const sampleTemplate = `
AWSTemplateFormatVersion: "2010-09-09"
Parameters:
  Env:
    Type: String
  Unused:
    Type: String
Conditions:
  IsProd:
    Fn::Equals: [!Ref Env, "prod"]
Resources:
  Bucket:
    Type: AWS::S3::Bucket
    Condition: IsProd
    Properties:
      BucketName: !Sub "bucket-${AWS::Region}-${Env}"
  Orphan:
    Type: AWS::S3::Bucket
Outputs:
  BucketArn:
    Value: !GetAtt Bucket.Arn
    Export:
      Name: !Sub "${AWS::StackName}-bucket-arn"
`

func TestRun_EndToEnd(t *testing.T) {
	l := New(Options{})
	result, err := l.Run([]byte(sampleTemplate), "sample.yaml")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(result.IR.Resources) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(result.IR.Resources))
	}

	foundUnused := false
	for _, p := range result.Findings.UnusedParameters {
		if p.Name == "Unused" {
			foundUnused = true
		}
	}
	if !foundUnused {
		t.Errorf("expected Unused parameter to be flagged, got %v", result.Findings.UnusedParameters)
	}

	foundOrphan := false
	for _, r := range result.Graph.Nodes {
		if r.Name == "Orphan" {
			foundOrphan = true
		}
	}
	if !foundOrphan {
		t.Errorf("expected Orphan resource node in graph")
	}
}

func TestRun_RejectsTemplateWithoutResources(t *testing.T) {
	l := New(Options{})
	_, err := l.Run([]byte("Parameters:\n  Env:\n    Type: String\n"), "bad.yaml")
	if err == nil {
		t.Fatal("expected an error for a template with no Resources section")
	}
}

func TestRun_RejectsNonMappingResourcesWithLocation(t *testing.T) {
	l := New(Options{})
	_, err := l.Run([]byte("Resources: not-a-mapping\n"), "bad.yaml")
	if err == nil {
		t.Fatal("expected an error for a non-mapping Resources section")
	}
	if !strings.Contains(err.Error(), "at line") {
		t.Errorf("expected the error to include a source location, got %q", err.Error())
	}
}

func TestRun_StrictCascadingOptionThreadsThrough(t *testing.T) {
	strict := New(Options{StrictCascading: true})
	result, err := strict.Run([]byte(sampleTemplate), "sample.yaml")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Findings == nil {
		t.Fatal("expected findings to be populated")
	}
}
