package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/lex00/cfn-depgraph/pkg/analyzer"
)

func TestIsClean(t *testing.T) {
	if !IsClean(&analyzer.Findings{}) {
		t.Fatal("empty findings should be clean")
	}
	if IsClean(&analyzer.Findings{UnusedParameters: []analyzer.EntityRef{{Name: "X", ID: "id-1"}}}) {
		t.Fatal("non-empty findings should not be clean")
	}
}

func TestWriteText_NoIssuesYieldsZeroCount(t *testing.T) {
	var buf bytes.Buffer
	n := WriteText(&buf, "t.yaml", &analyzer.Findings{})
	if n != 0 {
		t.Fatalf("expected 0 findings written, got %d", n)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output for clean findings, got %q", buf.String())
	}
}

func TestWriteText_ReportsEachCategory(t *testing.T) {
	var buf bytes.Buffer
	findings := &analyzer.Findings{
		UnusedParameters: []analyzer.EntityRef{{Name: "Env", ID: "id-1"}},
		CircularDependencies: []analyzer.Cycle{
			{Cycle: []string{"A", "B", "A"}, CycleLength: 2, CycleType: "pure_resource_cycle"},
		},
	}

	n := WriteText(&buf, "t.yaml", findings)
	if n != 2 {
		t.Fatalf("expected 2 findings written, got %d", n)
	}
	out := buf.String()
	if !strings.Contains(out, "Env") || !strings.Contains(out, "pure_resource_cycle") {
		t.Fatalf("expected output to mention both findings, got %q", out)
	}
}

func TestWriteJSON_RoundTrips(t *testing.T) {
	var buf bytes.Buffer
	findings := &analyzer.Findings{UnusedParameters: []analyzer.EntityRef{{Name: "Env", ID: "id-1"}}}
	if err := WriteJSON(&buf, "t.yaml", findings); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var decoded struct {
		File     string            `json:"file"`
		Findings analyzer.Findings `json:"findings"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode JSON output: %v", err)
	}
	if decoded.File != "t.yaml" {
		t.Errorf("file = %q, want t.yaml", decoded.File)
	}
	if len(decoded.Findings.UnusedParameters) != 1 || decoded.Findings.UnusedParameters[0].Name != "Env" || decoded.Findings.UnusedParameters[0].ID != "id-1" {
		t.Errorf("unexpected findings: %+v", decoded.Findings)
	}
}
