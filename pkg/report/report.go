// Package report renders analyzer findings for the CLI, in either a
// human-readable text form or JSON (spec.md §6).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/lex00/cfn-depgraph/pkg/analyzer"
)

// WriteJSON renders findings as indented JSON to w.
func WriteJSON(w io.Writer, fileName string, findings *analyzer.Findings) error {
	doc := map[string]interface{}{
		"file":     fileName,
		"findings": findings,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteText renders findings as human-readable lines to w, one finding
// per line, grouped by analysis. Returns the number of findings written.
func WriteText(w io.Writer, fileName string, findings *analyzer.Findings) int {
	count := 0

	section := func(title string, items []analyzer.EntityRef) {
		if len(items) == 0 {
			return
		}
		sorted := append([]analyzer.EntityRef{}, items...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
		fmt.Fprintf(w, "%s: %s\n", title, fileName)
		for _, item := range sorted {
			fmt.Fprintf(w, "  - %s (%s)\n", item.Name, item.ID)
			count++
		}
	}

	section("unused parameter", findings.UnusedParameters)
	section("unused condition", findings.UnusedConditions)
	section("output with no root source", findings.NoSourcedOutputs)
	section("condition with no root source", findings.NoSourcedConditions)

	if len(findings.CircularDependencies) > 0 {
		fmt.Fprintf(w, "circular dependency: %s\n", fileName)
		for _, c := range findings.CircularDependencies {
			fmt.Fprintf(w, "  - [%s] %v\n", c.CycleType, c.Cycle)
			count++
		}
	}

	if len(findings.CascadingProvisioningFailures) > 0 {
		fmt.Fprintf(w, "cascading provisioning failure: %s\n", fileName)
		for _, c := range findings.CascadingProvisioningFailures {
			fmt.Fprintf(w, "  - %s depends on %s, not protected by %s\n", c.DependentResource, c.GatedResource, c.Condition)
			count++
		}
	}

	return count
}

// IsClean reports whether findings contains nothing worth reporting.
func IsClean(findings *analyzer.Findings) bool {
	return len(findings.UnusedParameters) == 0 &&
		len(findings.UnusedConditions) == 0 &&
		len(findings.NoSourcedOutputs) == 0 &&
		len(findings.NoSourcedConditions) == 0 &&
		len(findings.CircularDependencies) == 0 &&
		len(findings.CascadingProvisioningFailures) == 0
}
