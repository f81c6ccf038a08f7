// Package lint provides the top-level orchestrator that runs the full
// pipeline (spec.md §2) over one template: load, extract references while
// building the IR, build the dependency graph, and run the analyzer.
package lint

import (
	"fmt"

	"github.com/lex00/cfn-depgraph/pkg/analyzer"
	"github.com/lex00/cfn-depgraph/pkg/cfnerr"
	"github.com/lex00/cfn-depgraph/pkg/depgraph"
	"github.com/lex00/cfn-depgraph/pkg/ir"
	"github.com/lex00/cfn-depgraph/pkg/loader"
)

// Version is the pipeline version, surfaced by the CLI's --version flag.
const Version = "0.1.0"

// Options configures a Run.
type Options struct {
	// StrictCascading enables the stricter cascading-provisioning-failure
	// check (analyzer.Options.StrictCascading).
	StrictCascading bool

	// ExtraPseudoParameters names additional pseudo-parameters to
	// recognize, beyond the closed AWS::* set (pkg/config's
	// "extra-pseudo-parameters" knob).
	ExtraPseudoParameters []string

	// ExtraTags are additional YAML short-tag -> intrinsic name mappings
	// to reify, beyond the closed CFN_TAGS set (pkg/config's "extra-tags"
	// knob).
	ExtraTags map[string]string
}

// Result is everything a Run produces: the built IR and graph alongside
// the findings, so callers (the CLI's --format json, or a future --graph
// dump) can render more than just the findings if they want to.
type Result struct {
	FileName string
	IR       *ir.IR
	Graph    *depgraph.Graph
	Findings *analyzer.Findings
}

// Linter runs the pipeline over template documents.
type Linter struct {
	opts Options
}

// New creates a Linter.
func New(opts Options) *Linter {
	return &Linter{opts: opts}
}

// Run loads, analyzes, and lints one template's raw bytes, identified by
// fileName for the IR's template-level metadata and any error messages.
func (l *Linter) Run(data []byte, fileName string) (*Result, error) {
	ld := loader.NewWithLocationTracking()
	ld.ExtraTags = l.opts.ExtraTags

	doc, err := ld.ParseRaw(data)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse template: %w", fileName, err)
	}

	if err := loader.ValidateTemplate(doc); err != nil {
		return nil, &cfnerr.MalformedDocumentError{Message: fmt.Sprintf("%s: %s", fileName, locateError(ld, err.Error()))}
	}

	built := ir.Build(doc, fileName, l.opts.ExtraPseudoParameters...)
	graph := depgraph.Build(built)
	findings := analyzer.Analyze(graph, built, analyzer.Options{StrictCascading: l.opts.StrictCascading})

	return &Result{
		FileName: fileName,
		IR:       built,
		Graph:    graph,
		Findings: findings,
	}, nil
}

// locateError appends a line/column to a structural-validation message
// when the loader tracked a source location for the "Resources" key
// (present for a malformed section, absent entirely when the key is
// missing).
func locateError(ld *loader.Loader, message string) string {
	if ld.Locations == nil {
		return message
	}
	if loc, ok := ld.Locations.Get("Resources"); ok {
		return fmt.Sprintf("%s (at line %d, column %d)", message, loc.Line, loc.Column)
	}
	return message
}
