// Package analyzer implements the graph analyzer (spec.md §4.4): five
// static checks over the dependency graph (unused parameters, unused
// conditions, orphan outputs, orphan conditions, circular dependencies)
// plus the cascading-provisioning-failure walk. A finding key is present
// in Findings only when that analysis found something (spec.md §6).
package analyzer

import (
	"sort"

	"github.com/lex00/cfn-depgraph/pkg/depgraph"
	"github.com/lex00/cfn-depgraph/pkg/ir"
)

// Options configures the analyzer.
type Options struct {
	// StrictCascading enables the stricter property-level cross-check
	// for cascading-provisioning-failure protection (spec.md §4.4.6's
	// closing note on an unused, stricter original_source variant).
	StrictCascading bool
}

// Cycle is one deduplicated circular-dependency finding.
type Cycle struct {
	Cycle         []string `json:"cycle"`
	CycleLength   int      `json:"cycle_length"`
	CycleType     string   `json:"cycle_type"`
	NodesInvolved []string `json:"nodes_involved"`
}

// CascadingFailure is one cascading-provisioning-failure finding: a
// resource gated by a condition has a dependent that is not itself
// protected by that condition.
type CascadingFailure struct {
	GatedResource     string `json:"gated_resource"`
	DependentResource string `json:"dependent_resource"`
	Condition         string `json:"condition"`
}

// EntityRef names one IR entity by both its display name and its
// underlying IR/graph id, per spec.md §6's `{name, id}` finding shape.
type EntityRef struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Findings holds the results of all analyses. Empty/nil fields are
// omitted from JSON rendering, matching spec.md §6's "absent = no
// findings" contract.
type Findings struct {
	UnusedParameters              []EntityRef        `json:"unused_parameters,omitempty"`
	UnusedConditions              []EntityRef        `json:"unused_conditions,omitempty"`
	NoSourcedOutputs              []EntityRef        `json:"no_sourced_outputs,omitempty"`
	NoSourcedConditions           []EntityRef        `json:"no_sourced_conditions,omitempty"`
	CircularDependencies          []Cycle            `json:"circular_dependencies,omitempty"`
	CascadingProvisioningFailures []CascadingFailure `json:"cascading_provisioning_failures,omitempty"`
}

type analyzer struct {
	graph *depgraph.Graph
	doc   *ir.IR
	opts  Options

	nodeByName map[string]depgraph.Node
	outgoing   map[string][]string // adjacency bag, duplicates preserved
	incoming   map[string][]string
}

// Analyze runs every analysis over graph, built from doc, and returns the
// combined findings.
func Analyze(graph *depgraph.Graph, doc *ir.IR, opts Options) *Findings {
	a := &analyzer{
		graph:      graph,
		doc:        doc,
		opts:       opts,
		nodeByName: make(map[string]depgraph.Node),
		outgoing:   make(map[string][]string),
		incoming:   make(map[string][]string),
	}
	a.buildLookups()

	f := &Findings{}
	f.UnusedParameters = a.analyzeUnusedParameters()
	f.UnusedConditions = a.analyzeUnusedConditions()
	f.NoSourcedOutputs = a.analyzeNoSourcedOutputs()
	f.NoSourcedConditions = a.analyzeNoSourcedConditions()
	f.CircularDependencies = a.analyzeCircularDependencies()
	f.CascadingProvisioningFailures = a.analyzeCascadingProvisioningFailures()
	return f
}

func (a *analyzer) buildLookups() {
	for _, n := range a.graph.Nodes {
		a.nodeByName[n.Name] = n
	}
	for _, e := range a.graph.Edges {
		a.outgoing[e.From] = append(a.outgoing[e.From], e.To)
		a.incoming[e.To] = append(a.incoming[e.To], e.From)
	}
}

func (a *analyzer) nodesByType(typ string) []depgraph.Node {
	var out []depgraph.Node
	for _, n := range a.graph.Nodes {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

// isRuleCondition reports whether name (a "Cond.X" condition node name)
// corresponds to a Rules-section entry, which protects it from being
// flagged as unused/orphan even with no outgoing edges of its own.
func (a *analyzer) isRuleCondition(name string) bool {
	for _, c := range a.doc.Conditions {
		if c.Name == name {
			return c.IsRule
		}
	}
	return false
}

func (a *analyzer) analyzeUnusedParameters() []EntityRef {
	var out []EntityRef
	for _, n := range a.nodesByType(depgraph.NodeParameter) {
		if len(a.outgoing[n.Name]) == 0 {
			out = append(out, EntityRef{Name: n.Name, ID: n.ID})
		}
	}
	sortEntityRefs(out)
	return out
}

func (a *analyzer) analyzeUnusedConditions() []EntityRef {
	var out []EntityRef
	for _, n := range a.nodesByType(depgraph.NodeCondition) {
		if len(a.outgoing[n.Name]) == 0 && !a.isRuleCondition(n.Name) {
			out = append(out, EntityRef{Name: n.Name, ID: n.ID})
		}
	}
	sortEntityRefs(out)
	return out
}

func (a *analyzer) analyzeNoSourcedOutputs() []EntityRef {
	var out []EntityRef
	for _, n := range a.nodesByType(depgraph.NodeOutput) {
		for _, from := range a.incoming[n.Name] {
			if a.nodeByName[from].Type == depgraph.NodeRoot {
				out = append(out, EntityRef{Name: n.Name, ID: n.ID})
				break
			}
		}
	}
	sortEntityRefs(out)
	return out
}

func (a *analyzer) analyzeNoSourcedConditions() []EntityRef {
	var out []EntityRef
	for _, n := range a.nodesByType(depgraph.NodeCondition) {
		if a.isRuleCondition(n.Name) {
			continue
		}
		for _, from := range a.incoming[n.Name] {
			if a.nodeByName[from].Type == depgraph.NodeRoot {
				out = append(out, EntityRef{Name: n.Name, ID: n.ID})
				break
			}
		}
	}
	sortEntityRefs(out)
	return out
}

func sortEntityRefs(refs []EntityRef) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
}

// analyzeCircularDependencies runs DFS with a recursion stack over every
// node, collects every raw cycle found, then dedups by rotating each
// cycle to start at its lexicographically smallest node.
func (a *analyzer) analyzeCircularDependencies() []Cycle {
	visited := make(map[string]bool)
	var rawCycles [][]string

	var dfs func(node string, path []string, recStack map[string]bool)
	dfs = func(node string, path []string, recStack map[string]bool) {
		if recStack[node] {
			idx := indexOf(path, node)
			cycle := append(append([]string{}, path[idx:]...), node)
			rawCycles = append(rawCycles, cycle)
			return
		}
		if visited[node] {
			return
		}

		visited[node] = true
		recStack[node] = true
		path = append(path, node)

		for _, next := range a.outgoing[node] {
			childPath := append([]string{}, path...)
			dfs(next, childPath, recStack)
		}

		delete(recStack, node)
	}

	for _, n := range a.graph.Nodes {
		if !visited[n.Name] {
			dfs(n.Name, nil, make(map[string]bool))
		}
	}

	seen := make(map[string]bool)
	var cycles []Cycle
	for _, raw := range rawCycles {
		rotated := rotateToMin(raw)
		key := join(rotated)
		if seen[key] {
			continue
		}
		seen[key] = true

		nodesInvolved := uniqueStrings(rotated[:len(rotated)-1])
		cycles = append(cycles, Cycle{
			Cycle:         rotated,
			CycleLength:   len(rotated) - 1,
			CycleType:     a.cycleType(rotated),
			NodesInvolved: nodesInvolved,
		})
	}

	sort.Slice(cycles, func(i, j int) bool { return join(cycles[i].Cycle) < join(cycles[j].Cycle) })
	return cycles
}

func (a *analyzer) cycleType(cycle []string) string {
	types := make(map[string]bool)
	for _, name := range cycle[:len(cycle)-1] {
		types[a.nodeByName[name].Type] = true
	}
	if len(types) == 1 {
		for t := range types {
			return "pure_" + t + "_cycle"
		}
	}
	var names []string
	for t := range types {
		names = append(names, t)
	}
	sort.Strings(names)
	return "mixed_cycle_" + join(names)
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func rotateToMin(cycle []string) []string {
	body := cycle[:len(cycle)-1]
	minIdx := 0
	for i, v := range body {
		if v < body[minIdx] {
			minIdx = i
		}
	}
	rotated := append(append([]string{}, body[minIdx:]...), body[:minIdx]...)
	return append(rotated, rotated[0])
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func join(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "\x00"
		}
		out += p
	}
	return out
}

// analyzeCascadingProvisioningFailures walks the descendants of every
// condition-gated resource, stopping at the first resource- or property-
// level protection it finds and recording a finding everywhere it doesn't
// (spec.md §4.4.6).
func (a *analyzer) analyzeCascadingProvisioningFailures() []CascadingFailure {
	gatedResources, gatedProperties := a.conditionEdges()

	var findings []CascadingFailure
	for condition, resources := range gatedResources {
		for _, gatedResource := range resources {
			visited := make(map[string]bool)
			for _, child := range a.immediateChildren(gatedResource) {
				a.walkCascade(child, condition, gatedResource, visited, gatedResources, gatedProperties, &findings)
			}
		}
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].GatedResource != findings[j].GatedResource {
			return findings[i].GatedResource < findings[j].GatedResource
		}
		if findings[i].Condition != findings[j].Condition {
			return findings[i].Condition < findings[j].Condition
		}
		return findings[i].DependentResource < findings[j].DependentResource
	})
	return findings
}

func (a *analyzer) conditionEdges() (gatedResources, gatedProperties map[string][]string) {
	gatedResources = make(map[string][]string)
	gatedProperties = make(map[string][]string)
	for _, e := range a.graph.Edges {
		switch e.Type {
		case depgraph.EdgeConditionExistence:
			gatedResources[e.From] = append(gatedResources[e.From], e.To)
		case depgraph.EdgeConditionProperty:
			gatedProperties[e.From] = append(gatedProperties[e.From], e.To)
		}
	}
	return gatedResources, gatedProperties
}

// immediateChildren returns every node an edge points to from name,
// excluding self-loops, regardless of edge type (spec.md §9's open
// question: condition-existence edges do count, so a condition's gated
// resources are "children" of the condition too).
func (a *analyzer) immediateChildren(name string) []string {
	var out []string
	for _, e := range a.graph.Edges {
		if e.From == name && e.To != name {
			out = append(out, e.To)
		}
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (a *analyzer) walkCascade(node, condition, gatedResource string, visited map[string]bool, gatedResources, gatedProperties map[string][]string, findings *[]CascadingFailure) {
	if visited[node] {
		return
	}
	visited[node] = true

	if containsString(gatedResources[condition], node) {
		return
	}
	if a.isPropertyProtected(condition, node, gatedResource, gatedProperties) {
		return
	}

	*findings = append(*findings, CascadingFailure{
		GatedResource:     gatedResource,
		DependentResource: node,
		Condition:         condition,
	})

	for _, child := range a.immediateChildren(node) {
		a.walkCascade(child, condition, gatedResource, visited, gatedResources, gatedProperties, findings)
	}
}

// isPropertyProtected decides whether node is protected from the
// cascading failure by a condition-property edge from condition. In the
// default (conservative) mode, any condition-property edge from condition
// to node suffices. In strict mode it additionally verifies, against the
// IR, that a property of node which actually references gatedResource
// also carries condition in its depend_conditions — the stricter variant
// spec.md §4.4.6 describes as present-but-unused in original_source.
func (a *analyzer) isPropertyProtected(condition, node, gatedResource string, gatedProperties map[string][]string) bool {
	if !containsString(gatedProperties[condition], node) {
		return false
	}
	if !a.opts.StrictCascading {
		return true
	}
	return a.hasSafeConditionPropertyEdge(condition, node, gatedResource)
}

// hasSafeConditionPropertyEdge finds node among the IR's resources and
// checks whether any of its property units both references gatedResource
// and depends on condition. Outputs are not searched, so an output node
// never counts as protected here.
func (a *analyzer) hasSafeConditionPropertyEdge(condition, node, gatedResource string) bool {
	conditionID := a.conditionIDByName(condition)
	gatedResourceID := a.resourceIDByName(gatedResource)
	if conditionID == "" || gatedResourceID == "" {
		return false
	}

	for _, r := range a.doc.Resources {
		if r.Name != node {
			continue
		}
		for _, pu := range r.Properties {
			if containsString(pu.ResourceRefs, gatedResourceID) && containsString(pu.DependConditions, conditionID) {
				return true
			}
		}
	}
	return false
}

func (a *analyzer) conditionIDByName(name string) string {
	for _, c := range a.doc.Conditions {
		if c.Name == name {
			return c.ID
		}
	}
	return ""
}

func (a *analyzer) resourceIDByName(name string) string {
	for _, r := range a.doc.Resources {
		if r.Name == name {
			return r.ID
		}
	}
	return ""
}
