// Package depgraph builds the typed dependency multigraph described in
// spec.md §4.3 from an *ir.IR: a synthetic root node, one node per
// parameter/condition/resource/output, and edges in three categories
// (default, condition-existence, condition-property). Edge identity is by
// node *name*, not id — multiple edges between the same pair of names are
// semantically meaningful and are kept, not deduplicated.
package depgraph

import (
	"strings"

	"github.com/google/uuid"

	"github.com/lex00/cfn-depgraph/pkg/ir"
)

// Node types.
const (
	NodeRoot      = "root"
	NodeParameter = "parameter"
	NodeCondition = "condition"
	NodeResource  = "resource"
	NodeOutput    = "output"
)

// Edge type categories.
const (
	EdgeDefault            = ""
	EdgeConditionExistence = "condition-existence"
	EdgeConditionProperty  = "condition-property"
)

// RootNodeName is the display name of the synthetic root node every
// otherwise-unreferenced entity connects to.
const RootNodeName = "root"

// Node is one graph vertex.
type Node struct {
	ID   string
	Name string
	Type string
}

// Edge is one directed graph edge, identified by the names of its
// endpoints.
type Edge struct {
	From string
	To   string
	Type string
}

// Graph is the built dependency multigraph.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// builder accumulates nodes/edges and the id->name table used to resolve
// an IR reference id back into the node name an edge connects to.
type builder struct {
	nodes    []Node
	edges    []Edge
	idToName map[string]string
}

// Build constructs the dependency graph for a built IR.
func Build(doc *ir.IR) *Graph {
	b := &builder{idToName: make(map[string]string)}

	rootID := uuid.NewString()
	b.addNode(rootID, RootNodeName, NodeRoot)

	b.createNodes(doc)
	b.processConditions(doc)
	b.processResources(doc)
	b.processOutputs(doc)

	return &Graph{Nodes: b.nodes, Edges: b.edges}
}

func (b *builder) addNode(id, name, typ string) {
	b.nodes = append(b.nodes, Node{ID: id, Name: name, Type: typ})
	b.idToName[id] = name
}

func (b *builder) addEdge(from, to, edgeType string) {
	b.edges = append(b.edges, Edge{From: from, To: to, Type: edgeType})
}

// displayName applies the "::" -> "." substitution CloudFormation pseudo-
// parameter names get in the graph's display names only — never in ids,
// and never mutating the IR's own Name field.
func displayName(name string) string {
	return strings.ReplaceAll(name, "::", ".")
}

func (b *builder) createNodes(doc *ir.IR) {
	for _, p := range doc.Parameters {
		name := displayName(p.Name)
		b.addNode(p.ID, name, NodeParameter)
		b.addEdge(RootNodeName, name, EdgeDefault)
	}
	for _, c := range doc.Conditions {
		b.addNode(c.ID, c.Name, NodeCondition)
	}
	for _, r := range doc.Resources {
		b.addNode(r.ID, r.Name, NodeResource)
	}
	for _, o := range doc.Outputs {
		b.addNode(o.ID, o.Name, NodeOutput)
	}
}

// rewriteRootEdge finds the first root->paramName edge and rewrites its
// From field to newFrom, reporting whether a rewrite happened. This
// implements spec.md §4.3's explicit rewrite semantics rather than
// original_source's unreachable is_ruled_para branch — see DESIGN.md.
func (b *builder) rewriteRootEdge(paramName, newFrom string) bool {
	for i := range b.edges {
		if b.edges[i].From == RootNodeName && b.edges[i].To == paramName && b.edges[i].Type == EdgeDefault {
			b.edges[i].From = newFrom
			return true
		}
	}
	return false
}

func (b *builder) processConditions(doc *ir.IR) {
	for _, c := range doc.Conditions {
		generated := false

		if c.IsRule {
			for _, paramID := range c.RuledPara {
				name, ok := b.idToName[paramID]
				if !ok {
					continue
				}
				// The rewrite produces an outgoing condition->param edge, not
				// an incoming edge to the condition itself, so it must not
				// count toward generated (spec.md §4.3 step 3's second
				// bullet is the only one that does).
				b.rewriteRootEdge(name, c.Name)
			}
		}

		for _, paramID := range c.DependPara {
			if name, ok := b.idToName[paramID]; ok {
				b.addEdge(c.Name, name, EdgeDefault)
				generated = true
			}
		}
		for _, condID := range c.DependCond {
			if name, ok := b.idToName[condID]; ok {
				b.addEdge(c.Name, name, EdgeDefault)
				generated = true
			}
		}

		if !generated {
			b.addEdge(RootNodeName, c.Name, EdgeDefault)
		}
	}
}

func (b *builder) processResources(doc *ir.IR) {
	for _, r := range doc.Resources {
		generated := b.handleResourceArguments(r)

		for _, pu := range r.Properties {
			for _, id := range pu.ResourceRefs {
				if name, ok := b.idToName[id]; ok {
					b.addEdge(r.Name, name, EdgeDefault)
					generated = true
				}
			}
			for _, id := range pu.ParameterRefs {
				if name, ok := b.idToName[id]; ok {
					b.addEdge(r.Name, name, EdgeDefault)
					generated = true
				}
			}
			for _, id := range pu.DependConditions {
				if name, ok := b.idToName[id]; ok {
					b.addEdge(r.Name, name, EdgeConditionProperty)
					generated = true
				}
			}
		}

		if !generated {
			b.addEdge(RootNodeName, r.Name, EdgeDefault)
		}
	}
}

func (b *builder) handleResourceArguments(r *ir.Resource) bool {
	if r.Arguments == nil {
		return false
	}
	generated := false

	if dependsOn, ok := r.Arguments["depends_on"]; ok {
		switch v := dependsOn.(type) {
		case string:
			b.addEdge(r.Name, v, EdgeDefault)
			generated = true
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok {
					b.addEdge(r.Name, s, EdgeDefault)
					generated = true
				}
			}
		}
	}

	if cond, ok := r.Arguments["condition"].(string); ok && cond != "" {
		b.addEdge(r.Name, cond, EdgeConditionExistence)
		generated = true
	}

	return generated
}

func (b *builder) processOutputs(doc *ir.IR) {
	for _, o := range doc.Outputs {
		generated := false

		for _, id := range o.SourceResource {
			if name, ok := b.idToName[id]; ok {
				b.addEdge(o.Name, name, EdgeDefault)
				generated = true
			}
		}
		for _, id := range o.SourceParameter {
			if name, ok := b.idToName[id]; ok {
				b.addEdge(o.Name, name, EdgeDefault)
				generated = true
			}
		}
		for _, id := range o.DependCondition {
			if name, ok := b.idToName[id]; ok {
				b.addEdge(o.Name, name, EdgeConditionExistence)
				generated = true
			}
		}
		for _, id := range o.Value.DependConditions {
			if name, ok := b.idToName[id]; ok {
				b.addEdge(o.Name, name, EdgeConditionProperty)
				generated = true
			}
		}

		if o.ExportName != nil {
			for _, id := range o.ExportName.DependResource {
				if name, ok := b.idToName[id]; ok {
					b.addEdge(o.Name, name, EdgeDefault)
					generated = true
				}
			}
			for _, id := range o.ExportName.DependPara {
				if name, ok := b.idToName[id]; ok {
					b.addEdge(o.Name, name, EdgeDefault)
					generated = true
				}
			}
			for _, id := range o.ExportName.DependConditions {
				if name, ok := b.idToName[id]; ok {
					b.addEdge(o.Name, name, EdgeConditionProperty)
					generated = true
				}
			}
		}

		if !generated {
			b.addEdge(RootNodeName, o.Name, EdgeDefault)
		}
	}
}
