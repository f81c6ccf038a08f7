package depgraph

import (
	"testing"

	"github.com/lex00/cfn-depgraph/pkg/ir"
)

func hasEdge(edges []Edge, from, to, typ string) bool {
	for _, e := range edges {
		if e.From == from && e.To == to && e.Type == typ {
			return true
		}
	}
	return false
}

func nodeByName(nodes []Node, name string) *Node {
	for i := range nodes {
		if nodes[i].Name == name {
			return &nodes[i]
		}
	}
	return nil
}

func TestBuild_ParameterGetsRootEdge(t *testing.T) {
	doc := &ir.IR{
		Parameters: []*ir.Parameter{{ID: "p1", Name: "Env"}},
	}
	g := Build(doc)

	if !hasEdge(g.Edges, RootNodeName, "Env", EdgeDefault) {
		t.Fatalf("expected root->Env default edge, got %+v", g.Edges)
	}
}

func TestBuild_PseudoParameterDisplayNameSubstitutesColons(t *testing.T) {
	doc := &ir.IR{
		Parameters: []*ir.Parameter{{ID: "p1", Name: "AWS::Region", Type: "pseudo-parameter"}},
	}
	g := Build(doc)

	if nodeByName(g.Nodes, "AWS.Region") == nil {
		t.Fatalf("expected display name AWS.Region, got nodes %+v", g.Nodes)
	}
	for _, n := range g.Nodes {
		if n.Name == "AWS::Region" {
			t.Fatalf("id-bearing Name should never leak the raw '::' form into node names")
		}
	}
}

func TestBuild_RuledParameterRewritesRootEdge(t *testing.T) {
	doc := &ir.IR{
		Parameters: []*ir.Parameter{{ID: "p1", Name: "InstanceType"}},
		Conditions: []*ir.Condition{{ID: "c1", Name: "Cond.ValidateInstanceType", IsRule: true, RuledPara: []string{"p1"}}},
	}
	g := Build(doc)

	if hasEdge(g.Edges, RootNodeName, "InstanceType", EdgeDefault) {
		t.Fatalf("root->InstanceType edge should have been rewritten away, got %+v", g.Edges)
	}
	if !hasEdge(g.Edges, "Cond.ValidateInstanceType", "InstanceType", EdgeDefault) {
		t.Fatalf("expected rewritten Cond.ValidateInstanceType->InstanceType edge, got %+v", g.Edges)
	}

	// The rewrite produces an outgoing edge from the condition, not an
	// incoming one - a rule condition with only RuledPara set (no
	// DependPara/DependCond) must still fall back to a root edge of its
	// own, or it ends up with zero incoming edges (spec.md §4.3's closing
	// invariant).
	if !hasEdge(g.Edges, RootNodeName, "Cond.ValidateInstanceType", EdgeDefault) {
		t.Fatalf("expected Cond.ValidateInstanceType to fall back to a root edge since the rewrite doesn't give it an incoming edge, got %+v", g.Edges)
	}
}

func TestBuild_ResourceConditionExistenceEdge(t *testing.T) {
	doc := &ir.IR{
		Conditions: []*ir.Condition{{ID: "c1", Name: "Cond.IsProd"}},
		Resources: []*ir.Resource{{
			ID:        "r1",
			Name:      "Bucket",
			Arguments: map[string]interface{}{"condition": "Cond.IsProd"},
		}},
	}
	g := Build(doc)

	if !hasEdge(g.Edges, "Bucket", "Cond.IsProd", EdgeConditionExistence) {
		t.Fatalf("expected Bucket->Cond.IsProd condition-existence edge, got %+v", g.Edges)
	}
}

func TestBuild_ResourcePropertyConditionEdge(t *testing.T) {
	doc := &ir.IR{
		Conditions: []*ir.Condition{{ID: "c1", Name: "Cond.IsProd"}},
		Resources: []*ir.Resource{{
			ID:   "r1",
			Name: "Bucket",
			Properties: []ir.PropertyUnit{
				{Name: "BucketName", DependConditions: []string{"c1"}},
			},
		}},
	}
	g := Build(doc)

	if !hasEdge(g.Edges, "Bucket", "Cond.IsProd", EdgeConditionProperty) {
		t.Fatalf("expected Bucket->Cond.IsProd condition-property edge, got %+v", g.Edges)
	}
}

func TestBuild_UnreferencedEntityFallsBackToRoot(t *testing.T) {
	doc := &ir.IR{
		Resources: []*ir.Resource{{ID: "r1", Name: "Orphan"}},
	}
	g := Build(doc)

	if !hasEdge(g.Edges, RootNodeName, "Orphan", EdgeDefault) {
		t.Fatalf("expected root->Orphan fallback edge, got %+v", g.Edges)
	}
}

func TestBuild_OutputExportEdges(t *testing.T) {
	doc := &ir.IR{
		Resources: []*ir.Resource{{ID: "r1", Name: "Bucket"}},
		Outputs: []*ir.Output{{
			ID:         "o1",
			Name:       "Out.BucketArn",
			ExportName: &ir.ExportNameInfo{DependResource: []string{"r1"}},
		}},
	}
	g := Build(doc)

	if !hasEdge(g.Edges, "Out.BucketArn", "Bucket", EdgeDefault) {
		t.Fatalf("expected Out.BucketArn->Bucket default edge from export name, got %+v", g.Edges)
	}
}
