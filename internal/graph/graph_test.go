package graph

import (
	"testing"
	"time"

	"github.com/signalmesh/causegraph/internal/models"
)

func testNode(id string, severity models.Severity, root bool) Node {
	return Node{
		NodeID:    id,
		Label:     "event " + id,
		Severity:  severity,
		Timestamp: time.Unix(1_700_000_000, 0),
		IsRoot:    root,
	}
}

func testEdge(src, dst string, relation models.CorrelationType, weight float64) Edge {
	return Edge{
		EdgeID:       src + "->" + dst,
		SourceID:     src,
		TargetID:     dst,
		RelationType: relation,
		Weight:       weight,
	}
}

func TestAddNodeIdempotent(t *testing.T) {
	g := NewCorrelationGraph("e1")
	g.AddNode(testNode("e1", models.SeverityCritical, true))
	g.AddNode(testNode("e1", models.SeverityInfo, false))

	if g.NodeCount() != 1 {
		t.Fatalf("expected 1 node, got %d", g.NodeCount())
	}
	node, ok := g.Node("e1")
	if !ok {
		t.Fatal("node e1 missing")
	}
	if node.Severity != models.SeverityCritical {
		t.Fatalf("re-adding node must not overwrite, got severity %s", node.Severity)
	}
}

func TestAddEdgeIdempotent(t *testing.T) {
	g := NewCorrelationGraph("e1")
	g.AddNode(testNode("e1", models.SeverityWarning, true))
	g.AddNode(testNode("e2", models.SeverityInfo, false))
	g.AddEdge(testEdge("e1", "e2", models.CorrelationTime, 0.5))
	g.AddEdge(testEdge("e1", "e2", models.CorrelationTime, 0.9))

	if g.EdgeCount() != 1 {
		t.Fatalf("expected 1 edge, got %d", g.EdgeCount())
	}
	if g.Edges()[0].Weight != 0.5 {
		t.Fatalf("re-adding edge must not overwrite, got weight %f", g.Edges()[0].Weight)
	}
}

func TestNeighborsUndirected(t *testing.T) {
	g := NewCorrelationGraph("a")
	for _, id := range []string{"a", "b", "c"} {
		g.AddNode(testNode(id, models.SeverityInfo, id == "a"))
	}
	g.AddEdge(testEdge("a", "b", models.CorrelationTime, 0.5))
	g.AddEdge(testEdge("c", "a", models.CorrelationDependency, 0.4))

	neighbors := g.Neighbors("a")
	if len(neighbors) != 2 {
		t.Fatalf("expected 2 neighbors, got %v", neighbors)
	}
	if neighbors[0] != "b" || neighbors[1] != "c" {
		t.Fatalf("expected neighbors in edge insertion order, got %v", neighbors)
	}
}

func TestDegree(t *testing.T) {
	g := NewCorrelationGraph("a")
	for _, id := range []string{"a", "b", "c"} {
		g.AddNode(testNode(id, models.SeverityInfo, false))
	}
	g.AddEdge(testEdge("a", "b", models.CorrelationTime, 0.5))
	g.AddEdge(testEdge("c", "a", models.CorrelationTime, 0.5))

	if got := g.Degree("a"); got != 2 {
		t.Fatalf("expected degree 2, got %d", got)
	}
	if got := g.Degree("b"); got != 1 {
		t.Fatalf("expected degree 1, got %d", got)
	}
}
