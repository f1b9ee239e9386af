package graph

import (
	"time"

	"github.com/signalmesh/causegraph/internal/models"
)

// Node is the graph projection of an event.
type Node struct {
	NodeID    string          `json:"node_id"`
	Label     string          `json:"label"`
	Severity  models.Severity `json:"severity"`
	Timestamp time.Time       `json:"timestamp"`
	IsRoot    bool            `json:"is_root"`
}

// Edge is the graph projection of a correlation. Weight carries the
// correlation score.
type Edge struct {
	EdgeID       string                 `json:"edge_id"`
	SourceID     string                 `json:"source_id"`
	TargetID     string                 `json:"target_id"`
	RelationType models.CorrelationType `json:"relation_type"`
	Weight       float64                `json:"weight"`
}

// CorrelationGraph holds the nodes and edges discovered around a root event.
// Nodes and edges keep insertion order for iteration; ids are unique and
// re-adding an existing id is a no-op. The graph is not safe for concurrent
// mutation; callers materialise it fully before querying or exporting.
type CorrelationGraph struct {
	RootEventID string

	nodes     []Node
	edges     []Edge
	nodeIndex map[string]int
	edgeIndex map[string]int
}

// NewCorrelationGraph creates an empty graph anchored on the root event id.
func NewCorrelationGraph(rootEventID string) *CorrelationGraph {
	return &CorrelationGraph{
		RootEventID: rootEventID,
		nodeIndex:   make(map[string]int),
		edgeIndex:   make(map[string]int),
	}
}

// AddNode inserts a node unless its id is already present.
func (g *CorrelationGraph) AddNode(node Node) {
	if _, ok := g.nodeIndex[node.NodeID]; ok {
		return
	}
	g.nodeIndex[node.NodeID] = len(g.nodes)
	g.nodes = append(g.nodes, node)
}

// AddEdge inserts an edge unless its id is already present.
func (g *CorrelationGraph) AddEdge(edge Edge) {
	if _, ok := g.edgeIndex[edge.EdgeID]; ok {
		return
	}
	g.edgeIndex[edge.EdgeID] = len(g.edges)
	g.edges = append(g.edges, edge)
}

// Node returns the node with the given id.
func (g *CorrelationGraph) Node(id string) (Node, bool) {
	idx, ok := g.nodeIndex[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[idx], true
}

// Nodes returns nodes in insertion order. The slice is shared; callers must
// not mutate it.
func (g *CorrelationGraph) Nodes() []Node {
	return g.nodes
}

// Edges returns edges in insertion order. The slice is shared; callers must
// not mutate it.
func (g *CorrelationGraph) Edges() []Edge {
	return g.edges
}

// NodeCount returns the number of nodes.
func (g *CorrelationGraph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *CorrelationGraph) EdgeCount() int {
	return len(g.edges)
}

// Neighbors returns the ids of nodes connected to the given node by any edge,
// treating edges as undirected. Order follows edge insertion order.
func (g *CorrelationGraph) Neighbors(nodeID string) []string {
	neighbors := make([]string, 0)
	seen := make(map[string]struct{})
	for _, edge := range g.edges {
		var other string
		switch nodeID {
		case edge.SourceID:
			other = edge.TargetID
		case edge.TargetID:
			other = edge.SourceID
		default:
			continue
		}
		if _, ok := seen[other]; ok {
			continue
		}
		seen[other] = struct{}{}
		neighbors = append(neighbors, other)
	}
	return neighbors
}

// Degree returns the number of edges touching the node.
func (g *CorrelationGraph) Degree(nodeID string) int {
	count := 0
	for _, edge := range g.edges {
		if edge.SourceID == nodeID || edge.TargetID == nodeID {
			count++
		}
	}
	return count
}
