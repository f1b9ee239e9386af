package graph

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/signalmesh/causegraph/internal/models"
)

// Builder turns events and correlations into correlation graphs and runs the
// structural queries over them.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder constructs a Builder.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger}
}

// BuildFromCorrelations creates a graph with the root event plus one node per
// correlation target present in related, and one edge per correlation.
// Correlations whose target event is missing from related are skipped so the
// graph never contains dangling edges.
func (b *Builder) BuildFromCorrelations(root models.Event, correlations []models.Correlation, related []models.Event) *CorrelationGraph {
	g := NewCorrelationGraph(root.EventID)
	g.AddNode(Node{
		NodeID:    root.EventID,
		Label:     root.Title,
		Severity:  root.Severity,
		Timestamp: root.Timestamp,
		IsRoot:    true,
	})

	byID := make(map[string]models.Event, len(related))
	for _, ev := range related {
		byID[ev.EventID] = ev
	}

	for _, corr := range correlations {
		target, ok := byID[corr.TargetEventID]
		if !ok {
			b.logger.Debug("skipping correlation without target event",
				slog.String("target_event_id", corr.TargetEventID))
			continue
		}
		g.AddNode(Node{
			NodeID:    target.EventID,
			Label:     target.Title,
			Severity:  target.Severity,
			Timestamp: target.Timestamp,
		})
		g.AddEdge(Edge{
			EdgeID:       fmt.Sprintf("%s->%s", corr.SourceEventID, corr.TargetEventID),
			SourceID:     corr.SourceEventID,
			TargetID:     corr.TargetEventID,
			RelationType: corr.CorrelationType,
			Weight:       corr.Score,
		})
	}

	return g
}

// severityWeight maps node severity onto the importance base used by
// FindCriticalPath.
func severityWeight(s models.Severity) float64 {
	switch s {
	case models.SeverityCritical:
		return 4
	case models.SeverityError:
		return 3
	case models.SeverityWarning:
		return 2
	default:
		return 1
	}
}

// FindCriticalPath ranks node ids by a local importance heuristic:
// severity weight, scaled by connection count, with a root bonus. This is a
// deliberate lightweight substitute for a centrality algorithm; the exact
// formula is part of the contract.
func (b *Builder) FindCriticalPath(g *CorrelationGraph) []string {
	type ranked struct {
		id    string
		score float64
	}

	scores := make([]ranked, 0, g.NodeCount())
	for _, node := range g.Nodes() {
		score := severityWeight(node.Severity) * (1 + 0.2*float64(g.Degree(node.NodeID)))
		if node.IsRoot {
			score *= 1.5
		}
		scores = append(scores, ranked{id: node.NodeID, score: score})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	ids := make([]string, 0, len(scores))
	for _, r := range scores {
		ids = append(ids, r.id)
	}
	return ids
}

// Subgraph returns a new graph containing the nodes within depth hops of
// center (undirected BFS) and the edges whose both endpoints are included.
// Depth 0 yields only the center node. The result shares no mutable state
// with the parent graph.
func (b *Builder) Subgraph(g *CorrelationGraph, centerNodeID string, depth int) *CorrelationGraph {
	sub := NewCorrelationGraph(g.RootEventID)
	center, ok := g.Node(centerNodeID)
	if !ok {
		return sub
	}

	included := map[string]struct{}{centerNodeID: {}}
	frontier := []string{centerNodeID}
	for hop := 0; hop < depth; hop++ {
		next := make([]string, 0)
		for _, id := range frontier {
			for _, neighbor := range g.Neighbors(id) {
				if _, seen := included[neighbor]; seen {
					continue
				}
				included[neighbor] = struct{}{}
				next = append(next, neighbor)
			}
		}
		if len(next) == 0 {
			break
		}
		frontier = next
	}

	sub.AddNode(center)
	for _, node := range g.Nodes() {
		if _, ok := included[node.NodeID]; ok {
			sub.AddNode(node)
		}
	}
	for _, edge := range g.Edges() {
		if _, srcIn := included[edge.SourceID]; !srcIn {
			continue
		}
		if _, dstIn := included[edge.TargetID]; !dstIn {
			continue
		}
		sub.AddEdge(edge)
	}
	return sub
}

// Cluster describes one connected component of the graph.
type Cluster struct {
	ClusterID            int                     `json:"cluster_id"`
	Size                 int                     `json:"size"`
	NodeIDs              []string                `json:"node_ids"`
	SeverityDistribution map[models.Severity]int `json:"severity_distribution"`
	HasRoot              bool                    `json:"has_root"`
}

// AnalyzeClusters partitions the graph into undirected connected components
// via DFS and returns them sorted by size descending.
func (b *Builder) AnalyzeClusters(g *CorrelationGraph) []Cluster {
	visited := make(map[string]struct{}, g.NodeCount())
	clusters := make([]Cluster, 0)

	for _, start := range g.Nodes() {
		if _, ok := visited[start.NodeID]; ok {
			continue
		}

		members := make([]string, 0)
		stack := []string{start.NodeID}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, ok := visited[id]; ok {
				continue
			}
			visited[id] = struct{}{}
			members = append(members, id)
			stack = append(stack, g.Neighbors(id)...)
		}

		cluster := Cluster{
			Size:                 len(members),
			NodeIDs:              members,
			SeverityDistribution: make(map[models.Severity]int),
		}
		for _, id := range members {
			node, _ := g.Node(id)
			cluster.SeverityDistribution[node.Severity]++
			if node.IsRoot {
				cluster.HasRoot = true
			}
		}
		clusters = append(clusters, cluster)
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].Size > clusters[j].Size
	})
	for i := range clusters {
		clusters[i].ClusterID = i
	}
	return clusters
}
