package graph

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/signalmesh/causegraph/internal/models"
)

// jsonGraph is the wire shape produced by ToJSON.
type jsonGraph struct {
	RootEventID string `json:"root_event_id"`
	Nodes       []Node `json:"nodes"`
	Edges       []Edge `json:"edges"`
	NodeCount   int    `json:"node_count"`
	EdgeCount   int    `json:"edge_count"`
}

// ToJSON serialises the graph as node/edge arrays plus counts.
func ToJSON(g *CorrelationGraph) ([]byte, error) {
	out := jsonGraph{
		RootEventID: g.RootEventID,
		Nodes:       g.Nodes(),
		Edges:       g.Edges(),
		NodeCount:   g.NodeCount(),
		EdgeCount:   g.EdgeCount(),
	}
	if out.Nodes == nil {
		out.Nodes = []Node{}
	}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	return json.MarshalIndent(out, "", "  ")
}

// mermaidNode renders one node, with the shape keyed by severity:
// double parentheses for critical/error, braces for warning, brackets
// otherwise.
func mermaidNode(node Node) string {
	id := sanitizeID(node.NodeID)
	label := strings.ReplaceAll(node.Label, "\"", "'")
	switch node.Severity {
	case models.SeverityCritical, models.SeverityError:
		return fmt.Sprintf("    %s((\"%s\"))", id, label)
	case models.SeverityWarning:
		return fmt.Sprintf("    %s{\"%s\"}", id, label)
	default:
		return fmt.Sprintf("    %s[\"%s\"]", id, label)
	}
}

// ToMermaid renders the graph as a Mermaid flowchart. Arrow style is keyed
// by relation type: dashed for dependency, double-line for semantic, solid
// otherwise.
func ToMermaid(g *CorrelationGraph) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	for _, node := range g.Nodes() {
		sb.WriteString(mermaidNode(node))
		sb.WriteString("\n")
	}
	for _, edge := range g.Edges() {
		src := sanitizeID(edge.SourceID)
		dst := sanitizeID(edge.TargetID)
		switch edge.RelationType {
		case models.CorrelationDependency:
			sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", src, dst))
		case models.CorrelationSemantic:
			sb.WriteString(fmt.Sprintf("    %s ==> %s\n", src, dst))
		default:
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", src, dst))
		}
	}
	return sb.String()
}

func dotFillColor(s models.Severity) string {
	switch s {
	case models.SeverityCritical:
		return "#ff4d4f"
	case models.SeverityError:
		return "#fa8c16"
	case models.SeverityWarning:
		return "#fadb14"
	default:
		return "#91d5ff"
	}
}

func dotLineStyle(t models.CorrelationType) string {
	switch t {
	case models.CorrelationDependency:
		return "dashed"
	case models.CorrelationSemantic:
		return "dotted"
	default:
		return "solid"
	}
}

// ToDOT renders the graph in Graphviz DOT format with severity-coloured
// fills and edge penwidth proportional to the correlation score.
func ToDOT(g *CorrelationGraph) string {
	var sb strings.Builder
	sb.WriteString("digraph correlations {\n")
	sb.WriteString("    rankdir=TB;\n")
	sb.WriteString("    node [style=filled, fontname=\"Helvetica\"];\n")
	for _, node := range g.Nodes() {
		label := strings.ReplaceAll(node.Label, "\"", "'")
		shape := "ellipse"
		if node.IsRoot {
			shape = "doublecircle"
		}
		sb.WriteString(fmt.Sprintf("    %q [label=%q, fillcolor=%q, shape=%s];\n",
			node.NodeID, label, dotFillColor(node.Severity), shape))
	}
	for _, edge := range g.Edges() {
		penwidth := 1.0 + 2.0*edge.Weight
		sb.WriteString(fmt.Sprintf("    %q -> %q [style=%s, penwidth=%.2f, label=%q];\n",
			edge.SourceID, edge.TargetID, dotLineStyle(edge.RelationType), penwidth, string(edge.RelationType)))
	}
	sb.WriteString("}\n")
	return sb.String()
}

// sanitizeID makes an event id safe for use as a Mermaid node identifier.
func sanitizeID(id string) string {
	replacer := strings.NewReplacer("-", "_", ".", "_", ":", "_", " ", "_", "/", "_")
	return replacer.Replace(id)
}
