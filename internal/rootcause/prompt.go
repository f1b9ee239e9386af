package rootcause

import (
	"fmt"
	"strings"

	"github.com/signalmesh/causegraph/internal/graph"
	"github.com/signalmesh/causegraph/internal/models"
)

const systemPrompt = `You are an IT operations root-cause analyst. Given an event,
its correlated events and candidate hypotheses, identify the most likely root
cause. Reply in exactly this format:

ROOT_CAUSE: <one-line root cause>
CONFIDENCE: <number between 0 and 1>
EVIDENCE:
- <supporting observation>
- <supporting observation>`

// analysisContext is the immutable snapshot handed to the LLM prompt.
type analysisContext struct {
	event        models.Event
	correlations []string
	nodeCount    int
	edgeCount    int
}

func buildContext(event models.Event, correlations []models.Correlation, g *graph.CorrelationGraph) analysisContext {
	summaries := make([]string, 0, len(correlations))
	for _, corr := range correlations {
		summaries = append(summaries, fmt.Sprintf("%s -> %s (%s, score %.2f, confidence %.2f)",
			corr.SourceEventID, corr.TargetEventID, corr.CorrelationType, corr.Score, corr.Confidence))
	}

	ctx := analysisContext{event: event, correlations: summaries}
	if g != nil {
		ctx.nodeCount = g.NodeCount()
		ctx.edgeCount = g.EdgeCount()
	}
	return ctx
}

func buildPrompt(snapshot analysisContext, hypotheses []models.RootCauseHypothesis) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Event under analysis:\n")
	fmt.Fprintf(&sb, "  id: %s\n  type: %s\n  severity: %s\n  title: %s\n  description: %s\n",
		snapshot.event.EventID, snapshot.event.EventType, snapshot.event.Severity,
		snapshot.event.Title, snapshot.event.Description)
	if len(snapshot.event.AffectedComponents) > 0 {
		fmt.Fprintf(&sb, "  affected components: %s\n", strings.Join(snapshot.event.AffectedComponents, ", "))
	}

	fmt.Fprintf(&sb, "\nCorrelation graph: %d nodes, %d edges\n", snapshot.nodeCount, snapshot.edgeCount)

	if len(snapshot.correlations) > 0 {
		sb.WriteString("\nCorrelated events:\n")
		for _, line := range snapshot.correlations {
			fmt.Fprintf(&sb, "  - %s\n", line)
		}
	}

	if len(hypotheses) > 0 {
		sb.WriteString("\nCandidate hypotheses:\n")
		for _, hyp := range hypotheses {
			fmt.Fprintf(&sb, "  - %s (confidence %.2f)\n", hyp.Description, hyp.Confidence)
		}
	}

	sb.WriteString("\nDetermine the most likely root cause.")
	return sb.String()
}
