package models

// CorrelationType enumerates the signal channels contributing to a
// correlation between two events.
type CorrelationType string

const (
	CorrelationTime       CorrelationType = "time"
	CorrelationDependency CorrelationType = "dependency"
	CorrelationSemantic   CorrelationType = "semantic"
	CorrelationCausal     CorrelationType = "causal"
)

// Channel weights, version 1. The weighted combination of per-channel scores
// uses these values; changing them breaks comparability with historically
// stored scores, so they are versioned constants rather than tunables.
const (
	WeightTime       = 0.40
	WeightDependency = 0.35
	WeightSemantic   = 0.25
)

// Correlation is a directed relation between a source event and a target
// event. Score and Confidence are both in [0,1]. A merged correlation carries
// the concatenated evidence of every channel that matched the pair.
type Correlation struct {
	SourceEventID   string            `json:"source_event_id"`
	TargetEventID   string            `json:"target_event_id"`
	CorrelationType CorrelationType   `json:"correlation_type"`
	Score           float64           `json:"score"`
	Confidence      float64           `json:"confidence"`
	Evidence        []string          `json:"evidence,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}
