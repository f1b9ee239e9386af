package models

import "time"

// EventType enumerates monitoring signal categories.
type EventType string

const (
	EventTypeAlert         EventType = "alert"
	EventTypeIncident      EventType = "incident"
	EventTypeChange        EventType = "change"
	EventTypeDeployment    EventType = "deployment"
	EventTypeMetricAnomaly EventType = "metric_anomaly"
	EventTypeLogPattern    EventType = "log_pattern"
	EventTypeSecurity      EventType = "security"
)

// Severity captures impact levels, ordered info < warning < error < critical.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Rank returns the ordinal position of the severity for comparisons.
// Unknown severities rank below info.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Event describes a single monitoring signal. Events are produced by an
// external collector and treated as immutable once constructed.
type Event struct {
	EventID            string            `json:"event_id"`
	EventType          EventType         `json:"event_type"`
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	Severity           Severity          `json:"severity"`
	Timestamp          time.Time         `json:"timestamp"`
	SourceSystem       string            `json:"source_system"`
	AffectedComponents []string          `json:"affected_components,omitempty"`
	Tags               []string          `json:"tags,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}
