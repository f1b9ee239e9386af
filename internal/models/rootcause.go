package models

import "time"

// AnalysisStatus tracks the lifecycle of a root-cause analysis.
type AnalysisStatus string

const (
	AnalysisPending   AnalysisStatus = "pending"
	AnalysisCompleted AnalysisStatus = "completed"
	AnalysisFailed    AnalysisStatus = "failed"
)

// EvidenceType categorises a piece of supporting evidence.
type EvidenceType string

const (
	EvidenceCorrelation EvidenceType = "correlation"
	EvidenceHistorical  EvidenceType = "historical"
	EvidenceLLM         EvidenceType = "llm"
)

// Evidence is one human-readable justification attached to a hypothesis or
// final analysis.
type Evidence struct {
	EvidenceType EvidenceType `json:"evidence_type"`
	Description  string       `json:"description"`
}

// RootCauseHypothesis is a candidate explanation prior to final judgment.
// Hypotheses are never mutated after creation; an updated confidence means a
// replacement hypothesis.
type RootCauseHypothesis struct {
	Description         string     `json:"description"`
	Confidence          float64    `json:"confidence"`
	Evidence            []Evidence `json:"evidence,omitempty"`
	SupportingEvents    []string   `json:"supporting_events,omitempty"`
	ContradictingEvents []string   `json:"contradicting_events,omitempty"`
}

// RecommendationType orders remediation horizons.
type RecommendationType string

const (
	RecommendationImmediate  RecommendationType = "immediate"
	RecommendationShortTerm  RecommendationType = "short_term"
	RecommendationLongTerm   RecommendationType = "long_term"
	RecommendationPreventive RecommendationType = "preventive"
)

// Recommendation is a remediation suggestion. Priority 1 is highest. The
// consumer owns execution state; the engine only generates these.
type Recommendation struct {
	RecommendationType RecommendationType `json:"recommendation_type"`
	Priority           int                `json:"priority"`
	Description        string             `json:"description"`
	EstimatedEffort    string             `json:"estimated_effort,omitempty"`
	Steps              []string           `json:"steps,omitempty"`
}

// HistoricalCase is a previously resolved incident returned by the knowledge
// base, with its similarity to the event under analysis.
type HistoricalCase struct {
	CaseID          string   `json:"case_id"`
	Title           string   `json:"title"`
	RootCause       string   `json:"root_cause"`
	Resolution      string   `json:"resolution"`
	SimilarityScore float64  `json:"similarity_score"`
	LessonsLearned  []string `json:"lessons_learned,omitempty"`
}

// RootCauseAnalysis is the terminal aggregate produced by a single analysis
// run. Callers always receive one, even when the run failed internally.
type RootCauseAnalysis struct {
	AnalysisID          string                `json:"analysis_id"`
	EventID             string                `json:"event_id"`
	Status              AnalysisStatus        `json:"status"`
	RootCause           string                `json:"root_cause"`
	Confidence          float64               `json:"confidence"`
	Hypotheses          []RootCauseHypothesis `json:"hypotheses,omitempty"`
	EvidenceChain       []Evidence            `json:"evidence_chain,omitempty"`
	ContributingFactors []string              `json:"contributing_factors,omitempty"`
	Recommendations     []Recommendation      `json:"recommendations,omitempty"`
	SimilarCases        []HistoricalCase      `json:"similar_historical_cases,omitempty"`
	Metadata            map[string]string     `json:"metadata,omitempty"`
	CreatedAt           time.Time             `json:"created_at"`
}
