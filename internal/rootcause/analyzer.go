package rootcause

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/signalmesh/causegraph/internal/graph"
	"github.com/signalmesh/causegraph/internal/metrics"
	"github.com/signalmesh/causegraph/internal/models"
)

// KnowledgeBase defines the historical-case lookup used during analysis.
type KnowledgeBase interface {
	SimilarHistoricalCases(ctx context.Context, event models.Event, maxResults int) ([]models.HistoricalCase, error)
}

// LLMClient defines the single-exchange reasoning call. The analyzer parses
// the free-text reply; a nil client or a failing call degrades to the
// deterministic fallback.
type LLMClient interface {
	SendMessage(ctx context.Context, message, systemPrompt string) (string, error)
}

const (
	highScoreCutoff     = 0.7
	caseSimilarityFloor = 0.7
	maxHypotheses       = 5
	maxFactors          = 10
	maxHistoricalCases  = 5
)

// Analyzer produces terminal root-cause analyses. Every call returns a
// RootCauseAnalysis, completed or failed; errors never propagate to the
// caller as exceptions.
type Analyzer struct {
	logger    *slog.Logger
	knowledge KnowledgeBase
	llm       LLMClient
}

// NewAnalyzer constructs a root-cause Analyzer. knowledge and llm may be nil;
// the analysis then runs on correlations alone with the basic fallback.
func NewAnalyzer(logger *slog.Logger, knowledge KnowledgeBase, llm LLMClient) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{logger: logger, knowledge: knowledge, llm: llm}
}

// AnalyzeRootCause runs the full hypothesis-and-judgment flow for the event
// and its merged correlations.
func (a *Analyzer) AnalyzeRootCause(ctx context.Context, event models.Event, correlations []models.Correlation, g *graph.CorrelationGraph) (analysis models.RootCauseAnalysis) {
	analysis = models.RootCauseAnalysis{
		AnalysisID: uuid.NewString(),
		EventID:    event.EventID,
		Status:     models.AnalysisPending,
		Metadata:   make(map[string]string),
		CreatedAt:  time.Now().UTC(),
	}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("root cause analysis panicked", slog.Any("panic", r))
			a.fail(&analysis, fmt.Sprintf("%v", r))
		}
		metrics.ObserveRootCause(string(analysis.Status))
	}()

	snapshot := buildContext(event, correlations, g)

	cases, err := a.fetchHistoricalCases(ctx, event)
	if err != nil {
		a.logger.Error("historical case lookup failed", slog.Any("error", err))
		a.fail(&analysis, err.Error())
		return analysis
	}
	analysis.SimilarCases = cases

	hypotheses := generateHypotheses(correlations, cases)
	analysis.Hypotheses = hypotheses

	rootCause, confidence, evidence := a.judge(ctx, snapshot, hypotheses)
	analysis.RootCause = rootCause
	analysis.Confidence = confidence
	analysis.EvidenceChain = evidence

	analysis.ContributingFactors = contributingFactors(correlations, hypotheses)
	analysis.Recommendations = buildRecommendations(rootCause, cases)
	analysis.Status = models.AnalysisCompleted
	return analysis
}

func (a *Analyzer) fail(analysis *models.RootCauseAnalysis, msg string) {
	analysis.Status = models.AnalysisFailed
	analysis.Confidence = 0.0
	if analysis.Metadata == nil {
		analysis.Metadata = make(map[string]string)
	}
	analysis.Metadata["error"] = msg
}

func (a *Analyzer) fetchHistoricalCases(ctx context.Context, event models.Event) ([]models.HistoricalCase, error) {
	if a.knowledge == nil {
		return nil, nil
	}
	return a.knowledge.SimilarHistoricalCases(ctx, event, maxHistoricalCases)
}

// judge asks the LLM for the final root cause; when the LLM is absent or
// fails, it degrades to the deterministic basic analysis.
func (a *Analyzer) judge(ctx context.Context, snapshot analysisContext, hypotheses []models.RootCauseHypothesis) (string, float64, []models.Evidence) {
	if a.llm != nil {
		reply, err := a.llm.SendMessage(ctx, buildPrompt(snapshot, hypotheses), systemPrompt)
		if err == nil {
			verdict := parseVerdict(reply)
			evidence := make([]models.Evidence, 0, len(verdict.Evidence))
			for _, line := range verdict.Evidence {
				evidence = append(evidence, models.Evidence{EvidenceType: models.EvidenceLLM, Description: line})
			}
			return verdict.RootCause, verdict.Confidence, evidence
		}
		a.logger.Warn("llm judgment unavailable, using basic analysis", slog.Any("error", err))
	}
	return a.basicAnalysis(hypotheses)
}

// basicAnalysis is the deterministic fallback: the top hypothesis carries
// the answer and its evidence, with the aggregate confidence formula.
func (a *Analyzer) basicAnalysis(hypotheses []models.RootCauseHypothesis) (string, float64, []models.Evidence) {
	if len(hypotheses) == 0 {
		return "Unable to determine root cause", 0.0, nil
	}
	top := hypotheses[0]
	return top.Description, OverallConfidence(hypotheses), top.Evidence
}

// generateHypotheses derives candidates from high-score correlations and
// from similar historical cases, ranked by confidence, capped at
// maxHypotheses.
func generateHypotheses(correlations []models.Correlation, cases []models.HistoricalCase) []models.RootCauseHypothesis {
	hypotheses := make([]models.RootCauseHypothesis, 0)

	for _, corr := range correlations {
		if corr.Score < highScoreCutoff {
			continue
		}
		evidence := make([]models.Evidence, 0, len(corr.Evidence))
		for _, line := range corr.Evidence {
			evidence = append(evidence, models.Evidence{EvidenceType: models.EvidenceCorrelation, Description: line})
		}
		hypotheses = append(hypotheses, models.RootCauseHypothesis{
			Description: fmt.Sprintf("Event %s is the likely trigger (%s correlation, score %.2f)",
				corr.TargetEventID, corr.CorrelationType, corr.Score),
			Confidence:       corr.Score * 0.8,
			Evidence:         evidence,
			SupportingEvents: []string{corr.TargetEventID},
		})
	}

	for _, c := range cases {
		if c.SimilarityScore < caseSimilarityFloor {
			continue
		}
		hypotheses = append(hypotheses, models.RootCauseHypothesis{
			Description: fmt.Sprintf("Recurrence of %q: %s", c.Title, c.RootCause),
			Confidence:  c.SimilarityScore * 0.7,
			Evidence: []models.Evidence{
				{EvidenceType: models.EvidenceHistorical, Description: fmt.Sprintf("historical case %s, similarity %.2f", c.CaseID, c.SimilarityScore)},
			},
		})
	}

	sort.SliceStable(hypotheses, func(i, j int) bool {
		return hypotheses[i].Confidence > hypotheses[j].Confidence
	})
	if len(hypotheses) > maxHypotheses {
		hypotheses = hypotheses[:maxHypotheses]
	}
	return hypotheses
}

// contributingFactors lists secondary signals: high-score correlations
// beyond the primary and the descriptions of secondary hypotheses.
func contributingFactors(correlations []models.Correlation, hypotheses []models.RootCauseHypothesis) []string {
	factors := make([]string, 0)

	first := true
	for _, corr := range correlations {
		if corr.Score < highScoreCutoff {
			continue
		}
		if first {
			first = false
			continue
		}
		factors = append(factors, fmt.Sprintf("strong %s correlation with event %s (score %.2f)",
			corr.CorrelationType, corr.TargetEventID, corr.Score))
	}
	for i, hyp := range hypotheses {
		if i == 0 {
			continue
		}
		factors = append(factors, hyp.Description)
	}

	if len(factors) > maxFactors {
		factors = factors[:maxFactors]
	}
	return factors
}

func buildRecommendations(rootCause string, cases []models.HistoricalCase) []models.Recommendation {
	recommendations := []models.Recommendation{
		{
			RecommendationType: models.RecommendationImmediate,
			Priority:           1,
			Description:        "Address the identified root cause",
			EstimatedEffort:    "varies",
			Steps: []string{
				fmt.Sprintf("Validate the suspected root cause: %s", rootCause),
				"Mitigate impact on affected components",
				"Confirm recovery via monitoring signals",
			},
		},
	}

	shortTerm := 0
	for _, c := range cases {
		if shortTerm >= 2 {
			break
		}
		if len(c.LessonsLearned) == 0 {
			continue
		}
		recommendations = append(recommendations, models.Recommendation{
			RecommendationType: models.RecommendationShortTerm,
			Priority:           2,
			Description:        fmt.Sprintf("Apply lessons from %q", c.Title),
			EstimatedEffort:    "days",
			Steps:              append([]string(nil), c.LessonsLearned...),
		})
		shortTerm++
	}

	recommendations = append(recommendations, models.Recommendation{
		RecommendationType: models.RecommendationPreventive,
		Priority:           3,
		Description:        "Reduce recurrence risk",
		EstimatedEffort:    "weeks",
		Steps: []string{
			"Add alerting on the leading indicators of this failure",
			"Review recent change and deployment procedures",
			"Update the incident runbook with findings from this analysis",
		},
	})
	return recommendations
}
