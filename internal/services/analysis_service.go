package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/signalmesh/causegraph/internal/correlation"
	"github.com/signalmesh/causegraph/internal/metrics"
	"github.com/signalmesh/causegraph/internal/models"
	"github.com/signalmesh/causegraph/internal/rootcause"
	"github.com/signalmesh/causegraph/internal/utils"
)

// RootCauseReport bundles a correlation analysis with the root-cause
// judgment derived from it.
type RootCauseReport struct {
	Correlation correlation.Result       `json:"correlation"`
	RootCause   models.RootCauseAnalysis `json:"root_cause"`
}

// AnalysisService is the facade the API layer talks to. It owns no state
// beyond a latency tracker; each call is independent.
type AnalysisService struct {
	logger       *slog.Logger
	correlations *correlation.Analyzer
	rootCause    *rootcause.Analyzer
	latencies    *utils.LatencyTracker
}

// NewAnalysisService constructs the facade.
func NewAnalysisService(logger *slog.Logger, correlations *correlation.Analyzer, rootCause *rootcause.Analyzer) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		logger:       logger,
		correlations: correlations,
		rootCause:    rootCause,
		latencies:    utils.NewLatencyTracker(1024),
	}
}

// AnalyzeCorrelations resolves the query into a correlation result.
func (s *AnalysisService) AnalyzeCorrelations(ctx context.Context, query correlation.DiscoveryQuery) (correlation.Result, error) {
	start := time.Now()
	result, err := s.correlations.Analyze(ctx, query)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveAnalysis(duration, metrics.OutcomeError)
		s.logger.Error("correlation analysis failed",
			slog.String("event_id", query.EventID), slog.Any("error", err))
		return correlation.Result{}, err
	}

	s.observeLatency(duration)
	metrics.ObserveAnalysis(duration, metrics.OutcomeSuccess)
	s.logger.Debug("correlation analysis complete",
		slog.String("event_id", query.EventID),
		slog.Int("correlations", len(result.Correlations)),
		slog.Int64("analysis_ms", result.AnalysisTimeMs))
	return result, nil
}

// InvestigateRootCause runs the correlation analysis and feeds it into the
// root-cause analyzer. The root-cause stage is terminal: it reports failure
// through the analysis status, not through an error.
func (s *AnalysisService) InvestigateRootCause(ctx context.Context, query correlation.DiscoveryQuery) (RootCauseReport, error) {
	result, err := s.AnalyzeCorrelations(ctx, query)
	if err != nil {
		return RootCauseReport{}, err
	}

	analysis := s.rootCause.AnalyzeRootCause(ctx, result.Event, result.Correlations, result.Graph)
	return RootCauseReport{Correlation: result, RootCause: analysis}, nil
}

func (s *AnalysisService) observeLatency(duration time.Duration) {
	s.latencies.Observe(duration)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("analysis latency",
			slog.Duration("p95", s.latencies.Percentile(95)),
			slog.Int("samples", count))
	}
}

// LatencyP95 returns the current p95 analysis latency.
func (s *AnalysisService) LatencyP95() time.Duration {
	return s.latencies.Percentile(95)
}
