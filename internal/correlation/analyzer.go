package correlation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/signalmesh/causegraph/internal/graph"
	"github.com/signalmesh/causegraph/internal/metrics"
	"github.com/signalmesh/causegraph/internal/models"
	"github.com/signalmesh/causegraph/internal/utils"
)

// ErrEventNotFound is returned when the query's target event id does not
// resolve against the event store.
var ErrEventNotFound = utils.ErrEventNotFound

const (
	defaultTimeWindow = time.Hour
	defaultMaxResults = 50
	highScoreCutoff   = 0.7
)

// DiscoveryQuery parameterises one correlation analysis.
type DiscoveryQuery struct {
	EventID          string                   `json:"event_id"`
	TimeWindow       time.Duration            `json:"time_window"`
	CorrelationTypes []models.CorrelationType `json:"correlation_types,omitempty"`
	MinScore         float64                  `json:"min_score"`
	MaxResults       int                      `json:"max_results"`
}

// Result is the outcome of Analyze: the merged correlations, the graph built
// from them, and a human-readable summary.
type Result struct {
	AnalysisID     string                  `json:"analysis_id"`
	EventID        string                  `json:"event_id"`
	Event          models.Event            `json:"-"`
	Correlations   []models.Correlation    `json:"correlations"`
	Graph          *graph.CorrelationGraph `json:"-"`
	Summary        string                  `json:"summary"`
	AnalysisTimeMs int64                   `json:"analysis_time_ms"`
	CreatedAt      time.Time               `json:"created_at"`
}

// AnalyzerConfig carries the analyzer tunables. Zero values fall back to the
// package defaults.
type AnalyzerConfig struct {
	// ChannelTimeout bounds each channel's collaborator calls so one hung
	// dependency cannot stall the analysis; zero disables the bound.
	ChannelTimeout time.Duration
	// DefaultWindow is the time window applied when a query omits one.
	DefaultWindow time.Duration
}

// Analyzer orchestrates the channel scorers: concurrent fan-out, merge,
// filter, rank. Analyzer holds no per-call state; every invocation is
// independent.
type Analyzer struct {
	logger         *slog.Logger
	store          EventStore
	scorer         *Scorer
	builder        *graph.Builder
	channelTimeout time.Duration
	defaultWindow  time.Duration
}

// NewAnalyzer constructs an Analyzer.
func NewAnalyzer(logger *slog.Logger, store EventStore, scorer *Scorer, builder *graph.Builder, cfg AnalyzerConfig) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if builder == nil {
		builder = graph.NewBuilder(logger)
	}
	if cfg.DefaultWindow <= 0 {
		cfg.DefaultWindow = defaultTimeWindow
	}
	return &Analyzer{
		logger:         logger,
		store:          store,
		scorer:         scorer,
		builder:        builder,
		channelTimeout: cfg.ChannelTimeout,
		defaultWindow:  cfg.DefaultWindow,
	}
}

type channelResult struct {
	channel models.CorrelationType
	matches []Match
	err     error
}

// FindCorrelations runs the requested channels concurrently, merges the
// per-channel matches into combined correlations, filters by minScore and
// returns at most maxResults entries sorted by descending score. A failing
// channel is logged and excluded; the remaining channels still contribute.
func (a *Analyzer) FindCorrelations(ctx context.Context, event models.Event, window time.Duration, types []models.CorrelationType, minScore float64, maxResults int) ([]models.Correlation, error) {
	merged, _, err := a.findCorrelations(ctx, event, window, types, minScore, maxResults)
	return merged, err
}

func (a *Analyzer) findCorrelations(ctx context.Context, event models.Event, window time.Duration, types []models.CorrelationType, minScore float64, maxResults int) ([]models.Correlation, map[string]models.Event, error) {
	if a.scorer == nil {
		return nil, nil, fmt.Errorf("scorer not configured")
	}
	if window <= 0 {
		window = a.defaultWindow
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if len(types) == 0 {
		types = []models.CorrelationType{models.CorrelationTime, models.CorrelationDependency, models.CorrelationSemantic}
	}

	results := make(map[models.CorrelationType]channelResult, len(types))
	resultCh := make(chan channelResult, len(types))

	var wg sync.WaitGroup
	for _, channel := range types {
		channel := channel
		wg.Add(1)
		go func() {
			defer wg.Done()
			chCtx := ctx
			if a.channelTimeout > 0 {
				var cancel context.CancelFunc
				chCtx, cancel = context.WithTimeout(ctx, a.channelTimeout)
				defer cancel()
			}
			matches, err := a.runChannel(chCtx, channel, event, window)
			resultCh <- channelResult{channel: channel, matches: matches, err: err}
		}()
	}
	wg.Wait()
	close(resultCh)

	for res := range resultCh {
		results[res.channel] = res
	}

	// Merge in fixed channel order so discovery order, and therefore the
	// stable tie-break, is deterministic across runs.
	merger := newMerger(a.scorer.cfg)
	for _, channel := range []models.CorrelationType{models.CorrelationTime, models.CorrelationDependency, models.CorrelationSemantic, models.CorrelationCausal} {
		res, ok := results[channel]
		if !ok {
			continue
		}
		if res.err != nil {
			metrics.ObserveChannelFailure(string(channel))
			a.logger.Warn("correlation channel failed",
				slog.String("channel", string(channel)),
				slog.Any("error", res.err))
			continue
		}
		merger.add(res.matches)
	}

	merged, events := merger.finish()

	filtered := merged[:0]
	for _, corr := range merged {
		if corr.Score >= minScore {
			filtered = append(filtered, corr)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Score > filtered[j].Score
	})
	if len(filtered) > maxResults {
		filtered = filtered[:maxResults]
	}
	return filtered, events, nil
}

func (a *Analyzer) runChannel(ctx context.Context, channel models.CorrelationType, event models.Event, window time.Duration) ([]Match, error) {
	switch channel {
	case models.CorrelationTime:
		return a.scorer.TimeChannel(ctx, event, window)
	case models.CorrelationDependency:
		return a.scorer.DependencyChannel(ctx, event)
	case models.CorrelationSemantic:
		return a.scorer.SemanticChannel(ctx, event)
	default:
		return nil, fmt.Errorf("unsupported correlation channel %q", channel)
	}
}

// TargetEvent resolves an event id against the store, returning
// ErrEventNotFound when it does not exist.
func (a *Analyzer) TargetEvent(ctx context.Context, eventID string) (models.Event, error) {
	if a.store == nil {
		return models.Event{}, fmt.Errorf("event store not configured")
	}
	event, err := a.store.GetEvent(ctx, eventID)
	if err != nil {
		return models.Event{}, fmt.Errorf("fetch event %s: %w", eventID, err)
	}
	if event == nil {
		return models.Event{}, fmt.Errorf("event %s: %w", eventID, ErrEventNotFound)
	}
	return *event, nil
}

// Analyze resolves the query's target event, finds its correlations, builds
// the correlation graph and produces a summary. A missing target event is an
// error; partial channel failures are not.
func (a *Analyzer) Analyze(ctx context.Context, query DiscoveryQuery) (Result, error) {
	start := time.Now()

	event, err := a.TargetEvent(ctx, query.EventID)
	if err != nil {
		return Result{}, err
	}

	correlations, eventsByID, err := a.findCorrelations(ctx, event, query.TimeWindow, query.CorrelationTypes, query.MinScore, query.MaxResults)
	if err != nil {
		return Result{}, err
	}

	related := make([]models.Event, 0, len(eventsByID))
	for _, corr := range correlations {
		if ev, ok := eventsByID[corr.TargetEventID]; ok {
			related = append(related, ev)
		}
	}
	g := a.builder.BuildFromCorrelations(event, correlations, related)

	return Result{
		AnalysisID:     uuid.NewString(),
		EventID:        event.EventID,
		Event:          event,
		Correlations:   correlations,
		Graph:          g,
		Summary:        summarize(correlations),
		AnalysisTimeMs: time.Since(start).Milliseconds(),
		CreatedAt:      time.Now().UTC(),
	}, nil
}

func summarize(correlations []models.Correlation) string {
	if len(correlations) == 0 {
		return "no correlated events found"
	}

	byType := make(map[models.CorrelationType]int)
	high := 0
	for _, corr := range correlations {
		byType[corr.CorrelationType]++
		if corr.Score >= highScoreCutoff {
			high++
		}
	}

	parts := make([]string, 0, len(byType))
	for _, channel := range []models.CorrelationType{models.CorrelationTime, models.CorrelationDependency, models.CorrelationSemantic, models.CorrelationCausal} {
		if count := byType[channel]; count > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", channel, count))
		}
	}

	return fmt.Sprintf("%d correlated events (%s); %d with score >= %.1f",
		len(correlations), strings.Join(parts, ", "), high, highScoreCutoff)
}
