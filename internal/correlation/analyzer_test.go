package correlation

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/signalmesh/causegraph/internal/models"
	"github.com/signalmesh/causegraph/internal/repo"
)

func newTestAnalyzer(store EventStore, cmdb CMDB, vector VectorSearch) *Analyzer {
	scorer := NewScorer(ScoringConfig{}, store, cmdb, vector)
	return NewAnalyzer(nil, store, scorer, nil, AnalyzerConfig{})
}

func TestFindCorrelationsEndToEnd(t *testing.T) {
	target := eventAt("ev-1", 0)
	store := &fakeEventStore{
		events:  map[string]models.Event{"ev-1": target},
		inRange: []models.Event{target, eventAt("ev-2", 10*time.Minute)},
	}
	a := newTestAnalyzer(store, &fakeCMDB{}, &fakeVectorSearch{})

	got, err := a.FindCorrelations(context.Background(), target, time.Hour, []models.CorrelationType{models.CorrelationTime}, 0.1, 10)
	if err != nil {
		t.Fatalf("FindCorrelations: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 correlation, got %d", len(got))
	}

	// time channel: (1 - 600/3600) * (1 - 0.1*600/3600) = 0.81944...
	// merged: 0.40 * 0.81944 = 0.32777...
	timeScore := (1 - 600.0/3600.0) * (1 - 0.1*(600.0/3600.0))
	want := timeScore * models.WeightTime
	if math.Abs(got[0].Score-want) > 1e-9 {
		t.Fatalf("merged score = %f, want %f", got[0].Score, want)
	}
	if got[0].CorrelationType != models.CorrelationTime {
		t.Fatalf("type = %s", got[0].CorrelationType)
	}
}

func TestFindCorrelationsMergesChannels(t *testing.T) {
	target := eventAt("ev-1", 0)
	target.AffectedComponents = []string{"db"}
	other := eventAt("ev-2", 10*time.Minute)

	store := &fakeEventStore{
		events:      map[string]models.Event{"ev-1": target},
		inRange:     []models.Event{target, other},
		byComponent: map[string][]models.Event{"cache": {other}},
	}
	cmdb := &fakeCMDB{deps: []repo.Dependency{
		{ComponentID: "cache", Relationship: "upstream", Type: "standard", Distance: 1},
	}}
	vector := &fakeVectorSearch{results: []repo.SimilarEvent{
		{Event: other, Similarity: 0.8},
	}}
	a := newTestAnalyzer(store, cmdb, vector)

	got, err := a.FindCorrelations(context.Background(), target, time.Hour, nil, 0.0, 10)
	if err != nil {
		t.Fatalf("FindCorrelations: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("channels matching the same pair must merge, got %d correlations", len(got))
	}

	corr := got[0]
	timeScore := (1 - 600.0/3600.0) * (1 - 0.1*(600.0/3600.0))
	want := timeScore*models.WeightTime + 0.5*models.WeightDependency + 0.8*models.WeightSemantic
	if math.Abs(corr.Score-want) > 1e-9 {
		t.Fatalf("combined score = %f, want %f", corr.Score, want)
	}
	// per-channel confidences 0.7, 0.8, 0.72; merged keeps the maximum
	if corr.Confidence != 0.8 {
		t.Fatalf("merged confidence = %f", corr.Confidence)
	}
	if len(corr.Evidence) != 3 {
		t.Fatalf("evidence must concatenate across channels, got %v", corr.Evidence)
	}
	for _, key := range []string{"delta_seconds", "component", "similarity"} {
		if _, ok := corr.Metadata[key]; !ok {
			t.Fatalf("metadata must union across channels, missing %q: %v", key, corr.Metadata)
		}
	}
}

func TestFindCorrelationsFilterSortTruncate(t *testing.T) {
	target := eventAt("ev-1", 0)
	store := &fakeEventStore{inRange: []models.Event{
		eventAt("ev-2", 5*time.Minute),
		eventAt("ev-3", 30*time.Minute),
		eventAt("ev-4", 50*time.Minute),
	}}
	a := newTestAnalyzer(store, &fakeCMDB{}, &fakeVectorSearch{})

	got, err := a.FindCorrelations(context.Background(), target, time.Hour, []models.CorrelationType{models.CorrelationTime}, 0.1, 2)
	if err != nil {
		t.Fatalf("FindCorrelations: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected truncation to 2 results, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Score < got[i].Score {
			t.Fatalf("results must be sorted by score descending: %f before %f", got[i-1].Score, got[i].Score)
		}
	}
	for _, corr := range got {
		if corr.Score < 0.1 {
			t.Fatalf("score %f below minScore survived filtering", corr.Score)
		}
		if corr.Score < 0 || corr.Score > 1 {
			t.Fatalf("score %f outside [0,1]", corr.Score)
		}
	}
	if got[0].TargetEventID != "ev-2" {
		t.Fatalf("closest event must rank first, got %s", got[0].TargetEventID)
	}
}

func TestFindCorrelationsChannelFailureIsolated(t *testing.T) {
	target := eventAt("ev-1", 0)
	store := &fakeEventStore{inRange: []models.Event{eventAt("ev-2", 10*time.Minute)}}
	vector := &fakeVectorSearch{err: errors.New("vector store down")}
	a := newTestAnalyzer(store, &fakeCMDB{}, vector)

	got, err := a.FindCorrelations(context.Background(), target, time.Hour,
		[]models.CorrelationType{models.CorrelationTime, models.CorrelationSemantic}, 0.1, 10)
	if err != nil {
		t.Fatalf("a failing channel must not fail the analysis: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("surviving channels must still contribute, got %d correlations", len(got))
	}
}

func TestFindCorrelationsConfiguredDefaultWindow(t *testing.T) {
	target := eventAt("ev-1", 0)
	store := &fakeEventStore{}
	scorer := NewScorer(ScoringConfig{}, store, nil, nil)
	a := NewAnalyzer(nil, store, scorer, nil, AnalyzerConfig{DefaultWindow: 2 * time.Hour})

	if _, err := a.FindCorrelations(context.Background(), target, 0, []models.CorrelationType{models.CorrelationTime}, 0, 10); err != nil {
		t.Fatalf("FindCorrelations: %v", err)
	}
	if !store.gotStart.Equal(target.Timestamp.Add(-2 * time.Hour)) {
		t.Fatalf("range start = %s, want configured default window", store.gotStart)
	}
	if !store.gotEnd.Equal(target.Timestamp.Add(2 * time.Hour)) {
		t.Fatalf("range end = %s, want configured default window", store.gotEnd)
	}
}

func TestFindCorrelationsFallbackDefaultWindow(t *testing.T) {
	target := eventAt("ev-1", 0)
	store := &fakeEventStore{}
	a := newTestAnalyzer(store, &fakeCMDB{}, &fakeVectorSearch{})

	if _, err := a.FindCorrelations(context.Background(), target, 0, []models.CorrelationType{models.CorrelationTime}, 0, 10); err != nil {
		t.Fatalf("FindCorrelations: %v", err)
	}
	if !store.gotStart.Equal(target.Timestamp.Add(-time.Hour)) || !store.gotEnd.Equal(target.Timestamp.Add(time.Hour)) {
		t.Fatalf("range [%s, %s], want the one-hour fallback window", store.gotStart, store.gotEnd)
	}
}

func TestAnalyzeNotFound(t *testing.T) {
	a := newTestAnalyzer(&fakeEventStore{events: map[string]models.Event{}}, &fakeCMDB{}, &fakeVectorSearch{})

	_, err := a.Analyze(context.Background(), DiscoveryQuery{EventID: "missing"})
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestAnalyzeBuildsResult(t *testing.T) {
	target := eventAt("ev-1", 0)
	store := &fakeEventStore{
		events:  map[string]models.Event{"ev-1": target},
		inRange: []models.Event{target, eventAt("ev-2", 10*time.Minute)},
	}
	a := newTestAnalyzer(store, &fakeCMDB{}, &fakeVectorSearch{})

	result, err := a.Analyze(context.Background(), DiscoveryQuery{
		EventID:          "ev-1",
		TimeWindow:       time.Hour,
		CorrelationTypes: []models.CorrelationType{models.CorrelationTime},
		MinScore:         0.1,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.AnalysisID == "" {
		t.Fatal("analysis id must be set")
	}
	if result.EventID != "ev-1" {
		t.Fatalf("event id = %s", result.EventID)
	}
	if result.Event.EventID != "ev-1" {
		t.Fatalf("resolved event not carried on the result: %+v", result.Event)
	}
	if len(result.Correlations) != 1 {
		t.Fatalf("expected 1 correlation, got %d", len(result.Correlations))
	}
	if result.Graph == nil {
		t.Fatal("graph must be built")
	}
	if result.Graph.NodeCount() != 2 || result.Graph.EdgeCount() != 1 {
		t.Fatalf("graph shape %d nodes / %d edges", result.Graph.NodeCount(), result.Graph.EdgeCount())
	}
	if !strings.Contains(result.Summary, "1 correlated events") {
		t.Fatalf("summary = %q", result.Summary)
	}
	if result.CreatedAt.IsZero() {
		t.Fatal("created_at must be set")
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if got := summarize(nil); got != "no correlated events found" {
		t.Fatalf("summary = %q", got)
	}
}

func TestSummarizeCountsByChannel(t *testing.T) {
	got := summarize([]models.Correlation{
		{CorrelationType: models.CorrelationTime, Score: 0.9},
		{CorrelationType: models.CorrelationTime, Score: 0.3},
		{CorrelationType: models.CorrelationDependency, Score: 0.75},
	})
	if !strings.Contains(got, "3 correlated events") {
		t.Fatalf("summary = %q", got)
	}
	if !strings.Contains(got, "time: 2") || !strings.Contains(got, "dependency: 1") {
		t.Fatalf("summary = %q", got)
	}
	if !strings.Contains(got, "2 with score >= 0.7") {
		t.Fatalf("summary = %q", got)
	}
}
