package correlation

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/signalmesh/causegraph/internal/models"
	"github.com/signalmesh/causegraph/internal/repo"
)

// EventStore defines the event lookups used by the correlation channels.
type EventStore interface {
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	GetEventsInRange(ctx context.Context, start, end time.Time) ([]models.Event, error)
	GetEventsForComponent(ctx context.Context, componentID string) ([]models.Event, error)
}

// CMDB defines the dependency lookups used by the dependency channel.
type CMDB interface {
	GetDependencies(ctx context.Context, componentIDs []string) ([]repo.Dependency, error)
}

// VectorSearch defines the similarity search used by the semantic channel.
type VectorSearch interface {
	SearchSimilarEvents(ctx context.Context, text string) ([]repo.SimilarEvent, error)
}

// ScoringConfig carries the tunables of the three channels. The defaults are
// the v1 values; overriding them changes score comparability across runs.
type ScoringConfig struct {
	// DecayFactor is the linear time-channel decay per hour of separation.
	DecayFactor float64
	// TimeFloor drops time-channel candidates at or below this score.
	TimeFloor float64
	// SemanticThreshold drops semantic matches below this similarity.
	SemanticThreshold float64
	// Channel weights used when merging multi-channel matches.
	TimeWeight       float64
	DependencyWeight float64
	SemanticWeight   float64
}

// DefaultScoringConfig returns the v1 scoring parameters.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		DecayFactor:       0.1,
		TimeFloor:         0.1,
		SemanticThreshold: 0.6,
		TimeWeight:        models.WeightTime,
		DependencyWeight:  models.WeightDependency,
		SemanticWeight:    models.WeightSemantic,
	}
}

// Match pairs a single-channel correlation with the candidate event it
// points at, so graph construction does not have to re-fetch targets.
type Match struct {
	Correlation models.Correlation
	Event       models.Event
}

// Scorer computes single-channel correlation candidates for a target event.
type Scorer struct {
	cfg    ScoringConfig
	store  EventStore
	cmdb   CMDB
	vector VectorSearch
}

// NewScorer constructs a Scorer. Zero-valued config fields fall back to the
// v1 defaults.
func NewScorer(cfg ScoringConfig, store EventStore, cmdb CMDB, vector VectorSearch) *Scorer {
	def := DefaultScoringConfig()
	if cfg.DecayFactor == 0 {
		cfg.DecayFactor = def.DecayFactor
	}
	if cfg.TimeFloor == 0 {
		cfg.TimeFloor = def.TimeFloor
	}
	if cfg.SemanticThreshold == 0 {
		cfg.SemanticThreshold = def.SemanticThreshold
	}
	if cfg.TimeWeight == 0 {
		cfg.TimeWeight = def.TimeWeight
	}
	if cfg.DependencyWeight == 0 {
		cfg.DependencyWeight = def.DependencyWeight
	}
	if cfg.SemanticWeight == 0 {
		cfg.SemanticWeight = def.SemanticWeight
	}
	return &Scorer{cfg: cfg, store: store, cmdb: cmdb, vector: vector}
}

// TimeChannel scores events inside the symmetric window around the target
// event's timestamp. Proximity decays linearly with separation, then by
// DecayFactor per hour. Candidates at or below the floor are dropped.
func (s *Scorer) TimeChannel(ctx context.Context, event models.Event, window time.Duration) ([]Match, error) {
	if s.store == nil {
		return nil, fmt.Errorf("event store not configured")
	}
	if window <= 0 {
		return nil, fmt.Errorf("time window must be positive")
	}

	start := event.Timestamp.Add(-window)
	end := event.Timestamp.Add(window)
	candidates, err := s.store.GetEventsInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch events in range: %w", err)
	}

	matches := make([]Match, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.EventID == event.EventID {
			continue
		}
		delta := candidate.Timestamp.Sub(event.Timestamp)
		absDelta := delta.Abs()

		score := 1 - absDelta.Seconds()/window.Seconds()
		if score < 0 {
			score = 0
		}
		score *= 1 - s.cfg.DecayFactor*absDelta.Hours()
		if score <= s.cfg.TimeFloor {
			continue
		}

		matches = append(matches, Match{
			Event: candidate,
			Correlation: models.Correlation{
				SourceEventID:   event.EventID,
				TargetEventID:   candidate.EventID,
				CorrelationType: models.CorrelationTime,
				Score:           score,
				Confidence:      0.7,
				Evidence: []string{
					fmt.Sprintf("occurred %s apart within a %s window", absDelta.Round(time.Second), window),
				},
				Metadata: map[string]string{
					"delta_seconds": fmt.Sprintf("%.0f", delta.Seconds()),
				},
			},
		})
	}
	return matches, nil
}

// DependencyChannel scores events on components related to the target
// event's affected components through the CMDB dependency graph. Closer
// dependencies score higher; critical dependencies get a boost.
func (s *Scorer) DependencyChannel(ctx context.Context, event models.Event) ([]Match, error) {
	if s.store == nil || s.cmdb == nil {
		return nil, fmt.Errorf("event store and cmdb not configured")
	}
	if len(event.AffectedComponents) == 0 {
		return nil, nil
	}

	deps, err := s.cmdb.GetDependencies(ctx, event.AffectedComponents)
	if err != nil {
		return nil, fmt.Errorf("fetch dependencies: %w", err)
	}

	matches := make([]Match, 0)
	for _, dep := range deps {
		score := 1.0 / float64(dep.Distance+1)
		if dep.Type == "critical" {
			score *= 1.2
		}
		score = math.Min(score, 1.0)

		related, err := s.store.GetEventsForComponent(ctx, dep.ComponentID)
		if err != nil {
			return nil, fmt.Errorf("fetch events for component %s: %w", dep.ComponentID, err)
		}
		for _, candidate := range related {
			if candidate.EventID == event.EventID {
				continue
			}
			matches = append(matches, Match{
				Event: candidate,
				Correlation: models.Correlation{
					SourceEventID:   event.EventID,
					TargetEventID:   candidate.EventID,
					CorrelationType: models.CorrelationDependency,
					Score:           score,
					Confidence:      0.8,
					Evidence: []string{
						fmt.Sprintf("component %s is a %s dependency at distance %d", dep.ComponentID, dep.Relationship, dep.Distance),
					},
					Metadata: map[string]string{
						"component":       dep.ComponentID,
						"dependency_type": dep.Type,
					},
				},
			})
		}
	}
	return matches, nil
}

// SemanticChannel scores events by textual similarity to the target event's
// title and description. Matches below the similarity threshold are dropped.
func (s *Scorer) SemanticChannel(ctx context.Context, event models.Event) ([]Match, error) {
	if s.vector == nil {
		return nil, fmt.Errorf("vector search not configured")
	}

	text := strings.TrimSpace(event.Title + " " + event.Description)
	results, err := s.vector.SearchSimilarEvents(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, result := range results {
		if result.Event.EventID == event.EventID {
			continue
		}
		if result.Similarity < s.cfg.SemanticThreshold {
			continue
		}
		matches = append(matches, Match{
			Event: result.Event,
			Correlation: models.Correlation{
				SourceEventID:   event.EventID,
				TargetEventID:   result.Event.EventID,
				CorrelationType: models.CorrelationSemantic,
				Score:           result.Similarity,
				Confidence:      result.Similarity * 0.9,
				Evidence: []string{
					fmt.Sprintf("description similarity %.2f", result.Similarity),
				},
				Metadata: map[string]string{
					"similarity": fmt.Sprintf("%.4f", result.Similarity),
				},
			},
		})
	}
	return matches, nil
}
