package correlation

import "github.com/signalmesh/causegraph/internal/models"

// merger folds single-channel matches into one combined correlation per
// target event. The merge is non-destructive: evidence is concatenated,
// metadata is unioned, and only the score is replaced by the weighted
// combination of per-channel maxima.
type merger struct {
	cfg     ScoringConfig
	order   []string
	entries map[string]*mergedEntry
	events  map[string]models.Event
}

type mergedEntry struct {
	source        string
	channelScores map[models.CorrelationType]float64
	confidence    float64
	evidence      []string
	metadata      map[string]string
}

func newMerger(cfg ScoringConfig) *merger {
	return &merger{
		cfg:     cfg,
		entries: make(map[string]*mergedEntry),
		events:  make(map[string]models.Event),
	}
}

func (m *merger) add(matches []Match) {
	for _, match := range matches {
		corr := match.Correlation
		entry, ok := m.entries[corr.TargetEventID]
		if !ok {
			entry = &mergedEntry{
				source:        corr.SourceEventID,
				channelScores: make(map[models.CorrelationType]float64),
				metadata:      make(map[string]string),
			}
			m.entries[corr.TargetEventID] = entry
			m.order = append(m.order, corr.TargetEventID)
			m.events[corr.TargetEventID] = match.Event
		}

		// A channel may report the same pair more than once (one entry per
		// matching dependency, say); only its best score counts.
		if corr.Score > entry.channelScores[corr.CorrelationType] {
			entry.channelScores[corr.CorrelationType] = corr.Score
		}
		if corr.Confidence > entry.confidence {
			entry.confidence = corr.Confidence
		}
		entry.evidence = append(entry.evidence, corr.Evidence...)
		for k, v := range corr.Metadata {
			if _, exists := entry.metadata[k]; !exists {
				entry.metadata[k] = v
			}
		}
	}
}

// finish produces the merged correlations in discovery order plus the target
// events seen along the way.
func (m *merger) finish() ([]models.Correlation, map[string]models.Event) {
	merged := make([]models.Correlation, 0, len(m.order))
	for _, target := range m.order {
		entry := m.entries[target]
		timeScore := entry.channelScores[models.CorrelationTime]
		depScore := entry.channelScores[models.CorrelationDependency]
		semScore := entry.channelScores[models.CorrelationSemantic]

		combined := timeScore*m.cfg.TimeWeight + depScore*m.cfg.DependencyWeight + semScore*m.cfg.SemanticWeight

		merged = append(merged, models.Correlation{
			SourceEventID:   entry.source,
			TargetEventID:   target,
			CorrelationType: dominantChannel(timeScore*m.cfg.TimeWeight, depScore*m.cfg.DependencyWeight, semScore*m.cfg.SemanticWeight),
			Score:           combined,
			Confidence:      entry.confidence,
			Evidence:        entry.evidence,
			Metadata:        entry.metadata,
		})
	}
	return merged, m.events
}

// dominantChannel picks the channel with the largest weighted contribution;
// the merged correlation is tagged with it so graph rendering can style the
// edge meaningfully.
func dominantChannel(timeWeighted, depWeighted, semWeighted float64) models.CorrelationType {
	switch {
	case depWeighted > timeWeighted && depWeighted >= semWeighted:
		return models.CorrelationDependency
	case semWeighted > timeWeighted && semWeighted > depWeighted:
		return models.CorrelationSemantic
	default:
		return models.CorrelationTime
	}
}
