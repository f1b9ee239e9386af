package rootcause

import "github.com/signalmesh/causegraph/internal/models"

// OverallConfidence aggregates hypothesis confidences into one score:
// the strongest hypothesis dominates, supporting evidence (up to five items)
// raises the score, and contradicting events apply a capped penalty.
// The exact formula is part of the contract and must not be retuned.
func OverallConfidence(hypotheses []models.RootCauseHypothesis) float64 {
	if len(hypotheses) == 0 {
		return 0.0
	}

	top := hypotheses[0]
	for _, hyp := range hypotheses[1:] {
		if hyp.Confidence > top.Confidence {
			top = hyp
		}
	}

	evidenceFactor := float64(len(top.Evidence)) / 5.0
	if evidenceFactor > 1.0 {
		evidenceFactor = 1.0
	}

	contradictionPenalty := 0.1 * float64(len(top.ContradictingEvents))
	if contradictionPenalty > 0.3 {
		contradictionPenalty = 0.3
	}

	result := top.Confidence*0.7 + evidenceFactor*0.3 - contradictionPenalty
	if result < 0 {
		return 0.0
	}
	return result
}
