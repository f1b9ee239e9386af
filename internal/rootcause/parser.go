package rootcause

import (
	"strconv"
	"strings"
)

// verdict is the parsed LLM judgment.
type verdict struct {
	RootCause  string
	Confidence float64
	Evidence   []string
}

// parseVerdict extracts the KEY: value reply format. The parser degrades
// gracefully: anything it cannot read keeps the compatibility defaults
// ("Unable to determine", confidence 0.5) rather than failing the analysis.
func parseVerdict(reply string) verdict {
	v := verdict{
		RootCause:  "Unable to determine",
		Confidence: 0.5,
	}

	inEvidence := false
	for _, raw := range strings.Split(reply, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "ROOT_CAUSE:"):
			inEvidence = false
			if value := strings.TrimSpace(strings.TrimPrefix(line, "ROOT_CAUSE:")); value != "" {
				v.RootCause = value
			}
		case strings.HasPrefix(line, "CONFIDENCE:"):
			inEvidence = false
			value := strings.TrimSpace(strings.TrimPrefix(line, "CONFIDENCE:"))
			if parsed, err := strconv.ParseFloat(value, 64); err == nil {
				if parsed < 0 {
					parsed = 0
				}
				if parsed > 1 {
					parsed = 1
				}
				v.Confidence = parsed
			}
		case strings.HasPrefix(line, "EVIDENCE:"):
			inEvidence = true
		case inEvidence && (strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*")):
			if bullet := strings.TrimSpace(strings.TrimLeft(line, "-* ")); bullet != "" {
				v.Evidence = append(v.Evidence, bullet)
			}
		case line == "":
			// blank lines do not terminate the evidence block
		default:
			inEvidence = false
		}
	}
	return v
}
