// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import "fmt"

// Mode selects an annotation schema and prompt. Modes share the same
// retry, repair, and checkpoint machinery; each owns its own checkpoint
// and ledger namespace so both can be run over the same corpus.
type Mode string

const (
	// ModeImpact extracts broad adoption, reproducibility, outcome, and
	// impact markers from each paper.
	ModeImpact Mode = "impact"

	// ModeContribution scores how much of a paper's outcome is
	// attributable to machine learning versus domain insight.
	ModeContribution Mode = "contribution"
)

// ParseMode validates a mode name from a flag or config value.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeImpact, ModeContribution:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown annotation mode %q: use impact or contribution", s)
}

func (m Mode) String() string { return string(m) }

// schemaSource returns the JSON Schema the mode's payloads are validated
// against. The schemas admit null sections: the service reports its own
// uncertainty with nulls, and that is a valid annotation.
func (m Mode) schemaSource() string {
	switch m {
	case ModeContribution:
		return contributionSchema
	default:
		return impactSchema
	}
}

// impactSchema accepts the broad extraction payload. Top level must be an
// object; each known section, when present, must be an object or null.
const impactSchema = `{
  "type": "object",
  "properties": {
    "citations":         {"type": ["object", "null"]},
    "ml_adoption":       {"type": ["object", "null"]},
    "reproducibility":   {"type": ["object", "null"]},
    "research_outcomes": {"type": ["object", "null"]},
    "impact_indicators": {"type": ["object", "null"]},
    "additional_info":   {"type": ["object", "null"]}
  }
}`

// contributionSchema accepts the attribution-scoring payload.
const contributionSchema = `{
  "type": "object",
  "properties": {
    "ml_impact_quantification": {
      "type": ["object", "null"],
      "properties": {
        "has_ml_usage":          {"type": ["boolean", "null"]},
        "ml_contribution_level": {"type": ["string", "null"]},
        "attribution_scoring":   {"type": ["object", "null"]},
        "acceleration_metrics":  {"type": ["object", "null"]},
        "efficiency_measures":   {"type": ["object", "null"]},
        "breakthrough_analysis": {"type": ["object", "null"]}
      }
    }
  }
}`
