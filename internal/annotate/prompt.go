// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/pdiddy/impact-observatory/pkg/types"
)

// impactPromptTmpl asks for the broad extraction payload: adoption markers,
// reproducibility indicators, outcomes, and impact signals.
var impactPromptTmpl = template.Must(template.New("impact").Parse(`You are a research analysis assistant. Analyze the following research paper and extract structured information in JSON format.

Paper ID: {{.PaperID}}
Year: {{.Year}}
Field: {{.Field}}

Paper Text (truncated if needed):
{{.Text}}

Extract the following information in valid JSON format:

{
  "citations": {
    "cited_papers": ["list of paper titles/authors mentioned in references"],
    "citation_count_estimate": "estimated number based on references section"
  },
  "ml_adoption": {
    "frameworks": ["TensorFlow", "PyTorch", "scikit-learn", etc.],
    "compute_resources": ["GPU types", "cloud platforms", "HPC systems"],
    "datasets": ["ImageNet", "COCO", "custom datasets", etc.],
    "models": ["specific ML models or architectures used"]
  },
  "reproducibility": {
    "code_available": true/false,
    "code_url": "GitHub URL or repository if mentioned",
    "data_available": true/false,
    "data_url": "data repository URL if mentioned",
    "has_supplementary": true/false,
    "mentions_replication": true/false
  },
  "research_outcomes": {
    "has_clinical_trial": true/false,
    "clinical_trial_ids": ["NCT numbers if mentioned"],
    "has_patent": true/false,
    "patent_numbers": ["patent numbers if mentioned"],
    "mentions_retraction": true/false,
    "mentions_correction": true/false
  },
  "impact_indicators": {
    "mentions_media_coverage": true/false,
    "mentions_policy_influence": true/false,
    "mentions_industry_adoption": true/false,
    "real_world_applications": ["list of mentioned applications"]
  },
  "additional_info": {
    "funding_sources": ["NSF", "NIH", "company names", etc.],
    "collaborations": ["institutions", "companies"],
    "keywords": ["extracted key technical terms"],
    "methodology": "brief description of main methodology",
    "main_findings": "brief summary of key findings"
  }
}

Return ONLY valid JSON. If information is not found, use null or empty arrays.`))

// contributionSystemRole frames the attribution-scoring task. Sent as the
// service's system role text, separate from the per-document prompt.
const contributionSystemRole = `You are an expert academic analyst specializing in quantifying how machine learning (ML) contributes to scientific breakthroughs and discovery efficiency.

Your task is to measure ML's actual contribution to research outcomes with three key metrics:
1. Attribution Scoring: What % of the breakthrough comes from ML vs. domain insight?
2. Acceleration Metrics: Did ML speed discovery by months/years compared to traditional methods?
3. Efficiency Measures: Did ML reduce cost, time, or resources per discovery?

CRITICAL RULES:
- Be conservative and evidence-based; do not overstate ML importance
- Distinguish ML contribution from domain expertise contribution
- Look for explicit evidence of acceleration, cost reduction, or capability enabling
- If ML is mentioned but not central to outcomes, mark minimal impact
- Use precise academic language based on what the paper explicitly demonstrates`

// contributionPromptTmpl asks for the attribution-scoring payload.
var contributionPromptTmpl = template.Must(template.New("contribution").Parse(`Analyze how machine learning contributed to this research paper's outcomes.

Paper ID: {{.PaperID}}
Year: {{.Year}}
Field: {{.Field}}

Paper Text (truncated if needed):
{{.Text}}

Extract the following information in valid JSON format:

{
  "ml_impact_quantification": {
    "has_ml_usage": true/false,
    "ml_contribution_level": "none|minimal|moderate|substantial|critical",

    "attribution_scoring": {
      "ml_contribution_percent": 0-100,
      "domain_insight_percent": 0-100,
      "explanation": "Evidence-based explanation of ML vs domain contributions"
    },

    "acceleration_metrics": {
      "provides_acceleration": true/false,
      "estimated_speedup": "e.g., '6 months faster', '10x faster than traditional', 'enabled previously impossible task'",
      "comparison_baseline": "What method ML was compared against, if any",
      "evidence": "Specific claims from paper about speed/time improvements"
    },

    "efficiency_measures": {
      "improves_efficiency": true/false,
      "cost_reduction": "e.g., '$100K saved', '50% less compute', 'reduced from 1000 to 100 experiments'",
      "resource_optimization": "Types of resources saved (compute, labor, materials, etc.)",
      "evidence": "Specific efficiency claims from paper"
    },

    "breakthrough_analysis": {
      "enables_new_capability": true/false,
      "capability_description": "What became possible that wasn't before",
      "is_incremental_improvement": true/false,
      "impact_summary": "Overall assessment of ML's role in this research"
    }
  }
}

Return ONLY valid JSON. Use null for unavailable information. Be conservative in scoring - only high scores if paper provides explicit evidence.`))

// promptData feeds the mode templates.
type promptData struct {
	PaperID string
	Year    string
	Field   string
	Text    string
}

// renderPrompt produces the per-document prompt and optional system role
// for the mode.
func (m Mode) renderPrompt(doc types.Document, boundedText string) (prompt, system string, err error) {
	tmpl := impactPromptTmpl
	if m == ModeContribution {
		tmpl = contributionPromptTmpl
		system = contributionSystemRole
	}

	data := promptData{
		PaperID: doc.ID,
		Year:    doc.Year.String(),
		Field:   doc.Category,
		Text:    boundedText,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("rendering %s prompt: %w", m, err)
	}
	return buf.String(), system, nil
}
