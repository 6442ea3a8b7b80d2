// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
)

// TopCount is one entry of a most-common ranking.
type TopCount struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// AdoptionStats aggregates the ml_adoption section.
type AdoptionStats struct {
	PapersWithML int        `json:"papers_with_ml" yaml:"papers_with_ml"`
	AdoptionRate float64    `json:"ml_adoption_rate" yaml:"ml_adoption_rate"`
	Frameworks   []TopCount `json:"top_frameworks" yaml:"top_frameworks"`
	Models       []TopCount `json:"top_models" yaml:"top_models"`
	Datasets     []TopCount `json:"top_datasets" yaml:"top_datasets"`
	Compute      []TopCount `json:"top_compute_resources" yaml:"top_compute_resources"`
}

// ReproStats aggregates the reproducibility section.
type ReproStats struct {
	PapersWithCode         int     `json:"papers_with_code" yaml:"papers_with_code"`
	PapersWithData         int     `json:"papers_with_data" yaml:"papers_with_data"`
	CodeAvailabilityRate   float64 `json:"code_availability_rate" yaml:"code_availability_rate"`
	DataAvailabilityRate   float64 `json:"data_availability_rate" yaml:"data_availability_rate"`
	SupplementaryRate      float64 `json:"supplementary_rate" yaml:"supplementary_rate"`
	ReplicationMentionRate float64 `json:"replication_mention_rate" yaml:"replication_mention_rate"`
}

// OutcomeStats aggregates the research_outcomes section.
type OutcomeStats struct {
	ClinicalTrials    int     `json:"papers_with_clinical_trials" yaml:"papers_with_clinical_trials"`
	Patents           int     `json:"papers_with_patents" yaml:"papers_with_patents"`
	Retractions       int     `json:"papers_with_retractions" yaml:"papers_with_retractions"`
	Corrections       int     `json:"papers_with_corrections" yaml:"papers_with_corrections"`
	ClinicalTrialRate float64 `json:"clinical_trial_rate" yaml:"clinical_trial_rate"`
	PatentRate        float64 `json:"patent_rate" yaml:"patent_rate"`
}

// IndicatorStats aggregates the impact_indicators section.
type IndicatorStats struct {
	MediaCoverageRate    float64    `json:"media_coverage_rate" yaml:"media_coverage_rate"`
	PolicyInfluenceRate  float64    `json:"policy_influence_rate" yaml:"policy_influence_rate"`
	IndustryAdoptionRate float64    `json:"industry_adoption_rate" yaml:"industry_adoption_rate"`
	Applications         []TopCount `json:"top_real_world_applications" yaml:"top_real_world_applications"`
}

// YearTrend holds per-year counts for the temporal view. Documents with
// an unknown year are excluded.
type YearTrend struct {
	Year          int `json:"year" yaml:"year"`
	Papers        int `json:"papers" yaml:"papers"`
	CodeAvailable int `json:"code_available" yaml:"code_available"`
	DataAvailable int `json:"data_available" yaml:"data_available"`
	MLAdoption    int `json:"ml_adoption" yaml:"ml_adoption"`
}

// CategoryStats is the full aggregate view of one category.
type CategoryStats struct {
	Category    string `json:"category" yaml:"category"`
	TotalPapers int    `json:"total_papers" yaml:"total_papers"`

	MLAdoption       AdoptionStats  `json:"ml_adoption" yaml:"ml_adoption"`
	Reproducibility  ReproStats     `json:"reproducibility" yaml:"reproducibility"`
	ResearchOutcomes OutcomeStats   `json:"research_outcomes" yaml:"research_outcomes"`
	ImpactIndicators IndicatorStats `json:"impact_indicators" yaml:"impact_indicators"`
	Trends           []YearTrend    `json:"temporal_trends,omitempty" yaml:"temporal_trends,omitempty"`

	// ContributionLevels is populated for contribution-mode payloads only.
	ContributionLevels []TopCount `json:"contribution_levels,omitempty" yaml:"contribution_levels,omitempty"`
}

// impactFields mirrors the annotation payload sections the aggregates
// read. The service's output is loosely typed, so each section is decoded
// independently and dropped on a type mismatch rather than failing the
// whole record.
type impactFields struct {
	MLAdoption       json.RawMessage `json:"ml_adoption"`
	Reproducibility  json.RawMessage `json:"reproducibility"`
	ResearchOutcomes json.RawMessage `json:"research_outcomes"`
	ImpactIndicators json.RawMessage `json:"impact_indicators"`
	MLQuantification json.RawMessage `json:"ml_impact_quantification"`
}

type adoptionSection struct {
	Frameworks []string `json:"frameworks"`
	Models     []string `json:"models"`
	Datasets   []string `json:"datasets"`
	Compute    []string `json:"compute_resources"`
}

type reproSection struct {
	CodeAvailable       bool `json:"code_available"`
	DataAvailable       bool `json:"data_available"`
	HasSupplementary    bool `json:"has_supplementary"`
	MentionsReplication bool `json:"mentions_replication"`
}

type outcomeSection struct {
	HasClinicalTrial   bool `json:"has_clinical_trial"`
	HasPatent          bool `json:"has_patent"`
	MentionsRetraction bool `json:"mentions_retraction"`
	MentionsCorrection bool `json:"mentions_correction"`
}

type indicatorSection struct {
	MentionsMediaCoverage    bool     `json:"mentions_media_coverage"`
	MentionsPolicyInfluence  bool     `json:"mentions_policy_influence"`
	MentionsIndustryAdoption bool     `json:"mentions_industry_adoption"`
	RealWorldApplications    []string `json:"real_world_applications"`
}

type quantificationSection struct {
	HasMLUsage          bool   `json:"has_ml_usage"`
	MLContributionLevel string `json:"ml_contribution_level"`
}

// decodeSection unmarshals one payload section, treating absent, null,
// and ill-typed sections as missing.
func decodeSection(raw json.RawMessage, v any) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

// nonEmptyObject reports whether raw is a JSON object with at least one
// key. An empty ml_adoption object carries no adoption signal and must
// not count toward the adoption rate.
func nonEmptyObject(raw json.RawMessage) bool {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return false
	}
	return len(m) > 0
}

// counter accumulates name frequencies for top-N rankings.
type counter map[string]int

func (c counter) addAll(names []string) {
	for _, name := range names {
		if name != "" {
			c[name]++
		}
	}
}

// top returns the n most common entries, ties broken by name.
func (c counter) top(n int) []TopCount {
	out := make([]TopCount, 0, len(c))
	for name, count := range c {
		out = append(out, TopCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// Stats computes per-category aggregates over every ingested record of
// one mode. Categories are returned in name order.
func (s *Store) Stats(ctx context.Context, mode string) ([]CategoryStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, year, fields FROM annotations WHERE mode = ? ORDER BY category, doc_id`,
		mode)
	if err != nil {
		return nil, fmt.Errorf("querying annotations: %w", err)
	}
	defer rows.Close()

	var (
		stats []CategoryStats
		agg   *categoryAggregator
	)

	for rows.Next() {
		var (
			category string
			year     sql.NullInt64
			fields   string
		)
		if err := rows.Scan(&category, &year, &fields); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if agg == nil || agg.category != category {
			if agg != nil {
				stats = append(stats, agg.finish(s.topN))
			}
			agg = newCategoryAggregator(category)
		}
		agg.add(year, []byte(fields))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading annotations: %w", err)
	}
	if agg != nil {
		stats = append(stats, agg.finish(s.topN))
	}

	return stats, nil
}

// categoryAggregator folds annotation payloads into running counts for
// one category.
type categoryAggregator struct {
	category string
	total    int

	withML     int
	frameworks counter
	models     counter
	datasets   counter
	compute    counter

	repro tallies

	applications counter
	levels       counter

	byYear map[int]*YearTrend
}

// tallies bundles the boolean counts that feed the rate fields.
type tallies struct {
	code, data, supplementary, replication int
	trials, patents, retractions           int
	corrections                            int
	media, policy, industry                int
}

func newCategoryAggregator(category string) *categoryAggregator {
	return &categoryAggregator{
		category:     category,
		frameworks:   counter{},
		models:       counter{},
		datasets:     counter{},
		compute:      counter{},
		applications: counter{},
		levels:       counter{},
		byYear:       map[int]*YearTrend{},
	}
}

func (a *categoryAggregator) add(year sql.NullInt64, fields []byte) {
	a.total++

	var payload impactFields
	if err := json.Unmarshal(fields, &payload); err != nil {
		return
	}

	var trend *YearTrend
	if year.Valid {
		y := int(year.Int64)
		trend = a.byYear[y]
		if trend == nil {
			trend = &YearTrend{Year: y}
			a.byYear[y] = trend
		}
		trend.Papers++
	}

	var adoption adoptionSection
	if decodeSection(payload.MLAdoption, &adoption) && nonEmptyObject(payload.MLAdoption) {
		a.withML++
		a.frameworks.addAll(adoption.Frameworks)
		a.models.addAll(adoption.Models)
		a.datasets.addAll(adoption.Datasets)
		a.compute.addAll(adoption.Compute)
		if trend != nil && len(adoption.Frameworks) > 0 {
			trend.MLAdoption++
		}
	}

	var repro reproSection
	if decodeSection(payload.Reproducibility, &repro) {
		if repro.CodeAvailable {
			a.repro.code++
			if trend != nil {
				trend.CodeAvailable++
			}
		}
		if repro.DataAvailable {
			a.repro.data++
			if trend != nil {
				trend.DataAvailable++
			}
		}
		if repro.HasSupplementary {
			a.repro.supplementary++
		}
		if repro.MentionsReplication {
			a.repro.replication++
		}
	}

	var outcomes outcomeSection
	if decodeSection(payload.ResearchOutcomes, &outcomes) {
		if outcomes.HasClinicalTrial {
			a.repro.trials++
		}
		if outcomes.HasPatent {
			a.repro.patents++
		}
		if outcomes.MentionsRetraction {
			a.repro.retractions++
		}
		if outcomes.MentionsCorrection {
			a.repro.corrections++
		}
	}

	var indicators indicatorSection
	if decodeSection(payload.ImpactIndicators, &indicators) {
		if indicators.MentionsMediaCoverage {
			a.repro.media++
		}
		if indicators.MentionsPolicyInfluence {
			a.repro.policy++
		}
		if indicators.MentionsIndustryAdoption {
			a.repro.industry++
		}
		a.applications.addAll(indicators.RealWorldApplications)
	}

	var quant quantificationSection
	if decodeSection(payload.MLQuantification, &quant) && quant.MLContributionLevel != "" {
		a.levels[quant.MLContributionLevel]++
	}
}

func (a *categoryAggregator) finish(topN int) CategoryStats {
	trends := make([]YearTrend, 0, len(a.byYear))
	for _, t := range a.byYear {
		trends = append(trends, *t)
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Year < trends[j].Year })

	return CategoryStats{
		Category:    a.category,
		TotalPapers: a.total,
		MLAdoption: AdoptionStats{
			PapersWithML: a.withML,
			AdoptionRate: rate(a.withML, a.total),
			Frameworks:   a.frameworks.top(topN),
			Models:       a.models.top(topN),
			Datasets:     a.datasets.top(topN),
			Compute:      a.compute.top(topN),
		},
		Reproducibility: ReproStats{
			PapersWithCode:         a.repro.code,
			PapersWithData:         a.repro.data,
			CodeAvailabilityRate:   rate(a.repro.code, a.total),
			DataAvailabilityRate:   rate(a.repro.data, a.total),
			SupplementaryRate:      rate(a.repro.supplementary, a.total),
			ReplicationMentionRate: rate(a.repro.replication, a.total),
		},
		ResearchOutcomes: OutcomeStats{
			ClinicalTrials:    a.repro.trials,
			Patents:           a.repro.patents,
			Retractions:       a.repro.retractions,
			Corrections:       a.repro.corrections,
			ClinicalTrialRate: rate(a.repro.trials, a.total),
			PatentRate:        rate(a.repro.patents, a.total),
		},
		ImpactIndicators: IndicatorStats{
			MediaCoverageRate:    rate(a.repro.media, a.total),
			PolicyInfluenceRate:  rate(a.repro.policy, a.total),
			IndustryAdoptionRate: rate(a.repro.industry, a.total),
			Applications:         a.applications.top(topN),
		},
		Trends:             trends,
		ContributionLevels: a.levels.top(topN),
	}
}
