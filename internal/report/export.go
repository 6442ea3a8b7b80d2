// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportYAML writes the aggregates for one mode to
// analysis/<mode>_analysis.yaml.
func (s *Store) ExportYAML(ctx context.Context, mode string) error {
	stats, err := s.Stats(ctx, mode)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	path := filepath.Join(s.outputDir, analysisDir, mode+"_analysis.yaml")
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the aggregates for one mode to
// analysis/<mode>_analysis.json.
func (s *Store) ExportJSON(ctx context.Context, mode string) error {
	stats, err := s.Stats(ctx, mode)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	path := filepath.Join(s.outputDir, analysisDir, mode+"_analysis.json")
	return os.WriteFile(path, data, 0o644)
}
