// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/impact-observatory/internal/annotate"
	"github.com/pdiddy/impact-observatory/internal/report"
	"github.com/pdiddy/impact-observatory/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Aggregate annotation ledgers into per-category statistics",
	Long: `Report manages the analysis database built from annotation ledgers.
Use subcommands to ingest ledgers or compute and export aggregates.`,
}

// --- ingest subcommand ---

var reportIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load annotation ledgers into the analysis database",
	Long: `Ingest reads every category ledger of one mode into a SQLite database
under [output-dir]/analysis/. Ledgers unchanged since the last ingest are
skipped, so re-running after an annotation run only reads what changed.`,
	RunE: runReportIngest,
}

func runReportIngest(cmd *cobra.Command, args []string) error {
	store, mode, err := openReportStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), mode, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d ledger(s) failed ingestion", summary.Failed)
	}
	return nil
}

// --- summary subcommand ---

var reportSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Compute aggregates and export them",
	Long: `Summary computes per-category aggregates (ML adoption, reproducibility,
research outcomes, impact indicators) over the ingested annotations,
prints an overview, and writes the full statistics to
[output-dir]/analysis/[mode]_analysis.yaml or .json.`,
	RunE: runReportSummary,
}

func runReportSummary(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, mode, err := openReportStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(context.Background(), mode)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Println("No annotations ingested. Run 'report ingest' first.")
		return nil
	}

	printStatsOverview(stats)

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background(), mode); err != nil {
			return err
		}
		fmt.Printf("Exported to analysis/%s_analysis.yaml\n", mode)
	case "json":
		if err := store.ExportJSON(context.Background(), mode); err != nil {
			return err
		}
		fmt.Printf("Exported to analysis/%s_analysis.json\n", mode)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

func printStatsOverview(stats []report.CategoryStats) {
	fmt.Fprintf(os.Stdout, "%-24s  %8s  %12s  %10s  %10s\n",
		"Category", "Papers", "ML adoption", "Code", "Data")

	for _, s := range stats {
		fmt.Fprintf(os.Stdout, "%-24s  %8d  %11.1f%%  %9.1f%%  %9.1f%%\n",
			s.Category, s.TotalPapers,
			s.MLAdoption.AdoptionRate*100,
			s.Reproducibility.CodeAvailabilityRate*100,
			s.Reproducibility.DataAvailabilityRate*100)
	}
	fmt.Fprintln(os.Stdout)
}

// --- shared helpers ---

func openReportStore(cmd *cobra.Command) (*report.Store, string, error) {
	outputDir, _ := cmd.Flags().GetString("output-dir")
	modeStr, _ := cmd.Flags().GetString("mode")
	topN, _ := cmd.Flags().GetInt("top-n")

	mode, err := annotate.ParseMode(modeStr)
	if err != nil {
		return nil, "", err
	}

	store, err := report.NewStore(types.ReportConfig{
		OutputDir: outputDir,
		TopN:      topN,
	})
	if err != nil {
		return nil, "", err
	}
	return store, mode.String(), nil
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	reportCmd.PersistentFlags().String("output-dir", "data/extracted", "root directory of annotation output")
	reportCmd.PersistentFlags().String("mode", "impact", "annotation mode: impact or contribution")
	reportCmd.PersistentFlags().Int("top-n", 20, "entries kept in ranked lists")

	reportSummaryCmd.Flags().String("format", "yaml", "export format: yaml or json")

	reportCmd.AddCommand(reportIngestCmd)
	reportCmd.AddCommand(reportSummaryCmd)

	rootCmd.AddCommand(reportCmd)
}
