// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/impact-observatory/internal/annotate"
	"github.com/pdiddy/impact-observatory/internal/checkpoint"
	"github.com/pdiddy/impact-observatory/internal/corpus"
	"github.com/pdiddy/impact-observatory/internal/ledger"
	"github.com/pdiddy/impact-observatory/internal/runner"
	"github.com/pdiddy/impact-observatory/pkg/types"
)

const (
	defaultTimeout   = 120 * time.Second
	defaultDelay     = 100 * time.Millisecond
	defaultUserAgent = "impact-observatory/0.1"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate [categories...]",
	Short: "Annotate corpus documents through the LLM service",
	Long: `Annotate feeds each category's documents through the annotation service
and appends the structured results to per-category ledgers. Progress is
checkpointed, so an interrupted run resumes where it stopped: documents
already attempted are never sent again.

With no category arguments (or the single argument "all") every category
found in the input directory is processed. SIGINT or SIGTERM stops the
run gracefully after the in-flight document, preserving all progress.`,
	RunE: runAnnotate,
}

func init() {
	annotateCmd.Flags().String("input-dir", "data/corpus", "directory of [category].jsonl.gz corpus files")
	annotateCmd.Flags().String("output-dir", "data/extracted", "root directory for checkpoints, ledgers, and summaries")
	annotateCmd.Flags().String("mode", "impact", "annotation mode: impact or contribution")
	annotateCmd.Flags().String("endpoint", "http://localhost:11434", "annotation service base URL")
	annotateCmd.Flags().String("model", "llama3.1:8b", "generation model identifier")
	annotateCmd.Flags().String("api-key", "", "bearer token for hosted endpoints (default: annotator-api-key secret)")
	annotateCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 120s)")
	annotateCmd.Flags().Int("flush-every", 0, "documents between checkpoint flushes (default 50)")
	annotateCmd.Flags().Duration("delay", defaultDelay, "pause between consecutive annotation calls")
	annotateCmd.Flags().Int("max-text", 0, "maximum document text length sent for annotation (default 8000)")
	annotateCmd.Flags().Bool("skip-preflight", false, "skip the service reachability and model check")

	rootCmd.AddCommand(annotateCmd)
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	modeStr, _ := cmd.Flags().GetString("mode")
	mode, err := annotate.ParseMode(modeStr)
	if err != nil {
		return err
	}

	inputDir, _ := cmd.Flags().GetString("input-dir")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	endpoint, _ := cmd.Flags().GetString("endpoint")
	model, _ := cmd.Flags().GetString("model")
	apiKey, _ := cmd.Flags().GetString("api-key")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	flushEvery, _ := cmd.Flags().GetInt("flush-every")
	delay, _ := cmd.Flags().GetDuration("delay")
	maxText, _ := cmd.Flags().GetInt("max-text")
	skipPreflight, _ := cmd.Flags().GetBool("skip-preflight")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	annCfg := types.AnnotatorConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		Endpoint: endpoint,
		Model:    model,
		APIKey:   secretDefault("annotator-api-key", apiKey),
	}

	service := annotate.NewOllamaService(annCfg)
	if !skipPreflight {
		if err := service.Ping(ctx); err != nil {
			return fmt.Errorf("annotation service preflight failed (use --skip-preflight to bypass): %w", err)
		}
	}

	client, err := annotate.NewClient(service, mode, annCfg)
	if err != nil {
		return err
	}

	categories := args
	if len(categories) == 0 || (len(categories) == 1 && categories[0] == "all") {
		categories, err = corpus.ListCategories(inputDir)
		if err != nil {
			return err
		}
		if len(categories) == 0 {
			return fmt.Errorf("no corpus files found in %s", inputDir)
		}
	}

	// Each mode owns its own checkpoint and ledger namespace, so both
	// modes can run over the same corpus.
	outputRoot := filepath.Join(outputDir, mode.String())

	store := checkpoint.NewStore(outputRoot)
	sink := ledger.NewSink(outputRoot)
	defer sink.Close()

	cfg := types.PipelineConfig{
		InputDir:      inputDir,
		OutputDir:     outputRoot,
		MaxTextLength: maxText,
		FlushEvery:    flushEvery,
		DocumentDelay: delay,
	}

	report, runErr := runner.New(cfg, client, store, sink).RunAll(ctx, categories, os.Stdout)

	if err := writeRunSummary(store, outputRoot); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not write run summary: %v\n", err)
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			fmt.Fprintln(os.Stdout, "interrupted: progress saved, re-run to resume")
			return fmt.Errorf("annotation interrupted")
		}
		return runErr
	}

	if len(report.NotFound) > 0 && len(report.Completed) == 0 && len(report.Failed) == 0 {
		return fmt.Errorf("no corpus file found for any requested category")
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d categor(ies) aborted", len(report.Failed))
	}
	if report.Summary.HasFailures() {
		return fmt.Errorf("%d document(s) failed annotation", report.Summary.Failed)
	}
	return nil
}

// runSummary is the cross-category progress file written after each run.
type runSummary struct {
	GeneratedAt time.Time                    `json:"generated_at"`
	Categories  []checkpoint.CategorySummary `json:"categories"`
	Processed   int                          `json:"papers_processed"`
	Succeeded   int                          `json:"papers_success"`
	Failed      int                          `json:"papers_failed"`
}

func writeRunSummary(store *checkpoint.Store, outputRoot string) error {
	summaries, err := store.Summaries()
	if err != nil {
		return err
	}

	out := runSummary{
		GeneratedAt: time.Now().UTC(),
		Categories:  summaries,
	}
	for _, s := range summaries {
		out.Processed += s.Processed
		out.Succeeded += s.Succeeded
		out.Failed += s.Failed
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputRoot, "summary.json"), data, 0o644)
}
