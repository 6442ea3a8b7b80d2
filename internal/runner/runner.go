// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runner orchestrates batch annotation for categories: source,
// text preparation, annotation, checkpointing, and ledger output.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/impact-observatory/internal/checkpoint"
	"github.com/pdiddy/impact-observatory/internal/corpus"
	"github.com/pdiddy/impact-observatory/internal/ledger"
	"github.com/pdiddy/impact-observatory/internal/textprep"
	"github.com/pdiddy/impact-observatory/pkg/types"
)

// defaultFlushEvery bounds re-attempted work after an abnormal stop to
// one flush interval.
const defaultFlushEvery = 50

// Annotator is the per-document annotation call. Implementations return
// either one complete result or an error; context cancellation surfaces
// as a context error.
type Annotator interface {
	Annotate(ctx context.Context, doc types.Document, boundedText string) (*types.AnnotationResult, error)
}

// Summary holds the outcome counts of one run.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int
}

// Total returns the number of documents seen.
func (s Summary) Total() int {
	return s.Succeeded + s.Failed + s.Skipped
}

// HasFailures reports whether any documents failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

func (s *Summary) add(o Summary) {
	s.Succeeded += o.Succeeded
	s.Failed += o.Failed
	s.Skipped += o.Skipped
}

// Runner processes categories one document at a time. A Runner is the
// sole writer to its checkpoint store and sink; concurrent runners on the
// same category are not supported.
type Runner struct {
	cfg         types.PipelineConfig
	annotator   Annotator
	checkpoints *checkpoint.Store
	sink        *ledger.Sink
}

// New builds a Runner over the given collaborators.
func New(cfg types.PipelineConfig, annotator Annotator, checkpoints *checkpoint.Store, sink *ledger.Sink) *Runner {
	return &Runner{cfg: cfg, annotator: annotator, checkpoints: checkpoints, sink: sink}
}

// RunCategory annotates every unprocessed document of one category.
//
// The corpus is passed twice: once to count documents for progress
// reporting, then again for processing. Documents already in the
// checkpoint are skipped without an annotation call. Per-document
// failures are recorded and absorbed; only category-level problems
// (missing corpus file, storage errors) or cancellation abort the run,
// and both flush the checkpoint on the way out.
func (r *Runner) RunCategory(ctx context.Context, category string, w io.Writer) (Summary, error) {
	flushEvery := r.cfg.FlushEvery
	if flushEvery <= 0 {
		flushEvery = defaultFlushEvery
	}

	src := corpus.NewReader(r.cfg.InputDir, category)

	total, err := src.Count(ctx)
	if err != nil {
		return Summary{}, err
	}

	state, err := r.checkpoints.Load(category)
	if err != nil {
		return Summary{}, err
	}

	fmt.Fprintf(w, "%s: %d documents, %d already processed\n", category, total, state.Len())

	var sum Summary
	sinceFlush := 0
	annotated := false

	err = src.Each(ctx, func(doc types.Document) error {
		if state.Contains(doc.ID) {
			sum.Skipped++
			return nil
		}

		// Pace requests: the annotation service is a shared resource.
		if annotated && r.cfg.DocumentDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.cfg.DocumentDelay):
			}
		}
		annotated = true

		bounded := textprep.Bound(doc.Text, r.cfg.MaxTextLength)

		res, annErr := r.annotator.Annotate(ctx, doc, bounded)
		if annErr != nil {
			// The in-flight document stays unmarked on cancellation so a
			// resumed run re-attempts it.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(w, "failed  %s: %v\n", doc.ID, annErr)
			state.Mark(doc.ID, false)
			sum.Failed++
		} else {
			// Append before mark: a crash between the two leaves a ledger
			// record for an unmarked id, which the resumed run re-attempts.
			// The reverse order could mark a result that was never written.
			if err := r.sink.Append(category, res); err != nil {
				return fmt.Errorf("writing result for %s: %w", doc.ID, err)
			}
			state.Mark(doc.ID, true)
			sum.Succeeded++
		}

		sinceFlush++
		if sinceFlush >= flushEvery {
			if err := state.Flush(false); err != nil {
				return fmt.Errorf("flushing checkpoint for %s: %w", category, err)
			}
			sinceFlush = 0
		}
		return nil
	})

	if err != nil {
		// Interrupted or category-fatal: persist what was done first.
		if ferr := state.Flush(false); ferr != nil {
			fmt.Fprintf(w, "warning: checkpoint flush failed for %s: %v\n", category, ferr)
		}
		return sum, err
	}

	if err := state.Flush(true); err != nil {
		return sum, fmt.Errorf("flushing checkpoint for %s: %w", category, err)
	}

	fmt.Fprintf(w, "%s done: %d annotated, %d failed, %d skipped\n",
		category, sum.Succeeded, sum.Failed, sum.Skipped)
	return sum, nil
}

// Report holds the outcome of a multi-category run.
type Report struct {
	Summary Summary

	// Completed lists categories that ran to normal exhaustion.
	Completed []string

	// NotFound lists requested categories with no corpus file. No
	// progress was attempted for these.
	NotFound []string

	// Failed lists categories aborted by a category-fatal error other
	// than a missing corpus file.
	Failed []string
}

// RunAll processes categories sequentially. A missing or broken category
// is reported and skipped; the remaining categories still run. Only
// cancellation stops the whole batch, and it is returned as the error
// after the current category's checkpoint has been flushed.
func (r *Runner) RunAll(ctx context.Context, categories []string, w io.Writer) (Report, error) {
	var report Report

	for _, category := range categories {
		sum, err := r.RunCategory(ctx, category, w)
		report.Summary.add(sum)

		switch {
		case err == nil:
			report.Completed = append(report.Completed, category)
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return report, err
		case errors.Is(err, corpus.ErrCategoryNotFound):
			fmt.Fprintf(w, "skipped %s: %v\n", category, err)
			report.NotFound = append(report.NotFound, category)
		default:
			fmt.Fprintf(w, "failed  %s: %v\n", category, err)
			report.Failed = append(report.Failed, category)
		}
	}

	fmt.Fprintf(w, "\nBatch summary: %d annotated, %d failed, %d skipped (total: %d)\n",
		report.Summary.Succeeded, report.Summary.Failed, report.Summary.Skipped, report.Summary.Total())
	return report, nil
}
