// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package checkpoint tracks which document ids have been attempted for a
// category, persisted so a restarted run skips completed work.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	progressDir = "progress"
	fileSuffix  = "_progress.json"
)

// record is the persisted form of a category's checkpoint.
type record struct {
	ProcessedIDs []string  `json:"processed_ids"`
	Processed    int       `json:"papers_processed"`
	Succeeded    int       `json:"papers_success"`
	Failed       int       `json:"papers_failed"`
	LastUpdate   time.Time `json:"last_update"`
	Completed    bool      `json:"completed"`
}

// Store manages per-category checkpoint files under a pipeline output root.
type Store struct {
	dir string
}

// NewStore returns a Store writing under outputDir/progress/.
func NewStore(outputDir string) *Store {
	return &Store{dir: filepath.Join(outputDir, progressDir)}
}

// State is one category's in-memory checkpoint. The batch runner is the
// sole writer for a category, so State needs no internal locking.
type State struct {
	path      string
	ids       map[string]struct{}
	processed int
	succeeded int
	failed    int
	completed bool
}

// Load reads the checkpoint for category, or returns an empty state if
// none exists yet.
func (s *Store) Load(category string) (*State, error) {
	st := &State{
		path: filepath.Join(s.dir, category+fileSuffix),
		ids:  make(map[string]struct{}),
	}

	data, err := os.ReadFile(st.path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return nil, fmt.Errorf("reading checkpoint %s: %w", st.path, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing checkpoint %s: %w", st.path, err)
	}

	for _, id := range rec.ProcessedIDs {
		st.ids[id] = struct{}{}
	}
	st.processed = rec.Processed
	st.succeeded = rec.Succeeded
	st.failed = rec.Failed
	st.completed = rec.Completed
	return st, nil
}

// Contains reports whether id has already been attempted.
func (st *State) Contains(id string) bool {
	_, ok := st.ids[id]
	return ok
}

// Mark records an attempt for id. Marking an already-processed id is a
// no-op: counts never double and the id set only grows.
func (st *State) Mark(id string, succeeded bool) {
	if _, ok := st.ids[id]; ok {
		return
	}
	st.ids[id] = struct{}{}
	st.processed++
	if succeeded {
		st.succeeded++
	} else {
		st.failed++
	}
}

// Len returns the number of attempted ids.
func (st *State) Len() int { return len(st.ids) }

// Counts returns the processed, succeeded, and failed counters.
func (st *State) Counts() (processed, succeeded, failed int) {
	return st.processed, st.succeeded, st.failed
}

// Completed reports whether a prior run finished the category.
func (st *State) Completed() bool { return st.completed }

// Flush durably persists the state. The write goes to a temporary file
// renamed over the checkpoint, so a concurrent or subsequent Load never
// observes a partially written record.
func (st *State) Flush(completed bool) error {
	st.completed = completed

	ids := make([]string, 0, len(st.ids))
	for id := range st.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rec := record{
		ProcessedIDs: ids,
		Processed:    st.processed,
		Succeeded:    st.succeeded,
		Failed:       st.failed,
		LastUpdate:   time.Now().UTC(),
		Completed:    completed,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling checkpoint: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(st.path), 0o755); err != nil {
		return fmt.Errorf("creating progress directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(st.path), ".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp checkpoint: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	syncErr := tmp.Sync()
	closeErr := tmp.Close()
	for _, err := range []error{writeErr, syncErr, closeErr} {
		if err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("writing temp checkpoint: %w", err)
		}
	}

	if err := os.Rename(tmpPath, st.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing checkpoint %s: %w", st.path, err)
	}
	return nil
}

// CategorySummary mirrors one category's persisted checkpoint counters.
type CategorySummary struct {
	Category  string `json:"category" yaml:"category"`
	Processed int    `json:"papers_processed" yaml:"papers_processed"`
	Succeeded int    `json:"papers_success" yaml:"papers_success"`
	Failed    int    `json:"papers_failed" yaml:"papers_failed"`
	Completed bool   `json:"completed" yaml:"completed"`
}

// Summaries reads every checkpoint under the store and returns per-category
// counters, sorted by category. A store with no progress directory yields
// an empty slice.
func (s *Store) Summaries() ([]CategorySummary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading progress directory %s: %w", s.dir, err)
	}

	var summaries []CategorySummary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading checkpoint %s: %w", entry.Name(), err)
		}
		var rec record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("parsing checkpoint %s: %w", entry.Name(), err)
		}

		summaries = append(summaries, CategorySummary{
			Category:  strings.TrimSuffix(entry.Name(), fileSuffix),
			Processed: rec.Processed,
			Succeeded: rec.Succeeded,
			Failed:    rec.Failed,
			Completed: rec.Completed,
		})
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Category < summaries[j].Category })
	return summaries, nil
}
