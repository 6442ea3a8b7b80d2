// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger appends annotation results to per-category output files.
// Ledgers are append-only: records are never reordered or rewritten, and a
// restarted run's results are concatenated after prior runs' results.
package ledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/impact-observatory/pkg/types"
)

// FileSuffix is the naming convention for category ledger files.
const FileSuffix = "_annotations.jsonl"

// Ledger lines hold full annotation payloads; allow lines up to 8 MiB.
const (
	scanBufSize = 64 * 1024
	scanBufMax  = 8 << 20
)

// Sink writes one self-contained JSON record per line to a category's
// ledger. Files are opened in append mode and synced after every record,
// so a crash immediately after an append never loses a committed result.
type Sink struct {
	dir   string
	files map[string]*os.File
}

// NewSink returns a Sink writing under dir.
func NewSink(dir string) *Sink {
	return &Sink{dir: dir, files: make(map[string]*os.File)}
}

// Path returns the ledger file path for category.
func (s *Sink) Path(category string) string {
	return filepath.Join(s.dir, category+FileSuffix)
}

// Append writes one result as a single line and syncs the file before
// returning. The caller marks the checkpoint only after Append succeeds,
// so the ledger is always a subset of the checkpoint's processed ids.
func (s *Sink) Append(category string, res *types.AnnotationResult) error {
	f, ok := s.files[category]
	if !ok {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory %s: %w", s.dir, err)
		}
		var err error
		f, err = os.OpenFile(s.Path(category), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening ledger %s: %w", s.Path(category), err)
		}
		s.files[category] = f
	}

	line, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshaling annotation for %s: %w", res.DocumentID, err)
	}
	line = append(line, '\n')

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("appending to ledger %s: %w", s.Path(category), err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing ledger %s: %w", s.Path(category), err)
	}
	return nil
}

// Close closes all open ledger files. The Sink can be reused afterwards;
// the next Append re-opens in append mode.
func (s *Sink) Close() error {
	var firstErr error
	for category, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing ledger for %s: %w", category, err)
		}
		delete(s.files, category)
	}
	return firstErr
}

// Read streams the records of a category's ledger in append order.
// A missing ledger file is not an error: the category simply has no
// results yet. Unparsable lines are skipped.
func Read(dir, category string, fn func(types.AnnotationResult) error) error {
	path := filepath.Join(dir, category+FileSuffix)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening ledger %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, scanBufSize), scanBufMax)

	for scanner.Scan() {
		var res types.AnnotationResult
		if err := json.Unmarshal(scanner.Bytes(), &res); err != nil {
			continue
		}
		if err := fn(res); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading ledger %s: %w", path, err)
	}
	return nil
}
