// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus reads compressed line-delimited category files and yields
// documents for annotation.
package corpus

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/impact-observatory/pkg/types"
)

// fileSuffix is the naming convention for category corpus files.
const fileSuffix = ".jsonl.gz"

// Corpus lines hold full paper text; allow lines up to 32 MiB.
const (
	scanBufSize = 64 * 1024
	scanBufMax  = 32 << 20
)

// ErrCategoryNotFound reports a requested category with no corpus file.
// Fatal for that category only; other categories proceed.
var ErrCategoryNotFound = errors.New("category corpus file not found")

// Reader yields the documents of one category. The underlying file is
// never mutated, so Count and Each can each make independent full passes.
type Reader struct {
	inputDir string
	category string
}

// NewReader returns a Reader for inputDir/[category].jsonl.gz.
func NewReader(inputDir, category string) *Reader {
	return &Reader{inputDir: inputDir, category: category}
}

// Path returns the corpus file path for the category.
func (r *Reader) Path() string {
	return filepath.Join(r.inputDir, r.category+fileSuffix)
}

func (r *Reader) open() (io.ReadCloser, *gzip.Reader, error) {
	f, err := os.Open(r.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, r.Path())
		}
		return nil, nil, fmt.Errorf("opening corpus file %s: %w", r.Path(), err)
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("reading corpus file %s: %w", r.Path(), err)
	}
	return f, gz, nil
}

// Count returns the number of lines in the corpus file. The count is used
// for progress reporting only, never for correctness: malformed lines are
// counted here but skipped by Each.
func (r *Reader) Count(ctx context.Context) (int, error) {
	f, gz, err := r.open()
	if err != nil {
		return 0, err
	}
	defer f.Close()
	defer gz.Close()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, scanBufSize), scanBufMax)

	n := 0
	for scanner.Scan() {
		n++
		if n%1000 == 0 {
			select {
			case <-ctx.Done():
				return n, ctx.Err()
			default:
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("counting corpus file %s: %w", r.Path(), err)
	}
	return n, nil
}

// corpusLine is the wire form of one corpus record.
type corpusLine struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Metadata struct {
		Year types.Year `json:"year"`
	} `json:"metadata"`
}

// Each decodes the corpus file line by line and calls fn for every valid
// document. Lines that fail to parse, or that lack an identifier, are
// skipped silently: malformed input is expected at scale and must not
// abort a run. A non-nil error from fn stops iteration and is returned.
func (r *Reader) Each(ctx context.Context, fn func(types.Document) error) error {
	f, gz, err := r.open()
	if err != nil {
		return err
	}
	defer f.Close()
	defer gz.Close()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, scanBufSize), scanBufMax)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var line corpusLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			continue
		}
		if line.ID == "" {
			continue
		}

		doc := types.Document{
			ID:       line.ID,
			Text:     line.Text,
			Year:     line.Metadata.Year,
			Category: r.category,
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading corpus file %s: %w", r.Path(), err)
	}
	return nil
}

// ListCategories returns the sorted category names with corpus files in
// inputDir.
func ListCategories(inputDir string) ([]string, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", inputDir, err)
	}

	var categories []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		categories = append(categories, strings.TrimSuffix(entry.Name(), fileSuffix))
	}
	sort.Strings(categories)
	return categories, nil
}
