// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textprep bounds document text to a maximum annotation input size
// using a section-aware selection heuristic.
package textprep

import "strings"

// DefaultMaxLength is the default bound on annotation input text.
const DefaultMaxLength = 8000

// ellipsis separates extracted sections and marks elided text.
const ellipsis = "\n...\n"

// markerGroups lists section markers in scan order: introductory,
// methodological, results, concluding. Extracted windows are concatenated
// in this order, not in document order.
var markerGroups = [][]string{
	{"introduction", "abstract", "background"},
	{"method", "approach", "algorithm", "model"},
	{"result", "experiment", "evaluation"},
	{"conclusion", "discussion", "future work"},
}

const (
	windowBefore = 50
	windowAfter  = 1500
)

// Bound returns text cut down to at most limit characters plus a small
// truncation marker. Text that already fits is returned unchanged.
//
// Oversized text is reduced by scanning the lowercased text for section
// markers and extracting a window around each one found. If no marker
// appears anywhere, the head and tail of the text are joined instead.
// Bound is deterministic and never fails, whatever the input: it is a
// heuristic for keeping the informative parts of a paper, not a summarizer.
func Bound(text string, limit int) string {
	if limit <= 0 {
		limit = DefaultMaxLength
	}
	if len(text) <= limit {
		return text
	}

	lower := strings.ToLower(text)

	var parts []string
	for _, group := range markerGroups {
		for _, marker := range group {
			idx := strings.Index(lower, marker)
			if idx < 0 {
				continue
			}
			start := idx - windowBefore
			if start < 0 {
				start = 0
			}
			end := idx + windowAfter
			if end > len(text) {
				end = len(text)
			}
			parts = append(parts, text[start:end])
		}
	}

	if len(parts) > 0 {
		combined := strings.Join(parts, ellipsis)
		if len(combined) <= limit {
			return combined
		}
		return combined[:limit] + "..."
	}

	// No section markers anywhere: keep the beginning and the end.
	half := limit / 2
	return text[:half] + ellipsis + text[len(text)-half:]
}
