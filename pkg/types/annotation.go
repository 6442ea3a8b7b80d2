// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"time"
)

// AnnotationResult is the validated structured output produced by the
// annotation service for one document. Results are append-only: once
// written to a category ledger they are never mutated or deleted.
type AnnotationResult struct {
	// DocumentID identifies the annotated document within its category.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// Category is the corpus partition the document belongs to.
	Category string `json:"category" yaml:"category"`

	// Year is the document's publication year, possibly unknown.
	Year Year `json:"year" yaml:"year"`

	// Fields is the schema-validated annotation payload as returned by
	// the service. Validation happens once, at the annotator client
	// boundary; consumers can decode without re-checking structure.
	Fields json.RawMessage `json:"fields" yaml:"fields"`

	// ExtractedAt is the UTC time the annotation was produced.
	ExtractedAt time.Time `json:"extracted_at" yaml:"extracted_at"`
}
