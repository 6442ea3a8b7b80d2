// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Year is a publication year that may be absent or recorded as the
// sentinel "unknown" in corpus metadata.
type Year struct {
	// Value is the four-digit year. Meaningless when Known is false.
	Value int

	// Known reports whether the corpus carried a usable year.
	Known bool
}

// YearOf returns a known Year for v.
func YearOf(v int) Year {
	return Year{Value: v, Known: true}
}

// String returns the year digits, or "unknown".
func (y Year) String() string {
	if !y.Known {
		return "unknown"
	}
	return strconv.Itoa(y.Value)
}

// MarshalJSON encodes a known year as a number and an unknown year as
// the string "unknown", matching the corpus convention.
func (y Year) MarshalJSON() ([]byte, error) {
	if !y.Known {
		return []byte(`"unknown"`), nil
	}
	return []byte(strconv.Itoa(y.Value)), nil
}

// UnmarshalJSON accepts a number, a numeric string, or anything else
// (null, "unknown", malformed) as an unknown year. Corpus metadata is
// inconsistent at scale, so decoding never fails on the year field.
func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*y = Year{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*y = Year{}
			return nil
		}
		if v, err := strconv.Atoi(s); err == nil {
			*y = Year{Value: v, Known: true}
		} else {
			*y = Year{}
		}
		return nil
	}

	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		*y = Year{}
		return nil
	}
	*y = Year{Value: v, Known: true}
	return nil
}

// Document is one paper's text and metadata, the unit of annotation.
// A document is immutable once read from the corpus.
type Document struct {
	// ID is the corpus identifier, unique within a category.
	ID string `json:"id" yaml:"id"`

	// Text is the full paper text as extracted into the corpus.
	Text string `json:"text" yaml:"text"`

	// Year is the publication year from corpus metadata, possibly unknown.
	Year Year `json:"year" yaml:"year"`

	// Category is the corpus partition the document was read from.
	Category string `json:"category" yaml:"category"`
}
