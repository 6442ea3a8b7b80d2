package textprep

import (
	"strings"
	"testing"
)

func TestBound_ShortTextUnchanged(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"single char", "x"},
		{"exactly at limit", strings.Repeat("a", 100)},
		{"plain sentence", "A short abstract about nothing in particular."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Bound(tt.text, 100); got != tt.text {
				t.Errorf("Bound changed text that already fits: %q -> %q", tt.text, got)
			}
		})
	}
}

func TestBound_SectionAware(t *testing.T) {
	// Build a text with recognizable sections, each padded well past the
	// extraction window so only the marker regions survive.
	pad := strings.Repeat("z", 3000)
	text := "Introduction: we study widgets. " + pad +
		" Methods: we apply the usual approach. " + pad +
		" Results: widgets improved. " + pad +
		" Conclusion: more widgets needed. " + pad

	got := Bound(text, 8000)

	if len(got) > 8000+len("...") {
		t.Fatalf("output length %d exceeds limit plus marker", len(got))
	}
	lower := strings.ToLower(got)
	for _, want := range []string{"introduction", "method", "result", "conclusion"} {
		if !strings.Contains(lower, want) {
			t.Errorf("section %q missing from bounded output", want)
		}
	}
	// Windows are joined in marker scan order: introductory before concluding.
	if strings.Index(lower, "introduction") > strings.Index(lower, "conclusion") {
		t.Errorf("sections not in scan order")
	}
}

func TestBound_WindowAroundMarker(t *testing.T) {
	before := strings.Repeat("a", 5000)
	after := strings.Repeat("b", 5000)
	text := before + "introduction" + after

	got := Bound(text, 8000)

	// The window starts 50 characters before the marker and runs 1500 past
	// its start.
	if !strings.Contains(got, strings.Repeat("a", 50)+"introduction") {
		t.Errorf("window does not include 50 characters before the marker")
	}
	wantLen := 50 + 1500
	if len(got) != wantLen {
		t.Errorf("window length = %d, want %d", len(got), wantLen)
	}
}

func TestBound_FallbackHeadAndTail(t *testing.T) {
	head := strings.Repeat("h", 6000)
	tail := strings.Repeat("t", 6000)
	text := head + tail

	got := Bound(text, 8000)

	if len(got) != 8000+len("\n...\n") {
		t.Errorf("fallback length = %d, want %d", len(got), 8000+len("\n...\n"))
	}
	if !strings.HasPrefix(got, "hhhh") || !strings.HasSuffix(got, "tttt") {
		t.Errorf("fallback does not keep head and tail")
	}
	if !strings.Contains(got, "\n...\n") {
		t.Errorf("fallback missing ellipsis joiner")
	}
}

func TestBound_AlwaysBounded(t *testing.T) {
	// Property from the pipeline contract: output length is at most
	// limit plus the joiner/truncation marker, for any input.
	inputs := []string{
		"",
		"x",
		strings.Repeat("introduction ", 5000),
		strings.Repeat("\x00\xff binary noise ", 4000),
		strings.Repeat("no markers here ", 4000),
		strings.Repeat("a", 100001),
	}
	const limit = 8000
	maxAllowed := limit + len("\n...\n")

	for i, text := range inputs {
		got := Bound(text, limit)
		if len(got) > maxAllowed {
			t.Errorf("input %d: output length %d exceeds %d", i, len(got), maxAllowed)
		}
		// Deterministic: a second call must agree.
		if again := Bound(text, limit); again != got {
			t.Errorf("input %d: Bound is not deterministic", i)
		}
	}
}

func TestBound_DefaultLimit(t *testing.T) {
	text := strings.Repeat("q", 20000)
	got := Bound(text, 0)
	if len(got) > DefaultMaxLength+len("\n...\n") {
		t.Errorf("default limit not applied: length %d", len(got))
	}
}
