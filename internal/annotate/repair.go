// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractPayload parses raw model output into a JSON object. Models asked
// for "ONLY valid JSON" still wrap it in prose or code fences often enough
// that direct parsing gets one repair attempt: the first balanced
// curly-brace span in the text.
func extractPayload(raw string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("empty response")
	}

	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), nil
	}

	span, ok := braceSpan(trimmed)
	if !ok {
		return nil, fmt.Errorf("no JSON object in response")
	}
	if !json.Valid([]byte(span)) {
		return nil, fmt.Errorf("brace span is not valid JSON")
	}
	return json.RawMessage(span), nil
}

// braceSpan returns the first balanced {...} span in s, tracking string
// literals and escapes so braces inside strings do not affect nesting.
func braceSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
