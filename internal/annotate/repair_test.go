package annotate

import (
	"encoding/json"
	"testing"
)

func TestExtractPayload_BareJSON(t *testing.T) {
	got, err := extractPayload(`{"ml_adoption": {"frameworks": ["PyTorch"]}}`)
	if err != nil {
		t.Fatalf("extractPayload failed on bare JSON: %v", err)
	}
	if !json.Valid(got) {
		t.Errorf("extractPayload returned invalid JSON: %s", got)
	}
}

func TestExtractPayload_ProseWrapped(t *testing.T) {
	raw := "Here is the extracted information:\n{\"reproducibility\": {\"code_available\": true}}\nLet me know if you need more."
	got, err := extractPayload(raw)
	if err != nil {
		t.Fatalf("extractPayload failed on prose-wrapped JSON: %v", err)
	}
	if string(got) != `{"reproducibility": {"code_available": true}}` {
		t.Errorf("extractPayload = %s, want inner object", got)
	}
}

func TestExtractPayload_CodeFence(t *testing.T) {
	raw := "```json\n{\"citations\": null}\n```"
	got, err := extractPayload(raw)
	if err != nil {
		t.Fatalf("extractPayload failed on code fence: %v", err)
	}
	if string(got) != `{"citations": null}` {
		t.Errorf("extractPayload = %s, want bare object", got)
	}
}

func TestExtractPayload_BracesInsideStrings(t *testing.T) {
	raw := `noise {"note": "uses {curly} braces", "n": 1} trailing`
	got, err := extractPayload(raw)
	if err != nil {
		t.Fatalf("extractPayload failed: %v", err)
	}
	var decoded struct {
		Note string `json:"note"`
		N    int    `json:"n"`
	}
	if err := json.Unmarshal(got, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Note != "uses {curly} braces" || decoded.N != 1 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestExtractPayload_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "   \n  "},
		{"no braces", "the paper uses PyTorch"},
		{"unbalanced", `garbage{not json`},
		{"invalid span", `{"key": }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := extractPayload(tt.raw); err == nil {
				t.Errorf("extractPayload(%q) succeeded, want error", tt.raw)
			}
		})
	}
}

func TestBraceSpan(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"simple", `{"a":1}`, `{"a":1}`, true},
		{"nested", `x {"a":{"b":2}} y`, `{"a":{"b":2}}`, true},
		{"escaped quote", `{"a":"he said \"{\""}`, `{"a":"he said \"{\""}`, true},
		{"first of two", `{"a":1} {"b":2}`, `{"a":1}`, true},
		{"never closes", `{"a":1`, "", false},
		{"no brace", `plain text`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := braceSpan(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("braceSpan(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}
