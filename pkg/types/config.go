package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "impact-observatory/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AnnotatorConfig holds settings for the annotation service client.
type AnnotatorConfig struct {
	HTTPConfig `yaml:",inline"`

	// Endpoint is the base URL of the annotation service
	// (e.g. "http://localhost:11434" for a local Ollama instance).
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Model is the generation model identifier (e.g. "llama3.1:8b").
	Model string `json:"model" yaml:"model"`

	// APIKey is an optional bearer token for hosted annotation endpoints.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxAttempts is the total number of annotation attempts per document,
	// including the first (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// Temperature is the generation temperature. Low values keep the
	// extraction output consistent (default 0.1).
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxOutputTokens bounds the length of the generated response (default 2000).
	MaxOutputTokens int `json:"max_output_tokens" yaml:"max_output_tokens"`
}

// PipelineConfig holds settings for a batch annotation run.
type PipelineConfig struct {
	// InputDir is the directory of compressed corpus files, one
	// [category].jsonl.gz per category.
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// OutputDir is the root for checkpoints, ledgers, and summaries.
	// Each annotation mode writes under its own subdirectory.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// MaxTextLength bounds the document text sent for annotation (default 8000).
	MaxTextLength int `json:"max_text_length" yaml:"max_text_length"`

	// FlushEvery is the number of documents between checkpoint flushes
	// (default 50). At most FlushEvery-1 documents are re-attempted after
	// an abnormal stop.
	FlushEvery int `json:"flush_every" yaml:"flush_every"`

	// DocumentDelay is the pause between consecutive annotation calls
	// (default 100ms). The annotation service is a shared resource.
	DocumentDelay time.Duration `json:"document_delay" yaml:"document_delay"`
}

// ReportConfig holds settings for the aggregate report stage.
type ReportConfig struct {
	// OutputDir is the pipeline output root containing mode subdirectories
	// with category ledgers. The report index lives under analysis/.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// TopN is the number of entries kept in ranked lists such as top
	// frameworks (default 20).
	TopN int `json:"top_n" yaml:"top_n"`
}
