// Package annotate sends bounded document text to an external generation
// service and validates the returned payload into structured annotations.
package annotate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/pdiddy/impact-observatory/pkg/types"
)

// defaultMaxAttempts is the total attempt budget per document, covering
// transport failures, malformed output, and schema violations alike.
const defaultMaxAttempts = 3

// backoffBase controls the base duration for exponential backoff between
// attempts. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// Client annotates documents through a generation Service. A call either
// yields one complete validated payload or a failure; it never returns a
// partial result and never panics on service misbehavior.
type Client struct {
	service Service
	mode    Mode
	cfg     types.AnnotatorConfig
	schema  *jsonschema.Schema
}

// NewClient builds a client for the given mode, compiling the mode's
// payload schema once up front.
func NewClient(service Service, mode Mode, cfg types.AnnotatorConfig) (*Client, error) {
	schema, err := compileSchema(string(mode)+".schema.json", mode.schemaSource())
	if err != nil {
		return nil, fmt.Errorf("compiling %s schema: %w", mode, err)
	}
	return &Client{service: service, mode: mode, cfg: cfg, schema: schema}, nil
}

// Mode returns the annotation mode the client is configured for.
func (c *Client) Mode() Mode { return c.mode }

// Annotate runs the full attempt loop for one document: generate, parse,
// repair, validate. Transport failures, unparsable output, and schema
// violations all consume an attempt and back off before the next try.
// The returned error is a per-document failure for the caller to record,
// except context cancellation, which is propagated as such.
func (c *Client) Annotate(ctx context.Context, doc types.Document, boundedText string) (*types.AnnotationResult, error) {
	prompt, system, err := c.mode.renderPrompt(doc, boundedText)
	if err != nil {
		return nil, err
	}

	attempts := c.cfg.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		raw, err := c.service.Generate(ctx, prompt, system)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		payload, err := extractPayload(raw)
		if err != nil {
			lastErr = fmt.Errorf("parsing annotation payload: %w", err)
			continue
		}

		if err := c.validate(payload); err != nil {
			lastErr = err
			continue
		}

		return &types.AnnotationResult{
			DocumentID:  doc.ID,
			Category:    doc.Category,
			Year:        doc.Year,
			Fields:      payload,
			ExtractedAt: time.Now().UTC(),
		}, nil
	}

	return nil, fmt.Errorf("annotating %s after %d attempts: %w", doc.ID, attempts, lastErr)
}

// validate checks the payload against the mode schema.
func (c *Client) validate(payload json.RawMessage) error {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return fmt.Errorf("decoding payload for validation: %w", err)
	}
	if err := c.schema.Validate(v); err != nil {
		return fmt.Errorf("payload does not match %s schema: %w", c.mode, err)
	}
	return nil
}

// compileSchema compiles a JSON Schema document.
func compileSchema(name, src string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader([]byte(src))); err != nil {
		return nil, err
	}
	return compiler.Compile(name)
}
