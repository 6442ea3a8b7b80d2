// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/impact-observatory/internal/httputil"
	"github.com/pdiddy/impact-observatory/pkg/types"
)

// Service abstracts the text-generation API so tests can supply a mock.
// Generate returns the raw response text for one prompt; it does not
// interpret the payload.
type Service interface {
	Generate(ctx context.Context, prompt, system string) (string, error)
	Ping(ctx context.Context) error
}

// rateLimitRetries bounds in-request retries on HTTP 429 before the
// attempt is handed back to the client's own retry loop.
const rateLimitRetries = 2

// OllamaService calls an Ollama-compatible generation endpoint.
type OllamaService struct {
	cfg    types.AnnotatorConfig
	client *http.Client
}

// NewOllamaService returns a service for cfg.Endpoint with the configured
// request timeout.
func NewOllamaService(cfg types.AnnotatorConfig) *OllamaService {
	return &OllamaService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// generateRequest is the request body for the /api/generate endpoint.
type generateRequest struct {
	Model   string          `json:"model"`
	System  string          `json:"system,omitempty"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Format  string          `json:"format,omitempty"`
	Options generateOptions `json:"options"`
}

// generateOptions is the generation configuration: low temperature and a
// bounded response budget keep extraction output consistent.
type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

// generateResponse is the response body from /api/generate.
type generateResponse struct {
	Response string `json:"response"`
}

// Generate issues one generation request and returns the raw response
// text. HTTP 429 is retried in place with backoff; every other transport
// failure is returned to the caller's retry loop.
func (s *OllamaService) Generate(ctx context.Context, prompt, system string) (string, error) {
	temperature := s.cfg.Temperature
	if temperature == 0 {
		temperature = 0.1
	}
	numPredict := s.cfg.MaxOutputTokens
	if numPredict <= 0 {
		numPredict = 2000
	}

	reqBody := generateRequest{
		Model:  s.cfg.Model,
		System: system,
		Prompt: prompt,
		Stream: false,
		Format: "json",
		Options: generateOptions{
			Temperature: temperature,
			NumPredict:  numPredict,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling generate request: %w", err)
	}

	url := strings.TrimSuffix(s.cfg.Endpoint, "/") + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, s.client, req, rateLimitRetries)
	if err != nil {
		return "", fmt.Errorf("calling annotation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("annotation service returned %d: %s", resp.StatusCode, string(body))
	}

	var gResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gResp); err != nil {
		return "", fmt.Errorf("decoding generate response: %w", err)
	}
	return gResp.Response, nil
}

// tagsResponse is the response body from /api/tags.
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Ping verifies the service is reachable and the configured model is
// installed. Run before a batch so a misconfigured endpoint fails fast
// instead of failing every document.
func (s *OllamaService) Ping(ctx context.Context) error {
	url := strings.TrimSuffix(s.cfg.Endpoint, "/") + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating tags request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("annotation service not reachable at %s: %w", s.cfg.Endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("annotation service returned %d from %s", resp.StatusCode, url)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("decoding tags response: %w", err)
	}

	for _, m := range tags.Models {
		if strings.Contains(m.Name, s.cfg.Model) {
			return nil
		}
	}
	return fmt.Errorf("model %q not installed on annotation service (%d models available)",
		s.cfg.Model, len(tags.Models))
}

func (s *OllamaService) setHeaders(req *http.Request) {
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}
}
