package annotate

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/impact-observatory/pkg/types"
)

func TestMain(m *testing.M) {
	// Override backoff to avoid real sleeps in retry tests.
	backoffBase = time.Millisecond
	os.Exit(m.Run())
}

// scriptedService returns one canned response (or error) per call.
type scriptedService struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedService) Generate(_ context.Context, _, _ string) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", fmt.Errorf("unscripted call %d", i)
}

func (s *scriptedService) Ping(context.Context) error { return nil }

func testDoc() types.Document {
	return types.Document{
		ID:       "2301.00001",
		Text:     "We train a transformer.",
		Year:     types.YearOf(2023),
		Category: "cs",
	}
}

func testClient(t *testing.T, svc Service, mode Mode) *Client {
	t.Helper()
	c, err := NewClient(svc, mode, types.AnnotatorConfig{Model: "test-model", MaxAttempts: 3})
	require.NoError(t, err)
	return c
}

const validImpact = `{"ml_adoption": {"frameworks": ["PyTorch"]}, "reproducibility": {"code_available": true}}`

func TestAnnotate_Success(t *testing.T) {
	svc := &scriptedService{responses: []string{validImpact}}
	c := testClient(t, svc, ModeImpact)

	res, err := c.Annotate(context.Background(), testDoc(), "bounded text")
	require.NoError(t, err)

	assert.Equal(t, "2301.00001", res.DocumentID)
	assert.Equal(t, "cs", res.Category)
	assert.Equal(t, types.YearOf(2023), res.Year)
	assert.JSONEq(t, validImpact, string(res.Fields))
	assert.False(t, res.ExtractedAt.IsZero())
	assert.Equal(t, 1, svc.calls)
}

func TestAnnotate_RetriesTransportFailure(t *testing.T) {
	svc := &scriptedService{
		errs:      []error{fmt.Errorf("connection refused"), fmt.Errorf("timeout")},
		responses: []string{"", "", validImpact},
	}
	c := testClient(t, svc, ModeImpact)

	res, err := c.Annotate(context.Background(), testDoc(), "text")
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Equal(t, 3, svc.calls)
}

func TestAnnotate_ExhaustsAttempts(t *testing.T) {
	svc := &scriptedService{
		errs: []error{fmt.Errorf("down"), fmt.Errorf("down"), fmt.Errorf("down")},
	}
	c := testClient(t, svc, ModeImpact)

	res, err := c.Annotate(context.Background(), testDoc(), "text")
	assert.Nil(t, res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, svc.calls)
}

func TestAnnotate_GarbageOutputEveryAttempt(t *testing.T) {
	// Unparsable output is retried with the same budget as transport
	// failures, then surfaces as a per-document failure.
	svc := &scriptedService{responses: []string{"garbage{not json", "garbage{not json", "garbage{not json"}}
	c := testClient(t, svc, ModeImpact)

	res, err := c.Annotate(context.Background(), testDoc(), "text")
	assert.Nil(t, res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing annotation payload")
	assert.Equal(t, 3, svc.calls)
}

func TestAnnotate_RepairsProseWrappedJSON(t *testing.T) {
	svc := &scriptedService{responses: []string{
		"Sure! Here is the JSON you asked for:\n" + validImpact + "\nHope that helps.",
	}}
	c := testClient(t, svc, ModeImpact)

	res, err := c.Annotate(context.Background(), testDoc(), "text")
	require.NoError(t, err)
	assert.JSONEq(t, validImpact, string(res.Fields))
	assert.Equal(t, 1, svc.calls)
}

func TestAnnotate_SchemaViolationRetried(t *testing.T) {
	// A payload whose known section has the wrong shape consumes an
	// attempt; a later valid payload succeeds.
	svc := &scriptedService{responses: []string{
		`{"ml_adoption": "PyTorch"}`,
		validImpact,
	}}
	c := testClient(t, svc, ModeImpact)

	res, err := c.Annotate(context.Background(), testDoc(), "text")
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Equal(t, 2, svc.calls)
}

func TestAnnotate_NullSectionsAreValid(t *testing.T) {
	svc := &scriptedService{responses: []string{`{"ml_adoption": null, "citations": null}`}}
	c := testClient(t, svc, ModeImpact)

	res, err := c.Annotate(context.Background(), testDoc(), "text")
	require.NoError(t, err)
	assert.NotNil(t, res)
}

func TestAnnotate_ContributionMode(t *testing.T) {
	payload := `{"ml_impact_quantification": {"has_ml_usage": true, "ml_contribution_level": "moderate"}}`
	svc := &scriptedService{responses: []string{payload}}
	c := testClient(t, svc, ModeContribution)

	res, err := c.Annotate(context.Background(), testDoc(), "text")
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(res.Fields))
}

func TestAnnotate_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := &scriptedService{errs: []error{context.Canceled}}
	c := testClient(t, svc, ModeImpact)

	_, err := c.Annotate(ctx, testDoc(), "text")
	assert.ErrorIs(t, err, context.Canceled)
	// Cancellation short-circuits the attempt loop.
	assert.Equal(t, 1, svc.calls)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"impact", ModeImpact, false},
		{"contribution", ModeContribution, false},
		{"", "", true},
		{"adoption", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderPrompt(t *testing.T) {
	doc := testDoc()

	prompt, system, err := ModeImpact.renderPrompt(doc, "BOUNDED TEXT")
	require.NoError(t, err)
	assert.Empty(t, system)
	assert.Contains(t, prompt, "Paper ID: 2301.00001")
	assert.Contains(t, prompt, "Year: 2023")
	assert.Contains(t, prompt, "Field: cs")
	assert.Contains(t, prompt, "BOUNDED TEXT")

	prompt, system, err = ModeContribution.renderPrompt(doc, "BOUNDED TEXT")
	require.NoError(t, err)
	assert.Contains(t, system, "expert academic analyst")
	assert.Contains(t, prompt, "ml_impact_quantification")
}

func TestRenderPrompt_UnknownYear(t *testing.T) {
	doc := testDoc()
	doc.Year = types.Year{}

	prompt, _, err := ModeImpact.renderPrompt(doc, "t")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Year: unknown")
}
