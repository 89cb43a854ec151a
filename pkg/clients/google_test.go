package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func newFakeGoogleAI(t *testing.T, handler http.HandlerFunc) *GoogleAI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := newGoogleAI(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL},
	})
	require.NoError(t, err)
	return g
}

func TestGenerationConfig(t *testing.T) {
	cfg := generationConfig(Request{System: "role", User: "u", Temperature: 0.2, MaxOutputTokens: 2048, RelaxSafety: true})

	if assert.NotNil(t, cfg.Temperature) {
		assert.InDelta(t, 0.2, *cfg.Temperature, 0.0001)
	}
	assert.Equal(t, int32(2048), cfg.MaxOutputTokens)
	if assert.NotNil(t, cfg.SystemInstruction) {
		assert.Equal(t, "role", cfg.SystemInstruction.Parts[0].Text)
	}
	assert.Len(t, cfg.SafetySettings, 4)
	for _, s := range cfg.SafetySettings {
		assert.Equal(t, genai.HarmBlockThresholdBlockNone, s.Threshold)
	}

	plain := generationConfig(Request{User: "u"})
	assert.Nil(t, plain.SystemInstruction)
	assert.Empty(t, plain.SafetySettings)
	assert.Zero(t, plain.MaxOutputTokens)
}

func TestBlocked(t *testing.T) {
	assert.Error(t, blocked(nil))
	assert.NoError(t, blocked(&genai.GenerateContentResponse{}))

	err := blocked(&genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
	})
	var be *BlockedError
	assert.ErrorAs(t, err, &be)
}

func TestSupportsGenerate(t *testing.T) {
	assert.True(t, supportsGenerate([]string{"countTokens", "generateContent"}))
	assert.False(t, supportsGenerate([]string{"embedContent"}))
}

func TestGoogleGenerate(t *testing.T) {
	g := newFakeGoogleAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.5-pro:generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"## Report"}]},"finishReason":"STOP","index":0}]}`)
	})

	text, err := g.Generate(context.Background(), "gemini-2.5-pro", Request{User: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "## Report", text)
}

func TestGoogleGenerateBlockedCandidate(t *testing.T) {
	for _, reason := range []string{"SAFETY", "RECITATION", "PROHIBITED_CONTENT"} {
		t.Run(reason, func(t *testing.T) {
			g := newFakeGoogleAI(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprintf(w, `{"candidates":[{"finishReason":%q,"index":0}]}`, reason)
			})

			text, err := g.Generate(context.Background(), "gemini-2.5-pro", Request{User: "hello"})
			assert.Empty(t, text)
			var be *BlockedError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, reason, be.Reason)
			assert.Contains(t, err.Error(), reason)
		})
	}
}

func TestGoogleGenerateEmptyCandidate(t *testing.T) {
	g := newFakeGoogleAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[{"finishReason":"STOP","index":0}]}`)
	})

	_, err := g.Generate(context.Background(), "gemini-2.5-pro", Request{User: "hello"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGoogleStreamBlockedMidway(t *testing.T) {
	g := newFakeGoogleAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":\"## A\"}]},\"index\":0}]}\n\n")
		fmt.Fprint(w, "data: {\"candidates\":[{\"finishReason\":\"SAFETY\",\"index\":0}]}\n\n")
	})

	var chunks []string
	var streamErr error
	for chunk, err := range g.Stream(context.Background(), "gemini-2.5-pro", Request{User: "hello"}) {
		if err != nil {
			streamErr = err
			break
		}
		chunks = append(chunks, chunk)
	}
	assert.Equal(t, []string{"## A"}, chunks)
	var be *BlockedError
	assert.ErrorAs(t, streamErr, &be)
}

func TestStopped(t *testing.T) {
	ok := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonMaxTokens}}}
	assert.NoError(t, stopped(ok))

	cut := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety, FinishMessage: "flagged"}}}
	err := stopped(cut)
	var be *BlockedError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "SAFETY", be.Reason)
	assert.Contains(t, err.Error(), "flagged")
}
