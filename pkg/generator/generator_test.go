package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/genai"

	"github.com/mikeboe/sensight/pkg/clients"
	"github.com/mikeboe/sensight/pkg/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	errQuota    = genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "Quota exceeded"}
	errNotFound = genai.APIError{Code: 404, Status: "NOT_FOUND", Message: "models/x is not found"}
	errOutage   = genai.APIError{Code: 503, Status: "UNAVAILABLE", Message: "overloaded"}
	errBadKey   = genai.APIError{Code: 400, Status: "INVALID_ARGUMENT", Message: "API key not valid"}
)

func newTestGenerator(client clients.Client, models ...string) (*Generator, *sleepRecorder) {
	rec := &sleepRecorder{}
	g := New(client, models, config.GenerationConfig{
		RetryAttempts: 3,
		RetryBackoff:  time.Second,
		QuotaWait:     2 * time.Second,
	})
	g.Sleep = rec.Sleep
	return g, rec
}

func TestGenerateFallsThroughQuota(t *testing.T) {
	client := newFakeClient(map[string][]step{
		"a": {{err: errQuota}},
		"b": {{err: errQuota}},
		"c": {{chunks: []string{"## Report"}}},
	})
	g, rec := newTestGenerator(client, "a", "b", "c")

	res, err := g.Generate(context.Background(), clients.Request{User: "x"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "## Report", res.Text)
	assert.Equal(t, "c", res.Model)
	if diff := cmp.Diff([]string{"a", "b", "c"}, client.Calls()); diff != "" {
		t.Errorf("call order mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, OutcomeQuota, res.Attempts[0].Outcome)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, rec.waits)
}

func TestGenerateAllQuotaIsExhausted(t *testing.T) {
	client := newFakeClient(map[string][]step{
		"a": {{err: errQuota}},
		"b": {{err: errQuota}},
	})
	g, rec := newTestGenerator(client, "a", "b")

	_, err := g.Generate(context.Background(), clients.Request{User: "x"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllEnginesExhausted)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Len(t, exhausted.Attempts, 2)
	assert.Equal(t, "a", exhausted.Attempts[0].Model)
	assert.Equal(t, "b", exhausted.Attempts[1].Model)
	// No wait after the last model.
	assert.Len(t, rec.waits, 1)
}

func TestGenerateFatalStopsImmediately(t *testing.T) {
	client := newFakeClient(map[string][]step{
		"a": {{err: errBadKey}},
	})
	g, rec := newTestGenerator(client, "a", "b", "c")

	_, err := g.Generate(context.Background(), clients.Request{User: "x"}, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAllEnginesExhausted)
	var apiErr genai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Code)
	assert.Equal(t, []string{"a"}, client.Calls())
	assert.Empty(t, rec.waits)
}

func TestGenerateNotFoundAdvancesWithoutWaiting(t *testing.T) {
	client := newFakeClient(map[string][]step{
		"a": {{err: errNotFound}},
		"b": {{chunks: []string{"ok"}}},
	})
	g, rec := newTestGenerator(client, "a", "b")

	res, err := g.Generate(context.Background(), clients.Request{User: "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "b", res.Model)
	assert.Empty(t, rec.waits)
}

func TestGenerateRetriesTransientOnSameModel(t *testing.T) {
	client := newFakeClient(map[string][]step{
		"a": {{err: errOutage}, {err: errOutage}, {chunks: []string{"third time"}}},
	})
	g, rec := newTestGenerator(client, "a", "b")

	res, err := g.Generate(context.Background(), clients.Request{User: "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "a", res.Model)
	assert.Equal(t, "third time", res.Text)
	assert.Equal(t, []string{"a", "a", "a"}, client.Calls())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.waits)
}

func TestGenerateTransientExhaustionAdvances(t *testing.T) {
	client := newFakeClient(map[string][]step{
		"a": {{err: errOutage}},
		"b": {{chunks: []string{"from b"}}},
	})
	g, _ := newTestGenerator(client, "a", "b")

	res, err := g.Generate(context.Background(), clients.Request{User: "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "b", res.Model)
	assert.Equal(t, []string{"a", "a", "a", "b"}, client.Calls())
	require.Len(t, res.Attempts, 1)
	assert.Equal(t, OutcomeTransient, res.Attempts[0].Outcome)
}

func TestGenerateStreamsChunksInOrder(t *testing.T) {
	client := newFakeClient(map[string][]step{
		"a": {{err: errQuota}},
		"b": {{chunks: []string{"## One\n", "text ", "more"}}},
	})
	g, _ := newTestGenerator(client, "a", "b")

	var got []string
	res, err := g.Generate(context.Background(), clients.Request{User: "x"}, func(chunk string) {
		got = append(got, chunk)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"## One\n", "text ", "more"}, got)
	assert.Equal(t, "## One\ntext more", res.Text)
}

func TestGenerateStreamFailureAfterChunkIsFatal(t *testing.T) {
	client := newFakeClient(map[string][]step{
		"a": {{chunks: []string{"partial"}, err: errQuota}},
	})
	g, _ := newTestGenerator(client, "a", "b")

	var got []string
	_, err := g.Generate(context.Background(), clients.Request{User: "x"}, func(chunk string) {
		got = append(got, chunk)
	})
	require.Error(t, err)

	var se *StreamError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.Delivered)
	assert.Equal(t, []string{"partial"}, got)
	assert.Equal(t, []string{"a"}, client.Calls())
}

func TestGenerateRejectsEmptyReply(t *testing.T) {
	client := newFakeClient(map[string][]step{
		"a": {{chunks: []string{"  "}}},
		"b": {{chunks: []string{"from b"}}},
	})
	g, _ := newTestGenerator(client, "a", "b")

	res, err := g.Generate(context.Background(), clients.Request{User: "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "b", res.Model)
	assert.Equal(t, "from b", res.Text)
	require.Len(t, res.Attempts, 1)
	assert.ErrorIs(t, res.Attempts[0].Err, clients.ErrEmptyResponse)
}

func TestGenerateEmptyStreamIsNotSuccess(t *testing.T) {
	client := newFakeClient(map[string][]step{
		"a": {{chunks: nil}},
	})
	g, _ := newTestGenerator(client, "a")

	_, err := g.Generate(context.Background(), clients.Request{User: "x"}, func(string) {})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllEnginesExhausted)
}

func TestGenerateBlockedReplyIsFatal(t *testing.T) {
	client := newFakeClient(map[string][]step{
		"a": {{err: &clients.BlockedError{Reason: "SAFETY"}}},
	})
	g, _ := newTestGenerator(client, "a", "b")

	_, err := g.Generate(context.Background(), clients.Request{User: "x"}, nil)
	var be *clients.BlockedError
	require.ErrorAs(t, err, &be)
	assert.Contains(t, err.Error(), "SAFETY")
	assert.Equal(t, []string{"a"}, client.Calls())
}

func TestGenerateHonoursCancellation(t *testing.T) {
	client := newFakeClient(map[string][]step{
		"a": {{err: errQuota}},
	})
	g := New(client, []string{"a", "b"}, config.GenerationConfig{QuotaWait: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := g.Generate(ctx, clients.Request{User: "x"}, nil)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, []string{"a"}, client.Calls())
}

func TestGenerateWithoutModels(t *testing.T) {
	g, _ := newTestGenerator(newFakeClient(nil))
	_, err := g.Generate(context.Background(), clients.Request{}, nil)
	assert.ErrorIs(t, err, ErrNoModels)
}
