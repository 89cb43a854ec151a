package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAI("test-key", srv.URL+"/v1")
}

func TestOpenAIGenerate(t *testing.T) {
	client := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  ## Report\n"},"finish_reason":"stop"}]}`)
	})

	text, err := client.Generate(context.Background(), "local-model", Request{System: "sys", User: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "## Report", text)
}

func TestOpenAIGenerateQuotaError(t *testing.T) {
	client := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`)
	})

	_, err := client.Generate(context.Background(), "gpt-4o", Request{User: "hello"})
	require.Error(t, err)

	var apiErr *openai.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.HTTPStatusCode)
}

func TestOpenAIStream(t *testing.T) {
	client := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range []string{"## A", "\n- one", "\n- two"} {
			fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", chunk)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	var chunks []string
	for chunk, err := range client.Stream(context.Background(), "local-model", Request{User: "hello"}) {
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}
	assert.Equal(t, []string{"## A", "\n- one", "\n- two"}, chunks)
	assert.Equal(t, "## A\n- one\n- two", strings.Join(chunks, ""))
}

func TestChatRequest(t *testing.T) {
	req := chatRequest("m", Request{System: "be brief", User: "hi", Temperature: 0.1, MaxOutputTokens: 256})
	require.Len(t, req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, req.Messages[1].Role)
	assert.Equal(t, 256, req.MaxTokens)

	req = chatRequest("m", Request{User: "hi"})
	require.Len(t, req.Messages, 1)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Options{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestOpenAIGenerateContentFilter(t *testing.T) {
	client := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":""},"finish_reason":"content_filter"}]}`)
	})

	text, err := client.Generate(context.Background(), "gpt-4o", Request{User: "hello"})
	assert.Empty(t, text)
	var be *BlockedError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "content_filter", be.Reason)
}

func TestOpenAIGenerateEmptyReply(t *testing.T) {
	client := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  "},"finish_reason":"stop"}]}`)
	})

	_, err := client.Generate(context.Background(), "gpt-4o", Request{User: "hello"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAIStreamContentFilter(t *testing.T) {
	client := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"## A\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{},\"finish_reason\":\"content_filter\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	var chunks []string
	var streamErr error
	for chunk, err := range client.Stream(context.Background(), "gpt-4o", Request{User: "hello"}) {
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
