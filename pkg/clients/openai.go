package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAI talks to any OpenAI compatible chat-completion endpoint
// (OpenAI itself, LM Studio, vLLM, ...).
type OpenAI struct {
	client *openai.Client
}

func NewOpenAI(apiKey, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg)}
}

func (o *OpenAI) Generate(ctx context.Context, model string, req Request) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, chatRequest(model, req))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return "", &BlockedError{Reason: string(choice.FinishReason)}
	}
	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (o *OpenAI) Stream(ctx context.Context, model string, req Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		cr := chatRequest(model, req)
		cr.Stream = true
		stream, err := o.client.CreateChatCompletionStream(ctx, cr)
		if err != nil {
			yield("", err)
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			choice := resp.Choices[0]
			if choice.Delta.Content != "" {
				if !yield(choice.Delta.Content, nil) {
					return
				}
			}
			if choice.FinishReason == openai.FinishReasonContentFilter {
				yield("", &BlockedError{Reason: string(choice.FinishReason)})
				return
			}
		}
	}
}

func (o *OpenAI) ListModels(ctx context.Context) ([]ModelInfo, error) {
	list, err := o.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	models := make([]ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		models = append(models, ModelInfo{Name: m.ID})
	}
	return models, nil
}

func chatRequest(model string, req Request) openai.ChatCompletionRequest {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.User})

	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxOutputTokens,
	}
}
