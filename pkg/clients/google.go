package clients

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"google.golang.org/genai"
)

// GoogleAI talks to the Gemini API through the genai SDK.
type GoogleAI struct {
	client *genai.Client
}

func NewGoogleAI(ctx context.Context, apiKey string) (*GoogleAI, error) {
	return newGoogleAI(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

func newGoogleAI(ctx context.Context, cfg *genai.ClientConfig) (*GoogleAI, error) {
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GoogleAI{client: client}, nil
}

func (g *GoogleAI) Generate(ctx context.Context, model string, req Request) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, userContents(req), generationConfig(req))
	if err != nil {
		return "", err
	}
	if err := blocked(resp); err != nil {
		return "", err
	}
	if err := stopped(resp); err != nil {
		return "", err
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (g *GoogleAI) Stream(ctx context.Context, model string, req Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for resp, err := range g.client.Models.GenerateContentStream(ctx, model, userContents(req), generationConfig(req)) {
			if err != nil {
				yield("", err)
				return
			}
			if err := blocked(resp); err != nil {
				yield("", err)
				return
			}
			if err := stopped(resp); err != nil {
				yield("", err)
				return
			}
			if text := resp.Text(); text != "" {
				if !yield(text, nil) {
					return
				}
			}
		}
	}
}

// ListModels returns the models that support generateContent.
func (g *GoogleAI) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var models []ModelInfo
	for m, err := range g.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("failed to list models: %w", err)
		}
		if !supportsGenerate(m.SupportedActions) {
			continue
		}
		models = append(models, ModelInfo{
			Name:        strings.TrimPrefix(m.Name, "models/"),
			DisplayName: m.DisplayName,
		})
	}
	return models, nil
}

func supportsGenerate(actions []string) bool {
	for _, a := range actions {
		if a == "generateContent" {
			return true
		}
	}
	return false
}

func userContents(req Request) []*genai.Content {
	return []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: req.User}},
		},
	}
}

func generationConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.RelaxSafety {
		cfg.SafetySettings = relaxedSafety()
	}
	return cfg
}

func relaxedSafety() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockNone,
		})
	}
	return settings
}

// blocked reports a prompt rejected by the safety filter. Gemini answers
// such prompts with an empty candidate list instead of an HTTP error.
func blocked(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return fmt.Errorf("empty response")
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return &BlockedError{Reason: string(resp.PromptFeedback.BlockReason)}
	}
	return nil
}

// stopped reports a candidate the model cut off on content grounds
// (SAFETY, RECITATION, PROHIBITED_CONTENT, ...). Such candidates usually
// carry no parts, so the response text is empty rather than an error.
func stopped(resp *genai.GenerateContentResponse) error {
	for _, c := range resp.Candidates {
		if c == nil {
			continue
		}
		switch c.FinishReason {
		case "", genai.FinishReasonUnspecified, genai.FinishReasonStop, genai.FinishReasonMaxTokens:
			continue
		}
		return &BlockedError{Reason: string(c.FinishReason), Message: c.FinishMessage}
	}
	return nil
}

// BlockedError is returned when the provider refuses the prompt on content grounds.
type BlockedError struct {
	Reason  string
	Message string
}

func (e *BlockedError) Error() string {
	msg := "response blocked by content filter: " + e.Reason
	if e.Message != "" {
		msg += " (" + e.Message + ")"
	}
	return msg
}
