// Package generator runs a report prompt against an ordered list of models,
// falling through to the next model on quota and availability errors.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mikeboe/sensight/pkg/clients"
	"github.com/mikeboe/sensight/pkg/config"
)

var ErrNoModels = errors.New("no models configured")

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Result is the text produced by the first model that succeeded.
type Result struct {
	Text  string
	Model string
	// Attempts lists the models that failed before Model answered.
	Attempts []Attempt
}

type Generator struct {
	Client        clients.Client
	Models        []string
	RetryAttempts int
	RetryBackoff  time.Duration
	QuotaWait     time.Duration
	Sleep         SleepFunc
	Logger        *slog.Logger
}

func New(client clients.Client, models []string, cfg config.GenerationConfig) *Generator {
	return &Generator{
		Client:        client,
		Models:        models,
		RetryAttempts: cfg.RetryAttempts,
		RetryBackoff:  cfg.RetryBackoff,
		QuotaWait:     cfg.QuotaWait,
		Sleep:         sleepContext,
		Logger:        slog.Default(),
	}
}

// Generate walks the model list in order. When onChunk is non-nil the
// response is streamed and every chunk is passed to it as it arrives; the
// returned Result always carries the full text.
func (g *Generator) Generate(ctx context.Context, req clients.Request, onChunk func(string)) (*Result, error) {
	if len(g.Models) == 0 {
		return nil, ErrNoModels
	}

	var failed []Attempt
	for i, model := range g.Models {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := g.tryModel(ctx, model, req, onChunk)
		if err == nil {
			if len(failed) > 0 {
				g.logger().Info("Fallback model answered", "model", model, "skipped", len(failed))
			}
			return &Result{Text: text, Model: model, Attempts: failed}, nil
		}

		outcome := Classify(err)
		failed = append(failed, Attempt{Model: model, Outcome: outcome, Err: err})

		switch outcome {
		case OutcomeQuota:
			g.logger().Warn("Model quota exhausted, switching model", "model", model, "error", err)
			if i < len(g.Models)-1 {
				if err := g.sleep(ctx, g.QuotaWait); err != nil {
					return nil, err
				}
			}
		case OutcomeUnavailable:
			g.logger().Warn("Model unavailable, switching model", "model", model, "error", err)
		case OutcomeTransient:
			g.logger().Warn("Model kept failing, switching model", "model", model, "error", err)
		default:
			return nil, fmt.Errorf("failed to generate with %s: %w", model, err)
		}
	}

	return nil, &ExhaustedError{Attempts: failed}
}

// tryModel retries transient failures on a single model with linear backoff.
func (g *Generator) tryModel(ctx context.Context, model string, req clients.Request, onChunk func(string)) (string, error) {
	attempts := g.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			g.logger().Warn("Retrying LLM generation", "model", model, "attempt", i+1, "last_error", lastErr)
			if err := g.sleep(ctx, g.RetryBackoff*time.Duration(i)); err != nil {
				return "", err
			}
		}

		text, err := g.once(ctx, model, req, onChunk)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if Classify(err) != OutcomeTransient {
			return "", err
		}
	}
	return "", lastErr
}

// once runs a single attempt. An empty reply is never a success.
func (g *Generator) once(ctx context.Context, model string, req clients.Request, onChunk func(string)) (string, error) {
	if onChunk == nil {
		text, err := g.Client.Generate(ctx, model, req)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", clients.ErrEmptyResponse
		}
		return text, nil
	}

	var sb strings.Builder
	delivered := 0
	for chunk, err := range g.Client.Stream(ctx, model, req) {
		if err != nil {
			if delivered > 0 {
				return "", &StreamError{Model: model, Delivered: delivered, Err: err}
			}
			return "", err
		}
		if chunk == "" {
			continue
		}
		sb.WriteString(chunk)
		onChunk(chunk)
		delivered++
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", clients.ErrEmptyResponse
	}
	return sb.String(), nil
}

func (g *Generator) sleep(ctx context.Context, d time.Duration) error {
	if g.Sleep == nil {
		return sleepContext(ctx, d)
	}
	return g.Sleep(ctx, d)
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
