// Package research runs one report request through market search, prompt
// assembly and generation.
package research

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mikeboe/sensight/pkg/clients"
	"github.com/mikeboe/sensight/pkg/config"
	"github.com/mikeboe/sensight/pkg/generator"
	"github.com/mikeboe/sensight/pkg/market"
	"github.com/mikeboe/sensight/pkg/prompt"
	"github.com/mikeboe/sensight/pkg/research/tools"
)

// ClientFactory builds a backend client for one request's credential.
type ClientFactory func(ctx context.Context, opts clients.Options) (clients.Client, error)

type Engine struct {
	Config    *config.Config
	Fetcher   *market.Fetcher
	NewClient ClientFactory
	Sleep     generator.SleepFunc
	Logger    *slog.Logger
	Now       func() time.Time
}

func NewEngine(cfg *config.Config) (*Engine, error) {
	e := &Engine{
		Config:    cfg,
		NewClient: clients.New,
		Logger:    slog.Default(),
		Now:       time.Now,
	}
	if !cfg.Search.Disabled {
		searcher, err := tools.New(tools.Options{
			Provider: cfg.Search.Provider,
			BaseURL:  cfg.Search.BaseURL,
			Timeout:  cfg.Search.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init search: %w", err)
		}
		e.Fetcher = market.NewFetcher(searcher, cfg.Search)
	}
	return e, nil
}

// Validate checks a normalized request. It performs no I/O.
func Validate(req *Request) error {
	if req.APIKey == "" {
		return ErrMissingCredential
	}
	if req.Body == "" {
		return ErrEmptyInput
	}
	if _, err := prompt.Lookup(req.Task, req.Language); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// Models returns the fallback order for a request: the preferred model
// first, then the configured list without duplicates.
func (e *Engine) Models(preferred string) []string {
	out := make([]string, 0, len(e.Config.Models)+1)
	seen := make(map[string]bool)
	for _, m := range append([]string{preferred}, e.Config.Models...) {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// SearchMarket looks up market data for topic. It never fails.
func (e *Engine) SearchMarket(ctx context.Context, topic string) market.Outcome {
	if e.Fetcher == nil {
		return market.Outcome{Status: market.StatusDegraded, Reason: "search disabled"}
	}
	return e.Fetcher.Fetch(ctx, topic)
}

func (e *Engine) searchEnabled(req *Request) bool {
	if req.Search != nil {
		return *req.Search && e.Fetcher != nil
	}
	return e.Fetcher != nil
}

// Run produces a report for req. Input errors are returned before any
// network call is made.
func (e *Engine) Run(ctx context.Context, req Request, cb Callbacks) (*Report, error) {
	req.Normalize()
	if err := Validate(&req); err != nil {
		return nil, err
	}

	logger := e.logger().With("request_id", req.ID)
	logger.Info("Starting report", "task", req.Task, "language", req.Language, "search", e.searchEnabled(&req))

	update := func(s State) {
		s.RequestID = req.ID
		if cb.OnStateUpdate != nil {
			cb.OnStateUpdate(s)
		}
	}

	outcome := market.Outcome{Status: market.StatusDegraded, Reason: "search skipped"}
	if e.searchEnabled(&req) {
		update(State{Stage: StageSearching})
		outcome = e.Fetcher.Fetch(ctx, req.Topic())
		if outcome.Status == market.StatusDegraded {
			logger.Warn("Market data degraded", "reason", outcome.Reason)
		}
	}

	p, err := prompt.Assemble(prompt.Input{
		ProjectName:   req.ProjectName,
		Indication:    req.Indication,
		Stage:         req.Stage,
		Modality:      req.Modality,
		Body:          req.Body,
		Task:          req.Task,
		Language:      req.Language,
		MarketContext: outcome.Text(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to assemble prompt: %w", err)
	}

	client, err := e.NewClient(ctx, clients.Options{
		Provider: e.Config.Provider,
		APIKey:   req.APIKey,
		BaseURL:  e.Config.OpenAIBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init LLM: %w", err)
	}

	gen := generator.New(client, e.Models(req.Model), e.Config.Generation)
	gen.Logger = logger
	if e.Sleep != nil {
		gen.Sleep = e.Sleep
	}

	update(State{Stage: StageGenerating, Sources: len(outcome.Sources)})
	res, err := gen.Generate(ctx, clients.Request{
		System:          p.System,
		User:            p.User,
		Temperature:     e.Config.Generation.Temperature,
		MaxOutputTokens: e.Config.Generation.MaxOutputTokens,
		RelaxSafety:     true,
	}, cb.OnChunk)
	if err != nil {
		logger.Error("Report generation failed", "error", err)
		return nil, err
	}

	fallbacks := make([]string, 0, len(res.Attempts))
	for _, a := range res.Attempts {
		fallbacks = append(fallbacks, a.Model)
	}

	report := &Report{
		ID:          req.ID,
		ProjectName: req.ProjectName,
		Task:        req.Task,
		Language:    req.Language,
		Markdown:    res.Text,
		Model:       res.Model,
		Fallbacks:   fallbacks,
		Sources:     outcome.Sources,
		GeneratedAt: e.now(),
	}
	update(State{Stage: StageDone, Sources: len(outcome.Sources)})
	logger.Info("Report generated", "model", res.Model, "chars", len(res.Text))
	return report, nil
}

// ListModels returns the models the credential can use for generation.
func (e *Engine) ListModels(ctx context.Context, apiKey string) ([]clients.ModelInfo, error) {
	if apiKey == "" {
		return nil, ErrMissingCredential
	}
	client, err := e.NewClient(ctx, clients.Options{
		Provider: e.Config.Provider,
		APIKey:   apiKey,
		BaseURL:  e.Config.OpenAIBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init LLM: %w", err)
	}
	lister, ok := client.(clients.Lister)
	if !ok {
		return nil, fmt.Errorf("provider %s cannot list models", e.Config.Provider)
	}
	return lister.ListModels(ctx)
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now().UTC()
	}
	return e.Now().UTC()
}
