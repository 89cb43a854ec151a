// Package market gathers web snippets about a project's market. A lookup
// never fails: every error degrades to a placeholder context.
package market

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mikeboe/sensight/pkg/config"
	"github.com/mikeboe/sensight/pkg/research/tools"
)

// Placeholder is the context used when nothing could be retrieved.
const Placeholder = "No external market data was retrieved; rely on the supplied project information and general industry knowledge."

type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
)

// Outcome is the result of a market lookup.
type Outcome struct {
	Status  Status               `json:"status"`
	Context string               `json:"context,omitempty"`
	Reason  string               `json:"reason,omitempty"`
	Sources []tools.SearchResult `json:"sources,omitempty"`
}

// Text returns the string to embed in the prompt. It is never empty.
func (o Outcome) Text() string {
	if o.Status == StatusOK && strings.TrimSpace(o.Context) != "" {
		return o.Context
	}
	return Placeholder
}

func degraded(reason string) Outcome {
	return Outcome{Status: StatusDegraded, Reason: reason}
}

type Fetcher struct {
	Searcher     tools.Searcher
	Suffixes     []string
	MaxResults   int
	KeywordRunes int
	Pause        time.Duration
	Logger       *slog.Logger
}

func NewFetcher(searcher tools.Searcher, cfg config.SearchConfig) *Fetcher {
	return &Fetcher{
		Searcher:     searcher,
		Suffixes:     cfg.Suffixes,
		MaxResults:   cfg.MaxResults,
		KeywordRunes: cfg.KeywordRunes,
		Pause:        cfg.Pause,
		Logger:       slog.Default(),
	}
}

// Queries derives the search strings for topic: a truncated keyword
// followed by each suffix.
func (f *Fetcher) Queries(topic string) []string {
	keyword := Keyword(topic, f.KeywordRunes)
	if keyword == "" {
		return nil
	}
	suffixes := f.Suffixes
	if len(suffixes) == 0 {
		suffixes = config.DefaultSearchSuffixes
	}
	out := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		out = append(out, strings.TrimSpace(keyword+" "+s))
	}
	return out
}

// Keyword collapses whitespace in topic and keeps at most n runes.
func Keyword(topic string, n int) string {
	keyword := strings.Join(strings.Fields(topic), " ")
	if n <= 0 {
		return keyword
	}
	runes := []rune(keyword)
	if len(runes) > n {
		keyword = strings.TrimSpace(string(runes[:n]))
	}
	return keyword
}

// Fetch runs every query in order and concatenates the snippets. Provider
// errors are logged and skipped.
func (f *Fetcher) Fetch(ctx context.Context, topic string) Outcome {
	if f.Searcher == nil {
		return degraded("search disabled")
	}
	queries := f.Queries(topic)
	if len(queries) == 0 {
		return degraded("empty topic")
	}

	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if f.Pause > 0 {
		limiter = rate.NewLimiter(rate.Every(f.Pause), 1)
	}

	var (
		sb       strings.Builder
		sources  []tools.SearchResult
		failures int
	)
	for _, q := range queries {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				logger.Warn("Market search interrupted", "error", err)
				break
			}
		}

		results, err := f.Searcher.Search(ctx, q, f.MaxResults)
		if err != nil {
			failures++
			logger.Warn("Market search failed", "query", q, "error", err)
			continue
		}
		if len(results) == 0 {
			continue
		}

		fmt.Fprintf(&sb, "[%s]\n", q)
		for _, r := range results {
			fmt.Fprintf(&sb, "%s: %s\n", r.Title, r.Snippet)
		}
		sb.WriteString("\n")
		sources = append(sources, results...)
	}

	if len(sources) == 0 {
		reason := "no results"
		if failures > 0 {
			reason = fmt.Sprintf("%d of %d queries failed", failures, len(queries))
		}
		if ctx.Err() != nil {
			reason = ctx.Err().Error()
		}
		return degraded(reason)
	}

	logger.Info("Market search finished", "queries", len(queries), "sources", len(sources), "failures", failures)
	return Outcome{
		Status:  StatusOK,
		Context: strings.TrimSpace(sb.String()),
		Sources: sources,
	}
}
