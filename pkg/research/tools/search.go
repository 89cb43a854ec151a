// Package tools implements the web and literature search providers used to
// gather market data.
package tools

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// SearchResult represents a single search result
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher runs one query and returns at most maxResults records.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// Options configures a provider. Zero values fall back to provider defaults.
type Options struct {
	Provider string
	BaseURL  string
	Timeout  time.Duration
	Client   *http.Client
}

// New returns the searcher named by opts.Provider.
func New(opts Options) (Searcher, error) {
	switch opts.Provider {
	case "", "duckduckgo":
		return &DuckDuckGo{BaseURL: opts.BaseURL, Timeout: opts.Timeout, Client: opts.Client}, nil
	case "arxiv":
		return &Arxiv{BaseURL: opts.BaseURL, Timeout: opts.Timeout, Client: opts.Client}, nil
	default:
		return nil, fmt.Errorf("invalid search provider: %s", opts.Provider)
	}
}

func clampResults(n, def, max int) int {
	if n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
