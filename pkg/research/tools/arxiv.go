package tools

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const arxivURL = "https://export.arxiv.org/api/query"

// ArxivEntry struct to hold arXiv entry data
type ArxivEntry struct {
	Title     string      `xml:"title"`
	Summary   string      `xml:"summary"`
	Published string      `xml:"published"`
	ID        string      `xml:"id"`
	Link      []ArxivLink `xml:"link"`
}

// ArxivLink struct to hold arXiv link data
type ArxivLink struct {
	Href string `xml:"href,attr"`
	Type string `xml:"type,attr"`
}

// ArxivFeed struct to hold the entire arXiv feed
type ArxivFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entry   []ArxivEntry `xml:"entry"`
}

// Arxiv searches the arXiv Atom API. Useful when the market context should
// lean on published literature rather than news.
type Arxiv struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
}

func (a *Arxiv) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	maxResults = clampResults(maxResults, 5, 50)

	params := url.Values{}
	params.Add("search_query", "all:"+strings.TrimSpace(query))
	params.Add("max_results", strconv.Itoa(maxResults))
	params.Add("start", "0")

	baseURL := a.BaseURL
	if baseURL == "" {
		baseURL = arxivURL
	}
	apiURL := baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	client := a.Client
	if client == nil {
		timeout := a.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		slog.Error("API returned non-200 status code", "status", resp.StatusCode, "body", string(bodyBytes))
		return nil, fmt.Errorf("API returned non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var feed ArxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal XML: %w", err)
	}

	results := make([]SearchResult, 0, len(feed.Entry))
	for _, entry := range feed.Entry {
		results = append(results, SearchResult{
			Title:   collapse(entry.Title),
			URL:     entry.link(),
			Snippet: collapse(entry.Summary),
		})
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// link prefers the PDF link and falls back to the abstract page.
func (e ArxivEntry) link() string {
	for _, l := range e.Link {
		if l.Type == "application/pdf" {
			return l.Href
		}
	}
	return strings.TrimSpace(e.ID)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
