package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mikeboe/sensight/pkg/prompt"
	"github.com/mikeboe/sensight/pkg/research"
	"github.com/mikeboe/sensight/pkg/research/tools"
)

// Version is reported to MCP clients.
var Version = "dev"

type GenerateReportArgs struct {
	ProjectName string `json:"project_name,omitempty" jsonschema:"project name or code name"`
	Indication  string `json:"indication,omitempty" jsonschema:"target indication"`
	Stage       string `json:"stage,omitempty" jsonschema:"development stage"`
	Modality    string `json:"modality,omitempty" jsonschema:"technology or modality"`
	Body        string `json:"body" jsonschema:"raw project information: technology, clinical data, team, financing"`
	Task        string `json:"task,omitempty" jsonschema:"executive_summary, business_plan, market_analysis or investor_pitch"`
	Language    string `json:"language,omitempty" jsonschema:"output language, zh or en"`
	Search      bool   `json:"search,omitempty" jsonschema:"look up market data before generating"`
}

type GenerateReportResp struct {
	ID       string `json:"id"`
	Model    string `json:"model"`
	Markdown string `json:"markdown"`
}

type SearchMarketArgs struct {
	Topic string `json:"topic" jsonschema:"project or product to look up"`
}

type SearchMarketResp struct {
	Status  string               `json:"status"`
	Context string               `json:"context"`
	Sources []tools.SearchResult `json:"sources,omitempty"`
}

// NewMCPServer exposes report generation and market search as MCP tools.
// Tools always use the operator's configured credential.
func NewMCPServer(s *Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "sensight", Title: "Sensight", Version: Version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_report",
		Description: "Write a Markdown business report (executive summary, business plan, market analysis or investor pitch) from raw project information.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args GenerateReportArgs) (*mcp.CallToolResult, GenerateReportResp, error) {
		search := args.Search
		lang := prompt.Language(args.Language)
		report, err := s.Generate(ctx, research.Request{
			ProjectName: args.ProjectName,
			Indication:  args.Indication,
			Stage:       args.Stage,
			Modality:    args.Modality,
			Body:        args.Body,
			Task:        prompt.Task(args.Task),
			Language:    lang,
			Search:      &search,
		}, research.Callbacks{})
		if err != nil {
			return nil, GenerateReportResp{}, errors.New(research.UserMessage(err, lang))
		}
		return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: report.Markdown}},
			}, GenerateReportResp{
				ID:       report.ID,
				Model:    report.Model,
				Markdown: report.Markdown,
			}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_market_data",
		Description: "Search the web for market size, clinical trial and competitor snippets about a project. Always returns some context.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args SearchMarketArgs) (*mcp.CallToolResult, SearchMarketResp, error) {
		outcome := s.SearchMarket(ctx, args.Topic)
		return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: outcome.Text()}},
			}, SearchMarketResp{
				Status:  string(outcome.Status),
				Context: outcome.Text(),
				Sources: outcome.Sources,
			}, nil
	})

	return server
}

// NewMCPHandler serves the MCP tools over streamable HTTP.
func NewMCPHandler(s *Service) http.Handler {
	server := NewMCPServer(s)
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
}
