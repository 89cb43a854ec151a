package server

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeboe/sensight/pkg/config"
	"github.com/mikeboe/sensight/pkg/research"
)

func connectMCP(t *testing.T, runner *fakeRunner) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	cfg := &config.Config{GoogleApiKey: "operator-key"}
	config.ApplyDefaults(cfg)
	server := NewMCPServer(NewService(runner, cfg))

	ct, st := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return text.Text
}

func TestMCPGenerateReport(t *testing.T) {
	runner := &fakeRunner{}
	cs := connectMCP(t, runner)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "generate_report",
		Arguments: map[string]any{
			"project_name": "Demo",
			"body":         "We build vascular grafts.",
			"search":       true,
		},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, sampleMarkdown, textOf(t, res))

	require.Len(t, runner.got, 1)
	assert.Equal(t, "operator-key", runner.got[0].APIKey)
	require.NotNil(t, runner.got[0].Search)
	assert.True(t, *runner.got[0].Search)
}

func TestMCPGenerateReportError(t *testing.T) {
	cs := connectMCP(t, &fakeRunner{err: research.ErrEmptyInput})

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "generate_report",
		Arguments: map[string]any{"body": " ", "language": "en"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "Enter the project information first.")
}

func TestMCPSearchMarketData(t *testing.T) {
	runner := &fakeRunner{}
	cs := connectMCP(t, runner)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "search_market_data",
		Arguments: map[string]any{"topic": "silk fibroin graft"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, textOf(t, res), "Report: big")
	assert.Equal(t, []string{"silk fibroin graft"}, runner.topics)
}
