package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeboe/sensight/pkg/config"
	"github.com/mikeboe/sensight/pkg/intake"
	"github.com/mikeboe/sensight/pkg/research"
)

func TestReadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Notes\n\nPhase II data.\n"), 0o644))

	text, err := readDocument(nil, path)
	require.NoError(t, err)
	assert.Contains(t, text, "Phase II data.")

	text, err = readDocument(strings.NewReader("from stdin"), "-")
	require.NoError(t, err)
	assert.Equal(t, "from stdin", strings.TrimSpace(text))

	bad := filepath.Join(dir, "deck.key")
	require.NoError(t, os.WriteFile(bad, []byte("x"), 0o644))
	_, err = readDocument(nil, bad)
	assert.ErrorIs(t, err, intake.ErrUnsupportedType)
}

func TestPromptBody(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("line one\nline two\n\nignored\n"))
	cmd.SetErr(&bytes.Buffer{})

	body, err := promptBody(cmd)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", body)
}

func TestPrintMarkdownRaw(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printMarkdown(&buf, "## Market", true))
	assert.Equal(t, "## Market\n", buf.String())
}

func TestWriteExportRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.docx")

	cmd := &cobra.Command{}
	cmd.SetErr(&bytes.Buffer{})
	report := &research.Report{ProjectName: "Demo", Markdown: "# Demo\n\n## Market\n\n- big\n"}
	o := &generateOptions{format: "docx", out: path}

	require.NoError(t, writeExport(cmd, o, report, 2, 6, 900))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK"), data[:2])

	assert.Error(t, writeExport(cmd, o, report, 2, 6, 900))
}

func TestGenerateRequiresCredential(t *testing.T) {
	for _, key := range []string{"GOOGLE_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "SENSIGHT_CONFIG"} {
		t.Setenv(key, "")
	}
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("SEARCH_DISABLED", "true")

	cmd := newGenerateCmd()
	var stderr bytes.Buffer
	cmd.SetErr(&stderr)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--body", "We build grafts.", "--lang", "en"})

	err := cmd.Execute()
	assert.ErrorIs(t, err, research.ErrMissingCredential)
	assert.Contains(t, stderr.String(), "Enter your API key first.")
}

func TestStreamingDefaultsToConfig(t *testing.T) {
	gen := config.GenerationConfig{Stream: true}

	cmd := newGenerateCmd()
	o := &generateOptions{}
	assert.True(t, streaming(cmd, o, gen))
	assert.False(t, streaming(cmd, o, config.GenerationConfig{}))

	require.NoError(t, cmd.Flags().Set("stream", "false"))
	assert.False(t, streaming(cmd, o, gen))
}
