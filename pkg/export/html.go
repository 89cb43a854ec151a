package export

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdownRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))
	htmlPolicy       = bluemonday.UGCPolicy()
)

// HTML renders markdown to sanitized HTML. Model output is untrusted, so
// the result is always passed through the sanitizer.
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return htmlPolicy.Sanitize(buf.String()), nil
}
