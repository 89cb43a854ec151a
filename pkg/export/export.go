// Package export converts a Markdown report into downloadable documents.
// The conversions are lossy: slides are capped and truncated, and tables
// survive as tables only in the workbook.
package export

import (
	"fmt"
	"regexp"
	"strings"
)

type Format string

const (
	FormatDOCX     Format = "docx"
	FormatPPTX     Format = "pptx"
	FormatXLSX     Format = "xlsx"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "md"
)

var contentTypes = map[Format]string{
	FormatDOCX:     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	FormatPPTX:     "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	FormatXLSX:     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatHTML:     "text/html; charset=utf-8",
	FormatMarkdown: "text/markdown; charset=utf-8",
}

// File is a rendered export.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(s, ".")))
	if _, ok := contentTypes[f]; !ok {
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
	return f, nil
}

// Render converts markdown to format. base names the download without its
// extension.
func Render(format Format, markdown, base string, opts Options) (*File, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatDOCX:
		data, err = DOCX(markdown)
	case FormatPPTX:
		data, err = PPTX(markdown, opts)
	case FormatXLSX:
		data, err = XLSX(markdown, opts)
	case FormatHTML:
		var s string
		s, err = HTML(markdown)
		data = []byte(s)
	case FormatMarkdown:
		data = []byte(markdown)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to export %s: %w", format, err)
	}
	return &File{
		Name:        Filename(base) + "." + string(format),
		ContentType: contentTypes[format],
		Data:        data,
	}, nil
}

var unsafeName = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]+`)

// Filename makes base safe for a Content-Disposition header.
func Filename(base string) string {
	base = strings.TrimSpace(unsafeName.ReplaceAllString(base, "_"))
	if base == "" {
		return "report"
	}
	return base
}
