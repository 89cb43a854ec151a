// Package intake turns an uploaded document into the plain text used as the
// body of a report request.
package intake

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MaxUploadBytes bounds the size of an uploaded document.
const MaxUploadBytes = 20 << 20

var (
	ErrUnsupportedType = errors.New("unsupported document type")
	ErrTooLarge        = errors.New("document too large")
)

// Supported lists the accepted file extensions.
var Supported = []string{".txt", ".md", ".pdf", ".docx", ".pptx", ".xlsx"}

// Extract returns the text of content, choosing the decoder from the
// extension of filename.
func Extract(filename string, content []byte) (string, error) {
	if len(content) > MaxUploadBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, len(content))
	}

	var (
		text string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".txt", ".md", ".markdown":
		text = plain(content)
	case ".pdf":
		text, err = extractPDF(content)
	case ".docx":
		text, err = extractDOCX(content)
	case ".pptx":
		text, err = extractPPTX(content)
	case ".xlsx":
		text, err = extractExcel(content)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	if err != nil {
		return "", err
	}

	text, clipped, err := Clip(strings.TrimSpace(text), MaxDocumentRunes)
	if err != nil {
		return "", err
	}
	if clipped {
		slog.Warn("Document clipped", "file", filename, "max_runes", MaxDocumentRunes)
	}
	return text, nil
}

func plain(content []byte) string {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "�")
	}
	return string(content)
}
