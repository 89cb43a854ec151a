package intake

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	wParagraph = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	wText      = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	aParagraph = regexp.MustCompile(`(?s)<a:p[ >].*?</a:p>`)
	aText      = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)
	slideName  = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
)

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found", name)
}

// paragraphs joins the text runs of each paragraph and puts one paragraph
// per line.
func paragraphs(xml string, para, run *regexp.Regexp) string {
	var lines []string
	for _, p := range para.FindAllString(xml, -1) {
		var sb strings.Builder
		for _, m := range run.FindAllStringSubmatch(p, -1) {
			sb.WriteString(html.UnescapeString(m[1]))
		}
		if line := strings.TrimSpace(sb.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}
	doc, err := readZipFile(zr, "word/document.xml")
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	return paragraphs(string(doc), wParagraph, wText), nil
}

func extractPPTX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract PPTX: not a zip: %w", err)
	}

	type slide struct {
		n    int
		name string
	}
	var slides []slide
	for _, f := range zr.File {
		if m := slideName.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides = append(slides, slide{n: n, name: f.Name})
		}
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	var parts []string
	for _, s := range slides {
		data, err := readZipFile(zr, s.name)
		if err != nil {
			return "", fmt.Errorf("extract PPTX: %w", err)
		}
		if text := paragraphs(string(data), aParagraph, aText); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

func extractExcel(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	var buf strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("get rows for sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			buf.WriteString(strings.Join(row, "\t"))
			buf.WriteByte('\n')
		}
	}
	return buf.String(), nil
}
