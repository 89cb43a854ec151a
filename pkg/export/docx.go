package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

// DOCX renders markdown as a Word document. Headings keep their level,
// bullets use the List Bullet style and consecutive table rows become one
// Word table whose first row is bold.
func DOCX(markdown string) ([]byte, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("new document: %w", err)
	}

	var table *docx.Table
	for _, n := range Parse(markdown) {
		if n.Kind != KindTableRow {
			table = nil
		}
		switch n.Kind {
		case KindHeading:
			if _, err := doc.AddHeading(Plain(n.Text), uint(n.Level)); err != nil {
				return nil, fmt.Errorf("heading %q: %w", n.Text, err)
			}
		case KindBullet:
			addRuns(doc.AddParagraph(""), n.Text).Style("ListBullet")
		case KindTableRow:
			header := table == nil
			if header {
				table = doc.AddTable()
				table.Style("TableGrid")
			}
			row := table.AddRow()
			for _, cell := range n.Cells {
				p := row.AddCell().AddParagraph("")
				if header {
					p.AddText(Plain(cell)).Bold(true)
				} else {
					addRuns(p, cell)
				}
			}
		default:
			addRuns(doc.AddParagraph(""), n.Text)
		}
	}

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	return normalize(buf.Bytes())
}

func addRuns(p *docx.Paragraph, text string) *docx.Paragraph {
	for _, s := range Spans(text) {
		r := p.AddText(s.Text)
		if s.Bold {
			r.Bold(true)
		}
	}
	return p
}

// normalize rewrites an archive with parts sorted by name and the fixed
// epoch timestamp.
func normalize(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	parts := make([]part, 0, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		parts = append(parts, part{name: f.Name, body: string(body)})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].name < parts[j].name })
	return writeZip(parts)
}
