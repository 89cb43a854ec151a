package export

import (
	"regexp"
	"strings"
)

// Kind tags a classified Markdown line.
type Kind int

const (
	KindParagraph Kind = iota
	KindHeading
	KindBullet
	KindTableRow
)

func (k Kind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindBullet:
		return "bullet"
	case KindTableRow:
		return "table_row"
	default:
		return "paragraph"
	}
}

// Node is one non-blank line of a report.
type Node struct {
	Kind  Kind
	Level int // heading level, 1 to 6
	Text  string
	Cells []string // table rows only
}

// Line renders the node as a single line of plain text. Table rows are
// joined with " | ".
func (n Node) Line() string {
	if n.Kind == KindTableRow {
		return strings.Join(n.Cells, " | ")
	}
	return n.Text
}

var (
	headingRe   = regexp.MustCompile(`^(#{1,6})(?:\s+(.*?))?\s*#*\s*$`)
	bulletRe    = regexp.MustCompile(`^(?:[-*+]|\d{1,3}[.)])\s+(.*)$`)
	separatorRe = regexp.MustCompile(`^\|?\s*:?-{2,}:?\s*(\|\s*:?-{2,}:?\s*)*\|?$`)
	ruleRe      = regexp.MustCompile(`^(?:-{3,}|\*{3,}|_{3,})$`)
)

// Parse classifies each line of markdown. Blank lines, horizontal rules and
// table separator rows are dropped; fenced code passes through as
// paragraphs.
func Parse(markdown string) []Node {
	var (
		nodes  []Node
		inCode bool
	)
	for _, raw := range strings.Split(strings.ReplaceAll(markdown, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, "```") || strings.HasPrefix(line, "~~~") {
			inCode = !inCode
			continue
		}
		if inCode {
			if strings.TrimSpace(raw) != "" {
				nodes = append(nodes, Node{Kind: KindParagraph, Text: strings.TrimRight(raw, " \t")})
			}
			continue
		}
		if line == "" || ruleRe.MatchString(line) {
			continue
		}
		nodes = append(nodes, classify(line)...)
	}
	return nodes
}

func classify(line string) []Node {
	if m := headingRe.FindStringSubmatch(line); m != nil {
		text := strings.TrimSpace(m[2])
		if text == "" {
			return nil
		}
		return []Node{{Kind: KindHeading, Level: len(m[1]), Text: text}}
	}
	if strings.HasPrefix(line, "|") {
		if separatorRe.MatchString(line) {
			return nil
		}
		return []Node{{Kind: KindTableRow, Cells: splitRow(line)}}
	}
	if m := bulletRe.FindStringSubmatch(line); m != nil {
		return []Node{{Kind: KindBullet, Text: strings.TrimSpace(m[1])}}
	}
	if strings.HasPrefix(line, ">") {
		line = strings.TrimSpace(strings.TrimLeft(line, ">"))
		if line == "" {
			return nil
		}
	}
	return []Node{{Kind: KindParagraph, Text: line}}
}

func splitRow(line string) []string {
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// Section is a heading of the grouping level and the nodes below it, up to
// the next heading of the same or a higher level.
type Section struct {
	Title string
	Nodes []Node
}

// Sections groups nodes under headings of exactly level, in order. Nodes
// before the first such heading are returned as the preamble. A heading of
// a higher level (fewer #) closes the current section and is dropped.
func Sections(nodes []Node, level int) (preamble []Node, sections []Section) {
	current := -1
	for _, n := range nodes {
		if n.Kind == KindHeading && n.Level == level {
			sections = append(sections, Section{Title: n.Text})
			current = len(sections) - 1
			continue
		}
		if n.Kind == KindHeading && n.Level < level {
			current = -1
			continue
		}
		if current < 0 {
			preamble = append(preamble, n)
			continue
		}
		sections[current].Nodes = append(sections[current].Nodes, n)
	}
	return preamble, sections
}

// Title returns the text of the first heading above level, or fallback.
func Title(nodes []Node, level int, fallback string) string {
	for _, n := range nodes {
		if n.Kind == KindHeading && n.Level < level {
			return n.Text
		}
	}
	return fallback
}

// Span is a run of inline text, bold or plain.
type Span struct {
	Text string
	Bold bool
}

// Spans splits **bold** markers out of text. An unmatched marker is kept
// as literal text.
func Spans(text string) []Span {
	parts := strings.Split(text, "**")
	if len(parts)%2 == 0 {
		// odd number of markers: treat the last one literally
		last := parts[len(parts)-2] + "**" + parts[len(parts)-1]
		parts = append(parts[:len(parts)-2], last)
	}
	var out []Span
	for i, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, Span{Text: p, Bold: i%2 == 1})
	}
	return out
}

// Plain strips inline emphasis markers.
func Plain(text string) string {
	var sb strings.Builder
	for _, s := range Spans(text) {
		sb.WriteString(s.Text)
	}
	return strings.ReplaceAll(sb.String(), "`", "")
}
