package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const outlineSheet = "Outline"

// Table is a run of consecutive table rows in the report.
type Table struct {
	Section string
	Rows    [][]string
}

// Tables collects the Markdown tables of nodes in order. Section is the
// nearest preceding heading.
func Tables(nodes []Node) []Table {
	var (
		tables  []Table
		heading string
		open    bool
	)
	for _, n := range nodes {
		switch n.Kind {
		case KindTableRow:
			if !open {
				tables = append(tables, Table{Section: heading})
				open = true
			}
			t := &tables[len(tables)-1]
			t.Rows = append(t.Rows, n.Cells)
			continue
		case KindHeading:
			heading = n.Text
		}
		open = false
	}
	return tables
}

// XLSX renders markdown as a workbook: an outline sheet listing every line
// and one sheet per table, so tables keep their cells.
func XLSX(markdown string, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	nodes := Parse(markdown)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", outlineSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	if err := setRow(f, outlineSheet, 1, []string{"Section", "Kind", "Text"}); err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(outlineSheet, 1, 1, bold); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	section := ""
	for i, n := range nodes {
		if n.Kind == KindHeading && n.Level <= opts.SlideLevel {
			section = Plain(n.Text)
		}
		if err := setRow(f, outlineSheet, i+2, []string{section, n.Kind.String(), Plain(n.Line())}); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(outlineSheet, "A", "A", 32); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(outlineSheet, "C", "C", 100); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	for i, t := range Tables(nodes) {
		name := fmt.Sprintf("Table %d", i+1)
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
		for r, row := range t.Rows {
			cells := make([]string, len(row))
			for c, cell := range row {
				cells[c] = Plain(cell)
			}
			if err := setRow(f, name, r+1, cells); err != nil {
				return nil, err
			}
		}
		if err := f.SetRowStyle(name, 1, 1, bold); err != nil {
			return nil, fmt.Errorf("style header: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	vals := make([]interface{}, len(values))
	for i, v := range values {
		vals[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("write row %d of %s: %w", row, sheet, err)
	}
	return nil
}
