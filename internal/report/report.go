// Package report loads estimation reports and BOQ workbooks from XLSX files
// into ordered rows, preserving the sheet's column order.
package report

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/boq-console/internal/model"
)

// Options configures the report loader.
type Options struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// Load reads an XLSX report and returns one Row per data row. The first
// non-empty sheet row is the header; its cell order becomes the key order of
// every Row. Numeric cells decode as float64, everything else as string.
func Load(path string, opts Options) ([]model.Row, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "report: open file")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	var (
		headers []string
		rows    []model.Row
	)
	for _, row := range sheet.Rows {
		if headers == nil {
			headers = headerCells(row)
			continue
		}

		r := model.NewRow()
		empty := true
		for j, key := range headers {
			if key == "" {
				continue
			}
			v := cellValue(row, j)
			if v != nil {
				empty = false
			}
			r.Set(key, v)
		}
		if !empty {
			rows = append(rows, r)
		}
	}

	if headers == nil {
		return nil, eris.Errorf("report: no header row in %s", path)
	}
	return rows, nil
}

func getSheet(f *xlsx.File, opts Options) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("report: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}
	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("report: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}

// headerCells returns the trimmed header row, or nil when the row is blank.
func headerCells(row *xlsx.Row) []string {
	headers := make([]string, len(row.Cells))
	blank := true
	for j, cell := range row.Cells {
		headers[j] = strings.TrimSpace(cell.String())
		if headers[j] != "" {
			blank = false
		}
	}
	if blank {
		return nil
	}
	return headers
}

// cellValue decodes a single cell. Numeric cells come back as float64 so
// amount math downstream does not re-parse strings; blanks come back nil.
func cellValue(row *xlsx.Row, idx int) any {
	if idx >= len(row.Cells) {
		return nil
	}
	cell := row.Cells[idx]

	switch cell.Type() {
	case xlsx.CellTypeNumeric:
		if f, err := cell.Float(); err == nil {
			return f
		}
	case xlsx.CellTypeBool:
		return cell.Bool()
	}

	s := strings.TrimSpace(cell.String())
	if s == "" {
		return nil
	}
	return s
}
