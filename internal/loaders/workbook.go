// Package loaders reads dealership spreadsheets into typed records.
package loaders

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing column")

// Column headers of the audit and price sheets
const (
	ColumnModel    = "Model"
	ColumnFuelType = "Fuel Type"
	ColumnVariant  = "Variant"
)

// table is a sheet with its header row split off
type table struct {
	sheet  string
	header []string
	rows   [][]string
}

// readTable opens path and returns the rows of sheet, or of the first sheet
// when sheet is empty. Cells are read unformatted.
func readTable(path, sheet string) (*table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheet, path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q of %s: %w: sheet is empty", sheet, path, ErrMissingColumn)
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	return &table{sheet: sheet, header: header, rows: rows[1:]}, nil
}

// column returns the index of a header, matched case-insensitively.
func (t *table) column(name string) (int, error) {
	for i, h := range t.header {
		if strings.EqualFold(h, name) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("sheet %q: %w %q", t.sheet, ErrMissingColumn, name)
}

// cell returns a trimmed cell; GetRows drops trailing empty cells.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// SheetNames lists the sheets of a workbook in order.
func SheetNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}
