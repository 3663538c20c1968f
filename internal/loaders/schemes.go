package loaders

import (
	"pricing-audit-service/internal/matcher"
)

// SchemeOptions selects the scheme column of a discount sheet
type SchemeOptions struct {
	Sheet    string // empty for the first sheet
	Column   string
	SkipRows int // title rows between the header and the first scheme
}

// SchemeOptionsFrom derives loader options from the matcher config.
func SchemeOptionsFrom(cfg matcher.Config) SchemeOptions {
	return SchemeOptions{Column: cfg.SchemeColumn, SkipRows: cfg.SchemeSkipRows}
}

// LoadSchemes returns the scheme descriptions of a discount sheet in row
// order. Blank cells are kept as "" so row positions are preserved.
func LoadSchemes(path string, opts SchemeOptions) ([]string, error) {
	if opts.Column == "" {
		opts.Column = ColumnModel
	}

	t, err := readTable(path, opts.Sheet)
	if err != nil {
		return nil, err
	}
	col, err := t.column(opts.Column)
	if err != nil {
		return nil, err
	}

	rows := t.rows
	if opts.SkipRows > 0 {
		if opts.SkipRows >= len(rows) {
			return []string{}, nil
		}
		rows = rows[opts.SkipRows:]
	}

	schemes := make([]string, len(rows))
	for i, row := range rows {
		schemes[i] = cell(row, col)
	}
	return schemes, nil
}
