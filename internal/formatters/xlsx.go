package formatters

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the audit workbook
const (
	AuditSheet   = "Audit Results"
	SchemesSheet = "Scheme Summary"
)

// AuditColumns are the columns of the exported audit sheet.
var AuditColumns = []string{"Model", "Fuel Type", "Variant", "Matched Discount Entry", "Match Reason", "Audit File"}

// AuditXLSX writes the annotated records of all reports to one workbook,
// with a per-scheme summary on a second sheet.
func AuditXLSX(w io.Writer, reports []AuditReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", AuditSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	row := 1
	if err := setRow(f, AuditSheet, row, toCells(AuditColumns)); err != nil {
		return err
	}
	for _, r := range reports {
		name := filepath.Base(r.AuditFile)
		for _, rec := range r.Records {
			row++
			if err := setRow(f, AuditSheet, row, []any{rec.Model, rec.FuelType, rec.Variant, rec.MatchedScheme, rec.MatchReason, name}); err != nil {
				return err
			}
		}
	}

	if _, err := f.NewSheet(SchemesSheet); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}
	row = 1
	if err := setRow(f, SchemesSheet, row, []any{"Scheme", "Rule Kind", "Matched", "Audit File"}); err != nil {
		return err
	}
	for _, r := range reports {
		name := filepath.Base(r.AuditFile)
		for _, s := range r.Schemes {
			row++
			if err := setRow(f, SchemesSheet, row, []any{s.Scheme, string(s.Kind), s.Matched, name}); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
