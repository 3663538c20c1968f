package formatters

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fatih/color"

	"pricing-audit-service/internal/matcher"
)

// AuditReport is the annotated audit table of one audit file
type AuditReport struct {
	DiscountFile   string                  `json:"discount_file"`
	AuditFile      string                  `json:"audit_file"`
	GeneratedAt    time.Time               `json:"generated_at"`
	TotalRecords   int                     `json:"total_records"`
	Matched        int                     `json:"matched"`
	Unmatched      int                     `json:"unmatched"`
	SkippedSchemes int                     `json:"skipped_schemes"`
	Schemes        []matcher.SchemeCount   `json:"schemes"`
	Records        []matcher.VehicleRecord `json:"records"`
}

// NewAuditReport summarises a matcher result.
func NewAuditReport(discountFile, auditFile string, res matcher.Result, now time.Time) AuditReport {
	return AuditReport{
		DiscountFile:   discountFile,
		AuditFile:      auditFile,
		GeneratedAt:    now.UTC(),
		TotalRecords:   len(res.Records),
		Matched:        res.MatchedCount(),
		Unmatched:      res.UnmatchedCount(),
		SkippedSchemes: res.SkippedSchemes,
		Schemes:        res.SchemeCounts,
		Records:        res.Records,
	}
}

// MatchRate is the matched share of records in percent.
func (r AuditReport) MatchRate() float64 {
	if r.TotalRecords == 0 {
		return 0
	}
	return float64(r.Matched) / float64(r.TotalRecords) * 100
}

// AuditOutput is the JSON document written for an audit run
type AuditOutput struct {
	RunID   string        `json:"run_id,omitempty"`
	Reports []AuditReport `json:"reports"`
}

// AuditJSON writes the reports as indented JSON.
func AuditJSON(w io.Writer, runID string, reports []AuditReport) error {
	data, err := json.MarshalIndent(AuditOutput{RunID: runID, Reports: reports}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal audit report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// AuditText writes a human-readable summary. At most maxRows records are
// listed per report; maxRows <= 0 lists all of them.
func AuditText(w io.Writer, reports []AuditReport, maxRows int) error {
	header := color.New(color.FgCyan, color.Bold)
	ok := color.New(color.FgGreen)
	miss := color.New(color.FgRed)

	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		header.Fprintf(w, "Discount Audit: %s\n", filepath.Base(r.AuditFile))
		fmt.Fprintf(w, "=====================================\n\n")
		fmt.Fprintf(w, "Schemes file:   %s\n", filepath.Base(r.DiscountFile))
		fmt.Fprintf(w, "Records:        %d\n", r.TotalRecords)
		fmt.Fprintf(w, "Matched:        %d (%.1f%%)\n", r.Matched, r.MatchRate())
		fmt.Fprintf(w, "Not matched:    %d\n", r.Unmatched)
		if r.SkippedSchemes > 0 {
			fmt.Fprintf(w, "Blank schemes:  %d\n", r.SkippedSchemes)
		}

		fmt.Fprintf(w, "\nScheme Results:\n")
		fmt.Fprintf(w, "---------------\n")
		for _, s := range r.Schemes {
			fmt.Fprintf(w, "%4d  %-16s %s\n", s.Matched, s.Kind, s.Scheme)
		}

		fmt.Fprintf(w, "\nRecords:\n")
		fmt.Fprintf(w, "--------\n")
		rows := r.Records
		if maxRows > 0 && len(rows) > maxRows {
			rows = rows[:maxRows]
		}
		for _, rec := range rows {
			line := fmt.Sprintf("row %-4d %-20s %-8s %-24s", rec.Row, rec.Model, rec.FuelType, rec.Variant)
			if rec.Matched() {
				ok.Fprintf(w, "%s %s\n", line, rec.MatchedScheme)
			} else {
				miss.Fprintf(w, "%s %s\n", line, rec.MatchedScheme)
			}
		}
		if len(rows) < len(r.Records) {
			fmt.Fprintf(w, "... %d more records\n", len(r.Records)-len(rows))
		}
	}
	return nil
}
