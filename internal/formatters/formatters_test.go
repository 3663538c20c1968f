package formatters_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/xuri/excelize/v2"

	"pricing-audit-service/internal/formatters"
	"pricing-audit-service/internal/loaders"
	"pricing-audit-service/internal/matcher"
	"pricing-audit-service/internal/pricing"
)

func init() {
	color.NoColor = true
}

func sampleReport(t *testing.T) formatters.AuditReport {
	t.Helper()

	m, err := matcher.New(matcher.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("Failed to build matcher: %v", err)
	}
	records := []matcher.VehicleRecord{
		{Row: 2, Model: "XUV700", FuelType: "DIESEL", Variant: "AX5 L"},
		{Row: 3, Model: "THAR ROXX", FuelType: "DIESEL", Variant: "MOCHA INTERIORS AX7L"},
		{Row: 4, Model: "XUV 3XO", FuelType: "PETROL", Variant: "AX5 L"},
	}
	res := m.MatchAll([]string{"XUV700 (AX3 & AX5)", "", "Thar Roxx (Diesel)", "XUV 3XO <Petrol> & Co"}, records)

	generated := time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC)
	return formatters.NewAuditReport("/data/schemes.xlsx", "/data/audit-july.xlsx", res, generated)
}

func TestNewAuditReport(t *testing.T) {
	r := sampleReport(t)

	if r.TotalRecords != 3 || r.Matched != 2 || r.Unmatched != 1 {
		t.Errorf("Unexpected counts: total=%d matched=%d unmatched=%d", r.TotalRecords, r.Matched, r.Unmatched)
	}
	if r.SkippedSchemes != 1 {
		t.Errorf("Expected 1 skipped scheme, got %d", r.SkippedSchemes)
	}
	if got := r.MatchRate(); got < 66.6 || got > 66.7 {
		t.Errorf("Expected match rate ~66.7, got %.2f", got)
	}
	if (formatters.AuditReport{}).MatchRate() != 0 {
		t.Error("Expected zero match rate for an empty report")
	}
}

func TestAuditText(t *testing.T) {
	var buf bytes.Buffer
	if err := formatters.AuditText(&buf, []formatters.AuditReport{sampleReport(t)}, 2); err != nil {
		t.Fatalf("AuditText failed: %v", err)
	}
	output := buf.String()

	expected := []string{
		"Discount Audit: audit-july.xlsx",
		"Schemes file:   schemes.xlsx",
		"Matched:        2 (66.7%)",
		"Blank schemes:  1",
		"INCLUDE_ANY",
		"XUV700 (AX3 & AX5)",
		"Not Matched",
		"... 1 more records",
	}
	for _, e := range expected {
		if !strings.Contains(output, e) {
			t.Errorf("Expected output to contain %q\n%s", e, output)
		}
	}
}

func TestAuditJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := formatters.AuditJSON(&buf, "20250701-abc123", []formatters.AuditReport{sampleReport(t)}); err != nil {
		t.Fatalf("AuditJSON failed: %v", err)
	}

	var out formatters.AuditOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}
	if out.RunID != "20250701-abc123" {
		t.Errorf("Expected run id to round trip, got %q", out.RunID)
	}
	if len(out.Reports) != 1 || len(out.Reports[0].Records) != 3 {
		t.Fatalf("Unexpected report shape: %+v", out)
	}
	if out.Reports[0].Records[0].MatchReason != "Matched Rule: INCLUDE_ANY" {
		t.Errorf("Unexpected match reason %q", out.Reports[0].Records[0].MatchReason)
	}
}

func TestAuditHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := formatters.AuditHTML(&buf, "run-1", []formatters.AuditReport{sampleReport(t)}); err != nil {
		t.Fatalf("AuditHTML failed: %v", err)
	}
	output := buf.String()

	expected := []string{
		"<title>Discount Audit Report</title>",
		"audit-july.xlsx",
		"run run-1",
		"XUV700 (AX3 &amp; AX5)",
		"XUV 3XO &lt;Petrol&gt; &amp; Co",
		`class="status-failed"`,
	}
	for _, e := range expected {
		if !strings.Contains(output, e) {
			t.Errorf("Expected HTML to contain %q", e)
		}
	}
}

func TestAuditXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := formatters.AuditXLSX(&buf, []formatters.AuditReport{sampleReport(t)}); err != nil {
		t.Fatalf("AuditXLSX failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("Failed to read workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(formatters.AuditSheet)
	if err != nil {
		t.Fatalf("Failed to read audit sheet: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("Expected header plus 3 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], "|") != "Model|Fuel Type|Variant|Matched Discount Entry|Match Reason|Audit File" {
		t.Errorf("Unexpected header %v", rows[0])
	}
	if rows[1][3] != "XUV700 (AX3 & AX5)" || rows[2][3] != matcher.NotMatched {
		t.Errorf("Unexpected matched entries %q, %q", rows[1][3], rows[2][3])
	}

	summary, err := f.GetRows(formatters.SchemesSheet)
	if err != nil {
		t.Fatalf("Failed to read summary sheet: %v", err)
	}
	if len(summary) != 4 {
		t.Errorf("Expected header plus 3 scheme rows, got %d", len(summary))
	}
}

func sampleBreakdown(t *testing.T) pricing.Breakdown {
	t.Helper()
	b, err := pricing.NewBreakdown(pricing.PriceRow{
		Sheet: "PV", Model: "XUV700", FuelType: "Diesel", Variant: "AX5",
		Cells: map[string]string{
			"Ex-Showroom Price":                      "1850000",
			"On Road Price (W/O HYPO) - Individual":  "2150000",
			"On Road Price (W/O HYPO) - Corporate":   "2344250",
			"Dealer Offer ( Without Exchange Case )": "Rs 10000 cash",
		},
	})
	if err != nil {
		t.Fatalf("Failed to build breakdown: %v", err)
	}
	return b
}

func TestPriceText(t *testing.T) {
	var buf bytes.Buffer
	if err := formatters.PriceText(&buf, sampleBreakdown(t)); err != nil {
		t.Fatalf("PriceText failed: %v", err)
	}
	output := buf.String()

	for _, e := range []string{"XUV700 - AX5", "Fuel: Diesel", "₹18,50,000", "₹23,44,250", "Cartel Offers:", "Rs 10000 cash"} {
		if !strings.Contains(output, e) {
			t.Errorf("Expected output to contain %q\n%s", e, output)
		}
	}
}

func TestPriceHTMLAndJSON(t *testing.T) {
	b := sampleBreakdown(t)

	var html bytes.Buffer
	if err := formatters.PriceHTML(&html, b); err != nil {
		t.Fatalf("PriceHTML failed: %v", err)
	}
	if !strings.Contains(html.String(), `class="highlight"`) {
		t.Error("Expected on-road row to be highlighted")
	}
	if !strings.Contains(html.String(), "Cartel Offer") {
		t.Error("Expected cartel offer table")
	}

	var js bytes.Buffer
	if err := formatters.PriceJSON(&js, b); err != nil {
		t.Fatalf("PriceJSON failed: %v", err)
	}
	var decoded pricing.Breakdown
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}
	if len(decoded.Lines) != 2 {
		t.Errorf("Expected 2 lines, got %d", len(decoded.Lines))
	}
}

func TestPriceListText(t *testing.T) {
	var buf bytes.Buffer
	files := loaders.RecentPriceLists([]string{
		"PV Price List Master D. 01.07.2025.xlsx",
		"PV Price List Master D. 15.05.2025.xlsx",
	}, 5)
	if err := formatters.PriceListText(&buf, files); err != nil {
		t.Fatalf("PriceListText failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "1. PV Price List Master D. 01.07.2025.xlsx (01-Jul-2025)") {
		t.Errorf("Unexpected listing:\n%s", buf.String())
	}

	buf.Reset()
	_ = formatters.PriceListText(&buf, nil)
	if !strings.Contains(buf.String(), "No price lists found") {
		t.Error("Expected empty listing message")
	}
}
