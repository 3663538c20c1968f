package formatters

import (
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"time"

	"pricing-audit-service/internal/matcher"
	"pricing-audit-service/internal/pricing"
	"pricing-audit-service/web"
)

// AuditHTMLData is the data behind audit-report.html
type AuditHTMLData struct {
	RunID     string
	Timestamp string
	Reports   []AuditReport
	CSS       template.CSS
}

// PriceHTMLData is the data behind price-report.html
type PriceHTMLData struct {
	Breakdown pricing.Breakdown
	Timestamp string
	CSS       template.CSS
}

// AuditHTML renders the audit reports as a standalone HTML page.
func AuditHTML(w io.Writer, runID string, reports []AuditReport) error {
	data := AuditHTMLData{
		RunID:     runID,
		Timestamp: time.Now().UTC().Format(time.RFC1123),
		Reports:   reports,
		CSS:       template.CSS(web.CSS),
	}
	return render(w, "audit-report.html", data)
}

// PriceHTML renders a price breakdown as a standalone HTML page.
func PriceHTML(w io.Writer, b pricing.Breakdown) error {
	data := PriceHTMLData{
		Breakdown: b,
		Timestamp: time.Now().UTC().Format(time.RFC1123),
		CSS:       template.CSS(web.CSS),
	}
	return render(w, "price-report.html", data)
}

func render(w io.Writer, name string, data any) error {
	tmpl, err := template.New(name).Funcs(getTemplateFuncs()).ParseFS(web.Templates, "templates/"+name)
	if err != nil {
		return fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return nil
}

func getTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"base": filepath.Base,
		"matchRate": func(r AuditReport) float64 {
			return r.MatchRate()
		},
		"getRateClass": func(rate float64) string {
			switch {
			case rate >= 90:
				return "status-excellent"
			case rate >= 75:
				return "status-good"
			case rate >= 50:
				return "status-warning"
			default:
				return "status-poor"
			}
		},
		"getRecordClass": func(rec matcher.VehicleRecord) string {
			if rec.Matched() {
				return "status-passed"
			}
			return "status-failed"
		},
	}
}
