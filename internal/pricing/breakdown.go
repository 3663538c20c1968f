package pricing

import (
	"fmt"
	"strings"
)

// SharedFields carry one amount for both buyer types.
var SharedFields = []string{
	"Ex-Showroom Price",
	"TCS 1%",
	"Insurance 1 Yr OD + 3 Yr TP + Zero Dep.",
	"Accessories Kit",
	"SMC",
	"Extended Warranty",
	"Maxi Care",
	"RSA (1 Year)",
	"Fastag",
}

// GroupedFields are stored as "<field> - Individual" and "<field> - Corporate".
var GroupedFields = []string{
	"RTO (W/O HYPO)",
	"RTO (With HYPO)",
	"On Road Price (W/O HYPO)",
	"On Road Price (With HYPO)",
}

// CartelColumns are dealer offers shown as entered.
var CartelColumns = []string{
	"M&M Scheme with GST",
	"Dealer Offer ( Without Exchange Case )",
	"Dealer Offer ( If Exchange Case )",
}

// Buyer type column suffixes
const (
	IndividualSuffix = " - Individual"
	CorporateSuffix  = " - Corporate"
)

// Line is one row of the breakdown table
type Line struct {
	Description string `json:"description"`
	Individual  string `json:"individual"`
	Corporate   string `json:"corporate"`
	Highlight   bool   `json:"highlight,omitempty"`
}

// Offer is a dealer cartel offer
type Offer struct {
	Description string `json:"description"`
	Value       string `json:"value"`
}

// Breakdown is the rendered price sheet for one variant
type Breakdown struct {
	Source   string  `json:"source,omitempty"`
	Sheet    string  `json:"sheet"`
	Model    string  `json:"model"`
	FuelType string  `json:"fuel_type,omitempty"`
	Variant  string  `json:"variant"`
	Lines    []Line  `json:"lines"`
	Offers   []Offer `json:"offers,omitempty"`
}

// NewBreakdown builds the price table for row. Shared fields without a
// usable amount are left out; grouped fields appear whenever both buyer
// columns exist. A row with neither yields ErrNoPriceData.
func NewBreakdown(row PriceRow) (Breakdown, error) {
	b := Breakdown{
		Sheet:    row.Sheet,
		Model:    row.Model,
		FuelType: row.FuelType,
		Variant:  row.Variant,
	}

	for _, field := range SharedFields {
		if !row.Has(field) {
			continue
		}
		v := FormatINR(row.Value(field))
		if v == NotAvailable || v == Invalid {
			continue
		}
		b.Lines = append(b.Lines, Line{Description: field, Individual: v, Corporate: v})
	}

	for _, field := range GroupedFields {
		ind, corp := field+IndividualSuffix, field+CorporateSuffix
		if !row.Has(ind) || !row.Has(corp) {
			continue
		}
		b.Lines = append(b.Lines, Line{
			Description: field,
			Individual:  FormatINR(row.Value(ind)),
			Corporate:   FormatINR(row.Value(corp)),
			Highlight:   strings.HasPrefix(field, "On Road Price"),
		})
	}

	if len(b.Lines) == 0 {
		return b, fmt.Errorf("%s %s: %w", row.Model, row.Variant, ErrNoPriceData)
	}

	for _, col := range CartelColumns {
		if !row.Has(col) {
			continue
		}
		v := strings.TrimSpace(row.Value(col))
		if v == "" {
			v = NotAvailable
		}
		b.Offers = append(b.Offers, Offer{Description: col, Value: v})
	}
	return b, nil
}
