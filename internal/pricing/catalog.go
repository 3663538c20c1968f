// Package pricing models a price list sheet and builds the per-variant
// price breakdown shown to sales staff.
package pricing

import (
	"errors"
	"sort"
	"strings"
)

// ErrNoPriceData is returned when a selection has no usable price row.
var ErrNoPriceData = errors.New("no price data")

// PriceRow is one variant row of a price list sheet
type PriceRow struct {
	Sheet    string            `json:"sheet"`
	Row      int               `json:"row"`
	Model    string            `json:"model"`
	FuelType string            `json:"fuel_type,omitempty"`
	Variant  string            `json:"variant"`
	Cells    map[string]string `json:"cells"` // trimmed header -> raw cell value
}

// Has reports whether the sheet carried the column at all.
func (r PriceRow) Has(column string) bool {
	_, ok := r.Cells[column]
	return ok
}

// Value returns the raw cell text for column.
func (r PriceRow) Value(column string) string {
	return r.Cells[column]
}

// Catalog supports the model -> fuel -> variant drill-down over one sheet
type Catalog struct {
	rows []PriceRow
}

// NewCatalog wraps rows in sheet order.
func NewCatalog(rows []PriceRow) *Catalog {
	return &Catalog{rows: rows}
}

// Len returns the number of rows in the catalog.
func (c *Catalog) Len() int {
	return len(c.rows)
}

// Models returns the sorted distinct model names.
func (c *Catalog) Models() []string {
	return c.distinct(func(r PriceRow) (string, bool) {
		return r.Model, true
	})
}

// FuelTypes returns the sorted fuel types offered for model.
func (c *Catalog) FuelTypes(model string) []string {
	model = strings.TrimSpace(model)
	return c.distinct(func(r PriceRow) (string, bool) {
		return r.FuelType, r.Model == model
	})
}

// Variants returns the sorted variants for model. An empty fuel matches
// every fuel type, which is how sheets without a fuel column are browsed.
func (c *Catalog) Variants(model, fuel string) []string {
	model, fuel = strings.TrimSpace(model), strings.TrimSpace(fuel)
	return c.distinct(func(r PriceRow) (string, bool) {
		return r.Variant, r.Model == model && (fuel == "" || r.FuelType == fuel)
	})
}

// Lookup returns the first row for the selection.
func (c *Catalog) Lookup(model, fuel, variant string) (PriceRow, error) {
	model, fuel, variant = strings.TrimSpace(model), strings.TrimSpace(fuel), strings.TrimSpace(variant)
	for _, r := range c.rows {
		if r.Model == model && r.Variant == variant && (fuel == "" || r.FuelType == fuel) {
			return r, nil
		}
	}
	return PriceRow{}, ErrNoPriceData
}

func (c *Catalog) distinct(pick func(PriceRow) (string, bool)) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range c.rows {
		v, ok := pick(r)
		if !ok || v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
