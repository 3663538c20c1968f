package formatters

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"pricing-audit-service/internal/loaders"
	"pricing-audit-service/internal/pricing"
)

// PriceText writes a breakdown as a three-column table.
func PriceText(w io.Writer, b pricing.Breakdown) error {
	title := color.New(color.FgCyan, color.Bold)
	onRoad := color.New(color.FgYellow, color.Bold)

	title.Fprintf(w, "%s - %s\n", b.Model, b.Variant)
	if b.FuelType != "" {
		fmt.Fprintf(w, "Fuel: %s\n", b.FuelType)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-42s %16s %16s\n", "Description", "Individual", "Corporate")
	fmt.Fprintf(w, "%-42s %16s %16s\n", "-----------", "----------", "---------")
	for _, l := range b.Lines {
		line := fmt.Sprintf("%-42s %16s %16s", l.Description, l.Individual, l.Corporate)
		if l.Highlight {
			onRoad.Fprintln(w, line)
		} else {
			fmt.Fprintln(w, line)
		}
	}

	if len(b.Offers) > 0 {
		fmt.Fprintf(w, "\nCartel Offers:\n")
		for _, o := range b.Offers {
			fmt.Fprintf(w, "%-42s %s\n", o.Description, o.Value)
		}
	}
	return nil
}

// PriceJSON writes a breakdown as indented JSON.
func PriceJSON(w io.Writer, b pricing.Breakdown) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal price breakdown: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// PriceListText lists price list files newest first.
func PriceListText(w io.Writer, files []loaders.PriceListFile) error {
	if len(files) == 0 {
		fmt.Fprintln(w, "No price lists found")
		return nil
	}
	for i, f := range files {
		fmt.Fprintf(w, "%d. %s\n", i+1, f.Label())
	}
	return nil
}

// PriceListJSON writes the price list files as indented JSON.
func PriceListJSON(w io.Writer, files []loaders.PriceListFile) error {
	if files == nil {
		files = []loaders.PriceListFile{}
	}
	data, err := json.MarshalIndent(files, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal price lists: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
