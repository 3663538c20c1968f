package loaders

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"pricing-audit-service/internal/pricing"
)

// LoadPriceSheet reads one category sheet of a price list. Model and
// Variant are required; Fuel Type is optional. Rows without a model are
// dropped.
func LoadPriceSheet(path, sheet string) ([]pricing.PriceRow, error) {
	t, err := readTable(path, sheet)
	if err != nil {
		return nil, err
	}

	modelCol, err := t.column(ColumnModel)
	if err != nil {
		return nil, err
	}
	variantCol, err := t.column(ColumnVariant)
	if err != nil {
		return nil, err
	}
	fuelCol, _ := t.column(ColumnFuelType)

	var out []pricing.PriceRow
	for i, row := range t.rows {
		model := cell(row, modelCol)
		if model == "" {
			continue
		}
		cells := make(map[string]string, len(t.header))
		for c, h := range t.header {
			if h != "" {
				cells[h] = cell(row, c)
			}
		}
		out = append(out, pricing.PriceRow{
			Sheet:    t.sheet,
			Row:      i + 2,
			Model:    model,
			FuelType: cell(row, fuelCol),
			Variant:  cell(row, variantCol),
			Cells:    cells,
		})
	}
	return out, nil
}

// DefaultRecentPriceLists is the number of price lists offered for selection.
const DefaultRecentPriceLists = 5

var priceListPattern = regexp.MustCompile(`^PV Price List Master D\. (\d{2})\.(\d{2})\.(\d{4})\.xlsx$`)

// PriceListFile is a dated price list workbook
type PriceListFile struct {
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

// Label is the display name used in listings, e.g.
// "PV Price List Master D. 01.07.2025.xlsx (01-Jul-2025)".
func (p PriceListFile) Label() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.Date.Format("02-Jan-2006"))
}

// ParsePriceListDate extracts the DD.MM.YYYY date from a price list file
// name. Names that do not follow the pattern or carry an impossible date
// report false.
func ParsePriceListDate(name string) (time.Time, bool) {
	m := priceListPattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return time.Time{}, false
	}
	d, err := time.Parse("02.01.2006", m[1]+"."+m[2]+"."+m[3])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// RecentPriceLists keeps valid price list names, newest first, capped at n.
// n <= 0 uses DefaultRecentPriceLists.
func RecentPriceLists(names []string, n int) []PriceListFile {
	if n <= 0 {
		n = DefaultRecentPriceLists
	}

	var files []PriceListFile
	for _, name := range names {
		if d, ok := ParsePriceListDate(name); ok {
			files = append(files, PriceListFile{Name: filepath.Base(name), Date: d})
		}
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Date.Equal(files[j].Date) {
			return files[i].Name < files[j].Name
		}
		return files[i].Date.After(files[j].Date)
	})
	if len(files) > n {
		files = files[:n]
	}
	return files
}
