package loaders

import (
	"pricing-audit-service/internal/matcher"
)

// LoadVehicleRecords reads the Model, Fuel Type and Variant columns of an
// audit sheet. Rows with any of the three blank are dropped; Row holds the
// 1-based spreadsheet row.
func LoadVehicleRecords(path, sheet string, norm matcher.Normalizer) ([]matcher.VehicleRecord, error) {
	t, err := readTable(path, sheet)
	if err != nil {
		return nil, err
	}

	var idx [3]int
	for i, name := range []string{ColumnModel, ColumnFuelType, ColumnVariant} {
		if idx[i], err = t.column(name); err != nil {
			return nil, err
		}
	}

	records := make([]matcher.VehicleRecord, 0, len(t.rows))
	for i, row := range t.rows {
		rec, ok := norm.NewVehicleRecord(i+2, cell(row, idx[0]), cell(row, idx[1]), cell(row, idx[2]))
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
