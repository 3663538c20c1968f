package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMatcher(t *testing.T) *Matcher {
	t.Helper()
	m, err := New(DefaultConfig(), nil)
	require.NoError(t, err)
	return m
}

func record(model, fuel, variant string) VehicleRecord {
	return VehicleRecord{Model: model, FuelType: fuel, Variant: variant}
}

func TestMatches_Scenarios(t *testing.T) {
	m := newTestMatcher(t)

	tests := []struct {
		name   string
		scheme string
		rec    VehicleRecord
		want   bool
	}{
		{"excluded by series prefix", "XUV 3XO (Petrol) - 2025 (All Except AX7 Series & AX5 PM AT)", record("XUV 3XO", "PETROL", "AX7 SERIES L"), false},
		{"series prefix without the word", "XUV 3XO (Petrol) - 2025 (All Except AX7 Series & AX5 PM AT)", record("XUV 3XO", "PETROL", "AX7 L"), false},
		{"not in exclusion list", "XUV 3XO (Petrol) - 2025 (All Except AX7 Series & AX5 PM AT)", record("XUV 3XO", "PETROL", "AX5 L"), true},
		{"named exclusion", "XUV 3XO (Petrol) - 2025 (All Except AX7 Series & AX5 PM AT)", record("XUV 3XO", "PETROL", "AX5 PM AT"), false},
		{"fuel mismatch", "XUV 3XO (Petrol) - 2025 (All Except AX7 Series & AX5 PM AT)", record("XUV 3XO", "DIESEL", "AX5 L"), false},
		{"thar roxx mocha carve-out", "Thar Roxx (Diesel)", record("Thar Roxx", "DIESEL", "Mocha Interiors AX7L"), false},
		{"thar roxx regular trim", "Thar Roxx (Diesel)", record("Thar Roxx", "DIESEL", "AX7L"), true},
		{"thar roxx needs full model", "Thar Roxx (Diesel)", record("Thar", "DIESEL", "LX"), false},
		{"included variant", "XUV700 (AX3 & AX5)", record("XUV700", "DIESEL", "AX5 L"), true},
		{"variant not included", "XUV700 (AX3 & AX5)", record("XUV700", "DIESEL", "AX7 L"), false},
		{"black edition exact", "Scorpio N Black Edition", record("SCORPIO N BLACK EDITION", "DIESEL", "Z8L"), true},
		{"black edition loose model rejected", "Scorpio N Black Edition", record("SCORPIO N", "DIESEL", "Z8L"), false},
		{"electric line never matches", "BE 6 (Pack Three)", record("BE 6", "EV", "PACK THREE"), false},
		{"xev never matches", "XEV 9E", record("XEV 9E", "EV", "PACK ONE"), false},
		{"tgdi needs both terms", "XUV700 (AX5 TGDI)", record("XUV700", "PETROL", "AX5 TGDI MT"), true},
		{"tgdi missing term", "XUV700 (AX5 TGDI)", record("XUV700", "PETROL", "AX5 MT"), false},
		{"prefix include", "Scorpio N (Z8 & Z8L)", record("Scorpio N", "DIESEL", "Z8L 4WD"), true},
		{"prefix include is anchored", "Scorpio N (Z8 & Z8L)", record("Scorpio N", "DIESEL", "Z4 Z8"), false},
		{"series prefix include", "XUV700 (AX7 Series)", record("XUV700", "DIESEL", "AX7 L"), true},
		{"truncated scheme model", "XUV", record("XUV700", "DIESEL", "AX5"), true},
		{"padded scheme model", "XUV700 AX (AX5)", record("XUV700", "DIESEL", "AX5"), true},
		{"unrelated model", "Bolero (B6)", record("XUV700", "DIESEL", "B6"), false},
		{"raw record text is normalized", "Scoprio N (Z8)", record("scorpio-n", "diesel", "z8 l"), true},
		{"mocha phrasing without thar", "Scorpio N (Mocha)", record("Scorpio N", "DIESEL", "MOCHA INTERIORS Z8"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := m.Parse(tt.scheme)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Matches(tt.rec, rule), "rule %+v", rule)
		})
	}
}

func TestMatches_EmptyModelRuleNeverMatches(t *testing.T) {
	m := newTestMatcher(t)
	rule, err := m.Parse("(AX5)")
	require.NoError(t, err)
	assert.Equal(t, "", rule.Model)
	assert.False(t, m.Matches(record("XUV700", "DIESEL", "AX5"), rule))
}

func TestMatches_AllExceptAndIncludeAnyPartition(t *testing.T) {
	m := newTestMatcher(t)

	termSets := [][]string{
		{"AX7 SERIES", "AX5 PM AT"},
		{"AX3", "AX5"},
		{"MOCHA INTERIORS"},
		{"Z8"},
	}
	variants := []string{
		"AX7 SERIES L", "AX7 L", "AX7", "AX5 L", "AX5 PM AT", "AX5 PM AT 7S", "AX3", "MX1",
		"MOCHA INTERIORS AX7L", "Z8", "Z8L", "Z4", "SERIES", "", "LX HARD TOP",
	}

	for _, terms := range termSets {
		include := Rule{Model: "XUV700", Fuel: "DIESEL", Kind: KindIncludeAny, VariantTerms: terms}
		except := Rule{Model: "XUV700", Fuel: "DIESEL", Kind: KindAllExcept, VariantTerms: terms}

		for _, v := range variants {
			rec := record("XUV700", "DIESEL", v)
			in := m.Matches(rec, include)
			out := m.Matches(rec, except)
			assert.True(t, in != out, "terms %v variant %q: include=%v except=%v", terms, v, in, out)

			// both fail the gates for a different model or fuel
			assert.False(t, m.Matches(record("THAR", "DIESEL", v), include))
			assert.False(t, m.Matches(record("THAR", "DIESEL", v), except))
			assert.False(t, m.Matches(record("XUV700", "PETROL", v), include))
			assert.False(t, m.Matches(record("XUV700", "PETROL", v), except))
		}
	}
}

func TestEvaluator_CustomCarveOuts(t *testing.T) {
	norm := NewNormalizer(nil)
	eval := NewEvaluator(norm, []CarveOut{
		{Name: "no-pik-up", ModelPatterns: []string{"pik-up"}, Exclude: true},
		{Name: "bolero-camper", ModelPatterns: []string{"Bolero"}, ExcludeVariants: []string{"camper"}},
	})

	pikup := Rule{Model: "PIK UP", Kind: KindAll}
	assert.False(t, eval.Matches(record("PIK UP", "DIESEL", "CBC"), pikup))

	bolero := Rule{Model: "BOLERO", Kind: KindAll}
	assert.True(t, eval.Matches(record("BOLERO NEO", "DIESEL", "N10"), bolero))
	assert.False(t, eval.Matches(record("BOLERO", "DIESEL", "CAMPER GOLD"), bolero))

	// no carve-outs configured: the Thar Roxx Mocha trim is matched like any other
	plain := NewEvaluator(norm, nil)
	thar := Rule{Model: "THAR ROXX", Kind: KindAll}
	assert.True(t, plain.Matches(record("THAR ROXX", "DIESEL", "MOCHA INTERIORS AX7L"), thar))
}

func TestSeriesPrefix(t *testing.T) {
	assert.Equal(t, "AX7", seriesPrefix("AX7 SERIES"))
	assert.Equal(t, "", seriesPrefix("SERIES"))
	assert.Equal(t, "", seriesPrefix("AX5 PM AT"))
	assert.Equal(t, "Z8 L", seriesPrefix("Z8 SERIES L"))
}
