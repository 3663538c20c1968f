package matcher

// RuleKind selects how a rule's variant terms are interpreted
type RuleKind string

const (
	// KindAll applies to every variant of the model/fuel.
	KindAll RuleKind = "ALL"
	// KindIncludeAny matches variants containing any term.
	KindIncludeAny RuleKind = "INCLUDE_ANY"
	// KindIncludeAll matches variants containing every term.
	KindIncludeAll RuleKind = "INCLUDE_ALL"
	// KindPrefixInclude matches variants starting with any term.
	KindPrefixInclude RuleKind = "PREFIX_INCLUDE"
	// KindAllExcept matches every variant not hit by a term.
	KindAllExcept RuleKind = "ALL_EXCEPT"
	// KindExactModelAll requires an exact model match and no variant filtering.
	KindExactModelAll RuleKind = "EXACT_MODEL_ALL"
)

// Kinds lists every rule kind in declaration order.
var Kinds = []RuleKind{KindAll, KindIncludeAny, KindIncludeAll, KindPrefixInclude, KindAllExcept, KindExactModelAll}

// Valid reports whether k is one of the declared kinds.
func (k RuleKind) Valid() bool {
	for _, kind := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// UsesTerms reports whether rules of this kind carry variant terms.
func (k RuleKind) UsesTerms() bool {
	return k != KindAll && k != KindExactModelAll
}

// Rule is the structured form of one scheme description
type Rule struct {
	OriginalText string   `json:"original_text"`
	Model        string   `json:"model"`
	Fuel         string   `json:"fuel,omitempty"` // empty applies to all fuel types
	Kind         RuleKind `json:"rule_kind"`
	VariantTerms []string `json:"variant_terms,omitempty"`
}

// VehicleRecord is one row of the audit table
type VehicleRecord struct {
	Row      int    `json:"row,omitempty"` // source spreadsheet row, 0 when unknown
	Model    string `json:"model"`
	FuelType string `json:"fuel_type"`
	Variant  string `json:"variant"`

	MatchedScheme string `json:"matched_scheme"`
	MatchReason   string `json:"match_reason"`
}

// NotMatched is the annotation of records no scheme applies to.
const NotMatched = "Not Matched"

// Matched reports whether a scheme has been assigned.
func (r VehicleRecord) Matched() bool {
	return r.MatchedScheme != "" && r.MatchedScheme != NotMatched
}

// NewVehicleRecord normalizes the three identifying fields. It returns false
// when any of them is empty after normalization.
func (n Normalizer) NewVehicleRecord(row int, model, fuel, variant string) (VehicleRecord, bool) {
	rec := VehicleRecord{
		Row:           row,
		Model:         n.Normalize(model),
		FuelType:      n.Normalize(fuel),
		Variant:       n.Normalize(variant),
		MatchedScheme: NotMatched,
	}
	if rec.Model == "" || rec.FuelType == "" || rec.Variant == "" {
		return VehicleRecord{}, false
	}
	return rec, true
}
