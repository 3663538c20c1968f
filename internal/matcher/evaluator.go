package matcher

import "strings"

// Evaluator decides whether a vehicle record is governed by a rule.
// It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	norm      Normalizer
	carveOuts []CarveOut
}

// NewEvaluator creates an evaluator with the given carve-out table
func NewEvaluator(norm Normalizer, carveOuts []CarveOut) *Evaluator {
	normalized := make([]CarveOut, 0, len(carveOuts))
	for _, co := range carveOuts {
		c := CarveOut{
			Name:         co.Name,
			RequireModel: co.RequireModel,
			Exclude:      co.Exclude,
		}
		for _, p := range co.ModelPatterns {
			if p = norm.Normalize(p); p != "" {
				c.ModelPatterns = append(c.ModelPatterns, p)
			}
		}
		for _, v := range co.ExcludeVariants {
			if v = norm.Normalize(v); v != "" {
				c.ExcludeVariants = append(c.ExcludeVariants, v)
			}
		}
		normalized = append(normalized, c)
	}
	return &Evaluator{norm: norm, carveOuts: normalized}
}

// Matches reports whether rec passes the model, carve-out, fuel and
// variant gates of rule.
func (e *Evaluator) Matches(rec VehicleRecord, rule Rule) bool {
	model := e.norm.Normalize(rec.Model)
	fuel := e.norm.Normalize(rec.FuelType)
	variant := e.norm.Normalize(rec.Variant)

	if !modelMatches(model, rule) {
		return false
	}
	if !e.passesCarveOuts(model, variant, rule) {
		return false
	}
	if rule.Fuel != "" && strings.ToUpper(rule.Fuel) != fuel {
		return false
	}
	return variantMatches(variant, rule)
}

// modelMatches tolerates truncated and padded model names on either side,
// except for standalone lines which must match exactly. A rule without a
// model never matches.
func modelMatches(model string, rule Rule) bool {
	if rule.Model == "" || model == "" {
		return false
	}
	if rule.Kind == KindExactModelAll {
		return model == rule.Model
	}
	return strings.Contains(model, rule.Model) || strings.Contains(rule.Model, model)
}

func (e *Evaluator) passesCarveOuts(model, variant string, rule Rule) bool {
	for _, co := range e.carveOuts {
		pattern, ok := firstContained(rule.Model, co.ModelPatterns)
		if !ok {
			continue
		}
		if co.Exclude {
			return false
		}
		if co.RequireModel && !strings.Contains(model, pattern) {
			return false
		}
		for _, v := range co.ExcludeVariants {
			if strings.Contains(variant, v) {
				return false
			}
		}
	}
	return true
}

func variantMatches(variant string, rule Rule) bool {
	switch rule.Kind {
	case KindIncludeAny:
		for _, t := range rule.VariantTerms {
			if termHits(variant, t) {
				return true
			}
		}
		return false
	case KindIncludeAll:
		for _, t := range rule.VariantTerms {
			if !strings.Contains(variant, t) {
				return false
			}
		}
		return true
	case KindPrefixInclude:
		for _, t := range rule.VariantTerms {
			if strings.HasPrefix(variant, t) {
				return true
			}
			if p := seriesPrefix(t); p != "" && strings.HasPrefix(variant, p) {
				return true
			}
		}
		return false
	case KindAllExcept:
		for _, t := range rule.VariantTerms {
			if termHits(variant, t) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// termHits is shared by inclusion and exclusion so the two partition the
// variant space for identical terms.
func termHits(variant, term string) bool {
	if strings.Contains(variant, term) {
		return true
	}
	p := seriesPrefix(term)
	return p != "" && strings.HasPrefix(variant, p)
}

// seriesPrefix strips the word SERIES from a term ("AX7 SERIES" -> "AX7").
// Terms without the word yield "".
func seriesPrefix(term string) string {
	fields := strings.Fields(term)
	kept := fields[:0:0]
	found := false
	for _, f := range fields {
		if f == "SERIES" {
			found = true
			continue
		}
		kept = append(kept, f)
	}
	if !found {
		return ""
	}
	return strings.Join(kept, " ")
}

func firstContained(s string, patterns []string) (string, bool) {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return p, true
		}
	}
	return "", false
}
