package matcher

import (
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyScheme is returned for blank scheme descriptions
var ErrEmptyScheme = errors.New("empty scheme description")

var (
	// "- 2025", "– 2025", "—2025"
	yearReference      = regexp.MustCompile(`\s*[-–—]\s*20\d{2}\b`)
	// inside a group the dash must follow a space, so "AX5-2024" stays a name
	groupYearReference = regexp.MustCompile(`\s+[-–—]\s*20\d{2}\b`)
	parenGroup         = regexp.MustCompile(`\(([^()]*)\)`)
	termSeparator      = regexp.MustCompile(`[,&]`)
)

// fuelTokens are the fuel types recognised inside parentheses.
var fuelTokens = map[string]bool{"PETROL": true, "DIESEL": true, "EV": true}

// fuelFallbackOrder is the substring scan order used when no parenthesised
// token names a fuel.
var fuelFallbackOrder = []string{"DIESEL", "PETROL", "EV"}

// Parser converts free-form scheme descriptions into rules
type Parser struct {
	norm Normalizer
}

// NewParser creates a parser sharing the given normalizer
func NewParser(norm Normalizer) *Parser {
	return &Parser{norm: norm}
}

// scheme is the pre-tokenised form handed to the classifiers
type scheme struct {
	text   string     // normalized, year references removed
	groups []string   // normalized parenthesised groups, left to right
	tokens [][]string // comma/ampersand split terms per group
}

// Parse turns one scheme description into a Rule. Any non-blank input
// yields a rule; ambiguous phrasing resolves through the classifier order.
func (p *Parser) Parse(raw string) (Rule, error) {
	original := strings.TrimSpace(raw)
	if original == "" {
		return Rule{}, ErrEmptyScheme
	}

	cleaned := stripYearReferences(original)

	modelPart := cleaned
	if i := strings.Index(cleaned, "("); i >= 0 {
		modelPart = cleaned[:i]
	}

	s := scheme{text: p.norm.Normalize(cleaned)}
	for _, m := range parenGroup.FindAllStringSubmatch(cleaned, -1) {
		s.groups = append(s.groups, p.norm.Normalize(m[1]))
		s.tokens = append(s.tokens, p.splitTerms(m[1]))
	}

	kind, terms := classify(s, p)

	return Rule{
		OriginalText: original,
		Model:        p.norm.Normalize(modelPart),
		Fuel:         detectFuel(s, original),
		Kind:         kind,
		VariantTerms: terms,
	}, nil
}

// stripYearReferences removes year suffixes such as "- 2025". Outside
// parentheses any dash before a year goes; inside a group only a spaced one
// does, so variant names keep every character.
func stripYearReferences(text string) string {
	var b strings.Builder
	depth, start := 0, 0
	flush := func(end int) {
		re := yearReference
		if depth > 0 {
			re = groupYearReference
		}
		b.WriteString(re.ReplaceAllString(text[start:end], ""))
		start = end
	}
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '(':
			flush(i)
			depth++
		case ')':
			flush(i)
			if depth > 0 {
				depth--
			}
		}
	}
	flush(len(text))
	return b.String()
}

// detectFuel prefers an exact parenthesised token and falls back to a
// substring scan of the whole original text.
func detectFuel(s scheme, original string) string {
	for _, tokens := range s.tokens {
		for _, t := range tokens {
			if fuelTokens[t] {
				return t
			}
		}
	}

	upper := strings.ToUpper(original)
	for _, fuel := range fuelFallbackOrder {
		if strings.Contains(upper, fuel) {
			return fuel
		}
	}
	return ""
}

// splitTerms splits on commas and ampersands, normalizes each term and
// drops empties and duplicates.
func (p *Parser) splitTerms(text string) []string {
	var terms []string
	seen := make(map[string]bool)
	for _, part := range termSeparator.Split(text, -1) {
		term := p.norm.Normalize(strings.Trim(part, "() "))
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		terms = append(terms, term)
	}
	return terms
}

// withoutFuel drops fuel tokens from a term list.
func withoutFuel(terms []string) []string {
	var out []string
	for _, t := range terms {
		if !fuelTokens[t] {
			out = append(out, t)
		}
	}
	return out
}

func hasAlnum(s string) bool {
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return true
		}
	}
	return false
}
