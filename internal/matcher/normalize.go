package matcher

import "strings"

// Normalizer canonicalizes scheme and vehicle text before comparison.
// The zero value applies no corrections.
type Normalizer struct {
	corrections []tokenCorrection
}

// tokenCorrection replaces a run of whole words
type tokenCorrection struct {
	from []string
	to   []string
}

// NewNormalizer builds a normalizer from a corrections table.
func NewNormalizer(corrections []Correction) Normalizer {
	var cleaned []tokenCorrection
	for _, c := range corrections {
		from := words(c.From)
		if len(from) == 0 {
			continue
		}
		cleaned = append(cleaned, tokenCorrection{from: from, to: words(c.To)})
	}
	return Normalizer{corrections: cleaned}
}

// Normalize uppercases, turns hyphens into spaces, collapses whitespace and
// applies the corrections to whole words in a single left-to-right pass.
// Replaced words are not scanned again. For a table accepted by
// Config.Validate, Normalize(Normalize(s)) == Normalize(s).
func (n Normalizer) Normalize(text string) string {
	tokens := words(text)
	if len(n.corrections) == 0 {
		return strings.Join(tokens, " ")
	}

	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		if c, ok := n.correctionAt(tokens, i); ok {
			out = append(out, c.to...)
			i += len(c.from)
			continue
		}
		out = append(out, tokens[i])
		i++
	}
	return strings.Join(out, " ")
}

// correctionAt returns the first correction whose words start at tokens[i].
func (n Normalizer) correctionAt(tokens []string, i int) (tokenCorrection, bool) {
	for _, c := range n.corrections {
		if i+len(c.from) > len(tokens) {
			continue
		}
		hit := true
		for j, w := range c.from {
			if tokens[i+j] != w {
				hit = false
				break
			}
		}
		if hit {
			return c, true
		}
	}
	return tokenCorrection{}, false
}

// words uppercases s, treats hyphens as spaces and splits on whitespace.
func words(s string) []string {
	return strings.Fields(strings.ReplaceAll(strings.ToUpper(s), "-", " "))
}
