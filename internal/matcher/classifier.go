package matcher

import "strings"

// classifier recognises one dealership phrasing pattern. It returns the
// variant terms for the rule and whether the pattern applies. When bare is
// set and the pattern applies without terms, the rule gets that kind instead.
type classifier struct {
	name  string
	kind  RuleKind
	bare  RuleKind
	match func(p *Parser, s scheme) ([]string, bool)
}

// classifiers are evaluated in order; the first that applies decides the
// rule kind. Anything left over is KindAll.
var classifiers = []classifier{
	{name: "all-except", kind: KindAllExcept, bare: KindAll, match: matchAllExcept},
	{name: "series-prefix", kind: KindPrefixInclude, match: matchSeriesPrefix},
	{name: "mocha", kind: KindAllExcept, match: matchMocha},
	{name: "tgdi-ax5", kind: KindIncludeAll, match: matchTGDI},
	{name: "standalone-line", kind: KindExactModelAll, match: matchStandaloneLine},
	{name: "named-variants", kind: KindIncludeAny, match: matchNamedVariants},
}

func classify(s scheme, p *Parser) (RuleKind, []string) {
	for _, c := range classifiers {
		terms, ok := c.match(p, s)
		if !ok {
			continue
		}
		if len(terms) == 0 && c.bare != "" {
			return c.bare, nil
		}
		return c.kind, terms
	}
	return KindAll, nil
}

const allExceptPhrase = "ALL EXCEPT"

// matchAllExcept takes the terms after "ALL EXCEPT" up to the closing
// parenthesis (or end of text). A bare "ALL EXCEPT" applies with no terms.
func matchAllExcept(p *Parser, s scheme) ([]string, bool) {
	idx := strings.Index(s.text, allExceptPhrase)
	if idx < 0 {
		return nil, false
	}
	rest := s.text[idx+len(allExceptPhrase):]
	if end := strings.Index(rest, ")"); end >= 0 {
		rest = rest[:end]
	}
	return p.splitTerms(rest), true
}

// matchSeriesPrefix collects the groups naming a series or the Z8 trim;
// their terms are variant prefixes.
func matchSeriesPrefix(_ *Parser, s scheme) ([]string, bool) {
	if !strings.Contains(s.text, "SERIES") && !strings.Contains(s.text, "Z8") {
		return nil, false
	}
	var terms []string
	for i, group := range s.groups {
		if strings.Contains(group, "SERIES") || strings.Contains(group, "Z8") {
			terms = append(terms, withoutFuel(s.tokens[i])...)
		}
	}
	return terms, len(terms) > 0
}

func matchMocha(_ *Parser, s scheme) ([]string, bool) {
	if !strings.Contains(s.text, "MOCHA") {
		return nil, false
	}
	return []string{"MOCHA INTERIORS"}, true
}

func matchTGDI(_ *Parser, s scheme) ([]string, bool) {
	if !strings.Contains(s.text, "TGDI") || !strings.Contains(s.text, "AX5") {
		return nil, false
	}
	return []string{"AX5", "TGDI"}, true
}

// matchStandaloneLine recognises model lines sold as their own model name.
func matchStandaloneLine(_ *Parser, s scheme) ([]string, bool) {
	for _, line := range []string{"BLACK EDITION", "BE 6", "XEV 9E"} {
		if strings.Contains(s.text, line) {
			return nil, true
		}
	}
	return nil, false
}

// matchNamedVariants uses the first group with content other than a fuel.
func matchNamedVariants(_ *Parser, s scheme) ([]string, bool) {
	for i, group := range s.groups {
		if !hasAlnum(group) {
			continue
		}
		if terms := withoutFuel(s.tokens[i]); len(terms) > 0 {
			return terms, true
		}
	}
	return nil, false
}
