package matcher

import (
	"fmt"

	"pricing-audit-service/internal/logger"
)

// Matcher assigns discount schemes to vehicle records, first match wins.
// A Matcher is immutable once built; concurrent MatchAll calls are safe.
type Matcher struct {
	cfg    Config
	norm   Normalizer
	parser *Parser
	eval   *Evaluator
	log    logger.Logger
}

// SchemeCount tracks how many records one scheme claimed
type SchemeCount struct {
	Scheme  string   `json:"scheme"`
	Kind    RuleKind `json:"rule_kind"`
	Matched int      `json:"matched"`
}

// Result is the annotated vehicle table plus per-scheme tallies
type Result struct {
	Records        []VehicleRecord `json:"records"`
	Rules          []Rule          `json:"rules"`
	SchemeCounts   []SchemeCount   `json:"scheme_counts"`
	SkippedSchemes int             `json:"skipped_schemes"`
}

// MatchedCount returns the number of records with an assigned scheme.
func (r Result) MatchedCount() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Matched() {
			n++
		}
	}
	return n
}

// UnmatchedCount returns the number of records left as NotMatched.
func (r Result) UnmatchedCount() int {
	return len(r.Records) - r.MatchedCount()
}

// New validates cfg and builds a Matcher. A nil logger disables logging.
func New(cfg Config, log logger.Logger) (*Matcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matcher config: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}

	norm := NewNormalizer(cfg.Corrections)
	return &Matcher{
		cfg:    cfg,
		norm:   norm,
		parser: NewParser(norm),
		eval:   NewEvaluator(norm, cfg.CarveOuts),
		log:    log,
	}, nil
}

// Normalizer returns the normalizer shared by parser and evaluator.
func (m *Matcher) Normalizer() Normalizer {
	return m.norm
}

// Config returns the configuration the matcher was built with.
func (m *Matcher) Config() Config {
	return m.cfg
}

// Parse parses a single scheme description.
func (m *Matcher) Parse(raw string) (Rule, error) {
	return m.parser.Parse(raw)
}

// Matches evaluates one record against one rule.
func (m *Matcher) Matches(rec VehicleRecord, rule Rule) bool {
	return m.eval.Matches(rec, rule)
}

// ParseSchemes parses the first SchemeLimit rows in order, skipping blank
// ones. The second return value counts skipped rows.
func (m *Matcher) ParseSchemes(rows []string) ([]Rule, int) {
	if m.cfg.SchemeLimit > 0 && len(rows) > m.cfg.SchemeLimit {
		rows = rows[:m.cfg.SchemeLimit]
	}

	rules := make([]Rule, 0, len(rows))
	skipped := 0
	for i, row := range rows {
		rule, err := m.parser.Parse(row)
		if err != nil {
			skipped++
			m.log.Debug("Skipping scheme row", logger.Int("index", i), logger.Error(err))
			continue
		}
		rules = append(rules, rule)
	}
	return rules, skipped
}

// MatchAll parses schemeRows and annotates a fresh copy of records.
func (m *Matcher) MatchAll(schemeRows []string, records []VehicleRecord) Result {
	rules, skipped := m.ParseSchemes(schemeRows)
	result := m.Apply(rules, records)
	result.SkippedSchemes = skipped
	return result
}

// Apply evaluates already parsed rules in order. Each record takes the
// first rule it matches and is not reconsidered for later rules.
func (m *Matcher) Apply(rules []Rule, records []VehicleRecord) Result {
	out := make([]VehicleRecord, len(records))
	for i, rec := range records {
		rec.MatchedScheme = NotMatched
		rec.MatchReason = ""
		out[i] = rec
	}

	counts := make([]SchemeCount, len(rules))
	for ri, rule := range rules {
		counts[ri] = SchemeCount{Scheme: rule.OriginalText, Kind: rule.Kind}
		for i := range out {
			if out[i].Matched() {
				continue
			}
			if !m.eval.Matches(out[i], rule) {
				continue
			}
			out[i].MatchedScheme = rule.OriginalText
			out[i].MatchReason = MatchReason(rule.Kind)
			counts[ri].Matched++
		}
		m.log.Debug("Scheme evaluated",
			logger.String("scheme", rule.OriginalText),
			logger.String("rule_kind", string(rule.Kind)),
			logger.Int("matched", counts[ri].Matched),
		)
	}

	return Result{Records: out, Rules: rules, SchemeCounts: counts}
}

// MatchReason is the human-readable tag recorded for a match.
func MatchReason(kind RuleKind) string {
	return "Matched Rule: " + string(kind)
}
