package matcher

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultSchemeLimit is the number of scheme rows considered per discount sheet.
const DefaultSchemeLimit = 13

// Config represents the matcher configuration loaded from YAML
type Config struct {
	Corrections    []Correction `yaml:"corrections"`
	SchemeLimit    int          `yaml:"scheme_limit"`     // 0 or negative disables the cap
	SchemeSkipRows int          `yaml:"scheme_skip_rows"` // title rows below the header
	SchemeColumn   string       `yaml:"scheme_column"`
	CarveOuts      []CarveOut   `yaml:"carve_outs"`
}

// Correction replaces a known misspelling after uppercasing
type Correction struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// CarveOut is a business exception applied to every rule whose model
// contains one of ModelPatterns, regardless of the parsed rule kind.
type CarveOut struct {
	Name          string   `yaml:"name"`
	ModelPatterns []string `yaml:"model_patterns"`
	// RequireModel demands the record model also contains the pattern that fired.
	RequireModel bool `yaml:"require_model,omitempty"`
	// ExcludeVariants lists variant fragments that never match.
	ExcludeVariants []string `yaml:"exclude_variants,omitempty"`
	// Exclude removes the model line from audit matching entirely.
	Exclude bool `yaml:"exclude,omitempty"`
}

// DefaultConfig returns the built-in dealership configuration.
func DefaultConfig() Config {
	return Config{
		Corrections: []Correction{
			{From: "SCOPRIO", To: "SCORPIO"},
		},
		SchemeLimit:    DefaultSchemeLimit,
		SchemeSkipRows: 1,
		SchemeColumn:   "Model",
		CarveOuts: []CarveOut{
			{
				Name:            "thar-roxx-mocha",
				ModelPatterns:   []string{"THAR ROXX"},
				RequireModel:    true,
				ExcludeVariants: []string{"MOCHA INTERIORS"},
			},
			{
				Name:          "electric-origin-lines",
				ModelPatterns: []string{"BE 6", "XEV 9E"},
				Exclude:       true,
			},
		},
	}
}

// LoadConfig reads a matcher YAML file. Sections missing from the file
// keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read matcher config: %w", err)
	}

	var fileCfg struct {
		Corrections    *[]Correction `yaml:"corrections"`
		SchemeLimit    *int          `yaml:"scheme_limit"`
		SchemeSkipRows *int          `yaml:"scheme_skip_rows"`
		SchemeColumn   string        `yaml:"scheme_column"`
		CarveOuts      *[]CarveOut   `yaml:"carve_outs"`
	}
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal matcher config: %w", err)
	}

	if fileCfg.Corrections != nil {
		cfg.Corrections = *fileCfg.Corrections
	}
	if fileCfg.SchemeLimit != nil {
		cfg.SchemeLimit = *fileCfg.SchemeLimit
	}
	if fileCfg.SchemeSkipRows != nil {
		cfg.SchemeSkipRows = *fileCfg.SchemeSkipRows
	}
	if fileCfg.SchemeColumn != "" {
		cfg.SchemeColumn = fileCfg.SchemeColumn
	}
	if fileCfg.CarveOuts != nil {
		cfg.CarveOuts = *fileCfg.CarveOuts
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the corrections table and carve-outs. A replacement may
// not be empty or reuse any word of a correction key; with that, a single
// pass of Normalizer.Normalize leaves nothing to correct.
func (c Config) Validate() error {
	keyWords := make(map[string]string)
	for i, corr := range c.Corrections {
		from := words(corr.From)
		if len(from) == 0 {
			return fmt.Errorf("corrections[%d]: from is required", i)
		}
		for _, w := range from {
			keyWords[w] = corr.From
		}
	}
	for i, corr := range c.Corrections {
		to := words(corr.To)
		if len(to) == 0 {
			return fmt.Errorf("corrections[%d]: replacement for %q is empty", i, corr.From)
		}
		for _, w := range to {
			if key, ok := keyWords[w]; ok {
				return fmt.Errorf("corrections[%d]: replacement %q reuses word %q of correction key %q", i, corr.To, w, key)
			}
		}
	}

	for i, co := range c.CarveOuts {
		if co.Name == "" {
			return fmt.Errorf("carve_outs[%d]: name is required", i)
		}
		if len(co.ModelPatterns) == 0 {
			return fmt.Errorf("carve_outs[%d] (%s): at least one model pattern is required", i, co.Name)
		}
		if !co.Exclude && !co.RequireModel && len(co.ExcludeVariants) == 0 {
			return fmt.Errorf("carve_outs[%d] (%s): carve-out has no effect", i, co.Name)
		}
	}

	if c.SchemeSkipRows < 0 {
		return fmt.Errorf("scheme_skip_rows must be non-negative")
	}
	return nil
}
