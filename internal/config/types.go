package config

import (
	"fmt"
	"time"

	"pricing-audit-service/internal/logger"
)

// Storage backends
const (
	BackendLocal  = "local"
	BackendS3     = "s3"
	BackendGitHub = "github"
)

// DefaultRecentPriceLists is how many price lists are offered for selection.
const DefaultRecentPriceLists = 5

// AppConfig is the root of config.yaml
type AppConfig struct {
	Logging logger.Config `yaml:"logging"`
	Matcher MatcherConfig `yaml:"matcher"`
	Prices  PricesConfig  `yaml:"prices"`
	Storage StorageConfig `yaml:"storage"`
}

// MatcherConfig points at the matcher rule file
type MatcherConfig struct {
	ConfigPath string `yaml:"config_path" env:"MATCHER_CONFIG"`
}

// PricesConfig holds price list viewer settings
type PricesConfig struct {
	Dir    string   `yaml:"dir" env:"PRICE_LIST_DIR"`
	Recent int      `yaml:"recent" env:"PRICE_LIST_RECENT"`
	Sheets []string `yaml:"sheets" env:"PRICE_LIST_SHEETS"`
}

// StorageConfig selects and configures the price list store
type StorageConfig struct {
	Backend string       `yaml:"backend" env:"STORAGE_BACKEND"`
	S3      S3Config     `yaml:"s3"`
	GitHub  GitHubConfig `yaml:"github"`
}

// S3Config holds S3 bucket settings
type S3Config struct {
	Bucket string `yaml:"bucket" env:"S3_BUCKET"`
	Prefix string `yaml:"prefix" env:"S3_PREFIX"`
	Region string `yaml:"region" env:"AWS_REGION"`
}

// GitHubConfig holds repository contents API settings
type GitHubConfig struct {
	Token   string        `yaml:"token" env:"GITHUB_TOKEN"`
	Owner   string        `yaml:"owner" env:"GITHUB_OWNER"`
	Repo    string        `yaml:"repo" env:"GITHUB_REPO"`
	Branch  string        `yaml:"branch" env:"GITHUB_BRANCH"`
	Dir     string        `yaml:"dir" env:"GITHUB_DIR"`
	BaseURL string        `yaml:"base_url" env:"GITHUB_API_URL"`
	Timeout time.Duration `yaml:"timeout" env:"GITHUB_TIMEOUT"`
}

// SetDefaults fills unset values.
func (c *AppConfig) SetDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Prices.Dir == "" {
		c.Prices.Dir = "."
	}
	if c.Prices.Recent <= 0 {
		c.Prices.Recent = DefaultRecentPriceLists
	}
	if len(c.Prices.Sheets) == 0 {
		c.Prices.Sheets = []string{"PV", "EV"}
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendLocal
	}
	if c.Storage.S3.Region == "" {
		c.Storage.S3.Region = "eu-west-1"
	}
	if c.Storage.GitHub.Branch == "" {
		c.Storage.GitHub.Branch = "main"
	}
	if c.Storage.GitHub.BaseURL == "" {
		c.Storage.GitHub.BaseURL = "https://api.github.com"
	}
	if c.Storage.GitHub.Timeout == 0 {
		c.Storage.GitHub.Timeout = 30 * time.Second
	}
}

// Validate checks the selected storage backend has what it needs.
func (c *AppConfig) Validate() error {
	switch c.Storage.Backend {
	case BackendLocal:
	case BackendS3:
		if err := ValidateRequired("storage.s3.bucket", c.Storage.S3.Bucket); err != nil {
			return err
		}
	case BackendGitHub:
		required := [][2]string{
			{"storage.github.token", c.Storage.GitHub.Token},
			{"storage.github.owner", c.Storage.GitHub.Owner},
			{"storage.github.repo", c.Storage.GitHub.Repo},
		}
		for _, r := range required {
			if err := ValidateRequired(r[0], r[1]); err != nil {
				return err
			}
		}
	default:
		return &ValidationError{Field: "storage.backend", Message: fmt.Sprintf("unknown backend %q", c.Storage.Backend)}
	}
	return ValidateLogLevel(c.Logging.Level)
}

// DefaultConfigPath is used when neither --config nor CONFIG_PATH is given.
const DefaultConfigPath = "configs/config.yaml"

// LoadApp loads the app config with defaults and validation. An empty path
// falls back to CONFIG_PATH, then DefaultConfigPath.
func LoadApp(path string) (*AppConfig, error) {
	if path == "" {
		path = GetConfigPath(DefaultConfigPath)
	}
	cfg, err := LoadWithDefaults(path, (*AppConfig).SetDefaults)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
