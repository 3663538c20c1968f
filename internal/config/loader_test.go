package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// isolateEnv points ENV_FILE at an empty file so a developer's .env does not leak in.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", writeFile(t, ".env", ""))
	for _, k := range []string{"CONFIG_PATH", "LOG_LEVEL", "STORAGE_BACKEND", "S3_BUCKET", "AWS_REGION", "PRICE_LIST_SHEETS", "GITHUB_TOKEN", "GITHUB_TIMEOUT"} {
		t.Setenv(k, "")
	}
}

func TestLoadApp_YAMLAndDefaults(t *testing.T) {
	isolateEnv(t)
	path := writeFile(t, "config.yaml", `
logging:
  level: debug
prices:
  dir: /srv/prices
storage:
  backend: s3
  s3:
    bucket: price-lists
`)

	cfg, err := LoadApp(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/srv/prices", cfg.Prices.Dir)
	assert.Equal(t, DefaultRecentPriceLists, cfg.Prices.Recent)
	assert.Equal(t, []string{"PV", "EV"}, cfg.Prices.Sheets)
	assert.Equal(t, "price-lists", cfg.Storage.S3.Bucket)
	assert.Equal(t, "eu-west-1", cfg.Storage.S3.Region)
	assert.Equal(t, 30*time.Second, cfg.Storage.GitHub.Timeout)
}

func TestLoadApp_EnvOverrides(t *testing.T) {
	isolateEnv(t)
	path := writeFile(t, "config.yaml", "storage:\n  backend: local\n")

	t.Setenv("STORAGE_BACKEND", "github")
	t.Setenv("GITHUB_TOKEN", "tkn")
	t.Setenv("GITHUB_OWNER", "dealer")
	t.Setenv("GITHUB_REPO", "prices")
	t.Setenv("GITHUB_TIMEOUT", "5s")
	t.Setenv("PRICE_LIST_SHEETS", "PV, EV, CV")

	cfg, err := LoadApp(path)
	require.NoError(t, err)
	assert.Equal(t, BackendGitHub, cfg.Storage.Backend)
	assert.Equal(t, "tkn", cfg.Storage.GitHub.Token)
	assert.Equal(t, 5*time.Second, cfg.Storage.GitHub.Timeout)
	assert.Equal(t, []string{"PV", "EV", "CV"}, cfg.Prices.Sheets)
	assert.Equal(t, "main", cfg.Storage.GitHub.Branch)
}

func TestLoadApp_EnvFile(t *testing.T) {
	isolateEnv(t)
	t.Setenv("ENV_FILE", writeFile(t, "custom.env", "S3_BUCKET=from-env-file\nSTORAGE_BACKEND=s3\n"))
	// godotenv does not override variables that are already set
	require.NoError(t, os.Unsetenv("S3_BUCKET"))
	require.NoError(t, os.Unsetenv("STORAGE_BACKEND"))
	t.Cleanup(func() {
		os.Unsetenv("S3_BUCKET")
		os.Unsetenv("STORAGE_BACKEND")
	})

	cfg, err := LoadApp(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendS3, cfg.Storage.Backend)
	assert.Equal(t, "from-env-file", cfg.Storage.S3.Bucket)
}

func TestLoadApp_MissingFileUsesDefaults(t *testing.T) {
	isolateEnv(t)
	cfg, err := LoadApp(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendLocal, cfg.Storage.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadApp_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantReq bool
	}{
		{"s3 without bucket", "storage:\n  backend: s3\n", true},
		{"github without token", "storage:\n  backend: github\n  github:\n    owner: a\n    repo: b\n", true},
		{"unknown backend", "storage:\n  backend: ftp\n", false},
		{"bad log level", "logging:\n  level: loud\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			_, err := LoadApp(writeFile(t, "config.yaml", tt.content))
			require.Error(t, err)
			var vErr *ValidationError
			assert.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.wantReq, errors.Is(err, ErrRequired))
		})
	}
}

func TestLoad_ParseError(t *testing.T) {
	isolateEnv(t)
	_, err := Load[AppConfig](writeFile(t, "config.yaml", "logging: [\n"))
	assert.Error(t, err)
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, "default.yaml", GetConfigPath("default.yaml"))
	t.Setenv("CONFIG_PATH", "/etc/audit.yaml")
	assert.Equal(t, "/etc/audit.yaml", GetConfigPath("default.yaml"))
}
