package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pricing-audit-service/internal/logger"
)

// ObjectUploader puts files and blobs under keys. S3Client satisfies it.
type ObjectUploader interface {
	UploadFile(ctx context.Context, localPath, key string) error
	UploadContent(ctx context.Context, content []byte, key string) error
	URI(key string) string
}

// AuditUploadConfig lists the exported files of an audit run
type AuditUploadConfig struct {
	RunID         string
	JSONFile      string
	HTMLFile      string
	XLSXFile      string
	OutputFormats []string
	Manifest      *AuditManifest
}

// AuditManifest describes an uploaded audit run
type AuditManifest struct {
	Timestamp     string   `json:"timestamp"`
	RunID         string   `json:"run_id"`
	DiscountFile  string   `json:"discount_file"`
	AuditFiles    []string `json:"audit_files"`
	TotalRecords  int      `json:"total_records"`
	Matched       int      `json:"matched"`
	Unmatched     int      `json:"unmatched"`
	SchemeCount   int      `json:"scheme_count"`
	MatcherConfig string   `json:"matcher_config,omitempty"`
	OutputFormats string   `json:"output_formats"`
	Files         struct {
		JSON     string `json:"json,omitempty"`
		HTML     string `json:"html,omitempty"`
		XLSX     string `json:"xlsx,omitempty"`
		Manifest string `json:"manifest"`
	} `json:"files"`
}

// NewRunID returns a sortable, unique audit run id such as
// "20250701_101500_1a2b3c4d".
func NewRunID(now time.Time) string {
	return fmt.Sprintf("%s_%s", now.UTC().Format("20060102_150405"), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// UploadAuditResults uploads the exported files of an audit run and a
// manifest under audits/<run-id>/. It returns the run prefix.
func UploadAuditResults(ctx context.Context, up ObjectUploader, cfg AuditUploadConfig, log logger.Logger) (string, error) {
	if log == nil {
		log = logger.NewNop()
	}

	runID := cfg.RunID
	if runID == "" {
		runID = NewRunID(time.Now())
	}
	prefix := "audits/" + runID

	manifest := cfg.Manifest
	if manifest == nil {
		manifest = &AuditManifest{}
	}
	manifest.RunID = runID
	if manifest.Timestamp == "" {
		manifest.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if manifest.OutputFormats == "" {
		manifest.OutputFormats = strings.Join(cfg.OutputFormats, ",")
	}

	uploads := []struct {
		format string
		file   string
		name   string
		dst    *string
	}{
		{"json", cfg.JSONFile, "report.json", &manifest.Files.JSON},
		{"html", cfg.HTMLFile, "report.html", &manifest.Files.HTML},
		{"xlsx", cfg.XLSXFile, "audit.xlsx", &manifest.Files.XLSX},
	}
	for _, u := range uploads {
		if u.file == "" || !contains(cfg.OutputFormats, u.format) {
			continue
		}
		key := prefix + "/" + u.name
		if err := up.UploadFile(ctx, u.file, key); err != nil {
			return "", fmt.Errorf("failed to upload %s report: %w", u.format, err)
		}
		*u.dst = key
		log.Info("Uploaded audit report", logger.String("format", u.format), logger.String("uri", up.URI(key)))
	}

	manifestKey := prefix + "/manifest.json"
	manifest.Files.Manifest = manifestKey
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := up.UploadContent(ctx, data, manifestKey); err != nil {
		return "", fmt.Errorf("failed to upload manifest: %w", err)
	}

	log.Info("Uploaded audit package",
		logger.String("run_id", runID),
		logger.String("uri", up.URI(prefix+"/")),
		logger.Int("records", manifest.TotalRecords),
		logger.Int("matched", manifest.Matched),
	)
	return prefix, nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(strings.TrimSpace(s), item) {
			return true
		}
	}
	return false
}
