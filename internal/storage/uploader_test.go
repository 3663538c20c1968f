package storage

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"
)

// fakeUploader records uploads in memory
type fakeUploader struct {
	files    map[string]string // key -> local path
	contents map[string][]byte
	failKey  string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{files: map[string]string{}, contents: map[string][]byte{}}
}

func (f *fakeUploader) UploadFile(ctx context.Context, localPath, key string) error {
	if key == f.failKey {
		return errors.New("boom")
	}
	f.files[key] = localPath
	return nil
}

func (f *fakeUploader) UploadContent(ctx context.Context, content []byte, key string) error {
	if key == f.failKey {
		return errors.New("boom")
	}
	f.contents[key] = content
	return nil
}

func (f *fakeUploader) URI(key string) string {
	return "mem://" + key
}

func TestNewRunID(t *testing.T) {
	now := time.Date(2025, time.July, 1, 10, 15, 0, 0, time.UTC)
	id := NewRunID(now)

	if !regexp.MustCompile(`^20250701_101500_[0-9a-f]{8}$`).MatchString(id) {
		t.Errorf("unexpected run id %q", id)
	}
	if id == NewRunID(now) {
		t.Error("expected run ids to differ for the same timestamp")
	}
}

func TestUploadAuditResults(t *testing.T) {
	up := newFakeUploader()
	manifest := &AuditManifest{
		DiscountFile: "schemes.xlsx",
		AuditFiles:   []string{"audit-july.xlsx"},
		TotalRecords: 10,
		Matched:      7,
		Unmatched:    3,
	}

	prefix, err := UploadAuditResults(context.Background(), up, AuditUploadConfig{
		RunID:         "run-1",
		JSONFile:      "/tmp/report.json",
		HTMLFile:      "/tmp/report.html",
		XLSXFile:      "/tmp/audit.xlsx",
		OutputFormats: []string{"JSON", "xlsx"},
		Manifest:      manifest,
	}, nil)
	if err != nil {
		t.Fatalf("UploadAuditResults() error = %v", err)
	}
	if prefix != "audits/run-1" {
		t.Errorf("prefix = %v", prefix)
	}

	if up.files["audits/run-1/report.json"] != "/tmp/report.json" {
		t.Errorf("JSON report not uploaded: %v", up.files)
	}
	if up.files["audits/run-1/audit.xlsx"] != "/tmp/audit.xlsx" {
		t.Errorf("XLSX export not uploaded: %v", up.files)
	}
	if _, ok := up.files["audits/run-1/report.html"]; ok {
		t.Error("HTML should be skipped when not in output formats")
	}

	var got AuditManifest
	if err := json.Unmarshal(up.contents["audits/run-1/manifest.json"], &got); err != nil {
		t.Fatalf("failed to decode manifest: %v", err)
	}
	if got.RunID != "run-1" || got.Matched != 7 || got.Timestamp == "" {
		t.Errorf("unexpected manifest %+v", got)
	}
	if got.Files.JSON != "audits/run-1/report.json" || got.Files.HTML != "" || got.Files.Manifest != "audits/run-1/manifest.json" {
		t.Errorf("unexpected manifest files %+v", got.Files)
	}
	if got.OutputFormats != "JSON,xlsx" {
		t.Errorf("output formats = %q", got.OutputFormats)
	}
}

func TestUploadAuditResults_GeneratesRunID(t *testing.T) {
	up := newFakeUploader()
	prefix, err := UploadAuditResults(context.Background(), up, AuditUploadConfig{}, nil)
	if err != nil {
		t.Fatalf("UploadAuditResults() error = %v", err)
	}
	if !strings.HasPrefix(prefix, "audits/") || len(prefix) <= len("audits/") {
		t.Errorf("prefix = %v", prefix)
	}
	if _, ok := up.contents[prefix+"/manifest.json"]; !ok {
		t.Error("manifest not uploaded")
	}
}

func TestUploadAuditResults_Errors(t *testing.T) {
	up := newFakeUploader()
	up.failKey = "audits/r/report.json"
	_, err := UploadAuditResults(context.Background(), up, AuditUploadConfig{
		RunID: "r", JSONFile: "/tmp/report.json", OutputFormats: []string{"json"},
	}, nil)
	if err == nil || !strings.Contains(err.Error(), "json report") {
		t.Errorf("expected json upload error, got %v", err)
	}

	up = newFakeUploader()
	up.failKey = "audits/r/manifest.json"
	if _, err := UploadAuditResults(context.Background(), up, AuditUploadConfig{RunID: "r"}, nil); err == nil {
		t.Error("expected manifest upload error")
	}
}

func TestContains(t *testing.T) {
	tests := []struct {
		name  string
		slice []string
		item  string
		want  bool
	}{
		{"item exists", []string{"html", "json", "text"}, "json", true},
		{"item does not exist", []string{"html", "json"}, "xml", false},
		{"empty slice", []string{}, "json", false},
		{"case insensitive match", []string{"HTML", " JSON "}, "json", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := contains(tt.slice, tt.item); got != tt.want {
				t.Errorf("contains() = %v, want %v", got, tt.want)
			}
		})
	}
}
