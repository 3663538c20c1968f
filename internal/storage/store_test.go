package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pricing-audit-service/internal/config"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "prices")
	store := NewLocalStore(dir)

	names, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() on missing dir error = %v", err)
	}
	if len(names) != 0 {
		t.Errorf("List() = %v, want empty", names)
	}

	src := filepath.Join(t.TempDir(), "PV Price List Master D. 01.07.2025.xlsx")
	if err := os.WriteFile(src, []byte("prices"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	loc, err := store.Upload(ctx, src)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if loc != filepath.Join(dir, "PV Price List Master D. 01.07.2025.xlsx") {
		t.Errorf("Upload() location = %v", loc)
	}
	if err := os.Mkdir(filepath.Join(dir, "archive"), 0755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}

	names, err = store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 1 || names[0] != "PV Price List Master D. 01.07.2025.xlsx" {
		t.Errorf("List() = %v", names)
	}

	dst := filepath.Join(t.TempDir(), "copy.xlsx")
	if err := store.Download(ctx, names[0], dst); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if data, _ := os.ReadFile(dst); string(data) != "prices" {
		t.Errorf("downloaded %q", data)
	}

	if err := store.Download(ctx, "missing.xlsx", dst); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNewPriceListStore(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.StorageConfig
		want    string
		wantErr bool
	}{
		{name: "default is local", cfg: config.StorageConfig{}, want: "local"},
		{name: "local", cfg: config.StorageConfig{Backend: config.BackendLocal}, want: "local"},
		{name: "s3", cfg: config.StorageConfig{Backend: config.BackendS3, S3: config.S3Config{Bucket: "b", Region: "eu-west-1"}}, want: "s3"},
		{name: "s3 without bucket", cfg: config.StorageConfig{Backend: config.BackendS3}, wantErr: true},
		{name: "github", cfg: config.StorageConfig{Backend: config.BackendGitHub, GitHub: config.GitHubConfig{Token: "t", Owner: "o", Repo: "r"}}, want: "github"},
		{name: "github without token", cfg: config.StorageConfig{Backend: config.BackendGitHub}, wantErr: true},
		{name: "unknown", cfg: config.StorageConfig{Backend: "ftp"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewPriceListStore(tt.cfg, t.TempDir(), nil)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var got string
			switch store.(type) {
			case *LocalStore:
				got = "local"
			case *S3Store:
				got = "s3"
			case *GitHubStore:
				got = "github"
			}
			if got != tt.want {
				t.Errorf("backend = %v, want %v", got, tt.want)
			}
		})
	}
}
