// Package storage keeps price list workbooks and audit results in a local
// directory, an S3 bucket, or a GitHub repository.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"pricing-audit-service/internal/config"
	"pricing-audit-service/internal/logger"
)

// ErrNotFound is returned when a stored file does not exist.
var ErrNotFound = errors.New("not found")

// PriceListStore holds the price list workbooks
type PriceListStore interface {
	// List returns the file names in the store.
	List(ctx context.Context) ([]string, error)
	// Download copies name to the local path dst.
	Download(ctx context.Context, name, dst string) error
	// Upload stores localPath under its base name, replacing any existing
	// file, and returns its location.
	Upload(ctx context.Context, localPath string) (string, error)
}

// NewPriceListStore builds the store selected by cfg.Backend. localDir is
// the directory used by the local backend.
func NewPriceListStore(cfg config.StorageConfig, localDir string, log logger.Logger) (PriceListStore, error) {
	switch cfg.Backend {
	case "", config.BackendLocal:
		return NewLocalStore(localDir), nil
	case config.BackendS3:
		client, err := NewS3Client(cfg.S3.Bucket, cfg.S3.Prefix, cfg.S3.Region)
		if err != nil {
			return nil, err
		}
		return NewS3Store(client), nil
	case config.BackendGitHub:
		return NewGitHubStore(cfg.GitHub, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// LocalStore is a directory of price lists
type LocalStore struct {
	dir string
}

// NewLocalStore creates a store rooted at dir.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// Path returns the on-disk path of name.
func (s *LocalStore) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// List returns the regular files in the directory, sorted by name. A
// missing directory is an empty store.
func (s *LocalStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Download copies name out of the store.
func (s *LocalStore) Download(ctx context.Context, name, dst string) error {
	src := s.Path(name)
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", src, ErrNotFound)
	}
	return CopyFile(src, dst)
}

// Upload copies localPath into the store.
func (s *LocalStore) Upload(ctx context.Context, localPath string) (string, error) {
	dst := s.Path(localPath)
	if same(localPath, dst) {
		return dst, nil
	}
	if err := CopyFile(localPath, dst); err != nil {
		return "", fmt.Errorf("failed to store %s: %w", localPath, err)
	}
	return dst, nil
}

// S3Store keeps price lists under the client prefix of a bucket
type S3Store struct {
	client *S3Client
}

// NewS3Store wraps client.
func NewS3Store(client *S3Client) *S3Store {
	return &S3Store{client: client}
}

// List returns the object names directly under the prefix.
func (s *S3Store) List(ctx context.Context) ([]string, error) {
	keys, err := s.client.ListFiles(ctx, "")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, k := range keys {
		if path.Dir(k) == "." {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Download fetches name to dst.
func (s *S3Store) Download(ctx context.Context, name, dst string) error {
	return s.client.DownloadFile(ctx, path.Base(name), dst)
}

// Upload puts localPath under its base name. Bucket versioning keeps history.
func (s *S3Store) Upload(ctx context.Context, localPath string) (string, error) {
	key := filepath.Base(localPath)
	if err := s.client.UploadFile(ctx, localPath, key); err != nil {
		return "", err
	}
	return s.client.URI(key), nil
}

func same(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
