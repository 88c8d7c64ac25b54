// Package storage keeps batch run artifacts (the enriched result set and the
// run summary) in blob storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/inkguard/inkguard/pkg/config"
)

// ErrNotFound is returned when an artifact does not exist.
var ErrNotFound = errors.New("artifact not found")

// StorageClient abstracts blob storage for run artifacts.
type StorageClient interface {
	PutArtifact(ctx context.Context, runID, name string, data []byte) error
	GetArtifact(ctx context.Context, runID, name string) ([]byte, error)
}

// New selects a backend from configuration.
func New(ctx context.Context, cfg config.StorageConfig) (StorageClient, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStorage(cfg.LocalDir), nil
	case "s3":
		return NewS3Storage(ctx, S3Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			Prefix:    cfg.Prefix,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		})
	case "gcs":
		return NewGCSStorage(ctx, cfg.Bucket, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// objectKey is the backend-neutral key for an artifact.
func objectKey(prefix, runID, name string) string {
	key := path.Join("runs", runID, name)
	if p := strings.Trim(prefix, "/"); p != "" {
		key = p + "/" + key
	}
	return key
}

func checkName(runID, name string) error {
	for _, s := range []string{runID, name} {
		if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
			return fmt.Errorf("invalid artifact reference %q/%q", runID, name)
		}
	}
	return nil
}

// LocalStorage implements StorageClient using the local filesystem.
type LocalStorage struct {
	BaseDir string
}

// NewLocalStorage creates a LocalStorage rooted at the given directory.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{BaseDir: baseDir}
}

func (s *LocalStorage) path(runID, name string) string {
	return filepath.Join(s.BaseDir, "runs", runID, name)
}

// PutArtifact writes an artifact, creating the run directory.
func (s *LocalStorage) PutArtifact(_ context.Context, runID, name string, data []byte) error {
	if err := checkName(runID, name); err != nil {
		return err
	}
	p := s.path(runID, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(p, data, 0o644)
}

// GetArtifact reads an artifact.
func (s *LocalStorage) GetArtifact(_ context.Context, runID, name string) ([]byte, error) {
	if err := checkName(runID, name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(runID, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s/%s: %w", runID, name, ErrNotFound)
	}
	return data, err
}
