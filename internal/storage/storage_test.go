package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/inkguard/inkguard/pkg/config"
)

func TestLocalStoragePutGetArtifact(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir)
	ctx := context.Background()

	data := []byte(`{"total_listings":3}`)
	if err := s.PutArtifact(ctx, "run1", "summary.json", data); err != nil {
		t.Fatalf("PutArtifact: %v", err)
	}

	got, err := s.GetArtifact(ctx, "run1", "summary.json")
	if err != nil {
		t.Fatalf("GetArtifact: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("GetArtifact = %q, want %q", got, data)
	}

	expectedPath := filepath.Join(dir, "runs", "run1", "summary.json")
	if _, err := os.Stat(expectedPath); err != nil {
		t.Errorf("expected file at %s: %v", expectedPath, err)
	}
}

func TestLocalStorageGetNotFound(t *testing.T) {
	s := NewLocalStorage(t.TempDir())

	_, err := s.GetArtifact(context.Background(), "run1", "nonexistent.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	s := NewLocalStorage(t.TempDir())
	ctx := context.Background()

	for _, ref := range [][2]string{{"..", "x.json"}, {"run1", "../x.json"}, {"", "x.json"}, {"run1", ""}} {
		if err := s.PutArtifact(ctx, ref[0], ref[1], []byte("{}")); err == nil {
			t.Errorf("expected error for %q/%q", ref[0], ref[1])
		}
	}
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		prefix, want string
	}{
		{"", "runs/r1/enriched.json"},
		{"inkguard", "inkguard/runs/r1/enriched.json"},
		{"/inkguard/prod/", "inkguard/prod/runs/r1/enriched.json"},
	}
	for _, tt := range tests {
		if got := objectKey(tt.prefix, "r1", "enriched.json"); got != tt.want {
			t.Errorf("objectKey(%q) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestNewSelectsBackend(t *testing.T) {
	dir := t.TempDir()
	c, err := New(context.Background(), config.StorageConfig{Backend: "local", LocalDir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	local, ok := c.(*LocalStorage)
	if !ok || local.BaseDir != dir {
		t.Errorf("expected LocalStorage at %s, got %#v", dir, c)
	}

	if _, err := New(context.Background(), config.StorageConfig{Backend: "ftp"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
