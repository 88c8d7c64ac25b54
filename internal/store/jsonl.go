package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/inkguard/inkguard/internal/pipeline"
)

// JSONL is an append-only checkpoint with one enriched record per line. A
// listing saved twice keeps its first position and its latest content.
// Lines that do not decode, such as a write cut short by a crash, are
// skipped.
type JSONL struct {
	path string
	mu   sync.Mutex
}

// OpenJSONL prepares a JSON-lines store at path. The file is created on the
// first Save.
func OpenJSONL(path string) (*JSONL, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint directory: %w", err)
	}
	return &JSONL{path: path}, nil
}

// Close is a no-op; every Save closes the file.
func (s *JSONL) Close() error { return nil }

// Save appends e as one line.
func (s *JSONL) Save(_ context.Context, e *pipeline.Enriched) error {
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", e.ListingID, err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open checkpoint: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", e.ListingID, err)
	}
	return f.Close()
}

// Processed returns the listing IDs already stored.
func (s *JSONL) Processed(ctx context.Context) (map[string]bool, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(all))
	for _, e := range all {
		out[e.ListingID] = true
	}
	return out, nil
}

// List returns every record. A missing file is an empty store.
func (s *JSONL) List(_ context.Context) ([]*pipeline.Enriched, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []*pipeline.Enriched{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	defer f.Close()

	out := []*pipeline.Enriched{}
	pos := make(map[string]int)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var e pipeline.Enriched
		if err := json.Unmarshal(line, &e); err != nil || e.ListingID == "" {
			continue
		}
		if i, ok := pos[e.ListingID]; ok {
			out[i] = &e
			continue
		}
		pos[e.ListingID] = len(out)
		out = append(out, &e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	return out, nil
}

// Get returns the record for a listing.
func (s *JSONL) Get(ctx context.Context, listingID string) (*pipeline.Enriched, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range all {
		if e.ListingID == listingID {
			return e, nil
		}
	}
	return nil, fmt.Errorf("get %s: %w", listingID, ErrNotFound)
}

// Query returns records matching f, lowest trust weight first.
func (s *JSONL) Query(ctx context.Context, f Filter) ([]*pipeline.Enriched, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []*pipeline.Enriched{}
	for _, e := range all {
		if f.match(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		wi, wj := indexOf(out[i]).weight, indexOf(out[j]).weight
		if wi != wj {
			return wi < wj
		}
		return out[i].ListingID < out[j].ListingID
	})
	if len(out) > f.limit() {
		out = out[:f.limit()]
	}
	return out, nil
}
