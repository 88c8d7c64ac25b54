// Package replay serves previously recorded collaborator outputs so recorded
// runs can be re-scored offline without calling a language model.
package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/inkguard/inkguard/pkg/extract"
	"github.com/inkguard/inkguard/pkg/listing"
)

// ErrNotRecorded is returned when no recording matches a request.
var ErrNotRecorded = errors.New("not recorded")

// Entry is everything recorded for one listing.
type Entry struct {
	ListingID     string                   `json:"listing_id"`
	Title         string                   `json:"title"`
	Decomposition *listing.Decomposition   `json:"decomposition,omitempty"`
	Judgments     []listing.ReviewJudgment `json:"judgments"`
}

// Store is a directory of <listing-id>.json entries. It implements both
// collaborator interfaces: structure is looked up by title, judgments by
// listing ID and review number.
type Store struct {
	dir string

	mu      sync.RWMutex
	byID    map[string]*Entry
	byTitle map[string]*Entry
}

var (
	_ extract.StructureExtractor = (*Store)(nil)
	_ extract.ReviewClassifier   = (*Store)(nil)
)

// Open loads every entry in dir. A missing directory yields an empty store.
func Open(dir string) (*Store, error) {
	s := &Store{
		dir:     dir,
		byID:    make(map[string]*Entry),
		byTitle: make(map[string]*Entry),
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("reading replay dir: %w", err)
	}

	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.Name(), err)
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f.Name(), err)
		}
		if e.ListingID == "" {
			e.ListingID = strings.TrimSuffix(f.Name(), ".json")
		}
		s.index(&e)
	}
	return s, nil
}

func (s *Store) index(e *Entry) {
	s.byID[e.ListingID] = e
	if e.Title != "" {
		s.byTitle[e.Title] = e
	}
}

// Len returns the number of recorded listings.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Get returns the entry for a listing.
func (s *Store) Get(listingID string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[listingID]
	return e, ok
}

// ExtractStructure returns the recorded decomposition for a title.
func (s *Store) ExtractStructure(_ context.Context, title, _ string) (*listing.Decomposition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byTitle[title]
	if !ok || e.Decomposition == nil {
		return nil, fmt.Errorf("structure for %q: %w", title, ErrNotRecorded)
	}
	d := *e.Decomposition
	return &d, nil
}

// ClassifyReview returns the recorded judgment for a review.
func (s *Store) ClassifyReview(_ context.Context, review listing.Review, rc extract.ReviewContext) (*listing.ReviewJudgment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.byID[rc.ListingID]; ok {
		for _, j := range e.Judgments {
			if j.ReviewNumber == review.Number {
				jc := j
				return &jc, nil
			}
		}
	}
	return nil, fmt.Errorf("review %d of listing %s: %w", review.Number, rc.ListingID, ErrNotRecorded)
}

// Record writes an entry to disk and makes it available for lookups.
func (s *Store) Record(e Entry) error {
	if e.ListingID == "" {
		return fmt.Errorf("recording entry: listing id is required")
	}
	if strings.ContainsAny(e.ListingID, `/\`) {
		return fmt.Errorf("recording entry: invalid listing id %q", e.ListingID)
	}
	if e.Judgments == nil {
		e.Judgments = []listing.ReviewJudgment{}
	}

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating replay dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, e.ListingID+".json"), data, 0o644); err != nil {
		return fmt.Errorf("writing entry: %w", err)
	}
	s.index(&e)
	return nil
}
