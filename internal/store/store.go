// Package store persists enriched listings: a local SQLite or JSON-lines
// checkpoint for batch runs, and Postgres for the daemon.
package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/inkguard/inkguard/internal/pipeline"
	"github.com/inkguard/inkguard/pkg/scoring"
)

// ErrNotFound is returned when a listing has no stored record.
var ErrNotFound = errors.New("not found")

// DefaultQueryLimit caps Query results when the filter sets no limit.
const DefaultQueryLimit = 100

// Store is a pipeline sink that can also be read back.
type Store interface {
	pipeline.Sink
	Get(ctx context.Context, listingID string) (*pipeline.Enriched, error)
	Query(ctx context.Context, f Filter) ([]*pipeline.Enriched, error)
	Close() error
}

// Filter selects stored records. Zero fields match everything.
type Filter struct {
	Interpretation  scoring.Interpretation
	Verdict         scoring.Verdict
	SuspiciousPrice *bool
	Limit           int
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultQueryLimit
	}
	return f.Limit
}

func (f Filter) match(e *pipeline.Enriched) bool {
	idx := indexOf(e)
	if f.Interpretation != "" && idx.interpretation != string(f.Interpretation) {
		return false
	}
	if f.Verdict != "" && idx.verdict != string(f.Verdict) {
		return false
	}
	if f.SuspiciousPrice != nil && idx.suspiciousPrice != *f.SuspiciousPrice {
		return false
	}
	return true
}

// index holds the columns stored alongside the JSON payload.
type index struct {
	interpretation  string
	verdict         string
	weight          float64
	suspiciousPrice bool
}

func indexOf(e *pipeline.Enriched) index {
	if e.Assessment == nil {
		return index{}
	}
	a := e.Assessment
	return index{
		interpretation:  string(a.Trust.Interpretation),
		verdict:         string(a.Verdict),
		weight:          a.Trust.Weight,
		suspiciousPrice: a.SuspiciousByPrice(),
	}
}

// Open opens a local checkpoint store: JSON lines for a .jsonl path, SQLite
// otherwise.
func Open(path string) (Store, error) {
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return OpenJSONL(path)
	}
	return OpenSQLite(path)
}
