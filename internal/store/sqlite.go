package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/inkguard/inkguard/internal/pipeline"
	_ "modernc.org/sqlite"
)

// SQLite is the default local checkpoint store.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path. ":memory:" gives a
// private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create checkpoint directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if path != ":memory:" {
		if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS enriched (
		listing_id       TEXT PRIMARY KEY,
		run_id           TEXT NOT NULL DEFAULT '',
		interpretation   TEXT NOT NULL,
		verdict          TEXT NOT NULL,
		weight           REAL NOT NULL,
		suspicious_price INTEGER NOT NULL,
		payload          TEXT NOT NULL,
		processed_at     INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Processed returns the listing IDs already stored.
func (s *SQLite) Processed(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT listing_id FROM enriched`)
	if err != nil {
		return nil, fmt.Errorf("list processed: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan listing id: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

// Save inserts or replaces the record for e.ListingID.
func (s *SQLite) Save(ctx context.Context, e *pipeline.Enriched) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", e.ListingID, err)
	}
	idx := indexOf(e)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO enriched (listing_id, run_id, interpretation, verdict, weight, suspicious_price, payload, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (listing_id) DO UPDATE SET
		   run_id = excluded.run_id,
		   interpretation = excluded.interpretation,
		   verdict = excluded.verdict,
		   weight = excluded.weight,
		   suspicious_price = excluded.suspicious_price,
		   payload = excluded.payload,
		   processed_at = excluded.processed_at`,
		e.ListingID, e.RunID, idx.interpretation, idx.verdict, idx.weight, idx.suspiciousPrice,
		string(payload), e.ProcessedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", e.ListingID, err)
	}
	return nil
}

// List returns every record in first-saved order.
func (s *SQLite) List(ctx context.Context) ([]*pipeline.Enriched, error) {
	return s.query(ctx, `SELECT payload FROM enriched ORDER BY rowid`)
}

// Get returns the record for a listing.
func (s *SQLite) Get(ctx context.Context, listingID string) (*pipeline.Enriched, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM enriched WHERE listing_id = ?`, listingID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s: %w", listingID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", listingID, err)
	}
	return decode(payload)
}

// Query returns records matching f, lowest trust weight first.
func (s *SQLite) Query(ctx context.Context, f Filter) ([]*pipeline.Enriched, error) {
	var where []string
	var args []any
	if f.Interpretation != "" {
		where = append(where, "interpretation = ?")
		args = append(args, string(f.Interpretation))
	}
	if f.Verdict != "" {
		where = append(where, "verdict = ?")
		args = append(args, string(f.Verdict))
	}
	if f.SuspiciousPrice != nil {
		where = append(where, "suspicious_price = ?")
		args = append(args, *f.SuspiciousPrice)
	}

	q := `SELECT payload FROM enriched`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY weight ASC, listing_id LIMIT ?`
	args = append(args, f.limit())
	return s.query(ctx, q, args...)
}

func (s *SQLite) query(ctx context.Context, q string, args ...any) ([]*pipeline.Enriched, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query enriched: %w", err)
	}
	defer rows.Close()

	out := []*pipeline.Enriched{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan enriched: %w", err)
		}
		e, err := decode(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func decode(payload string) (*pipeline.Enriched, error) {
	var e pipeline.Enriched
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return nil, fmt.Errorf("decode enriched: %w", err)
	}
	return &e, nil
}
