package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inkguard/inkguard/internal/pipeline"
	_ "github.com/lib/pq"
)

// Postgres stores runs and assessments for the daemon. The schema is owned
// by the platform migrations.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// OpenPostgres connects to the database at url.
func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{db: db}, nil
}

// DB exposes the handle for migrations.
func (p *Postgres) DB() *sql.DB {
	return p.db
}

// Close closes the database.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Run is a batch run record.
type Run struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	Total        int       `json:"total"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateRun records a new run as RUNNING. Creating an existing run resets
// its status.
func (p *Postgres) CreateRun(ctx context.Context, runID string, total int) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, total)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, total = EXCLUDED.total, updated_at = now()`,
		runID, pipeline.StatusRunning, total,
	)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// QueueRun records a run that has been requested but not started.
func (p *Postgres) QueueRun(ctx context.Context, runID string) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO runs (id, status) VALUES ($1, $2)`,
		runID, pipeline.StatusQueued,
	)
	if err != nil {
		return fmt.Errorf("queue run: %w", err)
	}
	return nil
}

// UpdateRunStatus updates the status and optional error message.
func (p *Postgres) UpdateRunStatus(ctx context.Context, runID, status string, errMsg *string) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE runs SET status = $1, error_message = $2, updated_at = now() WHERE id = $3`,
		status, errMsg, runID,
	)
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// GetRun returns a run by ID.
func (p *Postgres) GetRun(ctx context.Context, runID string) (*Run, error) {
	r := &Run{}
	err := p.db.QueryRowContext(ctx,
		`SELECT id, status, total, error_message, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.Status, &r.Total, &r.ErrorMessage, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return r, nil
}

// ListRuns returns the most recent runs, newest first.
func (p *Postgres) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, status, total, error_message, created_at, updated_at
		 FROM runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Status, &r.Total, &r.ErrorMessage, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Processed returns the listing IDs already stored.
func (p *Postgres) Processed(ctx context.Context) (map[string]bool, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT listing_id FROM assessments`)
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

// Save upserts the record for e.ListingID.
func (p *Postgres) Save(ctx context.Context, e *pipeline.Enriched) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", e.ListingID, err)
	}
	idx := indexOf(e)
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO assessments (listing_id, run_id, title, interpretation, verdict, weight, suspicious_price, payload, processed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (listing_id) DO UPDATE SET
		   run_id = EXCLUDED.run_id,
		   title = EXCLUDED.title,
		   interpretation = EXCLUDED.interpretation,
		   verdict = EXCLUDED.verdict,
		   weight = EXCLUDED.weight,
		   suspicious_price = EXCLUDED.suspicious_price,
		   payload = EXCLUDED.payload,
		   processed_at = EXCLUDED.processed_at,
		   updated_at = now()`,
		e.ListingID, nilIfEmpty(e.RunID), e.Title, idx.interpretation, idx.verdict, idx.weight,
		idx.suspiciousPrice, string(payload), e.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", e.ListingID, err)
	}
	return nil
}

// List returns every record in first-saved order.
func (p *Postgres) List(ctx context.Context) ([]*pipeline.Enriched, error) {
	return p.query(ctx, `SELECT payload FROM assessments ORDER BY created_at, listing_id`)
}

// Get returns the record for a listing.
func (p *Postgres) Get(ctx context.Context, listingID string) (*pipeline.Enriched, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT payload FROM assessments WHERE listing_id = $1`, listingID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s: %w", listingID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", listingID, err)
	}
	return decode(string(payload))
}

// Query returns records matching f, lowest trust weight first.
func (p *Postgres) Query(ctx context.Context, f Filter) ([]*pipeline.Enriched, error) {
	q, args := buildQuery(f)
	return p.query(ctx, q, args...)
}

func buildQuery(f Filter) (string, []any) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Interpretation != "" {
		add("interpretation = $%d", string(f.Interpretation))
	}
	if f.Verdict != "" {
		add("verdict = $%d", string(f.Verdict))
	}
	if f.SuspiciousPrice != nil {
		add("suspicious_price = $%d", *f.SuspiciousPrice)
	}

	q := `SELECT payload FROM assessments`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.limit())
	q += fmt.Sprintf(` ORDER BY weight ASC, listing_id LIMIT $%d`, len(args))
	return q, args
}

func (p *Postgres) query(ctx context.Context, q string, args ...any) ([]*pipeline.Enriched, error) {
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}
	defer rows.Close()

	out := []*pipeline.Enriched{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		e, err := decode(string(payload))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
