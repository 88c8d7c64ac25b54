// Package api implements the inkguard REST API: on-demand assessment, stored
// results, the reference price table and batch run control.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/inkguard/inkguard/internal/pipeline"
	"github.com/inkguard/inkguard/internal/store"
	"github.com/inkguard/inkguard/pkg/logging"
	"github.com/inkguard/inkguard/pkg/scoring"
	log "github.com/sirupsen/logrus"
)

// Records reads stored enriched listings.
type Records interface {
	Get(ctx context.Context, listingID string) (*pipeline.Enriched, error)
	Query(ctx context.Context, f store.Filter) ([]*pipeline.Enriched, error)
}

// Runs records batch run lifecycle.
type Runs interface {
	QueueRun(ctx context.Context, runID string) error
	GetRun(ctx context.Context, runID string) (*store.Run, error)
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
}

// RunTrigger starts a queued batch run in the background.
type RunTrigger func(runID string)

// Handler is the top-level API handler for the inkguard service.
type Handler struct {
	engine  *scoring.Engine
	records Records
	runs    Runs
	trigger RunTrigger
	cache   *AssessmentCache
	log     log.FieldLogger
	newID   func() string
}

// NewHandler creates a new API handler. runs and trigger may be nil, which
// disables the run endpoints.
func NewHandler(engine *scoring.Engine, records Records, runs Runs, trigger RunTrigger, cache *AssessmentCache, logger log.FieldLogger) *Handler {
	if cache == nil {
		cache = NewAssessmentCache(0)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{
		engine:  engine,
		records: records,
		runs:    runs,
		trigger: trigger,
		cache:   cache,
		log:     logger,
		newID:   uuid.NewString,
	}
}

// Cache exposes the listing cache so batch runs can invalidate it.
func (h *Handler) Cache() *AssessmentCache {
	return h.cache
}

// RegisterRoutes registers all API routes on the given ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.handleHealth)

	mux.HandleFunc("POST /api/v1/assess", h.handleAssess)
	mux.HandleFunc("POST /api/v1/runs", h.handleCreateRun)

	mux.HandleFunc("GET /api/v1/listings", h.handleQueryListings)
	mux.HandleFunc("GET /api/v1/listings/{listingID}", h.handleGetListing)
	mux.HandleFunc("GET /api/v1/reference-prices", h.handleReferencePrices)
	mux.HandleFunc("GET /api/v1/runs", h.handleListRuns)
	mux.HandleFunc("GET /api/v1/runs/{runID}", h.handleGetRun)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
