package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/inkguard/inkguard/internal/pipeline"
	"github.com/inkguard/inkguard/internal/store"
)

type createRunResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// handleCreateRun queues a batch run and starts it in the background.
func (h *Handler) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil || h.trigger == nil {
		writeError(w, http.StatusNotImplemented, "batch runs are not enabled")
		return
	}

	runID := h.newID()
	if err := h.runs.QueueRun(r.Context(), runID); err != nil {
		h.log.WithError(err).Error("queue run failed")
		writeError(w, http.StatusInternalServerError, "failed to queue run")
		return
	}
	h.trigger(runID)

	h.log.WithField("run_id", runID).Info("run queued")
	writeJSON(w, http.StatusAccepted, createRunResponse{RunID: runID, Status: pipeline.StatusQueued})
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeError(w, http.StatusNotImplemented, "batch runs are not enabled")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxQueryLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxQueryLimit))
			return
		}
		limit = n
	}

	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		h.log.WithError(err).Error("list runs failed")
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeError(w, http.StatusNotImplemented, "batch runs are not enabled")
		return
	}
	run, err := h.runs.GetRun(r.Context(), r.PathValue("runID"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		h.log.WithError(err).Error("get run failed")
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}
