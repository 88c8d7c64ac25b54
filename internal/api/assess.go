package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/inkguard/inkguard/pkg/listing"
	"github.com/inkguard/inkguard/pkg/scoring"
)

const maxAssessBody = 1 << 20

type assessRequest struct {
	Listing       *listing.Listing         `json:"listing"`
	Decomposition *listing.Decomposition   `json:"decomposition,omitempty"`
	Judgments     []listing.ReviewJudgment `json:"judgments,omitempty"`
}

type validationResponse struct {
	Error   string                   `json:"error"`
	Details listing.ValidationErrors `json:"details"`
}

// handleAssess scores a listing supplied in full by the caller. It runs only
// the pure scoring core; no language model is called.
func (h *Handler) handleAssess(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAssessBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Listing == nil {
		writeError(w, http.StatusBadRequest, "listing is required")
		return
	}

	result, err := h.engine.Assess(scoring.Input{
		Listing:       *req.Listing,
		Decomposition: req.Decomposition,
		Judgments:     req.Judgments,
	})
	var verrs listing.ValidationErrors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusBadRequest, validationResponse{Error: "invalid input", Details: verrs})
		return
	}
	if err != nil {
		h.log.WithError(err).WithField("listing_id", req.Listing.ID).Error("assessment failed")
		writeError(w, http.StatusInternalServerError, "assessment failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type referencePricesResponse struct {
	Rows       []scoring.ReferenceRow `json:"rows"`
	PageYields []scoring.PageYield    `json:"page_yields"`
}

func (h *Handler) handleReferencePrices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, referencePricesResponse{
		Rows:       h.engine.Table().Rows(),
		PageYields: scoring.PageYields(),
	})
}
