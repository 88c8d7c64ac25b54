package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/inkguard/inkguard/internal/store"
	"github.com/inkguard/inkguard/pkg/scoring"
)

// maxQueryLimit bounds the limit query parameter.
const maxQueryLimit = 1000

func (h *Handler) handleGetListing(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("listingID")

	if e := h.cache.Get(id); e != nil {
		writeJSON(w, http.StatusOK, e)
		return
	}

	e, err := h.records.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "listing not found")
		return
	}
	if err != nil {
		h.log.WithError(err).WithField("listing_id", id).Error("get listing failed")
		writeError(w, http.StatusInternalServerError, "failed to load listing")
		return
	}

	h.cache.Put(id, e)
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) handleQueryListings(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.records.Query(r.Context(), f)
	if err != nil {
		h.log.WithError(err).Error("query listings failed")
		writeError(w, http.StatusInternalServerError, "failed to query listings")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func parseFilter(r *http.Request) (store.Filter, error) {
	q := r.URL.Query()
	var f store.Filter

	if v := q.Get("interpretation"); v != "" {
		f.Interpretation = scoring.Interpretation(v)
		if f.Interpretation.Rank() < 0 {
			return f, errors.New("unknown interpretation " + strconv.Quote(v))
		}
	}
	if v := q.Get("verdict"); v != "" {
		switch scoring.Verdict(v) {
		case scoring.VerdictHighRisk, scoring.VerdictElevated, scoring.VerdictLowRisk, scoring.VerdictInconclusive:
			f.Verdict = scoring.Verdict(v)
		default:
			return f, errors.New("unknown verdict " + strconv.Quote(v))
		}
	}
	if v := q.Get("suspicious_price"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, errors.New("suspicious_price must be a boolean")
		}
		f.SuspiciousPrice = &b
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxQueryLimit {
			return f, errors.New("limit must be between 1 and " + strconv.Itoa(maxQueryLimit))
		}
		f.Limit = n
	}
	return f, nil
}
