// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ResultsHandler handles drill result mutations.
type ResultsHandler struct {
	deps Dependencies
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps Dependencies) *ResultsHandler {
	return &ResultsHandler{deps: deps}
}

// resultRequest mirrors the JSON schema for POST /drill-results.
type resultRequest struct {
	PlayerID int64   `json:"player_id"`
	DrillKey string  `json:"drill_key"`
	RawScore float64 `json:"raw_score"`
}

func (e resultRequest) validate() error {
	switch {
	case e.PlayerID < 1:
		return errors.New("missing player_id")
	case strings.TrimSpace(e.DrillKey) == "":
		return errors.New("missing drill_key")
	}
	return nil
}

// correctionRequest mirrors the JSON schema for PUT /drill-results/{id}.
type correctionRequest struct {
	RawScore float64 `json:"raw_score"`
}

// HandleSubmitResult handles POST /drill-results requests. The response
// carries the stored result with its normalized score already refreshed.
func (h *ResultsHandler) HandleSubmitResult(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	result, err := h.deps.SubmitDrillResult(r.Context(), req.PlayerID, req.DrillKey, req.RawScore)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// HandleCorrectResult handles PUT /drill-results/{id} requests.
func (h *ResultsHandler) HandleCorrectResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing result id"))
		return
	}
	var req correctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	result, err := h.deps.CorrectDrillResult(r.Context(), id, req.RawScore)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleDeleteResult handles DELETE /drill-results/{id} requests.
func (h *ResultsHandler) HandleDeleteResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing result id"))
		return
	}
	if err := h.deps.DeleteDrillResult(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
