// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/woocombine/combine/internal/domain/drill"
	"github.com/woocombine/combine/internal/domain/scoring"
)

// RankingsHandler handles leaderboard reads and what-if previews.
type RankingsHandler struct {
	deps     Dependencies
	registry *drill.Registry
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps Dependencies, registry *drill.Registry) *RankingsHandler {
	return &RankingsHandler{deps: deps, registry: registry}
}

// whatIfRequest mirrors the JSON schema for POST /rankings/what-if.
type whatIfRequest struct {
	AgeGroup string             `json:"age_group"`
	Weights  map[string]float64 `json:"weights"`
}

// HandleGetRankings handles GET /rankings?age_group=X requests. The
// detailed=true query flag adds player fields and per-drill scores to each
// row.
func (h *RankingsHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	ageGroup := r.URL.Query().Get("age_group")
	if ageGroup == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing age_group"))
		return
	}

	if r.URL.Query().Get("detailed") == "true" {
		details, err := h.deps.RankingDetails(r.Context(), ageGroup)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, details)
		return
	}

	ranked, err := h.deps.Rankings(r.Context(), ageGroup)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ranked)
}

// HandleWhatIfRankings handles POST /rankings/what-if requests. The preview
// is computed against a read-only snapshot; official scores and rankings
// are unaffected.
func (h *RankingsHandler) HandleWhatIfRankings(w http.ResponseWriter, r *http.Request) {
	var req whatIfRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if req.AgeGroup == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing age_group"))
		return
	}
	if len(req.Weights) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing weights"))
		return
	}

	ranked, err := h.deps.WhatIfRankings(r.Context(), req.AgeGroup, scoring.Profile(req.Weights))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ranked)
}
