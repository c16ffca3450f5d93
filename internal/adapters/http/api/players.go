// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// PlayersHandler handles player lifecycle requests.
type PlayersHandler struct {
	deps Dependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps Dependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

// playerRequest mirrors the JSON schema for POST /players.
type playerRequest struct {
	Name         string `json:"name"`
	AgeGroup     string `json:"age_group"`
	JerseyNumber int64  `json:"jersey_number"`
}

func (p playerRequest) validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return errors.New("missing name")
	case strings.TrimSpace(p.AgeGroup) == "":
		return errors.New("missing age_group")
	case p.JerseyNumber < 0:
		return errors.New("jersey_number must not be negative")
	}
	return nil
}

// transferRequest mirrors the JSON schema for POST /players/{id}/transfer.
type transferRequest struct {
	AgeGroup string `json:"age_group"`
}

// HandleCreatePlayer handles POST /players requests.
func (h *PlayersHandler) HandleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	player, err := h.deps.CreatePlayer(r.Context(), req.Name, req.AgeGroup, req.JerseyNumber)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, player)
}

// HandleListPlayers handles GET /players?age_group=X requests. Without the
// query parameter all players are listed.
func (h *PlayersHandler) HandleListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.deps.Players(r.Context(), r.URL.Query().Get("age_group"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

// HandlePlayerSummary handles GET /players/{id}/summary requests.
func (h *PlayersHandler) HandlePlayerSummary(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	player, err := h.deps.PlayerSummary(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

// HandlePlayerResults handles GET /players/{id}/results requests.
func (h *PlayersHandler) HandlePlayerResults(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	results, err := h.deps.PlayerResults(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// HandleTransferPlayer handles POST /players/{id}/transfer requests. Moving
// a player between age groups re-normalizes both the cohorts they left and
// the cohorts they joined.
func (h *PlayersHandler) HandleTransferPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.AgeGroup) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing age_group"))
		return
	}
	player, err := h.deps.TransferPlayerAgeGroup(r.Context(), id, req.AgeGroup)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

// HandleResetPlayers handles DELETE /players/reset requests. Every player
// and every stored result is removed.
func (h *PlayersHandler) HandleResetPlayers(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.deps.ResetPlayers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "reset", "deleted_players": deleted})
}

// playerID extracts the {id} route parameter as an int64.
func playerID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid player id", ErrBadRequest)
	}
	return id, nil
}
