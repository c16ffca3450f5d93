// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/woocombine/combine/internal/adapters/export"
	"github.com/woocombine/combine/internal/domain/drill"
)

// ExportHandler streams leaderboard exports.
type ExportHandler struct {
	deps     Dependencies
	registry *drill.Registry
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps Dependencies, registry *drill.Registry) *ExportHandler {
	return &ExportHandler{deps: deps, registry: registry}
}

// HandleExportRankings handles GET /rankings/export?age_group=X&format=csv
// requests. CSV is the only supported format.
func (h *ExportHandler) HandleExportRankings(w http.ResponseWriter, r *http.Request) {
	ageGroup := r.URL.Query().Get("age_group")
	if ageGroup == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing age_group"))
		return
	}
	if format := r.URL.Query().Get("format"); format != "" && format != "csv" {
		writeError(w, http.StatusBadRequest, "unsupported_format", fmt.Errorf("unsupported export format %q", format))
		return
	}

	details, err := h.deps.RankingDetails(r.Context(), ageGroup)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	filename := fmt.Sprintf("combine_rankings_%s_%s.csv", ageGroup, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := export.WriteCSV(w, details, h.registry); err != nil {
		// Headers are already out; nothing more can be reported to the client.
		return
	}
}
