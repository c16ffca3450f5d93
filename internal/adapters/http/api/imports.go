// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/woocombine/combine/internal/adapters/importer"
	"github.com/woocombine/combine/internal/domain/drill"
	"github.com/woocombine/combine/internal/domain/types"
)

const defaultMaxImportRows = 10_000

// ImportHandler ingests CSV drill result uploads.
type ImportHandler struct {
	deps     Dependencies
	registry *drill.Registry
	maxRows  int
}

// NewImportHandler creates a new import handler.
func NewImportHandler(deps Dependencies, registry *drill.Registry) *ImportHandler {
	return &ImportHandler{deps: deps, registry: registry, maxRows: defaultMaxImportRows}
}

// importResponse is the summary returned for POST /import. Malformed rows
// never abort the upload; they are reported here alongside the counts.
type importResponse struct {
	types.ImportSummary
	MalformedRows []string `json:"malformed_rows,omitempty"`
}

// HandleImportResults handles POST /import requests carrying a CSV body
// with player_number, drill_key and raw_score columns.
func (h *ImportHandler) HandleImportResults(w http.ResponseWriter, r *http.Request) {
	rows, rowErrs, err := importer.ParseCSV(r.Body, h.registry, h.maxRows)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	summary, err := h.deps.ImportResults(r.Context(), rows)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := importResponse{ImportSummary: summary}
	for _, re := range rowErrs {
		resp.MalformedRows = append(resp.MalformedRows, re.Error())
		resp.Skipped++
	}
	writeJSON(w, http.StatusOK, resp)
}
