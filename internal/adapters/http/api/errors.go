package api

import (
	"errors"
	"net/http"

	"github.com/woocombine/combine/internal/adapters/importer"
	"github.com/woocombine/combine/internal/adapters/repository"
	"github.com/woocombine/combine/internal/app"
	"github.com/woocombine/combine/internal/domain/drill"
	"github.com/woocombine/combine/internal/domain/normalize"
	"github.com/woocombine/combine/internal/domain/scoring"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// errorStatus maps a service error to an HTTP status and a stable error
// code clients can branch on.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, drill.ErrUnknownDrillKind):
		return http.StatusBadRequest, "unknown_drill"
	case errors.Is(err, scoring.ErrZeroWeightProfile):
		return http.StatusBadRequest, "zero_weight_profile"
	case errors.Is(err, scoring.ErrInvalidProfile):
		return http.StatusBadRequest, "invalid_profile"
	case errors.Is(err, importer.ErrTooManyRows):
		return http.StatusBadRequest, "too_many_rows"
	case errors.Is(err, normalize.ErrCohortBoundsStale):
		return http.StatusInternalServerError, "stale_cohort_bounds"
	case errors.Is(err, app.ErrInvalidInput):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeServiceError translates err through errorStatus and writes it.
func writeServiceError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	writeError(w, status, code, err)
}
