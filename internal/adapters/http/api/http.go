// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/woocombine/combine/internal/adapters/importer"
	"github.com/woocombine/combine/internal/domain/drill"
	"github.com/woocombine/combine/internal/domain/model"
	"github.com/woocombine/combine/internal/domain/scoring"
	"github.com/woocombine/combine/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Player lifecycle.
	CreatePlayer(ctx context.Context, name, ageGroup string, jerseyNumber int64) (model.Player, error)
	Players(ctx context.Context, ageGroup string) ([]model.Player, error)
	PlayerSummary(ctx context.Context, playerID int64) (model.Player, error)
	PlayerResults(ctx context.Context, playerID int64) ([]model.DrillResult, error)
	TransferPlayerAgeGroup(ctx context.Context, playerID int64, ageGroup string) (model.Player, error)
	ResetPlayers(ctx context.Context) (int64, error)

	// Drill result lifecycle. Every mutation triggers cohort recomputation.
	SubmitDrillResult(ctx context.Context, playerID int64, drillKey string, rawScore float64) (model.DrillResult, error)
	CorrectDrillResult(ctx context.Context, resultID string, rawScore float64) (model.DrillResult, error)
	DeleteDrillResult(ctx context.Context, resultID string) error

	// Read operations expose ranking data.
	Rankings(ctx context.Context, ageGroup string) ([]types.RankedEntry, error)
	WhatIfRankings(ctx context.Context, ageGroup string, profile scoring.Profile) ([]types.RankedEntry, error)
	RankingDetails(ctx context.Context, ageGroup string) ([]types.RankingDetail, error)

	// Bulk ingestion.
	ImportResults(ctx context.Context, rows []importer.Row) (types.ImportSummary, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	playersHandler  *PlayersHandler
	resultsHandler  *ResultsHandler
	rankingsHandler *RankingsHandler
	exportHandler   *ExportHandler
	importHandler   *ImportHandler
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler

	allowedOrigins []string
}

// Option customizes server construction.
type Option func(*Server)

// WithAllowedOrigins sets the CORS allow list. Defaults to "*".
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// WithMaxImportRows caps the number of data rows a single CSV import may
// carry.
func WithMaxImportRows(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.importHandler.maxRows = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, registry *drill.Registry, opts ...Option) *Server {
	s := &Server{
		playersHandler:  NewPlayersHandler(deps),
		resultsHandler:  NewResultsHandler(deps),
		rankingsHandler: NewRankingsHandler(deps, registry),
		exportHandler:   NewExportHandler(deps, registry),
		importHandler:   NewImportHandler(deps, registry),
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		allowedOrigins:  []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with all routes attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/players", func(pr chi.Router) {
		pr.Post("/", MetricsMiddleware(s.playersHandler.HandleCreatePlayer, "players_create"))
		pr.Get("/", MetricsMiddleware(s.playersHandler.HandleListPlayers, "players_list"))
		pr.Delete("/reset", MetricsMiddleware(s.playersHandler.HandleResetPlayers, "players_reset"))
		pr.Get("/{id}/summary", MetricsMiddleware(s.playersHandler.HandlePlayerSummary, "player_summary"))
		pr.Get("/{id}/results", MetricsMiddleware(s.playersHandler.HandlePlayerResults, "player_results"))
		pr.Post("/{id}/transfer", MetricsMiddleware(s.playersHandler.HandleTransferPlayer, "player_transfer"))
	})

	r.Route("/drill-results", func(dr chi.Router) {
		dr.Post("/", MetricsMiddleware(s.resultsHandler.HandleSubmitResult, "results_submit"))
		dr.Put("/{id}", MetricsMiddleware(s.resultsHandler.HandleCorrectResult, "results_correct"))
		dr.Delete("/{id}", MetricsMiddleware(s.resultsHandler.HandleDeleteResult, "results_delete"))
	})

	r.Route("/rankings", func(rr chi.Router) {
		rr.Get("/", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings"))
		rr.Post("/what-if", MetricsMiddleware(s.rankingsHandler.HandleWhatIfRankings, "rankings_what_if"))
		rr.Get("/export", MetricsMiddleware(s.exportHandler.HandleExportRankings, "rankings_export"))
	})

	r.Post("/import", MetricsMiddleware(s.importHandler.HandleImportResults, "import"))

	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
