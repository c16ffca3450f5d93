package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/woocombine/combine/internal/adapters/http/api"
	"github.com/woocombine/combine/internal/adapters/repository"
	"github.com/woocombine/combine/internal/app"
	"github.com/woocombine/combine/internal/config"
	"github.com/woocombine/combine/internal/domain/ranking"
	"github.com/woocombine/combine/internal/domain/scoring"
	"github.com/woocombine/combine/pkg/logger"
	"github.com/woocombine/combine/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	systemMetricsInterval  = 10 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics.
	// We collect our own custom system metrics instead.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input).
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	missingPolicy, err := scoring.ParseMissingDrillPolicy(cfg.MissingDrillPolicy)
	if err != nil {
		os.Stderr.WriteString("invalid missing_drill_policy: " + err.Error() + "\n")
		return
	}
	tiePolicy, err := ranking.ParseTiePolicy(cfg.TiePolicy)
	if err != nil {
		os.Stderr.WriteString("invalid tie_policy: " + err.Error() + "\n")
		return
	}

	db, err := repository.Open(ctx, repository.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		os.Stderr.WriteString("failed to open database: " + err.Error() + "\n")
		return
	}
	store := repository.NewSQLStore(db, repository.Driver(cfg.DBDriver))
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "closing store failed", logger.Error(err))
		}
	}()

	// Create and start the service with configuration options.
	svc := app.New(
		app.WithLogger(log),
		app.WithStore(store),
		app.WithOfficialWeights(cfg.DrillWeights),
		app.WithMissingDrillPolicy(missingPolicy),
		app.WithTiePolicy(tiePolicy),
		app.WithRecomputeParallelism(cfg.RecomputeParallelism),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc, svc.Registry(),
		api.WithAllowedOrigins(cfg.AllowedOrigins),
		api.WithMaxImportRows(cfg.MaxImportRows),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Router(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that refreshes
// service gauges from GetStats.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats refreshes the player, cohort and dirty-cohort gauges.
			_ = svc.GetStats()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
