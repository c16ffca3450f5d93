// Command import-results loads a CSV of drill results straight into the
// database, bypassing the HTTP API. Useful for seeding an event from a
// spreadsheet export before doors open.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/woocombine/combine/internal/adapters/importer"
	"github.com/woocombine/combine/internal/adapters/repository"
	"github.com/woocombine/combine/internal/app"
	"github.com/woocombine/combine/pkg/logger"
)

const importTimeout = 5 * time.Minute

func main() {
	var (
		file     = flag.String("file", "", "CSV file with player_number,drill_key,raw_score rows")
		dbDriver = flag.String("db-driver", "sqlite", "Database driver: sqlite or postgres")
		dbDSN    = flag.String("db-dsn", "", "Database DSN (driver default when empty)")
		maxRows  = flag.Int("max-rows", 10_000, "Maximum number of data rows to accept")
	)
	flag.Parse()

	if *file == "" {
		os.Stderr.WriteString("usage: import-results -file results.csv [-db-driver sqlite|postgres] [-db-dsn ...]\n")
		os.Exit(2)
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
	defer cancel()

	if err := run(ctx, *file, *dbDriver, *dbDSN, *maxRows); err != nil {
		os.Stderr.WriteString("import failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context, file, dbDriver, dbDSN string, maxRows int) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	db, err := repository.Open(ctx, repository.Driver(dbDriver), dbDSN)
	if err != nil {
		return err
	}
	store := repository.NewSQLStore(db, repository.Driver(dbDriver))
	defer store.Close()

	svc := app.New(
		app.WithStore(store),
		app.WithLogger(logger.Get()),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	rows, rowErrs, err := importer.ParseCSV(f, svc.Registry(), maxRows)
	if err != nil {
		return err
	}
	for _, re := range rowErrs {
		fmt.Fprintf(os.Stderr, "skipped %v\n", re)
	}

	summary, err := svc.ImportResults(ctx, rows)
	if err != nil {
		return err
	}
	for _, msg := range summary.RowErrors {
		fmt.Fprintf(os.Stderr, "skipped %s\n", msg)
	}
	fmt.Printf("applied %d rows, skipped %d, recomputed %d cohorts\n",
		summary.Applied, summary.Skipped+len(rowErrs), summary.CohortsRecomputed)
	return nil
}
