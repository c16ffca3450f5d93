// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New() to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import "runtime"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBDriver selects the storage backend: sqlite or postgres.
	DBDriver string `koanf:"db_driver"`

	// DBDSN is the data source name for the selected driver.
	DBDSN string `koanf:"db_dsn"`

	// AllowedOrigins configures CORS for the API.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// DrillWeights overrides the official weight per drill key. Empty
	// means the registry defaults.
	DrillWeights map[string]float64 `koanf:"drill_weights"`

	// MissingDrillPolicy is "penalize" or "exclude".
	MissingDrillPolicy string `koanf:"missing_drill_policy"`

	// TiePolicy is "sequential" or "shared".
	TiePolicy string `koanf:"tie_policy"`

	// RecomputeParallelism bounds concurrent cohort recomputations in
	// batched paths.
	RecomputeParallelism int `koanf:"recompute_parallelism"`

	// MaxImportRows caps the size of one bulk CSV import.
	MaxImportRows int `koanf:"max_import_rows"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":8080",
		DBDriver:             "sqlite",
		DBDSN:                "",
		AllowedOrigins:       []string{"*"},
		DrillWeights:         nil,
		MissingDrillPolicy:   "penalize",
		TiePolicy:            "sequential",
		RecomputeParallelism: runtime.NumCPU(),
		MaxImportRows:        10_000,
	}
}
