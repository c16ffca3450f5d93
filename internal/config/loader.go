package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if COMBINE_CONFIG is set
//  3. env (prefix COMBINE_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("COMBINE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: COMBINE_ADDR, COMBINE_DB_DRIVER, ...
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("COMBINE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "combine_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: db_driver %q", ErrInvalidConfig, c.DBDriver)
	}
	for key, w := range c.DrillWeights {
		if w < 0 || w > 100 {
			return fmt.Errorf("%w: drill weight %q = %v out of range [0, 100]", ErrInvalidConfig, key, w)
		}
	}
	if c.RecomputeParallelism < 1 {
		return fmt.Errorf("%w: recompute_parallelism must be positive", ErrInvalidConfig)
	}
	if c.MaxImportRows < 1 {
		return fmt.Errorf("%w: max_import_rows must be positive", ErrInvalidConfig)
	}
	return nil
}
