package testsupport

import (
	"path/filepath"
	"testing"

	"turnstile/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.FeedsFile = filepath.Join(base, "feeds.yml")
	cfg.Database.Path = filepath.Join(base, "turnstile.db")
	cfg.ETL.Workers = 2
	cfg.ETL.DownloadRetries = 1
	cfg.ETL.DiskMinFreeMB = 0

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithWorkers overrides the worker count on the test config.
func WithWorkers(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.ETL.Workers = n
	}
}

// WithRejectionThreshold overrides the degraded threshold on the test config.
func WithRejectionThreshold(pct float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.ETL.RejectionThresholdPercent = pct
	}
}
