package preflight

import (
	"context"
	"strings"

	"turnstile/internal/config"
	"turnstile/internal/store"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config and store.
func RunAll(ctx context.Context, cfg *config.Config, st *store.Store) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDiskSpace("Data directory free space", cfg.Paths.DataDir, cfg.ETL.DiskMinFreeMB),
	}
	if st != nil {
		results = append(results, CheckDatabase(ctx, st))
	}
	return results
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// Describe joins failed check details into one message for error reporting.
func Describe(results []Result) string {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r.Name+": "+r.Detail)
		}
	}
	return strings.Join(failed, "; ")
}
