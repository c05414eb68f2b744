package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"turnstile/internal/config"
	"turnstile/internal/store"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDiskSpace_PassesWithZeroMinimum(t *testing.T) {
	result := CheckDiskSpace("test", t.TempDir(), 0)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckDiskSpace_FailsWithAbsurdMinimum(t *testing.T) {
	result := CheckDiskSpace("test", t.TempDir(), 1<<40)
	if result.Passed {
		t.Fatal("expected failure for impossible free-space requirement")
	}
}

func TestCheckDatabase_OK(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "turnstile.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	result := CheckDatabase(context.Background(), st)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestRunAllAggregates(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.ETL.DiskMinFreeMB = 0

	st, err := store.Open(filepath.Join(t.TempDir(), "turnstile.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	results := RunAll(context.Background(), &cfg, st)
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	if !Passed(results) {
		t.Fatalf("expected all checks to pass: %s", Describe(results))
	}
}

func TestDescribeListsFailures(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(t.TempDir(), "missing")

	results := RunAll(context.Background(), &cfg, nil)
	if Passed(results) {
		t.Fatal("expected failure for missing data dir")
	}
	if Describe(results) == "" {
		t.Fatal("expected failure description")
	}
}
