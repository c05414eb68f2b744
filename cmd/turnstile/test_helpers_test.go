package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"turnstile/internal/config"
	"turnstile/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	feedPath   string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	feedPath := testsupport.WriteGTFSZip(t, cfg.Paths.DataDir, testsupport.MinimalGTFS())
	testsupport.WriteFeedsFile(t, cfg.Paths.FeedsFile, fmt.Sprintf(
		"feeds:\n  - name: metro\n    type: gtfs\n    source: %s\n    schedule: daily\n", feedPath))

	configPath := filepath.Join(filepath.Dir(cfg.Database.Path), "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, feedPath: feedPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
feeds_file = %q

[database]
path = %q

[etl]
workers = 2
download_retries = 1
disk_min_free_mb = 0

[logging]
format = "json"
level = "error"
`, cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Paths.FeedsFile, cfg.Database.Path)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// extractRunID pulls the run id out of the "Run <id>: ..." summary line.
func extractRunID(t *testing.T, output string) string {
	t.Helper()
	for _, line := range strings.Split(output, "\n") {
		if rest, ok := strings.CutPrefix(line, "Run "); ok {
			id, _, found := strings.Cut(rest, ":")
			if found && id != "" {
				return id
			}
		}
	}
	t.Fatalf("no run summary line in output: %q", output)
	return ""
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
