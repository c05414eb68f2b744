package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"turnstile/internal/etl"
	"turnstile/internal/feeds"
	"turnstile/internal/orchestrator"
	"turnstile/internal/preflight"
	"turnstile/internal/report"
	"turnstile/internal/runlock"
	"turnstile/internal/runs"
	"turnstile/internal/source"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var runAll bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run [feed...]",
		Short: "Run ETL over configured feeds",
		Long: "Runs extract, transform, and load for the named feeds, or every " +
			"enabled feed with --all. Exits non-zero when any feed fails.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !runAll {
				return fmt.Errorf("name at least one feed or pass --all")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, closeLog, err := ctx.newRunLogger()
			if err != nil {
				return err
			}
			defer closeLog()

			catalog, err := feeds.Load(cfg.Paths.FeedsFile)
			if err != nil {
				return err
			}
			descriptors, err := selectFeeds(catalog, args, runAll)
			if err != nil {
				return err
			}

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if results := preflight.RunAll(cmd.Context(), cfg, st); !preflight.Passed(results) {
				return etl.Wrap(etl.ErrConfiguration, "preflight", "check", preflight.Describe(results), nil)
			}

			if !dryRun {
				lock, err := runlock.Acquire(cfg.Paths.LogDir)
				if err != nil {
					return err
				}
				defer lock.Release()
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			orch := orchestrator.New(orchestrator.Options{
				Config:   cfg,
				Registry: newRegistry(),
				Store:    st,
				Fetcher: source.New(source.Options{
					DataDir:    cfg.Paths.DataDir,
					Retries:    cfg.ETL.DownloadRetries,
					Backoff:    time.Duration(cfg.ETL.RetryBackoffSeconds) * time.Second,
					BackoffMax: time.Duration(cfg.ETL.RetryBackoffMaxSeconds) * time.Second,
				}, logger),
				Runs:   runs.NewStore(st.DB()),
				Logger: logger,
			})

			run, err := orch.Run(runCtx, descriptors, dryRun)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, run); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), renderRunReport(run))
			}

			if !run.OK() {
				return fmt.Errorf("%d of %d feeds failed", run.Failed(), len(run.Feeds))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&runAll, "all", false, "Process every enabled feed")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Extract and transform without writing to the database")
	return cmd
}

// selectFeeds resolves command arguments against the catalog. Named feeds
// run even when disabled; --all runs only enabled feeds.
func selectFeeds(catalog *feeds.Catalog, names []string, runAll bool) ([]feeds.Descriptor, error) {
	if runAll {
		enabled := catalog.Enabled()
		if len(enabled) == 0 {
			return nil, fmt.Errorf("no enabled feeds in catalog")
		}
		return enabled, nil
	}

	descriptors := make([]feeds.Descriptor, 0, len(names))
	for _, name := range names {
		d, ok := catalog.ByName(name)
		if !ok {
			return nil, fmt.Errorf("feed %q not in catalog", name)
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

func renderRunReport(run report.Run) string {
	rows := make([][]string, 0, len(run.Feeds))
	for _, f := range run.Feeds {
		rows = append(rows, []string{
			f.Name,
			string(f.State),
			fmt.Sprintf("%d", f.RecordsExtracted),
			fmt.Sprintf("%d", f.RecordsLoaded),
			fmt.Sprintf("%d", f.RecordsRejected),
			time.Duration(f.Duration).Round(time.Millisecond).String(),
			f.Error,
		})
	}
	out := renderTable(
		[]string{"FEED", "STATE", "EXTRACTED", "LOADED", "REJECTED", "DURATION", "ERROR"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	)
	return out + "\nRun " + run.RunID + ": " + run.Summary()
}
