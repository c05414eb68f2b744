package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"turnstile/internal/config"
	"turnstile/internal/dlq"
	"turnstile/internal/etl"
	"turnstile/internal/feeds"
	"turnstile/internal/logging"
	"turnstile/internal/report"
	"turnstile/internal/runs"
	"turnstile/internal/source"
	"turnstile/internal/store"
)

// Options wires the orchestrator's collaborators.
type Options struct {
	Config   *config.Config
	Registry *etl.Registry
	Store    *store.Store
	Fetcher  *source.Fetcher
	Runs     *runs.Store
	Logger   *slog.Logger
}

// Orchestrator executes runs over a feed catalog.
type Orchestrator struct {
	cfg      *config.Config
	registry *etl.Registry
	store    *store.Store
	fetcher  *source.Fetcher
	runs     *runs.Store
	logger   *slog.Logger
}

// New constructs an orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		cfg:      opts.Config,
		registry: opts.Registry,
		store:    opts.Store,
		fetcher:  opts.Fetcher,
		runs:     opts.Runs,
		logger:   logging.NewComponentLogger(logger, "orchestrator"),
	}
}

// Run processes the given descriptors and returns the aggregated report.
// The returned error covers run-scoped failures only; per-feed failures are
// reported in the run report.
func (o *Orchestrator) Run(ctx context.Context, descriptors []feeds.Descriptor, dryRun bool) (report.Run, error) {
	runID := uuid.NewString()
	started := time.Now()
	logger := o.logger.With(logging.String(logging.FieldRunID, runID))
	logger.Info("run starting",
		logging.Int("feeds", len(descriptors)),
		logging.Bool("dry_run", dryRun))

	// History writes survive cancellation so an interrupted run is still
	// visible in the run log.
	bookCtx := context.WithoutCancel(ctx)

	var sink dlq.Sink
	if dryRun {
		sink = dlq.NewCounter()
	} else {
		writer := dlq.NewWriter(o.store.DB(), logger)
		defer writer.Close()
		sink = writer

		if err := o.runs.Begin(bookCtx, runID, dryRun, len(descriptors)); err != nil {
			return report.Run{}, etl.Wrap(etl.ErrConfiguration, "orchestrator", "record run", runID, err)
		}
	}

	results := make([]report.Feed, len(descriptors))
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := o.cfg.ETL.Workers
	if workers < 1 {
		workers = 1
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = o.runFeed(ctx, logger, runID, descriptors[i], sink, dryRun)
			}
		}()
	}
	for i := range descriptors {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	run := report.Run{
		RunID:     runID,
		StartedAt: started,
		Duration:  report.Duration(time.Since(started)),
		Simulated: dryRun,
		Feeds:     results,
	}

	if !dryRun {
		for _, f := range results {
			if err := o.runs.RecordFeed(bookCtx, runs.FeedRun{
				RunID:            runID,
				Feed:             f.Name,
				State:            string(f.State),
				RecordsExtracted: f.RecordsExtracted,
				RecordsLoaded:    f.RecordsLoaded,
				RecordsRejected:  f.RecordsRejected,
				DurationMS:       f.Duration.Milliseconds(),
				Degraded:         f.Degraded,
				Error:            f.Error,
			}); err != nil {
				logger.Error("feed run not recorded",
					logging.String(logging.FieldFeed, f.Name),
					logging.Error(err))
			}
		}
		if err := o.runs.Finish(bookCtx, runID, run.Failed()); err != nil {
			logger.Error("run finish not recorded", logging.Error(err))
		}
	}

	logger.Info("run finished",
		logging.Int("failed", run.Failed()),
		logging.Duration("duration", time.Duration(run.Duration)))
	return run, nil
}

// runFeed drives one feed through its pipeline and returns its outcome. All
// failures end up in the report; nothing escapes as an error.
func (o *Orchestrator) runFeed(ctx context.Context, logger *slog.Logger, runID string, desc feeds.Descriptor, sink dlq.Sink, dryRun bool) report.Feed {
	started := time.Now()
	logger = logger.With(logging.String(logging.FieldFeed, desc.Name))
	result := report.Feed{Name: desc.Name, State: report.StateExtracting}

	fail := func(err error) report.Feed {
		result.State = report.StateFailed
		result.Error = err.Error()
		result.Duration = report.Duration(time.Since(started))
		logger.Error("feed failed", logging.Error(err))
		return result
	}

	if err := ctx.Err(); err != nil {
		return fail(fmt.Errorf("run cancelled: %w", err))
	}

	processor, err := o.registry.Resolve(desc.Type)
	if err != nil {
		return fail(err)
	}

	path, cleanup, err := o.fetcher.Fetch(ctx, desc.Name, desc.Source)
	if err != nil {
		return fail(err)
	}
	defer cleanup()

	iterator, err := processor.Extract(ctx, path)
	if err != nil {
		return fail(err)
	}
	defer iterator.Close()

	result.State = report.StateTransforming
	staged, iterErr := o.transform(ctx, processor, iterator, runID, desc.Name, sink, &result)
	if iterErr != nil {
		return fail(iterErr)
	}

	resolution := store.Resolve(staged)
	for _, rejection := range resolution.Rejected {
		sink.Append(runID, desc.Name, rejection)
		result.RecordsRejected++
	}

	result.State = report.StateLoading
	if dryRun {
		result.RecordsLoaded = len(resolution.Accepted)
	} else {
		loaded, err := o.store.Load(ctx, desc.Name, resolution.Accepted)
		if err != nil {
			return fail(err)
		}
		result.RecordsLoaded = loaded
	}

	if err := sink.Flush(ctx); err != nil {
		return fail(etl.Wrap(etl.ErrLoadTransaction, "orchestrator", "flush dead letters", desc.Name, err))
	}

	if got := result.RecordsLoaded + result.RecordsRejected; got != result.RecordsExtracted {
		logger.Warn("record conservation mismatch",
			logging.Int("extracted", result.RecordsExtracted),
			logging.Int("loaded", result.RecordsLoaded),
			logging.Int("rejected", result.RecordsRejected))
	}

	result.State = report.StateSucceeded
	if o.degraded(result.RecordsExtracted, result.RecordsRejected) {
		result.State = report.StateSucceededDegraded
		result.Degraded = true
	}
	result.Duration = report.Duration(time.Since(started))
	logger.Info("feed finished",
		logging.String(logging.FieldStage, string(result.State)),
		logging.Int("extracted", result.RecordsExtracted),
		logging.Int("loaded", result.RecordsLoaded),
		logging.Int("rejected", result.RecordsRejected))
	return result
}

// transform pumps extracted records through the processor's transform over a
// bounded channel, collecting staged entities and routing rejections.
func (o *Orchestrator) transform(ctx context.Context, processor etl.Processor, iterator etl.RecordIterator, runID, feed string, sink dlq.Sink, result *report.Feed) ([]etl.StagedEntity, error) {
	buffer := o.cfg.ETL.RecordBuffer
	if buffer < 1 {
		buffer = 1
	}
	records := make(chan etl.RawRecord, buffer)
	iterDone := make(chan error, 1)

	go func() {
		defer close(records)
		for iterator.Next() {
			select {
			case records <- iterator.Record():
			case <-ctx.Done():
				iterDone <- ctx.Err()
				return
			}
		}
		iterDone <- iterator.Err()
	}()

	var staged []etl.StagedEntity
	for record := range records {
		result.RecordsExtracted++
		outcome := processor.Transform(record)
		switch {
		case outcome.Entity != nil:
			staged = append(staged, *outcome.Entity)
		case outcome.Rejection != nil:
			sink.Append(runID, feed, *outcome.Rejection)
			result.RecordsRejected++
		default:
			// Intentionally skipped records still count as extracted work,
			// but produce neither entity nor rejection.
			result.RecordsExtracted--
		}
	}

	if err := <-iterDone; err != nil {
		return nil, err
	}
	return staged, nil
}

// degraded reports whether the rejection rate exceeds the configured
// threshold.
func (o *Orchestrator) degraded(extracted, rejected int) bool {
	if extracted == 0 || rejected == 0 {
		return false
	}
	rate := float64(rejected) / float64(extracted) * 100
	return rate > o.cfg.ETL.RejectionThresholdPercent
}
