// Package ingest persists normalized observation batches: raw audit rows,
// dimension resolution, fact upserts, and per-run audit records, all inside
// one retried transaction per attempt.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"indexly/internal/dimension"
	"indexly/internal/ingest/metrics"
	"indexly/internal/source"
	"indexly/pkg/platform/sentinel"
)

const (
	maxAttempts    = 3
	retryBaseDelay = 2 * time.Second
	retryDelayCap  = 10 * time.Second
	maxLogChars    = 64 * 1024
)

// Batch is one parsed source file ready for persistence.
type Batch struct {
	SourceFile   string
	Checksum     string
	Observations []source.Observation
}

// Result summarizes a completed ingestion invocation.
type Result struct {
	RunID         uuid.UUID
	Status        RunStatus
	RowsProcessed int
}

// Engine persists observation batches. Each invocation runs one
// all-or-nothing transaction, retried on transient storage failure with
// capped backoff, and leaves exactly one run record behind.
type Engine struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	sleep   func(time.Duration)
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics attaches ingestion metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine constructs an Engine on the given store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		sleep:  time.Sleep,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ingest persists a batch. On transient storage failure the whole
// transaction rolls back and is retried up to the attempt ceiling; the
// exhausted error propagates. A run record is written regardless of outcome.
func (e *Engine) Ingest(ctx context.Context, batch Batch) (*Result, error) {
	started := e.now().UTC()
	run := &RunRecord{
		RunID:     uuid.New(),
		StartedAt: started,
		Status:    RunStatusRunning,
		Checksum:  batch.Checksum,
	}
	transcript := &runLog{logger: e.logger, now: e.now}

	// Durable start marker so a crash mid-attempt still leaves evidence the
	// attempt began. Best-effort: FinishRun upserts, so a failed marker
	// never costs the attempt or duplicates the record.
	if err := e.store.StartRun(ctx, run); err != nil {
		transcript.appendf(ctx, slog.LevelWarn, "failed to persist run start marker: %v", err)
	}
	transcript.appendf(ctx, slog.LevelInfo, "starting ingestion of %d rows from %s", len(batch.Observations), batch.SourceFile)

	var ingestErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ingestErr = e.ingestOnce(ctx, batch, transcript, attempt)
		if ingestErr == nil {
			break
		}
		if !errors.Is(ingestErr, sentinel.ErrUnavailable) || attempt == maxAttempts {
			break
		}
		delay := min(retryBaseDelay*time.Duration(attempt), retryDelayCap)
		transcript.appendf(ctx, slog.LevelWarn, "transient storage error (attempt %d/%d): %v; retrying in %s",
			attempt, maxAttempts, ingestErr, delay)
		e.metrics.IncrementRetry()
		e.sleep(delay)
	}

	if ingestErr != nil {
		run.Status = RunStatusFailed
		transcript.appendf(ctx, slog.LevelError, "ingestion failed: %v", ingestErr)
	} else {
		run.Status = RunStatusSuccess
		transcript.appendf(ctx, slog.LevelInfo, "ingestion complete")
	}

	run.FinishedAt = e.now().UTC()
	run.Log = transcript.truncated(maxLogChars)
	if err := e.store.FinishRun(ctx, run); err != nil {
		// Best-effort: a secondary failure recording run metadata is
		// logged, not retried.
		e.logger.ErrorContext(ctx, "failed to record run metadata", "run_id", run.RunID, "error", err)
	}

	e.metrics.IncrementRun(string(run.Status))
	e.metrics.ObserveIngestDuration(e.now().UTC().Sub(started))
	if ingestErr != nil {
		return nil, ingestErr
	}

	e.metrics.AddRows(len(batch.Observations), len(batch.Observations))
	return &Result{RunID: run.RunID, Status: run.Status, RowsProcessed: len(batch.Observations)}, nil
}

func (e *Engine) ingestOnce(ctx context.Context, batch Batch, transcript *runLog, attempt int) error {
	return e.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		transcript.appendf(ctx, slog.LevelInfo, "inserting %d raw rows (attempt %d)", len(batch.Observations), attempt)

		raw := make([]RawObservation, 0, len(batch.Observations))
		for _, obs := range batch.Observations {
			raw = append(raw, RawObservation{
				SourceFile:  batch.SourceFile,
				ItemAlias:   obs.ItemAlias,
				RegionAlias: obs.RegionAlias,
				Year:        obs.Year,
				Month:       obs.Month,
				RawValue:    obs.Value,
			})
		}
		if err := tx.InsertRawObservations(ctx, raw); err != nil {
			return err
		}

		// The resolver is rebuilt from storage on every attempt so a
		// rolled-back attempt never leaks alias index state into the next.
		resolver, err := dimension.NewResolver(ctx, tx.Dimensions(), dimension.WithLogger(e.logger))
		if err != nil {
			return err
		}

		for _, obs := range batch.Observations {
			itemID, err := resolver.ResolveItem(ctx, obs.ItemAlias, obs.ItemHint)
			if err != nil {
				return err
			}
			regionID, err := resolver.ResolveRegion(ctx, obs.RegionAlias, obs.RegionHint)
			if err != nil {
				return err
			}
			fact := SeriesFact{
				ItemID:     itemID,
				RegionID:   regionID,
				Date:       FactDate(obs.Year, obs.Month),
				IndexValue: obs.Value,
			}
			if err := tx.UpsertFact(ctx, fact); err != nil {
				return err
			}
		}

		transcript.appendf(ctx, slog.LevelInfo, "upserted %d series facts", len(batch.Observations))
		return nil
	})
}

// runLog collects the attempt transcript while mirroring every line to the
// structured logger. The stored transcript is truncated to a fixed budget.
type runLog struct {
	logger *slog.Logger
	now    func() time.Time
	lines  []string
}

func (l *runLog) appendf(ctx context.Context, level slog.Level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.lines = append(l.lines, fmt.Sprintf("%s [%s] %s", l.now().UTC().Format(time.RFC3339), level, msg))
	l.logger.Log(ctx, level, msg)
}

func (l *runLog) truncated(limit int) string {
	joined := strings.Join(l.lines, "\n")
	if len(joined) > limit {
		return joined[:limit]
	}
	return joined
}
