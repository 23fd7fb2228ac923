// Package pipeline orchestrates the reconciliation run: acquire each
// configured source file, parse it with the matching adapter, prune it to the
// accepted window, and hand it to the ingestion engine or a dry-run preview.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"indexly/internal/ingest"
	"indexly/internal/pipeline/metrics"
	"indexly/internal/source"
)

// Batch statuses reported in run summaries.
const (
	StatusPreview  = "preview"
	StatusIngested = "ingested"
	StatusFailed   = "failed"
)

// Sources lists the configured file locations per source kind.
type Sources struct {
	MOSPIAnnexes     []string
	DataGovResources []string
	IMFSeries        []string
	DPIITResources   []string
}

// Empty reports whether no source locations are configured.
func (s Sources) Empty() bool {
	return len(s.MOSPIAnnexes)+len(s.DataGovResources)+len(s.IMFSeries)+len(s.DPIITResources) == 0
}

func (s Sources) forKind(kind source.Kind) []string {
	switch kind {
	case source.KindMOSPI:
		return s.MOSPIAnnexes
	case source.KindDataGov:
		return s.DataGovResources
	case source.KindIMF:
		return s.IMFSeries
	case source.KindDPIIT:
		return s.DPIITResources
	}
	return nil
}

// BatchSummary reports one processed source file.
type BatchSummary struct {
	Source   source.Kind `json:"source"`
	File     string      `json:"file"`
	Rows     int         `json:"rows"`
	Checksum string      `json:"checksum"`
	Status   string      `json:"status"`
	Preview  string      `json:"preview,omitempty"`
	RunID    string      `json:"run_id,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// Totals aggregates a whole run.
type Totals struct {
	Batches    int              `json:"batches"`
	Rows       int              `json:"rows"`
	Validation *ingest.Snapshot `json:"validation,omitempty"`
}

// Summary is the aggregate result of one pipeline run. On a fatal error it
// still carries every batch completed before the failure.
type Summary struct {
	Batches []BatchSummary `json:"batches"`
	Totals  Totals         `json:"totals"`
}

// Pipeline drives adapters, the scope filter, and the ingestion engine
// across every configured source. One Pipeline per invocation configuration;
// no state is shared across concurrent pipelines.
type Pipeline struct {
	fetcher    *source.Fetcher
	previewDir string
	engine     *ingest.Engine
	store      ingest.Store
	window     Window
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	now        func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithWindow overrides the accepted year window.
func WithWindow(w Window) Option {
	return func(p *Pipeline) {
		p.window = w
	}
}

// WithStorage wires a real ingestion engine and its store. Without it every
// run is a dry run.
func WithStorage(engine *ingest.Engine, store ingest.Store) Option {
	return func(p *Pipeline) {
		p.engine = engine
		p.store = store
	}
}

// New constructs a Pipeline writing previews under previewDir.
func New(fetcher *source.Fetcher, previewDir string, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:    fetcher,
		previewDir: previewDir,
		window:     DefaultWindow(),
		logger:     slog.New(slog.DiscardHandler),
		tracer:     otel.Tracer("indexly/pipeline"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes every configured source location in order. A batch's
// unrecoverable error (schema error or retry-exhausted storage error) aborts
// the remaining batches; completed batches keep their summaries.
func (p *Pipeline) Run(ctx context.Context, srcs Sources, dryRun bool) (*Summary, error) {
	summary := &Summary{}

	for _, kind := range source.Kinds() {
		adapter, err := source.ForKind(kind)
		if err != nil {
			return summary, err
		}
		for _, location := range srcs.forKind(kind) {
			entry, err := p.runBatch(ctx, adapter, location, dryRun)
			summary.Batches = append(summary.Batches, entry)
			summary.Totals.Batches++
			summary.Totals.Rows += entry.Rows
			if err != nil {
				p.logger.ErrorContext(ctx, "batch failed, aborting run",
					"source", kind, "location", location, "error", err)
				return summary, err
			}
		}
	}

	if !dryRun && p.store != nil {
		snap, err := p.store.Snapshot(ctx)
		if err != nil {
			return summary, fmt.Errorf("collect validation snapshot: %w", err)
		}
		summary.Totals.Validation = snap
	}
	return summary, nil
}

func (p *Pipeline) runBatch(ctx context.Context, adapter source.Adapter, location string, dryRun bool) (BatchSummary, error) {
	kind := adapter.Kind()
	started := p.now()

	ctx, span := p.tracer.Start(ctx, "pipeline.batch",
		trace.WithAttributes(attribute.String("source", string(kind))))
	defer span.End()

	entry := BatchSummary{Source: kind, File: location}
	fail := func(err error) (BatchSummary, error) {
		entry.Status = StatusFailed
		entry.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.metrics.ObserveBatch(string(kind), StatusFailed, entry.Rows, p.now().Sub(started))
		return entry, err
	}

	path, err := p.fetcher.Fetch(ctx, location, string(kind))
	if err != nil {
		return fail(err)
	}
	entry.File = path

	checksum, err := source.Checksum(path)
	if err != nil {
		return fail(err)
	}
	entry.Checksum = checksum

	parsed, err := adapter.Parse(path)
	if err != nil {
		return fail(err)
	}
	observations := p.window.Filter(parsed)
	entry.Rows = len(observations)
	p.logger.InfoContext(ctx, "parsed source batch",
		"source", kind, "file", path, "rows", len(observations), "dropped", len(parsed)-len(observations))

	if dryRun || p.engine == nil {
		previewPath := p.previewPath(path, kind)
		if err := writePreview(observations, previewPath); err != nil {
			return fail(err)
		}
		entry.Status = StatusPreview
		entry.Preview = previewPath
	} else {
		result, err := p.engine.Ingest(ctx, ingest.Batch{
			SourceFile:   path,
			Checksum:     checksum,
			Observations: observations,
		})
		if err != nil {
			return fail(err)
		}
		entry.Status = StatusIngested
		entry.RunID = result.RunID.String()
	}

	p.metrics.ObserveBatch(string(kind), entry.Status, entry.Rows, p.now().Sub(started))
	return entry, nil
}

func (p *Pipeline) previewPath(filePath string, kind source.Kind) string {
	stem := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	return filepath.Join(p.previewDir, fmt.Sprintf("%s_%s.csv", stem, kind))
}
