package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"indexly/internal/ingest"
	ingestmetrics "indexly/internal/ingest/metrics"
	"indexly/internal/pipeline"
	pipelinemetrics "indexly/internal/pipeline/metrics"
	"indexly/internal/platform/config"
	"indexly/internal/platform/httpserver"
	"indexly/internal/platform/logger"
	"indexly/internal/source"
	httptransport "indexly/internal/transport/http"
)

// app bundles the wired runtime for one command invocation.
type app struct {
	cfg        config.App
	logger     *slog.Logger
	pool       *pgxpool.Pool
	store      ingest.Store
	pipeline   *pipeline.Pipeline
	metricsSrv *http.Server
}

// buildApp wires configuration, storage, and the pipeline. An explicit
// databaseURL flag overrides DATABASE_URL; with neither set the app has no
// store and every run previews instead of persisting.
func buildApp(ctx context.Context, databaseURL string) (*app, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}
	log := logger.New()

	a := &app{cfg: cfg, logger: log}

	opts := []pipeline.Option{
		pipeline.WithLogger(log),
		pipeline.WithWindow(cfg.Window),
		pipeline.WithMetrics(pipelinemetrics.New()),
	}
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.pool = pool

		store := ingest.NewPostgres(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		a.store = store

		engine := ingest.NewEngine(store,
			ingest.WithLogger(log),
			ingest.WithMetrics(ingestmetrics.New()),
		)
		opts = append(opts, pipeline.WithStorage(engine, store))
	} else {
		log.InfoContext(ctx, "no database configured, runs will preview only")
	}

	fetcher := source.NewFetcher(cfg.DataDir)
	a.pipeline = pipeline.New(fetcher, filepath.Join(cfg.DataDir, "previews"), opts...)

	if cfg.MetricsAddr != "" {
		a.metricsSrv = httpserver.New(cfg.MetricsAddr, httptransport.NewRouter())
		go func() {
			if err := a.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server error", "error", err)
			}
		}()
		log.InfoContext(ctx, "metrics server listening", "addr", cfg.MetricsAddr)
	}

	return a, nil
}

func (a *app) close() {
	if a.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.metricsSrv.Shutdown(ctx)
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

// printSummary renders the run summary as JSON on stdout for scripting.
func printSummary(summary *pipeline.Summary) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
