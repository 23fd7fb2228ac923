package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"indexly/internal/ingest"
)

// ShouldRefresh reports whether stored facts lag the month containing now.
// A store with no facts yet always needs a refresh; without a store there is
// nothing to compare against and no refresh is due.
func ShouldRefresh(ctx context.Context, store ingest.Store, now time.Time) (bool, error) {
	if store == nil {
		return false, nil
	}
	snap, err := store.Snapshot(ctx)
	if err != nil {
		return false, fmt.Errorf("inspect data freshness: %w", err)
	}
	if snap.LatestFactDate.IsZero() {
		return true, nil
	}
	currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return snap.LatestFactDate.Before(currentMonth), nil
}

// Refresher runs the pipeline only when stored data is stale.
type Refresher struct {
	store    ingest.Store
	pipeline *Pipeline
	logger   *slog.Logger
	now      func() time.Time
}

// NewRefresher constructs a Refresher around an existing pipeline.
func NewRefresher(store ingest.Store, p *Pipeline, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Refresher{store: store, pipeline: p, logger: logger, now: time.Now}
}

// Refresh runs the pipeline when the stored facts are stale, or
// unconditionally when force is set. The second return reports whether a run
// happened.
func (r *Refresher) Refresh(ctx context.Context, srcs Sources, force bool) (*Summary, bool, error) {
	if !force {
		due, err := ShouldRefresh(ctx, r.store, r.now())
		if err != nil {
			return nil, false, err
		}
		if !due {
			r.logger.InfoContext(ctx, "data is current, skipping refresh")
			return nil, false, nil
		}
	}

	summary, err := r.pipeline.Run(ctx, srcs, false)
	return summary, true, err
}
