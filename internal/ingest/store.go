package ingest

import (
	"context"

	"indexly/internal/dimension"
)

// Tx is the write scope of one ingestion attempt. It spans the raw audit
// table, the fact table, and the dimension tables; everything commits or
// rolls back together.
type Tx interface {
	// Dimensions exposes the dimension tables inside this transaction. The
	// resolver built on it owns the attempt's alias indices exclusively.
	Dimensions() dimension.Store

	// InsertRawObservations appends audit copies of every row in the batch.
	InsertRawObservations(ctx context.Context, rows []RawObservation) error

	// UpsertFact inserts a fact, or overwrites its value when the
	// (item, region, date) key already exists.
	UpsertFact(ctx context.Context, fact SeriesFact) error
}

// Store is the persistence contract of the ingestion engine.
//
// InTx failures are classified through sentinel errors: implementations wrap
// transient faults (connection loss, serialization conflicts) in
// sentinel.ErrUnavailable so the engine can retry, and permanent constraint
// violations in sentinel.ErrConflict.
type Store interface {
	// InTx runs fn inside one all-or-nothing transaction.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// StartRun persists the attempt's run record with status running.
	StartRun(ctx context.Context, run *RunRecord) error

	// FinishRun finalizes the attempt's run record (status, finished_at,
	// transcript). Implementations upsert so a failed StartRun still leaves
	// exactly one record per attempt.
	FinishRun(ctx context.Context, run *RunRecord) error

	// Snapshot reports entity counts and the latest fact date.
	Snapshot(ctx context.Context) (*Snapshot, error)
}
