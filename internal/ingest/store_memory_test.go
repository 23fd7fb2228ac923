package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indexly/internal/dimension"
)

func TestInMemoryStoreRollsBackFailedTx(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	boom := errors.New("boom")

	err := store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		require.NoError(t, tx.InsertRawObservations(ctx, []RawObservation{{
			SourceFile: "a.csv", ItemAlias: "Rice", RegionAlias: "All India",
			Year: 2023, Month: 1, RawValue: decimal.RequireFromString("112.5"),
		}}))
		require.NoError(t, tx.Dimensions().CreateItem(ctx, &dimension.Item{Slug: "rice", CanonicalName: "Rice"}))
		require.NoError(t, tx.UpsertFact(ctx, SeriesFact{
			ItemID: 1, RegionID: 2, Date: FactDate(2023, 1),
			IndexValue: decimal.RequireFromString("112.5"),
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 0, store.RawCount())
	assert.Equal(t, 0, store.FactCount())
	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Items)
	assert.True(t, snap.LatestFactDate.IsZero())
}

func TestInMemoryStoreCommitsTx(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	err := store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.InsertRawObservations(ctx, []RawObservation{{SourceFile: "a.csv"}}); err != nil {
			return err
		}
		return tx.UpsertFact(ctx, SeriesFact{
			ItemID: 1, RegionID: 2, Date: FactDate(2024, 5),
			IndexValue: decimal.RequireFromString("150.1"),
		})
	})
	require.NoError(t, err)

	assert.Equal(t, 1, store.RawCount())
	value, ok := store.FactValue(1, 2, FactDate(2024, 5))
	require.True(t, ok)
	assert.Equal(t, "150.1", value.String())

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, FactDate(2024, 5), snap.LatestFactDate)
}

func TestInMemoryStoreUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	upsert := func(raw string) error {
		return store.InTx(ctx, func(ctx context.Context, tx Tx) error {
			return tx.UpsertFact(ctx, SeriesFact{
				ItemID: 7, RegionID: 9, Date: FactDate(2024, 1),
				IndexValue: decimal.RequireFromString(raw),
			})
		})
	}
	require.NoError(t, upsert("100.0"))
	require.NoError(t, upsert("101.5"))

	assert.Equal(t, 1, store.FactCount())
	value, ok := store.FactValue(7, 9, FactDate(2024, 1))
	require.True(t, ok)
	assert.Equal(t, "101.5", value.String())
}

func TestInMemoryStoreFinishRunUpsertsStartMarker(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	started := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	run := &RunRecord{RunID: uuid.New(), StartedAt: started, Status: RunStatusRunning, Checksum: "abc"}
	require.NoError(t, store.StartRun(ctx, run))

	run.Status = RunStatusSuccess
	run.FinishedAt = started.Add(time.Minute)
	run.Log = "done"
	require.NoError(t, store.FinishRun(ctx, run))

	runs := store.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, RunStatusSuccess, runs[0].Status)
	assert.Equal(t, "done", runs[0].Log)
}
