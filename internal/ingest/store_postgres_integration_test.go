//go:build integration

package ingest_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"indexly/internal/dimension"
	"indexly/internal/ingest"
	"indexly/internal/source"
	"indexly/pkg/platform/sentinel"
	"indexly/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *ingest.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = ingest.NewPostgres(s.postgres.Pool)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	// Truncate in dependency order
	err := s.postgres.TruncateTables(ctx, "series", "raw_series", "items", "regions", "etl_runs")
	s.Require().NoError(err)
}

func sampleBatch() ingest.Batch {
	return ingest.Batch{
		SourceFile: "annex_jan.xlsx",
		Checksum:   "deadbeef",
		Observations: []source.Observation{
			{Source: source.KindMOSPI, ItemAlias: "Rice", RegionAlias: "All India", Year: 2023, Month: 1,
				Value: decimal.RequireFromString("112.5")},
			{Source: source.KindMOSPI, ItemAlias: "Milk", RegionAlias: "All India", Year: 2023, Month: 1,
				Value: decimal.RequireFromString("104.2")},
		},
	}
}

func (s *PostgresStoreSuite) TestEngineIngestEndToEnd() {
	ctx := context.Background()
	engine := ingest.NewEngine(s.store)

	result, err := engine.Ingest(ctx, sampleBatch())
	s.Require().NoError(err)
	s.Equal(ingest.RunStatusSuccess, result.Status)
	s.Equal(2, result.RowsProcessed)

	snap, err := s.store.Snapshot(ctx)
	s.Require().NoError(err)
	s.Equal(2, snap.Items)
	s.Equal(1, snap.Regions)
	s.Equal(ingest.FactDate(2023, 1), snap.LatestFactDate)

	runs, err := s.store.RunCount(ctx)
	s.Require().NoError(err)
	s.Equal(1, runs)

	var status, log string
	err = s.postgres.Pool.QueryRow(ctx,
		`SELECT status, log FROM etl_runs WHERE run_id = $1`, result.RunID).Scan(&status, &log)
	s.Require().NoError(err)
	s.Equal("success", status)
	s.NotEmpty(log)
}

func (s *PostgresStoreSuite) TestReingestOverwritesFacts() {
	ctx := context.Background()
	engine := ingest.NewEngine(s.store)
	batch := sampleBatch()

	_, err := engine.Ingest(ctx, batch)
	s.Require().NoError(err)

	revised := batch
	revised.Observations = append([]source.Observation(nil), batch.Observations...)
	revised.Observations[0].Value = decimal.RequireFromString("120.0")
	_, err = engine.Ingest(ctx, revised)
	s.Require().NoError(err)

	var rawRows, factRows int
	s.Require().NoError(s.postgres.Pool.QueryRow(ctx, `SELECT count(*) FROM raw_series`).Scan(&rawRows))
	s.Require().NoError(s.postgres.Pool.QueryRow(ctx, `SELECT count(*) FROM series`).Scan(&factRows))
	s.Equal(4, rawRows)
	s.Equal(2, factRows)

	var value decimal.Decimal
	err = s.postgres.Pool.QueryRow(ctx,
		`SELECT s.index_value FROM series s
		 JOIN items i ON i.id = s.item_id
		 WHERE i.slug = 'rice'`).Scan(&value)
	s.Require().NoError(err)
	s.True(value.Equal(decimal.RequireFromString("120.0")))
}

func (s *PostgresStoreSuite) TestRolledBackTxLeavesNoPartialState() {
	ctx := context.Background()
	boom := sentinel.ErrInvalidState

	err := s.store.InTx(ctx, func(ctx context.Context, tx ingest.Tx) error {
		if err := tx.InsertRawObservations(ctx, []ingest.RawObservation{{
			SourceFile: "a.csv", ItemAlias: "Rice", RegionAlias: "All India",
			Year: 2023, Month: 1, RawValue: decimal.RequireFromString("112.5"),
		}}); err != nil {
			return err
		}
		if err := tx.Dimensions().CreateItem(ctx, &dimension.Item{Slug: "rice", CanonicalName: "Rice"}); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	snap, err := s.store.Snapshot(ctx)
	s.Require().NoError(err)
	s.Equal(0, snap.Items)

	var rawRows int
	s.Require().NoError(s.postgres.Pool.QueryRow(ctx, `SELECT count(*) FROM raw_series`).Scan(&rawRows))
	s.Equal(0, rawRows)
}

func (s *PostgresStoreSuite) TestDuplicateSlugIsConflict() {
	ctx := context.Background()

	err := s.store.InTx(ctx, func(ctx context.Context, tx ingest.Tx) error {
		dims := tx.Dimensions()
		if err := dims.CreateItem(ctx, &dimension.Item{Slug: "rice", CanonicalName: "Rice"}); err != nil {
			return err
		}
		return dims.CreateItem(ctx, &dimension.Item{Slug: "rice", CanonicalName: "Rice Again"})
	})
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestFinishRunUpsertsStartMarker() {
	ctx := context.Background()
	engine := ingest.NewEngine(s.store)

	// The engine writes the running marker first, then finalizes the same row.
	result, err := engine.Ingest(ctx, sampleBatch())
	s.Require().NoError(err)

	runs, err := s.store.RunCount(ctx)
	s.Require().NoError(err)
	s.Equal(1, runs)

	var finishedAt *string
	err = s.postgres.Pool.QueryRow(ctx,
		`SELECT finished_at::text FROM etl_runs WHERE run_id = $1`, result.RunID).Scan(&finishedAt)
	s.Require().NoError(err)
	s.NotNil(finishedAt)
}

func (s *PostgresStoreSuite) TestSnapshotOnEmptyDatabase() {
	snap, err := s.store.Snapshot(context.Background())
	s.Require().NoError(err)
	s.Equal(0, snap.Items)
	s.Equal(0, snap.Regions)
	s.True(snap.LatestFactDate.IsZero())
}
