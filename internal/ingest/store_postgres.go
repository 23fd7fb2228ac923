package ingest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"indexly/internal/dimension"
	"indexly/pkg/platform/sentinel"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS items (
	id BIGSERIAL PRIMARY KEY,
	slug VARCHAR(255) NOT NULL UNIQUE,
	canonical_name VARCHAR(255) NOT NULL,
	aliases JSONB NOT NULL DEFAULT '[]'::jsonb
);

CREATE TABLE IF NOT EXISTS regions (
	id BIGSERIAL PRIMARY KEY,
	code VARCHAR(64) NOT NULL UNIQUE,
	name VARCHAR(255) NOT NULL,
	type VARCHAR(64) NOT NULL DEFAULT 'unknown'
);

CREATE TABLE IF NOT EXISTS raw_series (
	id BIGSERIAL PRIMARY KEY,
	source_file TEXT NOT NULL,
	item_alias TEXT NOT NULL,
	region_alias TEXT NOT NULL,
	year SMALLINT NOT NULL,
	month SMALLINT NOT NULL,
	raw_value NUMERIC(12,6) NOT NULL,
	ingested_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS series (
	id BIGSERIAL PRIMARY KEY,
	item_id BIGINT NOT NULL REFERENCES items(id),
	region_id BIGINT NOT NULL REFERENCES regions(id),
	date DATE NOT NULL,
	index_value NUMERIC(12,6) NOT NULL,
	CONSTRAINT uq_series_item_region_date UNIQUE (item_id, region_id, date)
);

CREATE TABLE IF NOT EXISTS etl_runs (
	run_id UUID PRIMARY KEY,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	status VARCHAR(32) NOT NULL,
	checksum VARCHAR(256) NOT NULL,
	log TEXT NOT NULL
);
`

// PostgresStore persists the reconciliation state in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed ingest store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the reconciliation tables when absent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return classifyStorageErr("begin ingest tx", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, &postgresTx{tx: tx}); err != nil {
		return classifyStorageErr("ingest tx", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return classifyStorageErr("commit ingest tx", err)
	}
	return nil
}

func (s *PostgresStore) StartRun(ctx context.Context, run *RunRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO etl_runs (run_id, started_at, status, checksum, log)
		 VALUES ($1, $2, $3, $4, $5)`,
		run.RunID, run.StartedAt, string(run.Status), run.Checksum, run.Log)
	if err != nil {
		return classifyStorageErr("start run", err)
	}
	return nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, run *RunRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO etl_runs (run_id, started_at, finished_at, status, checksum, log)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (run_id) DO UPDATE
		 SET finished_at = EXCLUDED.finished_at,
		     status = EXCLUDED.status,
		     log = EXCLUDED.log`,
		run.RunID, run.StartedAt, run.FinishedAt, string(run.Status), run.Checksum, run.Log)
	if err != nil {
		return classifyStorageErr("finish run", err)
	}
	return nil
}

func (s *PostgresStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	var latest *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT (SELECT count(*) FROM items),
		        (SELECT count(*) FROM regions),
		        (SELECT max(date) FROM series)`).
		Scan(&snap.Items, &snap.Regions, &latest)
	if err != nil {
		return nil, classifyStorageErr("snapshot", err)
	}
	if latest != nil {
		snap.LatestFactDate = latest.UTC()
	}
	return snap, nil
}

// RunCount returns the number of run records; used by integration tests.
func (s *PostgresStore) RunCount(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM etl_runs`).Scan(&count); err != nil {
		return 0, classifyStorageErr("count runs", err)
	}
	return count, nil
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) Dimensions() dimension.Store {
	return &postgresDimensions{tx: t.tx}
}

func (t *postgresTx) InsertRawObservations(ctx context.Context, rows []RawObservation) error {
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(
			`INSERT INTO raw_series (source_file, item_alias, region_alias, year, month, raw_value)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			row.SourceFile, row.ItemAlias, row.RegionAlias, row.Year, row.Month, row.RawValue.String())
	}
	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert raw observations: %w", err)
	}
	return nil
}

func (t *postgresTx) UpsertFact(ctx context.Context, fact SeriesFact) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO series (item_id, region_id, date, index_value)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT ON CONSTRAINT uq_series_item_region_date
		 DO UPDATE SET index_value = EXCLUDED.index_value`,
		fact.ItemID, fact.RegionID, fact.Date, fact.IndexValue.String())
	if err != nil {
		return fmt.Errorf("upsert fact: %w", err)
	}
	return nil
}

type postgresDimensions struct {
	tx pgx.Tx
}

func (d *postgresDimensions) ListItems(ctx context.Context) ([]*dimension.Item, error) {
	rows, err := d.tx.Query(ctx, `SELECT id, slug, canonical_name, aliases FROM items`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*dimension.Item
	for rows.Next() {
		item := &dimension.Item{}
		if err := rows.Scan(&item.ID, &item.Slug, &item.CanonicalName, &item.Aliases); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (d *postgresDimensions) ListRegions(ctx context.Context) ([]*dimension.Region, error) {
	rows, err := d.tx.Query(ctx, `SELECT id, code, name, type FROM regions`)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	defer rows.Close()

	var regions []*dimension.Region
	for rows.Next() {
		region := &dimension.Region{}
		var regionType string
		if err := rows.Scan(&region.ID, &region.Code, &region.Name, &regionType); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		region.Type = dimension.RegionType(regionType)
		regions = append(regions, region)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	return regions, nil
}

func (d *postgresDimensions) CreateItem(ctx context.Context, item *dimension.Item) error {
	aliases := item.Aliases
	if aliases == nil {
		aliases = []string{}
	}
	err := d.tx.QueryRow(ctx,
		`INSERT INTO items (slug, canonical_name, aliases) VALUES ($1, $2, $3) RETURNING id`,
		item.Slug, item.CanonicalName, aliases).
		Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert item %q: %w", item.Slug, err)
	}
	return nil
}

func (d *postgresDimensions) UpdateItemAliases(ctx context.Context, itemID int64, aliases []string) error {
	tag, err := d.tx.Exec(ctx, `UPDATE items SET aliases = $2 WHERE id = $1`, itemID, aliases)
	if err != nil {
		return fmt.Errorf("update item %d aliases: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update item %d aliases: %w", itemID, sentinel.ErrNotFound)
	}
	return nil
}

func (d *postgresDimensions) CreateRegion(ctx context.Context, region *dimension.Region) error {
	err := d.tx.QueryRow(ctx,
		`INSERT INTO regions (code, name, type) VALUES ($1, $2, $3) RETURNING id`,
		region.Code, region.Name, string(region.Type)).
		Scan(&region.ID)
	if err != nil {
		return fmt.Errorf("insert region %q: %w", region.Code, err)
	}
	return nil
}

// classifyStorageErr maps storage failures onto sentinel errors so the
// engine's retry policy stays driver-agnostic. Serialization conflicts,
// deadlocks, and connection-class faults are transient; integrity violations
// are permanent.
func classifyStorageErr(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		state := pgErr.SQLState()
		switch {
		case state == "40001" || state == "40P01" || state == "57P01" || strings.HasPrefix(state, "08"):
			return fmt.Errorf("%s: %w: %s", op, sentinel.ErrUnavailable, pgErr.Message)
		case strings.HasPrefix(state, "23"):
			return fmt.Errorf("%s: %w: %s", op, sentinel.ErrConflict, pgErr.Message)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || pgconn.SafeToRetry(err) {
		return fmt.Errorf("%s: %w: %s", op, sentinel.ErrUnavailable, err.Error())
	}
	return fmt.Errorf("%s: %w", op, err)
}
