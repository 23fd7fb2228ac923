package ingest

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RawObservation is the immutable audit copy of one ingested row prior to
// dimension resolution. Append-only; never updated or deleted.
type RawObservation struct {
	SourceFile  string
	ItemAlias   string
	RegionAlias string
	Year        int
	Month       int
	RawValue    decimal.Decimal
	IngestedAt  time.Time
}

// SeriesFact is one resolved monthly index value, unique per
// (item, region, first-of-month date). Values are last-write-wins across
// repeated ingestions of overlapping periods.
type SeriesFact struct {
	ItemID     int64
	RegionID   int64
	Date       time.Time
	IndexValue decimal.Decimal
}

// FactDate normalizes a year and month to the first-of-month UTC date used
// as part of the fact key.
func FactDate(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// RunStatus is the lifecycle state of one ingestion attempt.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// RunRecord is the audit row for one ingestion invocation. It is persisted
// with status running before work begins and finalized when the attempt
// ends, so a crash mid-attempt still leaves evidence the attempt started.
type RunRecord struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Status     RunStatus
	Checksum   string
	Log        string
}

// Snapshot is the post-ingestion validation view: entity counts and the most
// recent fact date (zero when no facts exist).
type Snapshot struct {
	Items          int       `json:"items"`
	Regions        int       `json:"regions"`
	LatestFactDate time.Time `json:"latest_fact_date"`
}
