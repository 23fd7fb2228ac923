package ingest

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"indexly/internal/dimension"
)

type factKey struct {
	itemID   int64
	regionID int64
	date     time.Time
}

// InMemoryStore implements Store entirely in process memory. Transactions
// stage every write on cloned state and swap it in on commit, so a failed
// attempt leaves no partial raw, fact, or dimension changes — the same
// atomicity the Postgres store gets from a real transaction.
type InMemoryStore struct {
	mu    sync.Mutex
	dims  *dimension.InMemoryStore
	raw   []RawObservation
	facts map[factKey]SeriesFact
	runs  map[uuid.UUID]RunRecord
	now   func() time.Time
}

// NewInMemory constructs an empty in-memory ingest store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		dims:  dimension.NewInMemory(),
		facts: make(map[factKey]SeriesFact),
		runs:  make(map[uuid.UUID]RunRecord),
		now:   time.Now,
	}
}

func (s *InMemoryStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		dims:  s.dims.Clone(),
		raw:   append([]RawObservation(nil), s.raw...),
		facts: maps.Clone(s.facts),
		now:   s.now,
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.dims = tx.dims
	s.raw = tx.raw
	s.facts = tx.facts
	return nil
}

func (s *InMemoryStore) StartRun(_ context.Context, run *RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.RunID] = *run
	return nil
}

func (s *InMemoryStore) FinishRun(_ context.Context, run *RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.RunID] = *run
	return nil
}

func (s *InMemoryStore) Snapshot(_ context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &Snapshot{
		Items:   s.dims.ItemCount(),
		Regions: s.dims.RegionCount(),
	}
	for key := range s.facts {
		if key.date.After(snap.LatestFactDate) {
			snap.LatestFactDate = key.date
		}
	}
	return snap, nil
}

// RawCount returns the number of audit rows stored.
func (s *InMemoryStore) RawCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.raw)
}

// FactCount returns the number of distinct fact keys stored.
func (s *InMemoryStore) FactCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.facts)
}

// FactValue returns the stored value for a fact key.
func (s *InMemoryStore) FactValue(itemID, regionID int64, date time.Time) (decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fact, ok := s.facts[factKey{itemID, regionID, date.UTC()}]
	return fact.IndexValue, ok
}

// Runs returns every run record ordered by start time.
func (s *InMemoryStore) Runs() []RunRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

type memTx struct {
	dims  *dimension.InMemoryStore
	raw   []RawObservation
	facts map[factKey]SeriesFact
	now   func() time.Time
}

func (t *memTx) Dimensions() dimension.Store { return t.dims }

func (t *memTx) InsertRawObservations(_ context.Context, rows []RawObservation) error {
	for _, row := range rows {
		if row.IngestedAt.IsZero() {
			row.IngestedAt = t.now().UTC()
		}
		t.raw = append(t.raw, row)
	}
	return nil
}

func (t *memTx) UpsertFact(_ context.Context, fact SeriesFact) error {
	t.facts[factKey{fact.ItemID, fact.RegionID, fact.Date.UTC()}] = fact
	return nil
}
