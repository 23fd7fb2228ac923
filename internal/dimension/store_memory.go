package dimension

import (
	"context"
	"fmt"
	"sync"

	"indexly/pkg/platform/sentinel"
)

// InMemoryStore keeps canonical entities in process memory. It backs unit
// tests and the in-memory ingest store; semantics mirror the Postgres store,
// including unique slug/code enforcement.
type InMemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	items   map[int64]*Item
	regions map[int64]*Region
}

// NewInMemory constructs an empty in-memory dimension store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		items:   make(map[int64]*Item),
		regions: make(map[int64]*Region),
	}
}

func (s *InMemoryStore) ListItems(_ context.Context) ([]*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Item, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, copyItem(item))
	}
	return out, nil
}

func (s *InMemoryStore) ListRegions(_ context.Context) ([]*Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Region, 0, len(s.regions))
	for _, region := range s.regions {
		copied := *region
		out = append(out, &copied)
	}
	return out, nil
}

func (s *InMemoryStore) CreateItem(_ context.Context, item *Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.Slug == item.Slug {
			return fmt.Errorf("insert item %q: %w", item.Slug, sentinel.ErrConflict)
		}
	}
	s.nextID++
	item.ID = s.nextID
	s.items[item.ID] = copyItem(item)
	return nil
}

func (s *InMemoryStore) UpdateItemAliases(_ context.Context, itemID int64, aliases []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return fmt.Errorf("update item %d aliases: %w", itemID, sentinel.ErrNotFound)
	}
	item.Aliases = append([]string(nil), aliases...)
	return nil
}

func (s *InMemoryStore) CreateRegion(_ context.Context, region *Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.regions {
		if existing.Code == region.Code {
			return fmt.Errorf("insert region %q: %w", region.Code, sentinel.ErrConflict)
		}
	}
	s.nextID++
	region.ID = s.nextID
	copied := *region
	s.regions[region.ID] = &copied
	return nil
}

// ItemCount returns the number of stored items.
func (s *InMemoryStore) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// RegionCount returns the number of stored regions.
func (s *InMemoryStore) RegionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.regions)
}

// Clone deep-copies the store. The in-memory ingest store stages dimension
// writes on a clone so a rolled-back attempt leaves no partial state.
func (s *InMemoryStore) Clone() *InMemoryStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &InMemoryStore{
		nextID:  s.nextID,
		items:   make(map[int64]*Item, len(s.items)),
		regions: make(map[int64]*Region, len(s.regions)),
	}
	for id, item := range s.items {
		clone.items[id] = copyItem(item)
	}
	for id, region := range s.regions {
		copied := *region
		clone.regions[id] = &copied
	}
	return clone
}

func copyItem(item *Item) *Item {
	copied := *item
	copied.Aliases = append([]string(nil), item.Aliases...)
	return &copied
}
