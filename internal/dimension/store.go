package dimension

import "context"

// Store is the persistence seam for canonical entities. Implementations are
// views over the ingestion attempt's transaction: every create or alias
// append commits or rolls back with the rest of the attempt.
//
// Items and regions are never deleted by this pipeline; the only mutation is
// alias-list growth on items.
type Store interface {
	// ListItems returns every stored item so the resolver can seed its
	// alias indices at attempt start.
	ListItems(ctx context.Context) ([]*Item, error)

	// ListRegions returns every stored region.
	ListRegions(ctx context.Context) ([]*Region, error)

	// CreateItem inserts a new item and assigns its ID. The unique slug
	// constraint backs the resolver's duplicate-creation guarantee.
	CreateItem(ctx context.Context, item *Item) error

	// UpdateItemAliases replaces the stored alias list for an item.
	UpdateItemAliases(ctx context.Context, itemID int64, aliases []string) error

	// CreateRegion inserts a new region and assigns its ID. The unique code
	// constraint backs the resolver's duplicate-creation guarantee.
	CreateRegion(ctx context.Context, region *Region) error
}
