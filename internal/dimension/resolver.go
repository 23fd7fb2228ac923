package dimension

import (
	"context"
	"fmt"
	"log/slog"

	pstrings "indexly/pkg/platform/strings"
)

// Resolver owns the alias indices for one ingestion attempt. It is rebuilt
// from storage at attempt start and must not be shared across attempts: the
// attempt's transaction holds exclusive write scope over the dimension
// tables, which is what makes resolution deterministic and free of
// duplicate-creation races. Unique slug/code constraints back this invariant
// at the storage layer.
type Resolver struct {
	store  Store
	logger *slog.Logger

	itemTokens map[string]*Item
	slugs      map[string]*Item

	regionTokens map[string]*Region
	codes        map[string]*Region
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver loads every stored item and region and registers their slugs,
// codes, canonical names, and aliases under normalized tokens.
func NewResolver(ctx context.Context, store Store, opts ...ResolverOption) (*Resolver, error) {
	r := &Resolver{
		store:        store,
		logger:       slog.New(slog.DiscardHandler),
		itemTokens:   make(map[string]*Item),
		slugs:        make(map[string]*Item),
		regionTokens: make(map[string]*Region),
		codes:        make(map[string]*Region),
	}
	for _, opt := range opts {
		opt(r)
	}

	items, err := store.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	for _, item := range items {
		r.slugs[item.Slug] = item
		r.registerItem(item, item.Slug)
		r.registerItem(item, item.CanonicalName)
		for _, alias := range item.Aliases {
			r.registerItem(item, alias)
		}
	}

	regions, err := store.ListRegions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load regions: %w", err)
	}
	for _, region := range regions {
		r.codes[region.Code] = region
		r.registerRegion(region, region.Code)
		r.registerRegion(region, region.Name)
	}

	return r, nil
}

// ResolveItem maps a raw item alias to a canonical item ID, creating the item
// on first sight. A matched item gains the raw alias in its alias list unless
// an equivalent spelling is already recorded.
func (r *Resolver) ResolveItem(ctx context.Context, alias string, hint *ItemHint) (int64, error) {
	if item, ok := r.itemTokens[Token(alias)]; ok {
		if err := r.appendItemAlias(ctx, item, alias); err != nil {
			return 0, err
		}
		return item.ID, nil
	}

	// The slug form of this alias may have been seen under a different
	// phrasing; retry the lookup with the derived slug's token.
	slugCandidate := Slugify(alias)
	if hint != nil && hint.Slug != "" {
		slugCandidate = hint.Slug
	}
	if item, ok := r.itemTokens[Token(slugCandidate)]; ok {
		if err := r.appendItemAlias(ctx, item, alias); err != nil {
			return 0, err
		}
		return item.ID, nil
	}

	item := &Item{
		Slug:          r.uniqueSlug(slugCandidate),
		CanonicalName: alias,
		Aliases:       []string{alias},
	}
	if hint != nil {
		if hint.CanonicalName != "" {
			item.CanonicalName = hint.CanonicalName
		}
		item.Aliases = pstrings.DedupeBy(append(item.Aliases, hint.ExtraAliases...), Token)
	}
	if err := r.store.CreateItem(ctx, item); err != nil {
		return 0, fmt.Errorf("create item %q: %w", item.Slug, err)
	}

	r.slugs[item.Slug] = item
	r.registerItem(item, item.Slug)
	r.registerItem(item, item.CanonicalName)
	for _, a := range item.Aliases {
		r.registerItem(item, a)
	}
	r.logger.DebugContext(ctx, "created item", "slug", item.Slug, "alias", alias)
	return item.ID, nil
}

// ResolveRegion maps a raw region alias to a canonical region ID, creating
// the region on first sight.
func (r *Resolver) ResolveRegion(ctx context.Context, alias string, hint *RegionHint) (int64, error) {
	if region, ok := r.regionTokens[Token(alias)]; ok {
		return region.ID, nil
	}

	codeCandidate := Slugify(alias)
	if hint != nil && hint.Code != "" {
		codeCandidate = hint.Code
	}
	if region, ok := r.regionTokens[Token(codeCandidate)]; ok {
		return region.ID, nil
	}

	region := &Region{
		Code: r.uniqueCode(codeCandidate),
		Name: alias,
		Type: RegionTypeUnknown,
	}
	if hint != nil && hint.Type.Valid() && hint.Type != "" {
		region.Type = hint.Type
	}
	if err := r.store.CreateRegion(ctx, region); err != nil {
		return 0, fmt.Errorf("create region %q: %w", region.Code, err)
	}

	r.codes[region.Code] = region
	r.registerRegion(region, region.Code)
	r.registerRegion(region, alias)
	if hint != nil {
		for _, a := range hint.ExtraAliases {
			r.registerRegion(region, a)
		}
	}
	r.logger.DebugContext(ctx, "created region", "code", region.Code, "type", region.Type, "alias", alias)
	return region.ID, nil
}

func (r *Resolver) appendItemAlias(ctx context.Context, item *Item, alias string) error {
	token := Token(alias)
	for _, existing := range item.Aliases {
		if Token(existing) == token {
			return nil
		}
	}
	item.Aliases = append(item.Aliases, alias)
	if err := r.store.UpdateItemAliases(ctx, item.ID, item.Aliases); err != nil {
		return fmt.Errorf("append alias to item %q: %w", item.Slug, err)
	}
	r.registerItem(item, alias)
	return nil
}

func (r *Resolver) registerItem(item *Item, alias string) {
	r.itemTokens[Token(alias)] = item
}

func (r *Resolver) registerRegion(region *Region, alias string) {
	r.regionTokens[Token(alias)] = region
}

// uniqueSlug disambiguates a slug candidate with a numeric suffix; the first
// collision gets "-2".
func (r *Resolver) uniqueSlug(base string) string {
	if base == "" {
		base = "item"
	}
	candidate := base
	for counter := 1; ; counter++ {
		if _, taken := r.slugs[candidate]; !taken {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", base, counter+1)
	}
}

func (r *Resolver) uniqueCode(base string) string {
	if base == "" {
		base = "region"
	}
	candidate := base
	for counter := 1; ; counter++ {
		if _, taken := r.codes[candidate]; !taken {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", base, counter+1)
	}
}
