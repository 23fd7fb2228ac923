package dimension

// RegionType classifies the geographic or sector scope of a region.
type RegionType string

const (
	RegionTypeNation  RegionType = "nation"
	RegionTypeState   RegionType = "state"
	RegionTypeRural   RegionType = "rural"
	RegionTypeUrban   RegionType = "urban"
	RegionTypeUnknown RegionType = "unknown"
)

// Valid reports whether t is one of the known region types.
func (t RegionType) Valid() bool {
	switch t {
	case RegionTypeNation, RegionTypeState, RegionTypeRural, RegionTypeUrban, RegionTypeUnknown:
		return true
	}
	return false
}

// Item is a canonical statistical series (a tracked indicator or product
// group). The slug is unique; the alias list is append-only and records every
// raw label ever resolved to this item.
type Item struct {
	ID            int64
	Slug          string
	CanonicalName string
	Aliases       []string
}

// Region is a geographic or sector scope for a series. The code is unique.
type Region struct {
	ID   int64
	Code string
	Name string
	Type RegionType
}

// ItemHint carries canonical naming forced by a per-source override table.
// When set, entity creation uses these values instead of deriving them from
// the raw alias, so well-known series get deterministic slugs regardless of
// source phrasing.
type ItemHint struct {
	Slug          string
	CanonicalName string
	ExtraAliases  []string
}

// RegionHint carries region metadata known at parse time (code, inferred
// type, alternate spellings).
type RegionHint struct {
	Code         string
	Type         RegionType
	ExtraAliases []string
}
