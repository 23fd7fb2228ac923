package source

import (
	"strings"

	"indexly/internal/dimension"
)

// InferRegionType classifies a free-text region alias by substring. Sector
// markers win over geography; anything mentioning India without a sector is
// the national series; everything else is assumed to be a state.
func InferRegionType(alias string) dimension.RegionType {
	token := strings.ToLower(alias)
	switch {
	case strings.Contains(token, "urban"):
		return dimension.RegionTypeUrban
	case strings.Contains(token, "rural"):
		return dimension.RegionTypeRural
	case strings.Contains(token, "india"):
		return dimension.RegionTypeNation
	default:
		return dimension.RegionTypeState
	}
}

// parseRegionType maps a declared region type onto the known set, falling
// back to unknown rather than trusting arbitrary source strings.
func parseRegionType(value string) dimension.RegionType {
	t := dimension.RegionType(strings.ToLower(strings.TrimSpace(value)))
	if t.Valid() {
		return t
	}
	return dimension.RegionTypeUnknown
}
