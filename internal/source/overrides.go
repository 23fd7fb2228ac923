package source

import (
	"regexp"
	"strings"

	"indexly/internal/dimension"
)

// itemOverride pins a well-known series to a fixed slug and canonical name so
// every publisher's phrasing lands on the same item.
type itemOverride struct {
	slug      string
	canonical string
	aliases   []string
}

// cpiItemOverrides covers the headline CPI groups as published in the annex.
var cpiItemOverrides = map[string]itemOverride{
	"general": {"cpi-all-items", "CPI All Items", []string{"general index", "headline cpi"}},
	"food and beverages": {"cpi-food-and-beverages", "CPI Food & Beverages",
		[]string{"food beverages", "food and bev"}},
	"pan tobacco and intoxicants": {"cpi-pan-tobacco-intoxicants", "CPI Pan, Tobacco & Intoxicants", nil},
	"clothing and footwear":       {"cpi-clothing-footwear", "CPI Clothing & Footwear", nil},
	"housing":                     {"cpi-housing", "CPI Housing", nil},
	"fuel and light":              {"cpi-fuel-and-light", "CPI Fuel & Light", []string{"fuel & light", "fuel light"}},
	"miscellaneous":               {"cpi-miscellaneous", "CPI Miscellaneous", nil},
}

var wpiItemOverrides = map[string]itemOverride{
	"all commodities":       {"wpi-all-commodities", "WPI All Commodities", nil},
	"primary articles":      {"wpi-primary-articles", "WPI Primary Articles", nil},
	"fuel and power":        {"wpi-fuel-and-power", "WPI Fuel & Power", nil},
	"manufactured products": {"wpi-manufactured-products", "WPI Manufactured Products", []string{"manufactured goods"}},
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)

// normalizeItemKey reduces a raw label to the override table key: lower-case,
// "&" spelled out, parenthetical and slash suffixes cut, punctuation blanked,
// whitespace collapsed.
func normalizeItemKey(alias string) string {
	value := strings.ToLower(alias)
	value = strings.ReplaceAll(value, "&", " and ")
	value, _, _ = strings.Cut(value, "(")
	value, _, _ = strings.Cut(value, "/")
	value = nonAlnum.ReplaceAllString(value, " ")
	return strings.Join(strings.Fields(value), " ")
}

// OverrideFor returns the canonical naming hint for a well-known series
// label, or nil when the label is not in the source's override table. CPI
// tables apply to mospi/data_gov/imf, the WPI table to dpiit.
func OverrideFor(alias string, kind Kind) *dimension.ItemHint {
	key := normalizeItemKey(alias)

	var override itemOverride
	var ok bool
	switch kind {
	case KindMOSPI, KindDataGov, KindIMF:
		override, ok = cpiItemOverrides[key]
	case KindDPIIT:
		override, ok = wpiItemOverrides[key]
	}
	if !ok {
		return nil
	}
	return &dimension.ItemHint{
		Slug:          override.slug,
		CanonicalName: override.canonical,
		ExtraAliases:  append([]string(nil), override.aliases...),
	}
}
