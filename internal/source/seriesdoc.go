package source

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"indexly/internal/dimension"
)

// SeriesDocAdapter parses structured series documents: a list of observation
// records found at a "series" or "data" key, or as a top-level list. Records
// carry either an ISO date or explicit year+month fields.
type SeriesDocAdapter struct{}

func (SeriesDocAdapter) Kind() Kind { return KindIMF }

func (a SeriesDocAdapter) Parse(path string) ([]Observation, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read series document %s: %w", path, err)
	}

	var raw any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, &SchemaError{Source: a.Kind(), Reason: "document is not valid JSON: " + err.Error()}
	}

	entries, err := seriesEntries(raw)
	if err != nil {
		return nil, &SchemaError{Source: a.Kind(), Reason: err.Error()}
	}

	var observations []Observation
	for _, entry := range entries {
		item := stringField(entry, "item", "indicator", "series")
		if item == "" {
			item = "IMF CPI"
		}
		region := stringField(entry, "region", "country")
		if region == "" {
			region = "All India"
		}

		year, month, ok := entryPeriod(entry)
		if !ok {
			continue
		}

		value, ok := entryValue(entry, "value", "obs_value")
		if !ok {
			continue
		}

		regionType := dimension.RegionTypeNation
		if declared := stringField(entry, "region_type"); declared != "" {
			regionType = parseRegionType(declared)
		}

		observations = append(observations, Observation{
			Source:      a.Kind(),
			ItemAlias:   item,
			RegionAlias: region,
			Year:        year,
			Month:       month,
			Value:       value,
			ItemHint:    OverrideFor(item, a.Kind()),
			RegionHint:  &dimension.RegionHint{Type: regionType},
		})
	}
	return observations, nil
}

func seriesEntries(raw any) ([]map[string]any, error) {
	var list []any
	switch v := raw.(type) {
	case map[string]any:
		if nested, ok := v["series"].([]any); ok {
			list = nested
		} else if nested, ok := v["data"].([]any); ok {
			list = nested
		} else {
			return nil, fmt.Errorf("no series or data list in document")
		}
	case []any:
		list = v
	default:
		return nil, fmt.Errorf("document is neither an object nor a list")
	}

	entries := make([]map[string]any, 0, len(list))
	for _, element := range list {
		if entry, ok := element.(map[string]any); ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// entryPeriod extracts (year, month) from explicit fields, falling back to an
// ISO date or period field.
func entryPeriod(entry map[string]any) (int, int, bool) {
	year, yearOK := intField(entry, "year")
	month := 0
	monthOK := false
	if token := stringField(entry, "month"); token != "" {
		if m, err := MonthNumber(token); err == nil {
			month, monthOK = m, true
		}
	}
	if yearOK && monthOK {
		return year, month, true
	}

	dateToken := stringField(entry, "date", "period")
	if dateToken == "" {
		return 0, 0, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if parsed, err := time.Parse(layout, dateToken); err == nil {
			return parsed.Year(), int(parsed.Month()), true
		}
	}
	return 0, 0, false
}

func entryValue(entry map[string]any, keys ...string) (decimal.Decimal, bool) {
	for _, key := range keys {
		switch v := entry[key].(type) {
		case float64:
			return decimal.NewFromFloat(v), true
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				if d, err := decimal.NewFromString(trimmed); err == nil {
					return d, true
				}
			}
		}
	}
	return decimal.Decimal{}, false
}

func stringField(entry map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := entry[key].(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func intField(entry map[string]any, key string) (int, bool) {
	switch v := entry[key].(type) {
	case float64:
		return int(v), true
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, true
		}
	}
	return 0, false
}
