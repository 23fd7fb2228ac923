package source

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"indexly/internal/dimension"
)

// DelimitedAdapter parses CPI/WPI resources published as delimited text.
// Rows carry an optional sector (rural/urban) alongside the state; the two
// combine into the region alias so "Delhi" urban and rural series stay
// distinct.
type DelimitedAdapter struct{}

func (DelimitedAdapter) Kind() Kind { return KindDataGov }

var delimitedColumns = []columnGroup{
	{"item", []string{"item", "commodity", "series", "series_name"}},
	{"state", []string{"state", "region", "location"}},
	{"sector", []string{"sector", "population", "segment"}},
	{"year", []string{"year", "fiscal_year"}},
	{"month", []string{"month", "period", "month_name"}},
	{"value", []string{"value", "index", "cpi", "wpi"}},
}

var titleCaser = cases.Title(language.English)

func (a DelimitedAdapter) Parse(path string) ([]Observation, error) {
	rows, err := readCSVFile(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &SchemaError{Source: a.Kind(), Reason: "resource is empty"}
	}

	columns := discoverColumns(rows[0], delimitedColumns)
	if missing := missingFields(columns, []string{"item", "state", "year", "month", "value"}); len(missing) > 0 {
		return nil, missingColumnsError(a.Kind(), missing)
	}

	var observations []Observation
	for _, row := range rows[1:] {
		item := cell(row, columns["item"])
		state := cell(row, columns["state"])
		if item == "" || state == "" {
			continue
		}
		year, err := strconv.Atoi(cell(row, columns["year"]))
		if err != nil {
			continue
		}
		month, err := MonthNumber(cell(row, columns["month"]))
		if err != nil {
			continue
		}
		value, err := decimal.NewFromString(cell(row, columns["value"]))
		if err != nil {
			continue
		}

		sector := "combined"
		if idx, ok := columns["sector"]; ok {
			if raw := cell(row, idx); raw != "" {
				sector = strings.ToLower(raw)
			}
		}

		regionAlias := state
		regionType := dimension.RegionTypeState
		var extraAliases []string
		if sector != "combined" {
			regionAlias = fmt.Sprintf("%s (%s)", state, titleCaser.String(sector))
			extraAliases = []string{state}
			if sector == "rural" || sector == "urban" {
				regionType = dimension.RegionType(sector)
			}
		}

		observations = append(observations, Observation{
			Source:      a.Kind(),
			ItemAlias:   item,
			RegionAlias: regionAlias,
			Year:        year,
			Month:       month,
			Value:       value,
			ItemHint:    OverrideFor(item, a.Kind()),
			RegionHint: &dimension.RegionHint{
				Code:         dimension.Slugify(regionAlias),
				Type:         regionType,
				ExtraAliases: extraAliases,
			},
		})
	}
	return observations, nil
}
