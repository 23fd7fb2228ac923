package source

import (
	"strconv"

	"github.com/shopspring/decimal"

	"indexly/internal/dimension"
)

// AnnexAdapter parses the spreadsheet annex attached to the monthly CPI
// release. Data lives on the sheet named "Table 1" when present.
type AnnexAdapter struct{}

func (AnnexAdapter) Kind() Kind { return KindMOSPI }

var annexColumns = []columnGroup{
	{"item", []string{"item", "item_name", "description"}},
	{"region", []string{"state", "region", "sector"}},
	{"year", []string{"year"}},
	{"month", []string{"month"}},
	{"value", []string{"index", "cpi", "value"}},
}

func (a AnnexAdapter) Parse(path string) ([]Observation, error) {
	rows, err := readXLSXRows(path, "Table 1")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &SchemaError{Source: a.Kind(), Reason: "annex sheet is empty"}
	}

	columns := discoverColumns(rows[0], annexColumns)
	if missing := missingFields(columns, []string{"item", "region", "year", "month", "value"}); len(missing) > 0 {
		return nil, missingColumnsError(a.Kind(), missing)
	}

	var observations []Observation
	for _, row := range rows[1:] {
		item := cell(row, columns["item"])
		region := cell(row, columns["region"])
		if item == "" || region == "" {
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

		observations = append(observations, Observation{
			Source:      a.Kind(),
			ItemAlias:   item,
			RegionAlias: region,
			Year:        year,
			Month:       month,
			Value:       value,
			ItemHint:    OverrideFor(item, a.Kind()),
			RegionHint:  &dimension.RegionHint{Type: InferRegionType(region)},
		})
	}
	return observations, nil
}
