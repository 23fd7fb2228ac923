package source

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"indexly/internal/dimension"
)

// ArchiveAdapter parses the wholesale index releases, which arrive as a
// compressed archive holding one usable spreadsheet or delimited entry, or as
// a bare spreadsheet/delimited file. Spreadsheet entries take priority over
// delimited ones when the archive holds both.
type ArchiveAdapter struct{}

func (ArchiveAdapter) Kind() Kind { return KindDPIIT }

var archiveColumns = []columnGroup{
	{"item", []string{"item", "commodity", "product", "group", "sub_group", "series", "commodity_name"}},
	{"year", []string{"year", "financial_year", "yr"}},
	{"month", []string{"month", "month_name", "period"}},
	{"value", []string{"index", "wpi", "value", "level", "weighted_index"}},
	{"region", []string{"region", "state", "market", "centre", "location"}},
	{"sector", []string{"sector", "population", "segment"}},
}

func (a ArchiveAdapter) Parse(path string) ([]Observation, error) {
	rows, err := a.loadRows(path)
	if err != nil {
		return nil, err
	}
	return a.parseRows(rows)
}

func (a ArchiveAdapter) loadRows(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return a.loadArchiveRows(path)
	case ".xlsx", ".xls":
		return readXLSXRows(path, "")
	case ".csv":
		return readCSVFile(path)
	default:
		return nil, &SchemaError{Source: a.Kind(), Reason: fmt.Sprintf("unsupported resource type %q", filepath.Ext(path))}
	}
}

func (a ArchiveAdapter) loadArchiveRows(path string) ([][]string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer archive.Close()

	var entries []*zip.File
	for _, entry := range archive.File {
		if !entry.FileInfo().IsDir() {
			entries = append(entries, entry)
		}
	}
	if len(entries) == 0 {
		return nil, &SchemaError{Source: a.Kind(), Reason: "archive is empty"}
	}

	sort.Slice(entries, func(i, j int) bool {
		pi, pj := entryPriority(entries[i].Name), entryPriority(entries[j].Name)
		if pi != pj {
			return pi < pj
		}
		return entries[i].Name < entries[j].Name
	})

	selected := entries[0]
	if entryPriority(selected.Name) > 1 {
		return nil, &SchemaError{Source: a.Kind(), Reason: fmt.Sprintf("no usable entry in archive, best candidate %q", selected.Name)}
	}

	extracted, err := extractEntry(selected)
	if err != nil {
		return nil, err
	}
	defer os.Remove(extracted)

	if entryPriority(selected.Name) == 0 {
		return readXLSXRows(extracted, "")
	}
	return readCSVFile(extracted)
}

// entryPriority ranks archive entries: spreadsheet 0, delimited 1, other 2.
func entryPriority(name string) int {
	lowered := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lowered, ".xlsx"), strings.HasSuffix(lowered, ".xls"):
		return 0
	case strings.HasSuffix(lowered, ".csv"):
		return 1
	default:
		return 2
	}
}

func extractEntry(entry *zip.File) (string, error) {
	reader, err := entry.Open()
	if err != nil {
		return "", fmt.Errorf("open archive entry %q: %w", entry.Name, err)
	}
	defer reader.Close()

	tmp, err := os.CreateTemp("", "indexly-archive-*"+strings.ToLower(filepath.Ext(entry.Name)))
	if err != nil {
		return "", fmt.Errorf("create scratch file for %q: %w", entry.Name, err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, reader); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("extract archive entry %q: %w", entry.Name, err)
	}
	return tmp.Name(), nil
}

func (a ArchiveAdapter) parseRows(rows [][]string) ([]Observation, error) {
	if len(rows) == 0 {
		return nil, &SchemaError{Source: a.Kind(), Reason: "resource is empty"}
	}

	columns := discoverColumns(rows[0], archiveColumns)
	if missing := missingFields(columns, []string{"item", "year", "month", "value"}); len(missing) > 0 {
		return nil, missingColumnsError(a.Kind(), missing)
	}

	var observations []Observation
	for _, row := range rows[1:] {
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

		item := cell(row, columns["item"])
		if item == "" {
			item = "WPI All Commodities"
		}
		itemHint := OverrideFor(item, a.Kind())
		if itemHint == nil {
			itemHint = &dimension.ItemHint{
				Slug:          dimension.Slugify("wpi-" + item),
				CanonicalName: item,
			}
		}

		regionRaw := "All India"
		if idx, ok := columns["region"]; ok {
			if raw := cell(row, idx); raw != "" {
				regionRaw = raw
			}
		}
		regionAlias := regionRaw
		if idx, ok := columns["sector"]; ok {
			if sector := cell(row, idx); sector != "" &&
				!strings.Contains(strings.ToLower(regionRaw), strings.ToLower(sector)) {
				regionAlias = fmt.Sprintf("%s (%s)", regionRaw, sector)
			}
		}

		regionType := dimension.RegionTypeNation
		lowered := strings.ToLower(regionAlias)
		switch {
		case strings.Contains(lowered, "rural"):
			regionType = dimension.RegionTypeRural
		case strings.Contains(lowered, "urban"):
			regionType = dimension.RegionTypeUrban
		case !strings.Contains(lowered, "india"):
			regionType = dimension.RegionTypeState
		}

		regionHint := &dimension.RegionHint{Type: regionType}
		if regionAlias != regionRaw {
			regionHint.ExtraAliases = []string{regionRaw}
		}

		observations = append(observations, Observation{
			Source:      a.Kind(),
			ItemAlias:   item,
			RegionAlias: regionAlias,
			Year:        year,
			Month:       month,
			Value:       value,
			ItemHint:    itemHint,
			RegionHint:  regionHint,
		})
	}
	return observations, nil
}
