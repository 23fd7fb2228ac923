package source

import "strings"

// columnGroup maps a canonical field to its candidate header names in
// priority order: the first candidate present in the file wins.
type columnGroup struct {
	field      string
	candidates []string
}

// normalizeHeader lowers a header cell and converts spaces to underscores so
// candidate matching is insensitive to publisher formatting.
func normalizeHeader(header string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(header)), " ", "_")
}

// discoverColumns matches a header row against candidate-name groups and
// returns canonical field -> column index. Fields with no matching candidate
// are absent from the result; callers enforce their own required sets.
func discoverColumns(header []string, groups []columnGroup) map[string]int {
	indexByName := make(map[string]int, len(header))
	for i, cell := range header {
		name := normalizeHeader(cell)
		if _, seen := indexByName[name]; !seen {
			indexByName[name] = i
		}
	}

	columns := make(map[string]int, len(groups))
	for _, group := range groups {
		for _, candidate := range group.candidates {
			if idx, ok := indexByName[candidate]; ok {
				columns[group.field] = idx
				break
			}
		}
	}
	return columns
}

// missingFields returns the required fields absent from a discovery result,
// in the order given.
func missingFields(columns map[string]int, required []string) []string {
	var missing []string
	for _, field := range required {
		if _, ok := columns[field]; !ok {
			missing = append(missing, field)
		}
	}
	return missing
}

// cell returns the trimmed value at idx, tolerating ragged rows.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
