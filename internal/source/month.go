package source

import (
	"fmt"
	"strconv"
	"strings"
)

// monthLookup keys on the first three letters of English month names.
var monthLookup = map[string]int{
	"jan": 1,
	"feb": 2,
	"mar": 3,
	"apr": 4,
	"may": 5,
	"jun": 6,
	"jul": 7,
	"aug": 8,
	"sep": 9,
	"oct": 10,
	"nov": 11,
	"dec": 12,
}

// MonthNumber converts month tokens (numerals, English names or
// abbreviations, case-insensitive) into 1-12.
func MonthNumber(token string) (int, error) {
	cleaned := strings.ToLower(strings.TrimSpace(token))
	if cleaned == "" {
		return 0, fmt.Errorf("empty month value")
	}
	if n, err := strconv.Atoi(cleaned); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("month %d out of range", n)
		}
		return n, nil
	}
	if len(cleaned) < 3 {
		return 0, fmt.Errorf("unsupported month value: %q", token)
	}
	n, ok := monthLookup[cleaned[:3]]
	if !ok {
		return 0, fmt.Errorf("unsupported month value: %q", token)
	}
	return n, nil
}
