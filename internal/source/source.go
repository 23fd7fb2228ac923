// Package source parses raw files from the four upstream publishers into
// normalized observation records.
package source

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"indexly/internal/dimension"
)

// Kind tags a normalized observation with the publisher it came from.
type Kind string

const (
	KindMOSPI   Kind = "mospi"
	KindDataGov Kind = "data_gov"
	KindIMF     Kind = "imf"
	KindDPIIT   Kind = "dpiit"
)

// Kinds lists every source kind in pipeline processing order.
func Kinds() []Kind {
	return []Kind{KindMOSPI, KindDataGov, KindIMF, KindDPIIT}
}

// Observation is one normalized monthly reading prior to dimension
// resolution. Hints, when present, force deterministic canonical naming for
// well-known series.
type Observation struct {
	Source      Kind
	ItemAlias   string
	RegionAlias string
	Year        int
	Month       int
	Value       decimal.Decimal

	ItemHint   *dimension.ItemHint
	RegionHint *dimension.RegionHint
}

// Adapter parses one file format into observations. Parsing is restartable:
// calling Parse again re-reads the file from scratch.
type Adapter interface {
	Kind() Kind
	Parse(path string) ([]Observation, error)
}

// SchemaError reports a source file whose required field set cannot be
// resolved. It is fatal for the whole batch, unlike per-row coercion
// failures, which are silently dropped.
type SchemaError struct {
	Source Kind
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s schema error: %s", e.Source, e.Reason)
}

func missingColumnsError(kind Kind, missing []string) *SchemaError {
	return &SchemaError{Source: kind, Reason: "missing required columns: " + strings.Join(missing, ", ")}
}

// ForKind returns the adapter matching a source kind.
func ForKind(kind Kind) (Adapter, error) {
	switch kind {
	case KindMOSPI:
		return AnnexAdapter{}, nil
	case KindDataGov:
		return DelimitedAdapter{}, nil
	case KindIMF:
		return SeriesDocAdapter{}, nil
	case KindDPIIT:
		return ArchiveAdapter{}, nil
	}
	return nil, fmt.Errorf("unknown source kind %q", kind)
}
