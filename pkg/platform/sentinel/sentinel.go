package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so services can translate them into the
// ingestion error taxonomy.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: permanent constraint violation (duplicate slug/code/fact key)
// - ErrUnavailable: transient storage failure (connection loss, serialization
//   conflict); the ingestion engine retries these with capped backoff
// - ErrInvalidState: entity in wrong state for requested operation
//
// Per-row data-quality failures (unparseable value, out-of-window year) are
// not errors at all: rows are dropped at the adapter or scope filter.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
