package pipeline

import "indexly/internal/source"

// Window is the inclusive year range observations must fall in. Rows outside
// it are silently dropped; this is the only non-fatal row-level error class
// past parsing. Value coercion failures are already dropped at the adapters.
type Window struct {
	MinYear int
	MaxYear int
}

// DefaultWindow spans the dataset's full historical coverage.
func DefaultWindow() Window {
	return Window{MinYear: 1958, MaxYear: 2025}
}

// Contains reports whether a year falls inside the window.
func (w Window) Contains(year int) bool {
	return year >= w.MinYear && year <= w.MaxYear
}

// Filter returns the observations whose year falls inside the window.
func (w Window) Filter(observations []source.Observation) []source.Observation {
	kept := make([]source.Observation, 0, len(observations))
	for _, obs := range observations {
		if w.Contains(obs.Year) {
			kept = append(kept, obs)
		}
	}
	return kept
}
