package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"indexly/internal/source"
)

// previewColumns is the dry-run preview file header.
var previewColumns = []string{"item_alias", "region_alias", "year", "month", "index_value"}

// writePreview renders normalized rows to a flat file without touching
// storage.
func writePreview(observations []source.Observation, destination string) error {
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return fmt.Errorf("create preview directory: %w", err)
	}
	f, err := os.Create(destination)
	if err != nil {
		return fmt.Errorf("create preview %s: %w", destination, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(previewColumns); err != nil {
		return fmt.Errorf("write preview header: %w", err)
	}
	for _, obs := range observations {
		record := []string{
			obs.ItemAlias,
			obs.RegionAlias,
			fmt.Sprintf("%d", obs.Year),
			fmt.Sprintf("%d", obs.Month),
			obs.Value.String(),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write preview row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush preview %s: %w", destination, err)
	}
	return nil
}
