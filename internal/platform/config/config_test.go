package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("INDEXLY_DATA_DIR", "")
	t.Setenv("INDEXLY_METRICS_ADDR", "")
	t.Setenv("INDEXLY_MIN_YEAR", "")
	t.Setenv("INDEXLY_MAX_YEAR", "")

	app, err := FromEnv()
	require.NoError(t, err)
	assert.Empty(t, app.DatabaseURL)
	assert.Equal(t, "data", app.DataDir)
	assert.Equal(t, 1958, app.Window.MinYear)
	assert.Equal(t, 2025, app.Window.MaxYear)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/indexly")
	t.Setenv("INDEXLY_DATA_DIR", "/var/lib/indexly")
	t.Setenv("INDEXLY_METRICS_ADDR", ":9402")
	t.Setenv("INDEXLY_MIN_YEAR", "2000")
	t.Setenv("INDEXLY_MAX_YEAR", "2024")

	app, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/indexly", app.DatabaseURL)
	assert.Equal(t, "/var/lib/indexly", app.DataDir)
	assert.Equal(t, ":9402", app.MetricsAddr)
	assert.Equal(t, 2000, app.Window.MinYear)
	assert.Equal(t, 2024, app.Window.MaxYear)
}

func TestFromEnvRejectsBadWindow(t *testing.T) {
	t.Setenv("INDEXLY_MIN_YEAR", "2025")
	t.Setenv("INDEXLY_MAX_YEAR", "2000")
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("INDEXLY_MIN_YEAR", "not a year")
	t.Setenv("INDEXLY_MAX_YEAR", "")
	_, err = FromEnv()
	assert.Error(t, err)
}

func TestLoadSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mospi_annexes:
  - https://example.org/annex.xlsx
datagov_resources:
  - /srv/data/cpi.csv
imf_series:
  - https://example.org/cpi.json
dpiit_resources:
  - https://example.org/wpi.zip
`), 0o644))

	srcs, err := LoadSources(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.org/annex.xlsx"}, srcs.MOSPIAnnexes)
	assert.Equal(t, []string{"/srv/data/cpi.csv"}, srcs.DataGovResources)
	assert.Len(t, srcs.IMFSeries, 1)
	assert.Len(t, srcs.DPIITResources, 1)
}

func TestLoadSourcesRejectsEmptyConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mospi_annexes: []\n"), 0o644))

	_, err := LoadSources(path)
	assert.Error(t, err)
}

func TestLoadSourcesMissingFile(t *testing.T) {
	_, err := LoadSources(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
