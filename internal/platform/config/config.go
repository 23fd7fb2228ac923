// Package config centralizes environment and file based configuration so the
// command wiring stays lean.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"

	"indexly/internal/pipeline"
)

// App captures process level configuration read from the environment.
type App struct {
	// DatabaseURL is the Postgres connection string. Empty means no storage
	// is wired and every run becomes a dry run.
	DatabaseURL string

	// DataDir is the root for downloaded source files and dry-run previews.
	DataDir string

	// MetricsAddr is the listen address for the operational HTTP surface.
	// Empty disables it.
	MetricsAddr string

	// Window is the accepted year range for observations.
	Window pipeline.Window
}

// FromEnv builds an App config from environment variables.
func FromEnv() (App, error) {
	app := App{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DataDir:     os.Getenv("INDEXLY_DATA_DIR"),
		MetricsAddr: os.Getenv("INDEXLY_METRICS_ADDR"),
		Window:      pipeline.DefaultWindow(),
	}
	if app.DataDir == "" {
		app.DataDir = "data"
	}

	var err error
	if app.Window.MinYear, err = yearFromEnv("INDEXLY_MIN_YEAR", app.Window.MinYear); err != nil {
		return App{}, err
	}
	if app.Window.MaxYear, err = yearFromEnv("INDEXLY_MAX_YEAR", app.Window.MaxYear); err != nil {
		return App{}, err
	}
	if app.Window.MinYear > app.Window.MaxYear {
		return App{}, fmt.Errorf("invalid year window %d..%d", app.Window.MinYear, app.Window.MaxYear)
	}
	return app, nil
}

func yearFromEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return year, nil
}

// LoadSources reads the per-kind source location lists from a YAML, JSON, or
// TOML file.
func LoadSources(path string) (pipeline.Sources, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return pipeline.Sources{}, fmt.Errorf("read sources config %s: %w", path, err)
	}

	srcs := pipeline.Sources{
		MOSPIAnnexes:     v.GetStringSlice("mospi_annexes"),
		DataGovResources: v.GetStringSlice("datagov_resources"),
		IMFSeries:        v.GetStringSlice("imf_series"),
		DPIITResources:   v.GetStringSlice("dpiit_resources"),
	}
	if srcs.Empty() {
		return pipeline.Sources{}, fmt.Errorf("sources config %s lists no source locations", path)
	}
	return srcs, nil
}
