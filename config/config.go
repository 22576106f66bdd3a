package config

import (
	"path/filepath"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	// Paths configuration
	Paths struct {
		// Root directory for downloaded and processed data
		DataDir string `env:"IMMOSCAN_DATA_DIR" envDefault:"data"`

		// Directory where spreadsheet reports are written
		ReportsDir string `env:"IMMOSCAN_REPORTS_DIR" envDefault:"outputs/reports"`
	}

	// Download configuration
	Download struct {
		// Timeout for URL availability probes (in seconds)
		ProbeTimeout int `env:"IMMOSCAN_PROBE_TIMEOUT" envDefault:"10"`

		// Timeout for DVF department file transfers (in seconds)
		DVFTimeout int `env:"IMMOSCAN_DVF_TIMEOUT" envDefault:"30"`

		// Timeout for rent indicator file transfers (in seconds)
		RentTimeout int `env:"IMMOSCAN_RENT_TIMEOUT" envDefault:"60"`
	}

	// Filters applied by the transaction cleaner
	Filters struct {
		// Minimum accepted price per square meter
		MinPriceM2 float64 `env:"IMMOSCAN_MIN_PRICE_M2" envDefault:"500"`

		// Maximum accepted price per square meter
		MaxPriceM2 float64 `env:"IMMOSCAN_MAX_PRICE_M2" envDefault:"25000"`

		// Minimum built surface in square meters (loi Carrez habitable minimum)
		MinSurface float64 `env:"IMMOSCAN_MIN_SURFACE" envDefault:"9"`
	}

	// URLs holds the data source configuration: built-in defaults merged
	// with the optional urls.toml override file. Never mutated after Load.
	URLs URLConfig
}

// Load builds the configuration from environment variables and merges the
// optional URL override file. A missing override file is a silent no-op.
func Load(overridePath string) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.URLs = DefaultURLs()
	if overridePath != "" {
		if err := cfg.URLs.MergeOverrideFile(overridePath); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// RawDataDir returns the directory holding raw downloaded CSV files.
func (c *Config) RawDataDir() string {
	return filepath.Join(c.Paths.DataDir, "raw")
}

// ProcessedDataDir returns the directory holding cleaned yearly snapshots.
func (c *Config) ProcessedDataDir() string {
	return filepath.Join(c.Paths.DataDir, "processed")
}
