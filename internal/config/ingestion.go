package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Ingestion holds the pull-pipeline settings read from the YAML symbols file.
type Ingestion struct {
	Symbols             []string `yaml:"symbols"`
	PollIntervalSeconds int      `yaml:"poll_interval_seconds"`
	BatchTimeInterval   string   `yaml:"batch_time_interval"`
	StartDate           string   `yaml:"start_date"`
}

// IngestionOverride mutates the loaded settings; applied after the file.
type IngestionOverride func(*Ingestion)

func WithSymbols(symbols []string) IngestionOverride {
	return func(c *Ingestion) { c.Symbols = symbols }
}

func WithStartDate(d string) IngestionOverride {
	return func(c *Ingestion) { c.StartDate = d }
}

func defaultIngestion() Ingestion {
	return Ingestion{
		Symbols:             []string{"AAPL", "MSFT"},
		PollIntervalSeconds: 1,
		BatchTimeInterval:   "1day",
	}
}

// LoadIngestion reads the YAML file at path when it exists, falling back to
// defaults otherwise, then applies overrides on top.
func LoadIngestion(path string, overrides ...IngestionOverride) (Ingestion, error) {
	cfg := defaultIngestion()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Ingestion{}, fmt.Errorf("parse ingestion config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// keep defaults
	default:
		return Ingestion{}, fmt.Errorf("read ingestion config: %w", err)
	}

	for _, o := range overrides {
		o(&cfg)
	}
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = defaultIngestion().Symbols
	}
	if cfg.BatchTimeInterval == "" {
		cfg.BatchTimeInterval = defaultIngestion().BatchTimeInterval
	}
	return cfg, nil
}
