package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/vsinha/harvest/pkg/application/services/allocation"
	"github.com/vsinha/harvest/pkg/application/services/proportion"
	"github.com/vsinha/harvest/pkg/application/services/shared"
	"github.com/vsinha/harvest/pkg/domain/entities"
	"github.com/vsinha/harvest/pkg/infrastructure/logging"
)

// Output formats of the combined event table
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// Config holds the settings read from the environment. Command line
// flags override them.
type Config struct {
	RoundwoodRatio      float64  `env:"HARVEST_IRW_ARTIFICIAL_RATIO" envDefault:"1.0"`
	FuelwoodRatio       float64  `env:"HARVEST_FW_ARTIFICIAL_RATIO" envDefault:"1.0"`
	IgnoredDisturbances []string `env:"HARVEST_IGNORED_DISTURBANCES" envSeparator:","`
	Scenario            string   `env:"HARVEST_SCENARIO" envDefault:"static_demand"`
	LogLevel            string   `env:"HARVEST_LOG_LEVEL" envDefault:"info"`
	LogFormat           string   `env:"HARVEST_LOG_FORMAT" envDefault:"console"`
	OutputFormat        string   `env:"HARVEST_OUTPUT_FORMAT" envDefault:"csv"`
	SQLitePath          string   `env:"HARVEST_SQLITE_PATH"`
}

// Load parses the environment and validates the result
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every setting
func (c Config) Validate() error {
	if err := c.Allocation().Validate(); err != nil {
		return err
	}
	if _, err := c.Proportion(); err != nil {
		return err
	}
	if _, err := shared.ParseScenario(c.Scenario); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %q (expected json or console)", c.LogFormat)
	}
	switch strings.ToLower(c.OutputFormat) {
	case FormatCSV, FormatJSON, FormatXLSX:
	default:
		return fmt.Errorf("invalid output format: %q (expected csv, json or xlsx)", c.OutputFormat)
	}
	return nil
}

// Allocation returns the artificial demand ratios
func (c Config) Allocation() allocation.Config {
	return allocation.Config{RoundwoodRatio: c.RoundwoodRatio, FuelwoodRatio: c.FuelwoodRatio}
}

// Proportion returns the proportion builder settings. An empty ignore
// list keeps the default natural disturbances.
func (c Config) Proportion() (proportion.Config, error) {
	cfg := proportion.DefaultConfig()
	if len(c.IgnoredDisturbances) == 0 {
		return cfg, nil
	}
	cfg.IgnoredDisturbances = nil
	for _, raw := range c.IgnoredDisturbances {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		id, err := entities.ParseDisturbanceID(raw)
		if err != nil {
			return proportion.Config{}, fmt.Errorf("HARVEST_IGNORED_DISTURBANCES: %w", err)
		}
		cfg.IgnoredDisturbances = append(cfg.IgnoredDisturbances, id)
	}
	return cfg, nil
}
