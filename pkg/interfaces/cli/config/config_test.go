package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/harvest/pkg/domain/entities"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1.0, cfg.RoundwoodRatio)
	assert.Equal(t, 1.0, cfg.FuelwoodRatio)
	assert.Equal(t, "static_demand", cfg.Scenario)
	assert.Equal(t, FormatCSV, cfg.OutputFormat)

	prop, err := cfg.Proportion()
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultIgnoredDisturbances, prop.IgnoredDisturbances)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HARVEST_IRW_ARTIFICIAL_RATIO", "1.5")
	t.Setenv("HARVEST_FW_ARTIFICIAL_RATIO", "0.5")
	t.Setenv("HARVEST_IGNORED_DISTURBANCES", "7.0, DISTID1")
	t.Setenv("HARVEST_OUTPUT_FORMAT", "xlsx")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1.5, cfg.Allocation().RoundwoodRatio)
	assert.Equal(t, 0.5, cfg.Allocation().FuelwoodRatio)

	prop, err := cfg.Proportion()
	require.NoError(t, err)
	assert.Equal(t, []entities.DisturbanceID{"7", "DISTID1"}, prop.IgnoredDisturbances)
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]string{
		"HARVEST_IRW_ARTIFICIAL_RATIO": "not-a-number",
		"HARVEST_FW_ARTIFICIAL_RATIO":  "-1",
		"HARVEST_SCENARIO":             "calibration",
		"HARVEST_LOG_FORMAT":           "xml",
		"HARVEST_OUTPUT_FORMAT":        "parquet",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
			if strings.Contains(key, "IRW") {
				assert.Contains(t, err.Error(), "parse env:")
			}
		})
	}
}
