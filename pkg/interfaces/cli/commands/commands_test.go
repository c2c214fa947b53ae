package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vsinha/harvest/pkg/application/services/orchestration"
	"github.com/vsinha/harvest/pkg/domain/entities"
	"github.com/vsinha/harvest/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/harvest/pkg/infrastructure/repositories/sqlite"
	"github.com/vsinha/harvest/pkg/interfaces/cli/config"
)

func testSettings() config.Config {
	return config.Config{
		RoundwoodRatio: 1,
		FuelwoodRatio:  1,
		Scenario:       "static_demand",
		LogLevel:       "error",
		LogFormat:      "console",
		OutputFormat:   config.FormatCSV,
	}
}

func generateCountry(t *testing.T, dir, country, format string) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewGenerateCommand(GenerateConfig{
		Country:     country,
		ForestTypes: 4,
		Steps:       2,
		DemandScale: 1,
		History:     true,
		Format:      format,
		OutputDir:   dir,
		Seed:        42,
	}).WithOutput(&out)
	require.NoError(t, cmd.Execute(context.Background()))
}

func allocate(t *testing.T, cfg AllocateConfig) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := NewAllocateCommand(cfg).
		WithOutput(&out).
		WithLogger(zap.NewNop()).
		Execute(context.Background())
	return out.String(), err
}

func TestGenerateCommand_SeedIsReproducible(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	generateCountry(t, first, "ZZ", "csv")
	generateCountry(t, second, "ZZ", "csv")

	for _, table := range []string{csv.TableInventory, csv.TableTreatments, csv.TableDemand, csv.TableEvents} {
		a, err := os.ReadFile(filepath.Join(first, "ZZ", table+".csv"))
		require.NoError(t, err, table)
		b, err := os.ReadFile(filepath.Join(second, "ZZ", table+".csv"))
		require.NoError(t, err, table)
		assert.Equal(t, string(a), string(b), table)
	}
}

func TestGenerateCommand_CountryLoadsBack(t *testing.T) {
	dir := t.TempDir()
	generateCountry(t, dir, "ZZ", "csv")

	country, err := csv.NewLoader(nil).LoadCountry(filepath.Join(dir, "ZZ"))
	require.NoError(t, err)
	assert.Equal(t, "ZZ", country.Name)
	assert.Len(t, country.Inventory, 4*12)
	assert.Len(t, country.Treatments, 4*3)
	assert.Len(t, country.Demands, 2*4)
	require.NotNil(t, country.History)
	assert.Equal(t, 4, country.History.Len())
}

func TestGenerateCommand_Validation(t *testing.T) {
	cmd := NewGenerateCommand(GenerateConfig{Country: "ZZ", OutputDir: t.TempDir(), ForestTypes: 1, Steps: 1, DemandScale: 1})
	err := cmd.WithOutput(&bytes.Buffer{}).Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forest types")
}

func TestAllocateCommand_GeneratedCountry(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	generateCountry(t, in, "ZZ", "csv")

	summary, err := allocate(t, AllocateConfig{
		Settings:  testSettings(),
		InputDir:  filepath.Join(in, "ZZ"),
		OutputDir: out,
	})
	require.NoError(t, err)
	assert.Contains(t, summary, "ZZ")
	assert.Contains(t, summary, "Events:")

	combined := filepath.Join(out, "ZZ", csv.CombinedEventsFile)
	records, err := csv.ReadFile(combined)
	require.NoError(t, err)
	// header, four historical rows, then new events
	assert.Greater(t, len(records), 5)
}

func TestAllocateCommand_Workbook(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	generateCountry(t, in, "ZZ", "xlsx")

	_, err := allocate(t, AllocateConfig{
		Settings:  testSettings(),
		InputDir:  filepath.Join(in, "ZZ.xlsx"),
		OutputDir: out,
	})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "ZZ", csv.CombinedEventsFile))
}

func TestAllocateCommand_FailingCountryDoesNotStopOthers(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	generateCountry(t, in, "AA", "csv")
	generateCountry(t, in, "BB", "csv")
	require.NoError(t, os.Remove(filepath.Join(in, "BB", csv.TableDemand+".csv")))

	_, err := allocate(t, AllocateConfig{
		Settings:  testSettings(),
		InputDir:  in,
		OutputDir: out,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, csv.ErrTableNotFound)
	assert.Contains(t, err.Error(), "BB")

	assert.FileExists(t, filepath.Join(out, "AA", csv.CombinedEventsFile))
	assert.NoFileExists(t, filepath.Join(out, "BB", csv.CombinedEventsFile))
}

func TestAllocateCommand_FailingRunDoesNotStopOthers(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	generateCountry(t, in, "AA", "csv")
	generateCountry(t, in, "BB", "csv")
	densities := filepath.Join(in, "AA", csv.TableCoefficients+".csv")
	require.NoError(t, os.WriteFile(densities, []byte("forest_type,density\n"), 0o644))

	_, err := allocate(t, AllocateConfig{
		Settings:  testSettings(),
		InputDir:  in,
		OutputDir: out,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrMissingCoefficient)
	assert.Equal(t, entities.ErrMissingCoefficient, orchestration.Classify(err))
	assert.Contains(t, err.Error(), "AA")

	assert.NoFileExists(t, filepath.Join(out, "AA", csv.CombinedEventsFile))
	assert.FileExists(t, filepath.Join(out, "BB", csv.CombinedEventsFile))
}

func TestAllocateCommand_CountryFilter(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	generateCountry(t, in, "AA", "csv")
	generateCountry(t, in, "BB", "csv")

	_, err := allocate(t, AllocateConfig{
		Settings:  testSettings(),
		InputDir:  in,
		Countries: []string{"BB"},
		OutputDir: out,
	})
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(out, "AA", csv.CombinedEventsFile))
	assert.FileExists(t, filepath.Join(out, "BB", csv.CombinedEventsFile))
}

func TestAllocateCommand_SQLiteAccumulatesRuns(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	generateCountry(t, in, "ZZ", "csv")

	settings := testSettings()
	settings.SQLitePath = filepath.Join(t.TempDir(), "harvest.db")
	cfg := AllocateConfig{Settings: settings, InputDir: filepath.Join(in, "ZZ"), OutputDir: out}

	history := func() int {
		store, err := sqlite.Open(settings.SQLitePath)
		require.NoError(t, err)
		defer store.Close()
		log, err := store.LoadHistory(context.Background(), "ZZ", entities.DefaultClassifierSchema)
		require.NoError(t, err)
		require.NotNil(t, log)
		return log.Len()
	}

	_, err := allocate(t, cfg)
	require.NoError(t, err)
	afterFirst := history()
	newEvents := afterFirst - 4
	require.Positive(t, newEvents)

	_, err = allocate(t, cfg)
	require.NoError(t, err)
	assert.Equal(t, 4+2*newEvents, history())
}

func TestAllocateCommand_XLSXNeedsOutputDir(t *testing.T) {
	settings := testSettings()
	settings.OutputFormat = config.FormatXLSX
	_, err := allocate(t, AllocateConfig{Settings: settings, InputDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output directory")
}

func TestAllocateCommand_Help(t *testing.T) {
	out, err := allocate(t, AllocateConfig{Help: true})
	require.NoError(t, err)
	assert.Contains(t, out, "USAGE")
}
