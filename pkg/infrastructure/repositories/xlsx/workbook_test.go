package xlsx

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	testhelpers "github.com/vsinha/harvest/pkg/application/services/testing"
	"github.com/vsinha/harvest/pkg/domain/entities"
	"github.com/vsinha/harvest/pkg/infrastructure/repositories/csv"
)

func fixtureCountry(t *testing.T) *csv.Country {
	t.Helper()
	data := testhelpers.BuildCountryData()
	history, err := entities.NewEventLog(data.Schema, data.HistoryColumns, data.HistoryRows)
	require.NoError(t, err)
	return &csv.Country{
		Name:              "AT",
		Schema:            data.Schema,
		Inventory:         data.Inventory,
		Yields:            data.Yields,
		Treatments:        data.Treatments,
		CorrectionFactors: data.CorrectionFactors,
		Densities:         data.Densities,
		Demands:           data.Demands,
		History:           history,
	}
}

func TestWriteAndLoadCountryWorkbook(t *testing.T) {
	original := fixtureCountry(t)
	path := filepath.Join(t.TempDir(), "AT.xlsx")
	require.NoError(t, WriteCountry(path, original))

	loaded, err := NewLoader(nil).LoadCountry(path)
	require.NoError(t, err)

	assert.Equal(t, "AT", loaded.Name)
	assert.Equal(t, original.Schema, loaded.Schema)
	assert.Equal(t, original.Inventory, loaded.Inventory)
	assert.ElementsMatch(t, original.Yields, loaded.Yields)
	assert.Equal(t, original.Treatments, loaded.Treatments)
	assert.Equal(t, original.Demands, loaded.Demands)
	require.NotNil(t, loaded.History)
	assert.Equal(t, original.History.Rows(), loaded.History.Rows())
}

func TestLoadCountryWorkbook_MissingSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := NewLoader(nil).LoadCountry(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, csv.ErrTableNotFound)
}

func TestWriteEventLogWorkbook(t *testing.T) {
	country := fixtureCountry(t)
	path := filepath.Join(t.TempDir(), "events.xlsx")
	require.NoError(t, WriteEventLog(path, country.History))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{csv.TableEvents}, f.GetSheetList())
	rows, err := f.GetRows(csv.TableEvents)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, country.History.Columns(), rows[0])
}
