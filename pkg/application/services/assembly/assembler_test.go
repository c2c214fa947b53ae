package assembly

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/harvest/pkg/application/services/allocation"
	testhelpers "github.com/vsinha/harvest/pkg/application/services/testing"
	"github.com/vsinha/harvest/pkg/domain/entities"
)

func concreteAllocations(t *testing.T, fuelwood float64) ([]entities.RoundwoodAllocation, []entities.FuelwoodAllocation) {
	t.Helper()
	allocator := allocation.NewAllocator(nil)
	demands := testhelpers.BuildConcreteDemand(fuelwood)
	rules := testhelpers.BuildConcreteRules()
	rw, err := allocator.AllocateRoundwood(demands, rules)
	require.NoError(t, err)
	fw, err := allocator.AllocateFuelwood(demands, rules, rw)
	require.NoError(t, err)
	return rw, fw.Allocations
}

func TestBuildEvents_ConcreteScenario(t *testing.T) {
	rw, fw := concreteAllocations(t, 80)
	events, err := NewAssembler(entities.DefaultClassifierSchema, nil).BuildEvents(rw, fw)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.InDelta(t, 150.0, events[0].Amount, 1e-9)
	assert.InDelta(t, 100.0, events[1].Amount, 1e-9)

	e := events[0]
	assert.Equal(t, entities.DisturbanceID("20"), e.DistTypeName)
	assert.Equal(t, 1, e.Step)
	assert.False(t, e.UsingID)
	assert.Equal(t, entities.MeasurementMass, e.MeasurementType)
	assert.Equal(t, entities.Unconstrained, e.LastDistID)
	for i, b := range e.Bounds {
		assert.Equal(t, float64(entities.Unconstrained), b, entities.BoundColumns[i])
	}
	assert.Equal(t, e.SWStart, e.HWStart)
	assert.Equal(t, e.SWEnd, e.HWEnd)
	assert.Equal(t, 40, e.SWStart)
	assert.Equal(t, 120, e.SWEnd)
	assert.Equal(t, 10, e.MinSinceLastDist)

	assert.Equal(t, entities.ClassifierPlaceholder, e.Classifiers.Get(entities.ClassifierRegion))
	assert.Equal(t, entities.ClassifierPlaceholder, e.Classifiers.Get(entities.ClassifierClimaticUnit))
	assert.Equal(t, "PA", e.Classifiers.Get(entities.ClassifierForestType))
	assert.Equal(t, entities.ForestStatus, e.Classifiers.Get(entities.ClassifierStatus))
}

func TestBuildEvents_RoundwoodBeforeFuelwood(t *testing.T) {
	rw, fw := concreteAllocations(t, 265)
	events, err := NewAssembler(entities.DefaultClassifierSchema, nil).BuildEvents(rw, fw)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, entities.DisturbanceID("13"), events[2].DistTypeName)
	assert.InDelta(t, 25.0, events[2].Amount, 1e-9)
}

func TestBuildEvents_RejectsRandomSort(t *testing.T) {
	rw, fw := concreteAllocations(t, 80)
	rw[1].Rule.SortType = entities.SortRandom

	_, err := NewAssembler(entities.DefaultClassifierSchema, nil).BuildEvents(rw, fw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrSchemaViolation))

	var schemaErr *entities.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []entities.DisturbanceID{"22"}, schemaErr.DisturbanceTypes)
	assert.Contains(t, err.Error(), "22")
}

func TestAssemble_AppendsToHistory(t *testing.T) {
	data := testhelpers.BuildCountryData()
	history, err := entities.NewEventLog(data.Schema, data.HistoryColumns, data.HistoryRows)
	require.NoError(t, err)

	rw, fw := concreteAllocations(t, 80)
	result, err := NewAssembler(data.Schema, nil).Assemble(history, rw, fw)
	require.NoError(t, err)

	assert.Equal(t, 2, history.Len(), "history must not be modified")
	assert.Equal(t, 4, result.Combined.Len())
	assert.Equal(t, data.HistoryColumns, result.Combined.Columns())
	assert.Equal(t, data.HistoryRows, result.Combined.Rows()[:2])
	assert.Len(t, result.Events, 2)
}

func TestAssemble_FollowsHistoricalColumnOrder(t *testing.T) {
	schema := entities.DefaultClassifierSchema
	cols := []string{"step", "dist_type_name", "amount", "forest_type", "conifers_broadleaves", "status"}
	history, err := entities.NewEventLog(schema, cols, nil)
	require.NoError(t, err)

	rw, fw := concreteAllocations(t, 80)
	result, err := NewAssembler(schema, nil).Assemble(history, rw, fw)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "20", "150", "PA", "Con", "For"}, result.Combined.Rows()[0])
}

func TestAssemble_WithoutHistory(t *testing.T) {
	rw, fw := concreteAllocations(t, 80)
	schema := entities.DefaultClassifierSchema
	result, err := NewAssembler(schema, nil).Assemble(nil, rw, fw)
	require.NoError(t, err)
	assert.Equal(t, entities.EventColumns(schema), result.Combined.Columns())
	assert.Equal(t, 2, result.Combined.Len())
}

func TestAssemble_InvalidDensity(t *testing.T) {
	rw, fw := concreteAllocations(t, 80)
	rw[0].Rule.Density = 0
	_, err := NewAssembler(entities.DefaultClassifierSchema, nil).Assemble(nil, rw, fw)
	assert.True(t, errors.Is(err, entities.ErrMissingCoefficient))
}

func TestAutoAllocation(t *testing.T) {
	base := entities.DisturbanceEvent{
		Classifiers:  entities.Classifiers{"status": "For", "conifers_broadleaves": "Con", "forest_type": "PA"},
		DistTypeName: "20",
		Step:         1,
		Efficiency:   1,
	}
	a := base
	a.Amount, a.SWStart, a.SWEnd, a.HWStart, a.HWEnd, a.SortType = 100, 40, 100, 40, 100, 3
	b := base
	b.Classifiers = entities.Classifiers{"status": "For", "conifers_broadleaves": "Con", "forest_type": "FS"}
	b.Amount, b.SWStart, b.SWEnd, b.HWStart, b.HWEnd, b.SortType = 50, 30, 120, 30, 120, 2
	c := base
	c.Step = 2
	c.Amount, c.SortType = 7, 2

	rows := AutoAllocation([]entities.DisturbanceEvent{c, a, b})
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, 1, first.Step)
	assert.InDelta(t, 150.0, first.Amount, 1e-9)
	assert.Equal(t, 30, first.SWStart)
	assert.Equal(t, 120, first.SWEnd)
	assert.Equal(t, 30, first.HWStart)
	assert.Equal(t, 120, first.HWEnd)
	assert.Equal(t, entities.SortType(2), first.SortType, "ties keep the smallest sort type")

	assert.Equal(t, 2, rows[1].Step)
	assert.InDelta(t, 7.0, rows[1].Amount, 1e-9)
}
