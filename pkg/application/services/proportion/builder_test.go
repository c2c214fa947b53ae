package proportion

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testhelpers "github.com/vsinha/harvest/pkg/application/services/testing"
	"github.com/vsinha/harvest/pkg/domain/entities"
)

func countryInputs() Inputs {
	data := testhelpers.BuildCountryData()
	return Inputs{
		Schema:            data.Schema,
		Inventory:         data.Inventory,
		Yields:            data.Yields,
		Treatments:        data.Treatments,
		CorrectionFactors: data.CorrectionFactors,
		Densities:         data.Densities,
	}
}

func findRule(rules []entities.AllocationRule, dist entities.DisturbanceID, forestType string) *entities.AllocationRule {
	for i := range rules {
		if rules[i].DisturbanceID == dist && rules[i].Classifiers.Get(entities.ClassifierForestType) == forestType {
			return &rules[i]
		}
	}
	return nil
}

func TestBuilder_StockByYield(t *testing.T) {
	rows, err := NewBuilder(nil).StockByYield(countryInputs())
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, 60, rows[0].Age)
	assert.InDelta(t, 30000.0, rows[0].Stock, 1e-9)
	assert.InDelta(t, 8000.0, rows[3].Stock, 1e-9)
}

func TestBuilder_StockAvailableByAge(t *testing.T) {
	rows, err := NewBuilder(nil).StockAvailableByAge(countryInputs())
	require.NoError(t, err)
	require.Len(t, rows, 5, "young stands and ignored disturbances must be filtered")

	for _, row := range rows {
		assert.Greater(t, row.Age, row.Treatment.MinAge)
		assert.Less(t, row.Age, row.Treatment.MaxAge)
		assert.NotEqual(t, entities.DisturbanceID("7"), row.Treatment.DisturbanceID)
	}
}

func TestBuilder_Build(t *testing.T) {
	rules, err := NewBuilder(nil).Build(countryInputs())
	require.NoError(t, err)
	require.Len(t, rules, 5)

	tests := []struct {
		dist       entities.DisturbanceID
		forestType string
		category   string
		stock      float64
		prop       float64
		density    float64
	}{
		{"20", "PA", "irw_c", 3000, 6.0 / 7.0, 0.4},
		{"20", "FS", "irw_c", 500, 1.0 / 7.0, 0.45},
		{"13", "PA", "fw_c", 1200, 1, 0.4},
		{"20", "QR", "irw_b", 1600, 1, 0.6},
		{"13", "QR", "fw_b", 640, 1, 0.6},
	}
	for _, tt := range tests {
		rule := findRule(rules, tt.dist, tt.forestType)
		require.NotNil(t, rule, "rule %s/%s", tt.dist, tt.forestType)
		assert.Equal(t, tt.category, rule.Category.String())
		assert.InDelta(t, tt.stock, rule.StockAvailable, 1e-6)
		assert.InDelta(t, tt.prop, rule.Prop, 1e-12)
		assert.Equal(t, tt.density, rule.Density)
		assert.Equal(t, entities.ForestStatus, rule.Classifiers.Get(entities.ClassifierStatus))
	}

	assert.Equal(t, "fw_b", rules[0].Category.String(), "rules must be sorted by category")
}

func TestBuilder_PropsSumToOnePerCategory(t *testing.T) {
	rules, err := NewBuilder(nil).Build(countryInputs())
	require.NoError(t, err)

	sums := make(map[entities.ProductCategory]float64)
	for _, r := range rules {
		sums[r.Category] += r.Prop
	}
	for cat, sum := range sums {
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("props of %s sum to %v, want 1", cat, sum)
		}
	}
}

func TestBuilder_NonUniqueStatus(t *testing.T) {
	in := countryInputs()
	in.Treatments[1].Classifiers = in.Treatments[1].Classifiers.Clone()
	in.Treatments[1].Classifiers[entities.ClassifierStatus] = "CC"

	_, err := NewBuilder(nil).Build(in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrDataInconsistency))
	assert.Contains(t, err.Error(), "CC")
}

func TestBuilder_NonUniqueStatusOnNaturalDisturbance(t *testing.T) {
	in := countryInputs()
	natural := in.Treatments[5]
	require.Equal(t, entities.DisturbanceID("7"), natural.DisturbanceID)
	natural.Classifiers = natural.Classifiers.Clone()
	natural.Classifiers[entities.ClassifierStatus] = "CC"

	_, err := NewBuilder(nil).Build(in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrDataInconsistency))
	assert.Contains(t, err.Error(), "CC")
}

func TestBuilder_MissingCorrectionFactor(t *testing.T) {
	in := countryInputs()
	in.CorrectionFactors = in.CorrectionFactors[:2]

	_, err := NewBuilder(nil).Build(in)
	assert.True(t, errors.Is(err, entities.ErrDataInconsistency))
}

func TestBuilder_MissingDensity(t *testing.T) {
	in := countryInputs()
	in.Densities = in.Densities[1:]

	_, err := NewBuilder(nil).Build(in)
	assert.True(t, errors.Is(err, entities.ErrMissingCoefficient))
}

func TestBuilder_ZeroMinSinceLast(t *testing.T) {
	in := countryInputs()
	// stop ignoring the natural disturbance whose min_since_last is zero
	b := NewBuilderWithConfig(Config{IgnoredDisturbances: []entities.DisturbanceID{"5"}}, nil)

	_, err := b.Build(in)
	assert.True(t, errors.Is(err, entities.ErrMissingCoefficient))
}

func TestBuilder_ZeroStockTotal(t *testing.T) {
	in := countryInputs()
	for _, tr := range in.Treatments {
		if tr.Category.String() == "fw_c" {
			tr.PercentRemoved = 0
		}
	}

	_, err := NewBuilder(nil).Build(in)
	assert.True(t, errors.Is(err, entities.ErrMissingCoefficient))
}

func TestBuilder_ConflictingTreatmentAttributes(t *testing.T) {
	in := countryInputs()
	dup := *in.Treatments[0]
	dup.Efficiency = 0.5
	in.Treatments = append(in.Treatments, &dup)

	_, err := NewBuilder(nil).Build(in)
	assert.True(t, errors.Is(err, entities.ErrDataInconsistency))
}

func TestBuilder_DuplicateYield(t *testing.T) {
	in := countryInputs()
	in.Yields = append(in.Yields, in.Yields[0])

	_, err := NewBuilder(nil).Build(in)
	assert.True(t, errors.Is(err, entities.ErrDataInconsistency))
}

func TestBuilder_Deterministic(t *testing.T) {
	first, err := NewBuilder(nil).Build(countryInputs())
	require.NoError(t, err)
	second, err := NewBuilder(nil).Build(countryInputs())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCheckRemovalConsistency(t *testing.T) {
	in := countryInputs()
	assert.Empty(t, CheckRemovalConsistency(in.Treatments[:5]))

	in.Treatments[1].PercentRemoved = 0.85
	mismatches := CheckRemovalConsistency(in.Treatments)
	require.Len(t, mismatches, 1)
	assert.Equal(t, entities.DisturbanceID("20"), mismatches[0].DisturbanceID)
	assert.Equal(t, []float64{0.85, 1}, mismatches[0].Values)
}
