package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProductCategory(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ProductCategory
		wantErr bool
	}{
		{"roundwood conifer", "irw_c", ProductCategory{Roundwood, Conifer}, false},
		{"roundwood broadleaf", "irw_b", ProductCategory{Roundwood, Broadleaf}, false},
		{"fuelwood upper case with spaces", " FW_C ", ProductCategory{Fuelwood, Conifer}, false},
		{"fuelwood broadleaf", "fw_b", ProductCategory{Fuelwood, Broadleaf}, false},
		{"unknown product", "pulp_c", ProductCategory{}, true},
		{"unknown class", "irw_x", ProductCategory{}, true},
		{"missing class", "irw_", ProductCategory{}, true},
		{"empty", "", ProductCategory{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProductCategory(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProductCategoryString(t *testing.T) {
	for _, s := range []string{"irw_c", "irw_b", "fw_c", "fw_b"} {
		c, err := ParseProductCategory(s)
		require.NoError(t, err)
		if c.String() != s {
			t.Errorf("expected %s, got %s", s, c.String())
		}
	}
}

func TestFuelwoodCoProduct(t *testing.T) {
	assert.Equal(t, "fw_c", ProductCategory{Roundwood, Conifer}.FuelwoodCoProduct().String())
	assert.Equal(t, "fw_b", ProductCategory{Roundwood, Broadleaf}.FuelwoodCoProduct().String())
}

func TestParseConBroad(t *testing.T) {
	for _, s := range []string{"Con", "con", "Conifers", " c "} {
		cb, err := ParseConBroad(s)
		require.NoError(t, err, s)
		assert.Equal(t, Conifer, cb)
	}
	for _, s := range []string{"Broad", "broadleaves", "B"} {
		cb, err := ParseConBroad(s)
		require.NoError(t, err, s)
		assert.Equal(t, Broadleaf, cb)
	}
	_, err := ParseConBroad("mixed")
	assert.Error(t, err)
}

func TestNewDemandRecord(t *testing.T) {
	d, err := NewDemandRecord(3, Roundwood, Conifer, 600)
	require.NoError(t, err)
	assert.Equal(t, "irw_c", d.Category().String())
	assert.Equal(t, StepClass{Step: 3, ConBroad: Conifer}, d.StepClass())
	assert.InDelta(t, 1200.0, d.Scaled(2).VolumeOverBark, 1e-9)
	assert.InDelta(t, 600.0, d.VolumeOverBark, 1e-9, "scaling must not modify the record")

	_, err = NewDemandRecord(1, Roundwood, Conifer, -1)
	assert.Error(t, err)
	_, err = NewDemandRecord(-1, Roundwood, Conifer, 1)
	assert.Error(t, err)
	_, err = NewDemandRecord(1, Product("pulp"), Conifer, 1)
	assert.Error(t, err)
}
