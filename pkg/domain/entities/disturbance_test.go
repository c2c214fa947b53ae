package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDisturbanceID(t *testing.T) {
	tests := []struct {
		input   string
		want    DisturbanceID
		wantErr bool
	}{
		{"7", "7", false},
		{" 7 ", "7", false},
		{"7.0", "7", false},
		{"-1", "-1", false},
		{"DISTID9b_H", "DISTID9b_H", false},
		{" DISTID1 ", "DISTID1", false},
		{"7.5", "7.5", false},
		{"1e30", "1e30", false},
		{"-1e30", "-1e30", false},
		{"1e3", "1000", false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDisturbanceID(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDisturbanceID(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseDisturbanceID(%q): unexpected error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseDisturbanceID(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeClassifierName(t *testing.T) {
	assert.Equal(t, "forest_type", NormalizeClassifierName("Forest type"))
	assert.Equal(t, "conifers_broadleaves", NormalizeClassifierName("Conifers/Bradleaves"))
	assert.Equal(t, "management_strategy", NormalizeClassifierName(" Management strategy "))
}

func TestNewClassifierSchema(t *testing.T) {
	schema, err := NewClassifierSchema([]string{"Status", "Forest type", "Conifers/Broadleaves"})
	assert.NoError(t, err)
	assert.Equal(t, ClassifierSchema{"status", "forest_type", "conifers_broadleaves"}, schema)

	_, err = NewClassifierSchema([]string{"status", "Status"})
	assert.Error(t, err)
	_, err = NewClassifierSchema(nil)
	assert.Error(t, err)
}

func TestClassifiersKey(t *testing.T) {
	c := Classifiers{"status": "For", "forest_type": "PA", "region": "AT"}
	assert.Equal(t, "For|PA", c.Key([]string{"status", "forest_type"}))
	assert.Equal(t, "PA|", c.Key([]string{"forest_type", "climatic_unit"}))
	assert.Equal(t, Classifiers{"region": "AT"}, c.Subset([]string{"region", "missing"}))
}

func TestParseMeasurementType(t *testing.T) {
	m, err := ParseMeasurementType("m")
	assert.NoError(t, err)
	assert.Equal(t, MeasurementMass, m)
	_, err = ParseMeasurementType("X")
	assert.Error(t, err)
}
