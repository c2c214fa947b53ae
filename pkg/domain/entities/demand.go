package entities

import (
	"fmt"
	"math"
)

// DemandRecord is the projected wood demand of one product category in one
// simulation step, in cubic metres over bark
type DemandRecord struct {
	Step           int
	Product        Product
	ConBroad       ConBroad
	VolumeOverBark float64
}

// NewDemandRecord creates a validated DemandRecord
func NewDemandRecord(step int, product Product, conBroad ConBroad, volume float64) (*DemandRecord, error) {
	if step < 0 {
		return nil, fmt.Errorf("step cannot be negative: %d", step)
	}
	if _, err := NewProductCategory(product, conBroad); err != nil {
		return nil, err
	}
	if math.IsNaN(volume) || math.IsInf(volume, 0) {
		return nil, fmt.Errorf("demand volume must be finite, got %v", volume)
	}
	if volume < 0 {
		return nil, fmt.Errorf("demand volume cannot be negative: %v", volume)
	}
	return &DemandRecord{
		Step:           step,
		Product:        product,
		ConBroad:       conBroad,
		VolumeOverBark: volume,
	}, nil
}

// Category returns the product category of the demand
func (d DemandRecord) Category() ProductCategory {
	return ProductCategory{Product: d.Product, ConBroad: d.ConBroad}
}

// StepClass returns the (step, conifers_broadleaves) key of the demand
func (d DemandRecord) StepClass() StepClass {
	return StepClass{Step: d.Step, ConBroad: d.ConBroad}
}

// Scaled returns a copy of the demand multiplied by an artificial ratio
func (d DemandRecord) Scaled(ratio float64) DemandRecord {
	d.VolumeOverBark *= ratio
	return d
}
