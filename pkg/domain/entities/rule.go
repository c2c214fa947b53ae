package entities

import (
	"fmt"
	"math"
)

// AllocationRule is one row of the harvest proportion table: the share of
// a product category's demand assigned to a disturbance type on a
// classifier set
type AllocationRule struct {
	DisturbanceID  DisturbanceID
	Classifiers    Classifiers
	Category       ProductCategory
	StockAvailable float64
	Prop           float64
	Density        float64
	OWCFraction    float64
	SnagFraction   float64
	MinAge         int
	MaxAge         int
	MinSinceLast   int
	MaxSinceLast   int
	SortType       SortType
	Efficiency     float64
	RegenDelay     int
	ResetAge       int
	PercentRemoved float64
	ManMade        bool
}

// Validate checks the rule invariants
func (r AllocationRule) Validate() error {
	if r.DisturbanceID == "" {
		return fmt.Errorf("allocation rule disturbance id cannot be empty")
	}
	if math.IsNaN(r.StockAvailable) || r.StockAvailable < 0 {
		return fmt.Errorf("rule %s: stock available cannot be negative: %v", r.DisturbanceID, r.StockAvailable)
	}
	if math.IsNaN(r.Prop) || r.Prop < 0 || r.Prop > 1 {
		return fmt.Errorf("rule %s: prop must be between 0 and 1, got %v", r.DisturbanceID, r.Prop)
	}
	if math.IsNaN(r.Density) || r.Density <= 0 {
		return fmt.Errorf("rule %s: density must be positive, got %v: %w", r.DisturbanceID, r.Density, ErrMissingCoefficient)
	}
	if err := checkFraction("owc fraction", r.OWCFraction); err != nil {
		return fmt.Errorf("rule %s: %w", r.DisturbanceID, err)
	}
	if err := checkFraction("snag fraction", r.SnagFraction); err != nil {
		return fmt.Errorf("rule %s: %w", r.DisturbanceID, err)
	}
	return nil
}

// ByproductFactor is the volume harvested per unit of merchantable volume,
// counting the other wood components and snags
func (r AllocationRule) ByproductFactor() float64 {
	return 1 + r.OWCFraction + r.SnagFraction
}

// ConBroad returns the conifers_broadleaves class of the rule
func (r AllocationRule) ConBroad() ConBroad {
	return r.Category.ConBroad
}
