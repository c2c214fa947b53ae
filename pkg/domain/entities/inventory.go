package entities

import (
	"fmt"
	"math"
)

// AgeClassWidth is the number of years covered by one age class
const AgeClassWidth = 10

// InventoryRecord is the forest area of one classifier set in one age class
type InventoryRecord struct {
	Classifiers Classifiers
	AgeClass    int
	Area        float64
}

// Age returns the stand age in years
func (r InventoryRecord) Age() int {
	return r.AgeClass * AgeClassWidth
}

// YieldRecord is the merchantable volume per hectare of one classifier set
// at one age class, in the long form
type YieldRecord struct {
	Classifiers Classifiers
	AgeClass    int
	Volume      float64
}

// Treatment is a silviculture practice defining how a disturbance type
// harvests a classifier set
type Treatment struct {
	Classifiers    Classifiers
	DisturbanceID  DisturbanceID
	Category       ProductCategory
	SortType       SortType
	Efficiency     float64
	MinAge         int
	MaxAge         int
	MinSinceLast   int
	MaxSinceLast   int
	RegenDelay     int
	ResetAge       int
	PercentRemoved float64
	OWCFraction    float64
	SnagFraction   float64
	ManMade        bool
}

// Validate checks the treatment attributes
func (t Treatment) Validate() error {
	if t.DisturbanceID == "" {
		return fmt.Errorf("treatment disturbance id cannot be empty")
	}
	if t.MinAge > t.MaxAge {
		return fmt.Errorf("treatment %s: min age %d greater than max age %d", t.DisturbanceID, t.MinAge, t.MaxAge)
	}
	if err := checkFraction("owc fraction", t.OWCFraction); err != nil {
		return fmt.Errorf("treatment %s: %w", t.DisturbanceID, err)
	}
	if err := checkFraction("snag fraction", t.SnagFraction); err != nil {
		return fmt.Errorf("treatment %s: %w", t.DisturbanceID, err)
	}
	if math.IsNaN(t.PercentRemoved) || t.PercentRemoved < 0 {
		return fmt.Errorf("treatment %s: percent removed cannot be negative: %v", t.DisturbanceID, t.PercentRemoved)
	}
	if t.Efficiency < 0 || t.Efficiency > 1 || math.IsNaN(t.Efficiency) {
		return fmt.Errorf("treatment %s: efficiency must be between 0 and 1, got %v", t.DisturbanceID, t.Efficiency)
	}
	return nil
}

// CorrectionFactor scales the stock of a forest type to the share that can be harvested
type CorrectionFactor struct {
	ForestType string
	Factor     float64
}

// DensityCoefficient is the wood density of a forest type, in tonnes of dry matter per m3
type DensityCoefficient struct {
	ForestType string
	Density    float64
}

func checkFraction(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%s must be between 0 and 1, got %v", name, v)
	}
	return nil
}
