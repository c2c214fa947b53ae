package entities

import "fmt"

// StepClass keys demand and byproduct by simulation step and conifers_broadleaves
type StepClass struct {
	Step     int
	ConBroad ConBroad
}

// String method for StepClass
func (k StepClass) String() string {
	return fmt.Sprintf("step %d %s", k.Step, k.ConBroad)
}

// Less orders step classes by step then class
func (k StepClass) Less(other StepClass) bool {
	if k.Step != other.Step {
		return k.Step < other.Step
	}
	return k.ConBroad < other.ConBroad
}

// RoundwoodAllocation is the roundwood volume harvested by one rule in one step
type RoundwoodAllocation struct {
	Step          int
	Rule          AllocationRule
	DemandVolume  float64
	Amount        float64
	OWCByproduct  float64
	SnagByproduct float64
}

// Byproduct returns the volume passed on to fuelwood
func (a RoundwoodAllocation) Byproduct() float64 {
	return a.OWCByproduct + a.SnagByproduct
}

// StepClass returns the (step, conifers_broadleaves) key of the allocation
func (a RoundwoodAllocation) StepClass() StepClass {
	return StepClass{Step: a.Step, ConBroad: a.Rule.ConBroad()}
}

// FuelwoodAllocation is the fuelwood volume harvested by one rule in one step
// to cover demand left after roundwood byproducts
type FuelwoodAllocation struct {
	Step            int
	Rule            AllocationRule
	RemainingDemand float64
	Amount          float64
}

// GeneratedVolume returns the total fuelwood volume the harvest yields,
// merchantable wood plus its own byproducts
func (a FuelwoodAllocation) GeneratedVolume() float64 {
	return a.Amount * a.Rule.ByproductFactor()
}

// StepClass returns the (step, conifers_broadleaves) key of the allocation
func (a FuelwoodAllocation) StepClass() StepClass {
	return StepClass{Step: a.Step, ConBroad: a.Rule.ConBroad()}
}

// FuelwoodBalance records how fuelwood demand of one step and class was
// covered by roundwood byproducts
type FuelwoodBalance struct {
	StepClass
	Demand    float64
	Byproduct float64
	Remaining float64
	Clipped   bool
}

// NewFuelwoodBalance computes the remaining demand, clipping negatives to zero
func NewFuelwoodBalance(key StepClass, demand, byproduct float64) FuelwoodBalance {
	remaining := demand - byproduct
	clipped := false
	if remaining < 0 {
		remaining = 0
		clipped = true
	}
	return FuelwoodBalance{
		StepClass: key,
		Demand:    demand,
		Byproduct: byproduct,
		Remaining: remaining,
		Clipped:   clipped,
	}
}
