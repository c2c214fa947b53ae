package allocation

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/vsinha/harvest/pkg/domain/entities"
	"github.com/vsinha/harvest/pkg/domain/services"
)

// Config holds the artificial demand ratios used in scenario experiments
type Config struct {
	RoundwoodRatio float64
	FuelwoodRatio  float64
}

// DefaultConfig leaves demand unscaled
func DefaultConfig() Config {
	return Config{RoundwoodRatio: 1.0, FuelwoodRatio: 1.0}
}

// Validate checks that both ratios are finite and non-negative
func (c Config) Validate() error {
	if err := checkRatio("roundwood", c.RoundwoodRatio); err != nil {
		return err
	}
	return checkRatio("fuelwood", c.FuelwoodRatio)
}

func checkRatio(name string, r float64) error {
	if math.IsNaN(r) || math.IsInf(r, 0) || r < 0 {
		return fmt.Errorf("%s artificial demand ratio must be a non-negative number, got %v", name, r)
	}
	return nil
}

// Ratio returns the scaling of one product
func (c Config) Ratio(product entities.Product) float64 {
	if product == entities.Fuelwood {
		return c.FuelwoodRatio
	}
	return c.RoundwoodRatio
}

// Allocator distributes demand over the harvest proportion table
type Allocator struct {
	config Config
	logger *zap.Logger
}

// NewAllocator creates an allocator with unscaled demand
func NewAllocator(logger *zap.Logger) *Allocator {
	a, _ := NewAllocatorWithConfig(DefaultConfig(), logger)
	return a
}

// NewAllocatorWithConfig creates an allocator with custom demand ratios
func NewAllocatorWithConfig(config Config, logger *zap.Logger) (*Allocator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Allocator{config: config, logger: logger}, nil
}

// Config returns the allocator configuration
func (a *Allocator) Config() Config {
	return a.config
}

// FuelwoodResult is the outcome of the fuelwood allocation
type FuelwoodResult struct {
	Allocations []entities.FuelwoodAllocation
	Balances    []entities.FuelwoodBalance
}

// Clipped returns the balances whose byproduct exceeded demand
func (r *FuelwoodResult) Clipped() []entities.FuelwoodBalance {
	var clipped []entities.FuelwoodBalance
	for _, b := range r.Balances {
		if b.Clipped {
			clipped = append(clipped, b)
		}
	}
	return clipped
}

// ScaledDemand selects the demand of one product, multiplies it by a ratio
// and orders it by step and class. Two records for the same step and
// category are rejected.
func ScaledDemand(demands []*entities.DemandRecord, product entities.Product, ratio float64) ([]entities.DemandRecord, error) {
	var selected []entities.DemandRecord
	for _, d := range demands {
		if d.Product == product {
			selected = append(selected, d.Scaled(ratio))
		}
	}
	if _, err := services.UniqueIndex(selected, func(d entities.DemandRecord) entities.StepClass {
		return d.StepClass()
	}, string(product)+" demand"); err != nil {
		return nil, err
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].StepClass().Less(selected[j].StepClass())
	})
	return selected, nil
}

func rulesByCategory(rules []entities.AllocationRule, product entities.Product) map[entities.ProductCategory][]entities.AllocationRule {
	index := services.IndexBy(rules, func(r entities.AllocationRule) entities.ProductCategory { return r.Category })
	for cat := range index {
		if cat.Product != product {
			delete(index, cat)
		}
	}
	return index
}

// AllocateRoundwood splits each roundwood demand over the roundwood rules
// of its category and derives the branch and snag byproducts
func (a *Allocator) AllocateRoundwood(demands []*entities.DemandRecord, rules []entities.AllocationRule) ([]entities.RoundwoodAllocation, error) {
	scaled, err := ScaledDemand(demands, entities.Roundwood, a.config.RoundwoodRatio)
	if err != nil {
		return nil, err
	}
	byCategory := rulesByCategory(rules, entities.Roundwood)

	var allocations []entities.RoundwoodAllocation
	for _, d := range scaled {
		matching := byCategory[d.Category()]
		if len(matching) == 0 {
			if d.VolumeOverBark > 0 {
				return nil, fmt.Errorf("roundwood demand %v m3 at step %d has no %s allocation rule: %w",
					d.VolumeOverBark, d.Step, d.Category(), entities.ErrDataInconsistency)
			}
			continue
		}
		for _, rule := range matching {
			amount := d.VolumeOverBark * rule.Prop
			allocations = append(allocations, entities.RoundwoodAllocation{
				Step:          d.Step,
				Rule:          rule,
				DemandVolume:  d.VolumeOverBark,
				Amount:        amount,
				OWCByproduct:  amount * rule.OWCFraction,
				SnagByproduct: amount * rule.SnagFraction,
			})
		}
	}

	a.logger.Debug("roundwood allocated",
		zap.Int("demands", len(scaled)),
		zap.Int("allocations", len(allocations)))
	return allocations, nil
}

// AggregateByproduct sums roundwood branch and snag byproducts by step and class
func AggregateByproduct(allocations []entities.RoundwoodAllocation) map[entities.StepClass]float64 {
	totals := make(map[entities.StepClass]float64)
	for _, alloc := range allocations {
		totals[alloc.StepClass()] += alloc.Byproduct()
	}
	return totals
}

// AllocateFuelwood nets fuelwood demand against the roundwood byproducts
// and splits what remains over the fuelwood rules. A fuelwood harvest
// yields its own byproducts, so each rule is given remaining * prop
// divided by its byproduct factor.
func (a *Allocator) AllocateFuelwood(
	demands []*entities.DemandRecord,
	rules []entities.AllocationRule,
	roundwood []entities.RoundwoodAllocation,
) (*FuelwoodResult, error) {
	scaled, err := ScaledDemand(demands, entities.Fuelwood, a.config.FuelwoodRatio)
	if err != nil {
		return nil, err
	}
	byproduct := AggregateByproduct(roundwood)
	byCategory := rulesByCategory(rules, entities.Fuelwood)

	result := &FuelwoodResult{}
	for _, d := range scaled {
		balance := entities.NewFuelwoodBalance(d.StepClass(), d.VolumeOverBark, byproduct[d.StepClass()])
		result.Balances = append(result.Balances, balance)
		if balance.Clipped {
			a.logger.Info("fuelwood demand covered by roundwood byproducts",
				zap.Int("step", d.Step),
				zap.String("category", d.Category().String()),
				zap.Float64("demand", balance.Demand),
				zap.Float64("byproduct", balance.Byproduct))
		}
		if balance.Remaining <= 0 {
			continue
		}

		matching := byCategory[d.Category()]
		if len(matching) == 0 {
			return nil, fmt.Errorf("fuelwood demand %v m3 remaining at step %d has no %s allocation rule: %w",
				balance.Remaining, d.Step, d.Category(), entities.ErrDataInconsistency)
		}
		for _, rule := range matching {
			amount := balance.Remaining * rule.Prop / rule.ByproductFactor()
			if amount <= 0 {
				continue
			}
			result.Allocations = append(result.Allocations, entities.FuelwoodAllocation{
				Step:            d.Step,
				Rule:            rule,
				RemainingDemand: balance.Remaining,
				Amount:          amount,
			})
		}
	}

	a.logger.Debug("fuelwood allocated",
		zap.Int("demands", len(scaled)),
		zap.Int("allocations", len(result.Allocations)),
		zap.Int("clipped", len(result.Clipped())))
	return result, nil
}
