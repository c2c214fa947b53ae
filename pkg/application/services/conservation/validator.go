package conservation

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/harvest/pkg/application/services/allocation"
	"github.com/vsinha/harvest/pkg/domain/entities"
	"github.com/vsinha/harvest/pkg/domain/services"
)

const (
	// RoundwoodRelativeTolerance bounds the relative gap between allocated
	// roundwood and demand
	RoundwoodRelativeTolerance = 1e-3
	// FuelwoodShortfallSlack is the relative shortfall of generated fuelwood
	// accepted below demand. Any surplus is accepted.
	FuelwoodShortfallSlack = 0.02
)

// Comparison is the check of one product, step and class
type Comparison struct {
	entities.StepClass
	Product   entities.Product
	Allocated float64
	Demand    float64
	Diff      float64
	DiffProp  float64
	Passed    bool
}

// Report lists every comparison made by the validator
type Report struct {
	Roundwood []Comparison
	Fuelwood  []Comparison
}

// Failures returns the comparisons that did not pass
func (r *Report) Failures() []Comparison {
	var failed []Comparison
	for _, c := range append(append([]Comparison(nil), r.Roundwood...), r.Fuelwood...) {
		if !c.Passed {
			failed = append(failed, c)
		}
	}
	return failed
}

// Validator checks that allocated volumes, sent through carbon and back,
// reconcile with the demand they were derived from
type Validator struct {
	config allocation.Config
	logger *zap.Logger
}

// NewValidator creates a validator comparing against demand scaled by the
// same ratios the allocator used
func NewValidator(config allocation.Config, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{config: config, logger: logger}
}

type volumes map[entities.StepClass]decimal.Decimal

func (v volumes) add(key entities.StepClass, volume, density float64) error {
	reconverted, err := services.Reconvert(volume, density)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	v[key] = v[key].Add(decimal.NewFromFloat(reconverted))
	return nil
}

func demandVolumes(demands []*entities.DemandRecord, product entities.Product, ratio float64) (volumes, error) {
	scaled, err := allocation.ScaledDemand(demands, product, ratio)
	if err != nil {
		return nil, err
	}
	out := make(volumes, len(scaled))
	for _, d := range scaled {
		out[d.StepClass()] = decimal.NewFromFloat(d.VolumeOverBark)
	}
	return out, nil
}

// compare outer joins allocated and demanded volumes in step and class
// order; a side missing from the join counts as zero
func compare(product entities.Product, allocated, demand volumes, pass func(a, d decimal.Decimal) bool) []Comparison {
	joined := services.OuterJoin(allocated, demand)
	keys := make([]entities.StepClass, 0, len(joined))
	for k := range joined {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	comparisons := make([]Comparison, 0, len(keys))
	for _, k := range keys {
		a, d := joined[k].Left, joined[k].Right
		diff := a.Sub(d)
		c := Comparison{
			StepClass: k,
			Product:   product,
			Allocated: a.InexactFloat64(),
			Demand:    d.InexactFloat64(),
			Diff:      diff.InexactFloat64(),
			Passed:    pass(a, d),
		}
		if !d.IsZero() {
			c.DiffProp = diff.Div(d).InexactFloat64()
		}
		comparisons = append(comparisons, c)
	}
	return comparisons
}

func violations(comparisons []Comparison, tolerance float64) error {
	var errs []error
	for _, c := range comparisons {
		if c.Passed {
			continue
		}
		errs = append(errs, &entities.ConservationError{
			Product:   c.Product,
			Step:      c.Step,
			ConBroad:  c.ConBroad,
			Allocated: c.Allocated,
			Demand:    c.Demand,
			Tolerance: tolerance,
		})
	}
	return errors.Join(errs...)
}

// CheckRoundwood requires the reconverted roundwood allocation of every
// step and class to match demand within the relative tolerance
func (v *Validator) CheckRoundwood(demands []*entities.DemandRecord, allocations []entities.RoundwoodAllocation) ([]Comparison, error) {
	allocated := make(volumes)
	for _, a := range allocations {
		if err := allocated.add(a.StepClass(), a.Amount, a.Rule.Density); err != nil {
			return nil, err
		}
	}
	demand, err := demandVolumes(demands, entities.Roundwood, v.config.RoundwoodRatio)
	if err != nil {
		return nil, err
	}

	tolerance := decimal.NewFromFloat(RoundwoodRelativeTolerance)
	comparisons := compare(entities.Roundwood, allocated, demand, func(a, d decimal.Decimal) bool {
		return a.Sub(d).Abs().LessThanOrEqual(tolerance.Mul(d.Abs()))
	})
	return comparisons, violations(comparisons, RoundwoodRelativeTolerance)
}

// CheckFuelwood requires the fuelwood generated by both harvests to cover
// demand, short of at most the shortfall slack. Roundwood contributes its
// branches and snags; fuelwood harvests contribute their merchantable
// volume and their own byproducts.
func (v *Validator) CheckFuelwood(
	demands []*entities.DemandRecord,
	roundwood []entities.RoundwoodAllocation,
	fuelwood []entities.FuelwoodAllocation,
) ([]Comparison, error) {
	generated := make(volumes)
	for _, a := range roundwood {
		if err := generated.add(a.StepClass(), a.Byproduct(), a.Rule.Density); err != nil {
			return nil, err
		}
	}
	for _, a := range fuelwood {
		if err := generated.add(a.StepClass(), a.GeneratedVolume(), a.Rule.Density); err != nil {
			return nil, err
		}
	}
	demand, err := demandVolumes(demands, entities.Fuelwood, v.config.FuelwoodRatio)
	if err != nil {
		return nil, err
	}

	floor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(FuelwoodShortfallSlack))
	comparisons := compare(entities.Fuelwood, generated, demand, func(g, d decimal.Decimal) bool {
		if !d.IsPositive() {
			return true
		}
		return g.GreaterThanOrEqual(d.Mul(floor))
	})
	return comparisons, violations(comparisons, FuelwoodShortfallSlack)
}

// Validate runs both checks and reports every violation found
func (v *Validator) Validate(
	demands []*entities.DemandRecord,
	roundwood []entities.RoundwoodAllocation,
	fuelwood []entities.FuelwoodAllocation,
) (*Report, error) {
	rw, rwErr := v.CheckRoundwood(demands, roundwood)
	fw, fwErr := v.CheckFuelwood(demands, roundwood, fuelwood)
	report := &Report{Roundwood: rw, Fuelwood: fw}

	if err := errors.Join(rwErr, fwErr); err != nil {
		v.logger.Error("conservation check failed",
			zap.Int("failures", len(report.Failures())),
			zap.Error(err))
		return report, err
	}
	v.logger.Debug("conservation check passed",
		zap.Int("roundwood", len(rw)),
		zap.Int("fuelwood", len(fw)))
	return report, nil
}
