package proportion

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/vsinha/harvest/pkg/domain/entities"
	"github.com/vsinha/harvest/pkg/domain/services"
)

// Config controls the harvest proportion calculation
type Config struct {
	// IgnoredDisturbances are natural disturbances that never take a share of demand
	IgnoredDisturbances []entities.DisturbanceID
}

// DefaultConfig returns the configuration shared by every country
func DefaultConfig() Config {
	return Config{
		IgnoredDisturbances: append([]entities.DisturbanceID(nil), entities.DefaultIgnoredDisturbances...),
	}
}

// Inputs are the country tables the proportion table is derived from
type Inputs struct {
	Schema            entities.ClassifierSchema
	Inventory         []*entities.InventoryRecord
	Yields            []*entities.YieldRecord
	Treatments        []*entities.Treatment
	CorrectionFactors []*entities.CorrectionFactor
	Densities         []*entities.DensityCoefficient
}

// StockRow is the standing volume of one inventory row
type StockRow struct {
	Classifiers entities.Classifiers
	AgeClass    int
	Age         int
	Area        float64
	Volume      float64
	Stock       float64
}

// AvailableRow is the part of a stock row a treatment can harvest per year
type AvailableRow struct {
	StockRow
	Treatment      *entities.Treatment
	CorrFactor     float64
	StockAvailable float64
}

// Builder derives the harvest proportion table from inventory, yield
// curves and silviculture treatments
type Builder struct {
	config  Config
	ignored map[entities.DisturbanceID]bool
	logger  *zap.Logger
}

// NewBuilder creates a builder with the default configuration
func NewBuilder(logger *zap.Logger) *Builder {
	return NewBuilderWithConfig(DefaultConfig(), logger)
}

// NewBuilderWithConfig creates a builder with a custom configuration
func NewBuilderWithConfig(config Config, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	ignored := make(map[entities.DisturbanceID]bool, len(config.IgnoredDisturbances))
	for _, id := range config.IgnoredDisturbances {
		ignored[id] = true
	}
	return &Builder{config: config, ignored: ignored, logger: logger}
}

// StockByYield multiplies inventory area by the volume per hectare of the
// matching yield curve. Inventory rows without a yield curve hold no stock.
func (b *Builder) StockByYield(in Inputs) ([]StockRow, error) {
	if len(in.Schema) == 0 {
		return nil, fmt.Errorf("classifier schema cannot be empty")
	}
	type yieldKey struct {
		classifiers string
		ageClass    int
	}
	yields, err := services.UniqueIndex(in.Yields, func(y *entities.YieldRecord) yieldKey {
		return yieldKey{y.Classifiers.Key(in.Schema), y.AgeClass}
	}, "yield curve value")
	if err != nil {
		return nil, err
	}

	rows := make([]StockRow, 0, len(in.Inventory))
	missing := 0
	for _, inv := range in.Inventory {
		y, ok := yields[yieldKey{inv.Classifiers.Key(in.Schema), inv.AgeClass}]
		if !ok {
			missing++
			continue
		}
		rows = append(rows, StockRow{
			Classifiers: inv.Classifiers,
			AgeClass:    inv.AgeClass,
			Age:         inv.Age(),
			Area:        inv.Area,
			Volume:      y.Volume,
			Stock:       inv.Area * y.Volume,
		})
	}
	if missing > 0 {
		b.logger.Debug("inventory rows without yield curve", zap.Int("rows", missing))
	}
	return rows, nil
}

// StockAvailableByAge joins the stock with every treatment allowed on it
// and computes the stock available per year of each pair
func (b *Builder) StockAvailableByAge(in Inputs) ([]AvailableRow, error) {
	treatments, err := b.activeTreatments(in.Treatments)
	if err != nil {
		return nil, err
	}
	// natural disturbances count toward the status check
	if err := checkUniqueStatus(in.Treatments); err != nil {
		return nil, err
	}

	factors, err := services.UniqueIndex(in.CorrectionFactors, func(c *entities.CorrectionFactor) string {
		return c.ForestType
	}, "harvest correction factor")
	if err != nil {
		return nil, err
	}
	for _, t := range treatments {
		if _, ok := factors[t.Classifiers.Get(entities.ClassifierForestType)]; !ok {
			return nil, fmt.Errorf("no harvest correction factor for forest type %q (treatment %s): %w",
				t.Classifiers.Get(entities.ClassifierForestType), t.DisturbanceID, entities.ErrDataInconsistency)
		}
	}

	stock, err := b.StockByYield(in)
	if err != nil {
		return nil, err
	}

	byKey := services.IndexBy(treatments, func(t *entities.Treatment) string {
		return t.Classifiers.Key(entities.TreatmentJoinClassifiers)
	})

	var rows []AvailableRow
	for _, s := range stock {
		if s.Stock <= 0 {
			continue
		}
		for _, t := range byKey[s.Classifiers.Key(entities.TreatmentJoinClassifiers)] {
			if !(t.MinAge < s.Age && s.Age < t.MaxAge) {
				continue
			}
			if t.MinSinceLast <= 0 {
				return nil, fmt.Errorf("treatment %s has min_since_last %d, cannot spread stock over time: %w",
					t.DisturbanceID, t.MinSinceLast, entities.ErrMissingCoefficient)
			}
			corr := factors[t.Classifiers.Get(entities.ClassifierForestType)].Factor
			rows = append(rows, AvailableRow{
				StockRow:       s,
				Treatment:      t,
				CorrFactor:     corr,
				StockAvailable: s.Stock * corr * t.PercentRemoved / float64(t.MinSinceLast),
			})
		}
	}
	return rows, nil
}

type ruleKey struct {
	classifiers string
	dist        entities.DisturbanceID
}

// Build computes the allocation rules: each treatment's share of the
// stock available in its product category
func (b *Builder) Build(in Inputs) ([]entities.AllocationRule, error) {
	if mismatches := CheckRemovalConsistency(in.Treatments); len(mismatches) > 0 {
		for _, m := range mismatches {
			b.logger.Warn("percent removed differs between treatments",
				zap.String("disturbance_id", string(m.DisturbanceID)),
				zap.Float64s("values", m.Values))
		}
	}

	available, err := b.StockAvailableByAge(in)
	if err != nil {
		return nil, err
	}

	treatments, err := b.activeTreatments(in.Treatments)
	if err != nil {
		return nil, err
	}
	attrs, err := treatmentAttributes(treatments)
	if err != nil {
		return nil, err
	}

	densities, err := services.UniqueIndex(in.Densities, func(d *entities.DensityCoefficient) string {
		return d.ForestType
	}, "density coefficient")
	if err != nil {
		return nil, err
	}

	sums := make(map[ruleKey]float64)
	for _, row := range available {
		k := ruleKey{row.Treatment.Classifiers.Key(entities.TreatmentJoinClassifiers), row.Treatment.DisturbanceID}
		sums[k] += row.StockAvailable
	}

	keys := make([]ruleKey, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].classifiers != keys[j].classifiers {
			return keys[i].classifiers < keys[j].classifiers
		}
		return keys[i].dist < keys[j].dist
	})

	totals := make(map[entities.ProductCategory]float64)
	for _, k := range keys {
		totals[attrs[k].Category] += sums[k]
	}

	rules := make([]entities.AllocationRule, 0, len(keys))
	for _, k := range keys {
		v := sums[k]
		t := attrs[k]
		total := totals[t.Category]
		if total == 0 {
			return nil, fmt.Errorf("no stock available for category %s: %w", t.Category, entities.ErrMissingCoefficient)
		}
		forestType := t.Classifiers.Get(entities.ClassifierForestType)
		density, ok := densities[forestType]
		if !ok || density.Density <= 0 {
			return nil, fmt.Errorf("no density coefficient for forest type %q: %w", forestType, entities.ErrMissingCoefficient)
		}

		classifiers := t.Classifiers.Subset(entities.TreatmentJoinClassifiers)
		classifiers[entities.ClassifierStatus] = entities.ForestStatus

		rule := entities.AllocationRule{
			DisturbanceID:  t.DisturbanceID,
			Classifiers:    classifiers,
			Category:       t.Category,
			StockAvailable: v,
			Prop:           v / total,
			Density:        density.Density,
			OWCFraction:    t.OWCFraction,
			SnagFraction:   t.SnagFraction,
			MinAge:         t.MinAge,
			MaxAge:         t.MaxAge,
			MinSinceLast:   t.MinSinceLast,
			MaxSinceLast:   t.MaxSinceLast,
			SortType:       t.SortType,
			Efficiency:     t.Efficiency,
			RegenDelay:     t.RegenDelay,
			ResetAge:       t.ResetAge,
			PercentRemoved: t.PercentRemoved,
			ManMade:        t.ManMade,
		}
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	SortRules(rules)
	b.logger.Debug("harvest proportions built",
		zap.Int("rules", len(rules)),
		zap.Int("categories", len(totals)))
	return rules, nil
}

// SortRules orders rules by category, classifiers and disturbance type
func SortRules(rules []entities.AllocationRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		ci, cj := rules[i].Category.String(), rules[j].Category.String()
		if ci != cj {
			return ci < cj
		}
		ki := rules[i].Classifiers.Key(entities.SilvicultureClassifiers)
		kj := rules[j].Classifiers.Key(entities.SilvicultureClassifiers)
		if ki != kj {
			return ki < kj
		}
		return rules[i].DisturbanceID < rules[j].DisturbanceID
	})
}

func (b *Builder) activeTreatments(all []*entities.Treatment) ([]*entities.Treatment, error) {
	active := make([]*entities.Treatment, 0, len(all))
	for _, t := range all {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if b.ignored[t.DisturbanceID] {
			continue
		}
		active = append(active, t)
	}
	return active, nil
}

func checkUniqueStatus(treatments []*entities.Treatment) error {
	seen := make(map[string]bool)
	var statuses []string
	for _, t := range treatments {
		s := t.Classifiers.Get(entities.ClassifierStatus)
		if !seen[s] {
			seen[s] = true
			statuses = append(statuses, s)
		}
	}
	if len(statuses) > 1 {
		sort.Strings(statuses)
		return fmt.Errorf("silviculture status is not unique: %v: %w", statuses, entities.ErrDataInconsistency)
	}
	return nil
}

// treatmentAttributes indexes treatments by classifiers and disturbance
// type; repeated keys must agree on every attribute
func treatmentAttributes(treatments []*entities.Treatment) (map[ruleKey]*entities.Treatment, error) {
	attrs := make(map[ruleKey]*entities.Treatment, len(treatments))
	for _, t := range treatments {
		k := ruleKey{t.Classifiers.Key(entities.TreatmentJoinClassifiers), t.DisturbanceID}
		prev, ok := attrs[k]
		if !ok {
			attrs[k] = t
			continue
		}
		if !sameAttributes(prev, t) {
			return nil, fmt.Errorf("treatment %s on %s has conflicting attributes: %w",
				t.DisturbanceID, k.classifiers, entities.ErrDataInconsistency)
		}
	}
	return attrs, nil
}

func sameAttributes(a, b *entities.Treatment) bool {
	return a.Category == b.Category &&
		a.SortType == b.SortType &&
		a.Efficiency == b.Efficiency &&
		a.MinAge == b.MinAge &&
		a.MaxAge == b.MaxAge &&
		a.MinSinceLast == b.MinSinceLast &&
		a.MaxSinceLast == b.MaxSinceLast &&
		a.RegenDelay == b.RegenDelay &&
		a.ResetAge == b.ResetAge &&
		a.PercentRemoved == b.PercentRemoved &&
		a.OWCFraction == b.OWCFraction &&
		a.SnagFraction == b.SnagFraction &&
		a.ManMade == b.ManMade
}
