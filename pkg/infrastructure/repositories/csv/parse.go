package csv

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vsinha/harvest/pkg/domain/entities"
)

// ParseInventory reads the area of each classifier set by age class
func ParseInventory(t *Table, schema entities.ClassifierSchema) ([]*entities.InventoryRecord, error) {
	if err := t.Require("age_class", "area"); err != nil {
		return nil, err
	}
	records := make([]*entities.InventoryRecord, 0, len(t.Rows))
	for i := range t.Rows {
		ageClass, err := t.Int(i, "age_class")
		if err != nil {
			return nil, err
		}
		area, err := t.Float(i, "area")
		if err != nil {
			return nil, err
		}
		records = append(records, &entities.InventoryRecord{
			Classifiers: t.Classifiers(i, schema),
			AgeClass:    ageClass,
			Area:        area,
		})
	}
	return records, nil
}

// ParseYields reshapes the wide yield table (vol0..volN) to one record per
// classifier set and age class
func ParseYields(t *Table, schema entities.ClassifierSchema) ([]*entities.YieldRecord, error) {
	type volCol struct {
		name     string
		ageClass int
	}
	var cols []volCol
	for _, col := range t.Header {
		if !strings.HasPrefix(col, "vol") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(col, "vol"))
		if err != nil {
			continue
		}
		cols = append(cols, volCol{col, n})
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%s: no vol0..volN columns", t.Name)
	}
	sort.Slice(cols, func(a, b int) bool { return cols[a].ageClass < cols[b].ageClass })

	records := make([]*entities.YieldRecord, 0, len(t.Rows)*len(cols))
	for i := range t.Rows {
		classifiers := t.Classifiers(i, schema)
		for _, c := range cols {
			if t.String(i, c.name) == "" {
				continue
			}
			v, err := t.Float(i, c.name)
			if err != nil {
				return nil, err
			}
			records = append(records, &entities.YieldRecord{
				Classifiers: classifiers.Clone(),
				AgeClass:    c.ageClass,
				Volume:      v,
			})
		}
	}
	return records, nil
}

func parseManMade(raw string) (bool, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "" || strings.HasPrefix(s, "man") || s == "true" || s == "1":
		return true, nil
	case strings.HasPrefix(s, "nat") || s == "false" || s == "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid man_made value: %q", raw)
	}
}

// ParseTreatments reads the silviculture treatment table. Rows without a
// product category belong to disturbances the allocation never uses and
// are returned as skipped.
func ParseTreatments(t *Table, schema entities.ClassifierSchema) ([]*entities.Treatment, int, error) {
	required := []string{
		entities.ColumnDistTypeName, entities.ColumnSortType, entities.ColumnEfficiency,
		"min_age", "max_age", "min_since_last", "max_since_last",
		"category", "percent_removed", "owc_fraction", "snag_fraction",
	}
	if err := t.Require(required...); err != nil {
		return nil, 0, err
	}

	var treatments []*entities.Treatment
	skipped := 0
	for i := range t.Rows {
		if t.String(i, "category") == "" {
			skipped++
			continue
		}
		tr, err := parseTreatment(t, i, schema)
		if err != nil {
			return nil, 0, fmt.Errorf("%s row %d: %w", t.Name, i+2, err)
		}
		treatments = append(treatments, tr)
	}
	return treatments, skipped, nil
}

func parseTreatment(t *Table, i int, schema entities.ClassifierSchema) (*entities.Treatment, error) {
	dist, err := entities.ParseDisturbanceID(t.String(i, entities.ColumnDistTypeName))
	if err != nil {
		return nil, err
	}
	category, err := entities.ParseProductCategory(t.String(i, "category"))
	if err != nil {
		return nil, err
	}
	tr := &entities.Treatment{
		Classifiers:   t.Classifiers(i, schema),
		DisturbanceID: dist,
		Category:      category,
	}

	ints := []struct {
		col string
		dst *int
	}{
		{"min_age", &tr.MinAge},
		{"max_age", &tr.MaxAge},
		{"min_since_last", &tr.MinSinceLast},
		{"max_since_last", &tr.MaxSinceLast},
	}
	for _, f := range ints {
		if *f.dst, err = t.Int(i, f.col); err != nil {
			return nil, err
		}
	}
	sortType, err := t.Int(i, entities.ColumnSortType)
	if err != nil {
		return nil, err
	}
	tr.SortType = entities.SortType(sortType)
	if tr.RegenDelay, err = t.IntOr(i, "regen_delay", 0); err != nil {
		return nil, err
	}
	if tr.ResetAge, err = t.IntOr(i, "reset_age", entities.Unconstrained); err != nil {
		return nil, err
	}

	floats := []struct {
		col string
		dst *float64
	}{
		{entities.ColumnEfficiency, &tr.Efficiency},
		{"percent_removed", &tr.PercentRemoved},
		{"owc_fraction", &tr.OWCFraction},
		{"snag_fraction", &tr.SnagFraction},
	}
	for _, f := range floats {
		if *f.dst, err = t.Float(i, f.col); err != nil {
			return nil, err
		}
	}
	if tr.ManMade, err = parseManMade(t.String(i, "man_made")); err != nil {
		return nil, err
	}
	return tr, tr.Validate()
}

// ParseCorrectionFactors reads the harvest correction factor of each forest type
func ParseCorrectionFactors(t *Table) ([]*entities.CorrectionFactor, error) {
	if err := t.Require(entities.ClassifierForestType, "corr_fact"); err != nil {
		return nil, err
	}
	factors := make([]*entities.CorrectionFactor, 0, len(t.Rows))
	for i := range t.Rows {
		f, err := t.Float(i, "corr_fact")
		if err != nil {
			return nil, err
		}
		factors = append(factors, &entities.CorrectionFactor{
			ForestType: t.String(i, entities.ClassifierForestType),
			Factor:     f,
		})
	}
	return factors, nil
}

// ParseDensities reads the wood density of each forest type
func ParseDensities(t *Table) ([]*entities.DensityCoefficient, error) {
	if err := t.Require(entities.ClassifierForestType, "density"); err != nil {
		return nil, err
	}
	densities := make([]*entities.DensityCoefficient, 0, len(t.Rows))
	for i := range t.Rows {
		d, err := t.Float(i, "density")
		if err != nil {
			return nil, err
		}
		densities = append(densities, &entities.DensityCoefficient{
			ForestType: t.String(i, entities.ClassifierForestType),
			Density:    d,
		})
	}
	return densities, nil
}

// ParseDemand reads the demand table. The product may be given as one
// category column (irw_c) or as product and conifers_broadleaves columns.
func ParseDemand(t *Table) ([]*entities.DemandRecord, error) {
	if err := t.Require(entities.ColumnStep, "volume"); err != nil {
		return nil, err
	}
	byCategory := t.Has("category")
	if !byCategory {
		if err := t.Require("product", entities.ClassifierConBroad); err != nil {
			return nil, err
		}
	}

	demands := make([]*entities.DemandRecord, 0, len(t.Rows))
	for i := range t.Rows {
		var category entities.ProductCategory
		var err error
		if byCategory {
			category, err = entities.ParseProductCategory(t.String(i, "category"))
		} else {
			category, err = parseProductColumns(t.String(i, "product"), t.String(i, entities.ClassifierConBroad))
		}
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", t.Name, i+2, err)
		}
		step, err := t.Int(i, entities.ColumnStep)
		if err != nil {
			return nil, err
		}
		volume, err := t.Float(i, "volume")
		if err != nil {
			return nil, err
		}
		d, err := entities.NewDemandRecord(step, category.Product, category.ConBroad, volume)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", t.Name, i+2, err)
		}
		demands = append(demands, d)
	}
	return demands, nil
}

func parseProductColumns(product, conBroad string) (entities.ProductCategory, error) {
	p, err := entities.ParseProduct(product)
	if err != nil {
		return entities.ProductCategory{}, err
	}
	cb, err := entities.ParseConBroad(conBroad)
	if err != nil {
		return entities.ProductCategory{}, err
	}
	return entities.NewProductCategory(p, cb)
}

// ParseEventLog reads a historical event table. Rows are kept exactly as
// read; only the header is normalized.
func ParseEventLog(t *Table, schema entities.ClassifierSchema) (*entities.EventLog, error) {
	return entities.NewEventLog(schema, t.Header, t.Rows)
}
