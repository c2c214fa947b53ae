package csv

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/vsinha/harvest/pkg/domain/entities"
)

// usedClassifiers returns the schema names set in at least one classifier set
func usedClassifiers(schema entities.ClassifierSchema, sets []entities.Classifiers) []string {
	var names []string
	for _, name := range schema {
		for _, c := range sets {
			if _, ok := c[name]; ok {
				names = append(names, name)
				break
			}
		}
	}
	return names
}

func classifierValues(c entities.Classifiers, names []string) []string {
	row := make([]string, len(names))
	for i, n := range names {
		row[i] = c[n]
	}
	return row
}

func manMadeLabel(manMade bool) string {
	if manMade {
		return "Man-made disturbance"
	}
	return "Natural disturbance"
}

// Records renders every country table in the format ParseCountry reads
func (c *Country) Records() map[string][][]string {
	tables := make(map[string][][]string)
	f := entities.FormatFloat
	itoa := strconv.Itoa

	classifiers := [][]string{{"ClassifierNumber", "ClassifierValueID", "Name"}}
	for i, name := range c.Schema {
		classifiers = append(classifiers, []string{itoa(i + 1), "_CLASSIFIER", name})
	}
	tables[TableClassifiers] = classifiers

	inventory := [][]string{append(append([]string{}, c.Schema...), "age_class", "area")}
	for _, r := range c.Inventory {
		inventory = append(inventory, append(classifierValues(r.Classifiers, c.Schema), itoa(r.AgeClass), f(r.Area)))
	}
	tables[TableInventory] = inventory

	tables[TableYields] = c.yieldRecords()

	sets := make([]entities.Classifiers, len(c.Treatments))
	for i, t := range c.Treatments {
		sets[i] = t.Classifiers
	}
	names := usedClassifiers(c.Schema, sets)
	treatments := [][]string{append(append([]string{}, names...),
		entities.ColumnDistTypeName, entities.ColumnSortType, entities.ColumnEfficiency,
		"min_age", "max_age", "min_since_last", "max_since_last", "regen_delay", "reset_age",
		"category", "percent_removed", "owc_fraction", "snag_fraction", "man_made")}
	for _, t := range c.Treatments {
		treatments = append(treatments, append(classifierValues(t.Classifiers, names),
			string(t.DisturbanceID), itoa(int(t.SortType)), f(t.Efficiency),
			itoa(t.MinAge), itoa(t.MaxAge), itoa(t.MinSinceLast), itoa(t.MaxSinceLast),
			itoa(t.RegenDelay), itoa(t.ResetAge), t.Category.String(),
			f(t.PercentRemoved), f(t.OWCFraction), f(t.SnagFraction), manMadeLabel(t.ManMade)))
	}
	tables[TableTreatments] = treatments

	factors := [][]string{{entities.ClassifierForestType, "corr_fact"}}
	for _, cf := range c.CorrectionFactors {
		factors = append(factors, []string{cf.ForestType, f(cf.Factor)})
	}
	tables[TableCorrectionFactors] = factors

	densities := [][]string{{entities.ClassifierForestType, "density"}}
	for _, d := range c.Densities {
		densities = append(densities, []string{d.ForestType, f(d.Density)})
	}
	tables[TableCoefficients] = densities

	demand := [][]string{{entities.ColumnStep, "category", "volume"}}
	for _, d := range c.Demands {
		demand = append(demand, []string{itoa(d.Step), d.Category().String(), f(d.VolumeOverBark)})
	}
	tables[TableDemand] = demand

	if c.History != nil {
		tables[TableEvents] = append([][]string{c.History.Columns()}, c.History.Rows()...)
	}
	return tables
}

// yieldRecords widens the yield records back to one row per classifier set
func (c *Country) yieldRecords() [][]string {
	maxAge := 0
	var order []string
	rows := make(map[string]map[int]float64)
	sets := make(map[string]entities.Classifiers)
	for _, y := range c.Yields {
		key := y.Classifiers.Key(c.Schema)
		if _, ok := rows[key]; !ok {
			order = append(order, key)
			rows[key] = make(map[int]float64)
			sets[key] = y.Classifiers
		}
		rows[key][y.AgeClass] = y.Volume
		if y.AgeClass > maxAge {
			maxAge = y.AgeClass
		}
	}

	header := append([]string{}, c.Schema...)
	for a := 0; a <= maxAge; a++ {
		header = append(header, "vol"+strconv.Itoa(a))
	}
	out := [][]string{header}
	for _, key := range order {
		row := classifierValues(sets[key], c.Schema)
		for a := 0; a <= maxAge; a++ {
			if v, ok := rows[key][a]; ok {
				row = append(row, entities.FormatFloat(v))
			} else {
				row = append(row, "")
			}
		}
		out = append(out, row)
	}
	return out
}

// WriteCountry writes every country table as <dir>/<name>.csv
func WriteCountry(dir string, c *Country) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tables := c.Records()
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writeRecords(filepath.Join(dir, name+".csv"), tables[name]); err != nil {
			return err
		}
	}
	return nil
}
