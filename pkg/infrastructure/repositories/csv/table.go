package csv

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vsinha/harvest/pkg/domain/entities"
)

// Table names, used as CSV file stems and workbook sheet names
const (
	TableClassifiers       = "classifiers"
	TableInventory         = "inventory"
	TableYields            = "yields"
	TableTreatments        = "silv_treatments"
	TableCorrectionFactors = "harvest_corr_fact"
	TableCoefficients      = "coefficients"
	TableDemand            = "demand"
	TableEvents            = "disturbance_events"
)

// ErrTableNotFound reports a table missing from the country input
var ErrTableNotFound = errors.New("table not found")

// headerAliases maps the spellings found in country exports to column names
var headerAliases = map[string]string{
	"dist_type_id":        entities.ColumnDistTypeName,
	"dist_id":             entities.ColumnDistTypeName,
	"efficency":           entities.ColumnEfficiency,
	"usingid":             entities.ColumnUsingID,
	"swstart":             entities.ColumnSWStart,
	"swend":               entities.ColumnSWEnd,
	"hwstart":             entities.ColumnHWStart,
	"hwend":               entities.ColumnHWEnd,
	"age":                 "age_class",
	"hwp":                 "category",
	"perc_merch_biom_rem": "percent_removed",
	"owc_perc":            "owc_fraction",
	"snag_perc":           "snag_fraction",
	"man_nat":             "man_made",
	"regendelay":          "regen_delay",
	"resetage":            "reset_age",
	"db":                  "density",
	"volume_over_bark":    "volume",
}

// NormalizeHeader maps a raw column name to its canonical form. Classifier
// number columns (_1, _2...) are renamed through the classifier mapping.
func NormalizeHeader(raw string, mapping ClassifierMapping) string {
	name := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
	if mapped, ok := mapping[name]; ok {
		return mapped
	}
	name = entities.NormalizeClassifierName(name)
	if alias, ok := headerAliases[name]; ok {
		return alias
	}
	return name
}

// ClassifierMapping maps classifier number columns (_1, _2...) to classifier names
type ClassifierMapping map[string]string

// ParseClassifierMapping reads the classifier table: rows whose value id is
// _CLASSIFIER name the classifier of their number
func ParseClassifierMapping(records [][]string) (ClassifierMapping, entities.ClassifierSchema, error) {
	t, err := NewTable(TableClassifiers, records, nil)
	if err != nil {
		return nil, nil, err
	}
	if err := t.Require("classifiernumber", "classifiervalueid", "name"); err != nil {
		return nil, nil, err
	}

	type numbered struct {
		n    int
		name string
	}
	var found []numbered
	mapping := make(ClassifierMapping)
	for i := range t.Rows {
		if t.String(i, "classifiervalueid") != "_CLASSIFIER" {
			continue
		}
		n, err := t.Int(i, "classifiernumber")
		if err != nil {
			return nil, nil, err
		}
		name := entities.NormalizeClassifierName(t.String(i, "name"))
		mapping["_"+strconv.Itoa(n)] = name
		found = append(found, numbered{n, name})
	}
	sort.Slice(found, func(a, b int) bool { return found[a].n < found[b].n })

	names := make([]string, len(found))
	for i, f := range found {
		names[i] = f.name
	}
	schema, err := entities.NewClassifierSchema(names)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", TableClassifiers, err)
	}
	return mapping, schema, nil
}

// Table is one input table with a canonical header
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
	index  map[string]int
}

// NewTable normalizes the header of raw records and checks every row has
// one value per column
func NewTable(name string, records [][]string, mapping ClassifierMapping) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: table has no header", name)
	}
	t := &Table{Name: name, index: make(map[string]int, len(records[0]))}
	for i, raw := range records[0] {
		col := NormalizeHeader(raw, mapping)
		if _, dup := t.index[col]; dup {
			return nil, fmt.Errorf("%s: duplicate column %q", name, col)
		}
		t.index[col] = i
		t.Header = append(t.Header, col)
	}
	for i, row := range records[1:] {
		if len(row) != len(t.Header) {
			return nil, fmt.Errorf("%s row %d: expected %d columns, got %d", name, i+2, len(t.Header), len(row))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Has reports whether the table has a column
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Require fails when any of the columns is missing
func (t *Table) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: missing columns %s", t.Name, strings.Join(missing, ", "))
	}
	return nil
}

// String returns the trimmed value of a cell, or "" when the column is absent
func (t *Table) String(row int, col string) string {
	i, ok := t.index[col]
	if !ok {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][i])
}

// Float parses a cell as a float
func (t *Table) Float(row int, col string) (float64, error) {
	v, err := strconv.ParseFloat(t.String(row, col), 64)
	if err != nil {
		return 0, fmt.Errorf("%s row %d: invalid %s: %q", t.Name, row+2, col, t.String(row, col))
	}
	return v, nil
}

// Int parses a cell as an integer. Spreadsheet exports write whole
// numbers as "40.0", which is accepted.
func (t *Table) Int(row int, col string) (int, error) {
	raw := t.String(row, col)
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("%s row %d: invalid %s: %q", t.Name, row+2, col, raw)
	}
	return int(f), nil
}

// IntOr parses an optional integer column
func (t *Table) IntOr(row int, col string, def int) (int, error) {
	if !t.Has(col) || t.String(row, col) == "" {
		return def, nil
	}
	return t.Int(row, col)
}

// Classifiers collects the schema columns present in the table
func (t *Table) Classifiers(row int, schema entities.ClassifierSchema) entities.Classifiers {
	c := make(entities.Classifiers, len(schema))
	for _, name := range schema {
		if t.Has(name) {
			c[name] = t.String(row, name)
		}
	}
	return c
}
