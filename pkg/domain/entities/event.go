package entities

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Event log column names, besides the classifiers
const (
	ColumnUsingID          = "using_id"
	ColumnSWStart          = "sw_start"
	ColumnSWEnd            = "sw_end"
	ColumnHWStart          = "hw_start"
	ColumnHWEnd            = "hw_end"
	ColumnMinSinceLastDist = "min_since_last_dist"
	ColumnMaxSinceLastDist = "max_since_last_dist"
	ColumnLastDistID       = "last_dist_id"
	ColumnEfficiency       = "efficiency"
	ColumnSortType         = "sort_type"
	ColumnMeasurementType  = "measurement_type"
	ColumnAmount           = "amount"
	ColumnDistTypeName     = "dist_type_name"
	ColumnStep             = "step"
)

// BoundColumns are the biomass and snag bounds the simulator accepts; the
// allocation never constrains them
var BoundColumns = [18]string{
	"min_tot_biom_c", "max_tot_biom_c",
	"min_merch_soft_biom_c", "max_merch_soft_biom_c",
	"min_merch_hard_biom_c", "max_merch_hard_biom_c",
	"min_tot_stem_snag_c", "max_tot_stem_snag_c",
	"min_tot_soft_stem_snag_c", "max_tot_soft_stem_snag_c",
	"min_tot_hard_stem_snag_c", "max_tot_hard_stem_snag_c",
	"min_tot_merch_stem_snag_c", "max_tot_merch_stem_snag_c",
	"min_tot_merch_soft_stem_snag_c", "max_tot_merch_soft_stem_snag_c",
	"min_tot_merch_hard_stem_snag_c", "max_tot_merch_hard_stem_snag_c",
}

// Unconstrained is the value of a bound or last disturbance the simulator ignores
const Unconstrained = -1

// EventColumns returns the default event log layout for a classifier schema
func EventColumns(schema ClassifierSchema) []string {
	cols := make([]string, 0, len(schema)+32)
	cols = append(cols, schema...)
	cols = append(cols,
		ColumnUsingID,
		ColumnSWStart, ColumnSWEnd, ColumnHWStart, ColumnHWEnd,
		ColumnMinSinceLastDist, ColumnMaxSinceLastDist,
		ColumnLastDistID,
	)
	cols = append(cols, BoundColumns[:]...)
	cols = append(cols,
		ColumnEfficiency, ColumnSortType, ColumnMeasurementType,
		ColumnAmount, ColumnDistTypeName, ColumnStep,
	)
	return cols
}

// DisturbanceEvent is one simulator-ready disturbance: harvest a mass of
// carbon from the stands matching its classifiers at a given step
type DisturbanceEvent struct {
	Classifiers      Classifiers
	UsingID          bool
	SWStart          int
	SWEnd            int
	HWStart          int
	HWEnd            int
	MinSinceLastDist int
	MaxSinceLastDist int
	LastDistID       int
	Bounds           [18]float64
	Efficiency       float64
	SortType         SortType
	MeasurementType  MeasurementType
	Amount           float64
	DistTypeName     DisturbanceID
	Step             int
}

// Value formats one column of the event the way it is written to the event log
func (e DisturbanceEvent) Value(column string) (string, error) {
	switch column {
	case ColumnUsingID:
		if e.UsingID {
			return "True", nil
		}
		return "False", nil
	case ColumnSWStart:
		return strconv.Itoa(e.SWStart), nil
	case ColumnSWEnd:
		return strconv.Itoa(e.SWEnd), nil
	case ColumnHWStart:
		return strconv.Itoa(e.HWStart), nil
	case ColumnHWEnd:
		return strconv.Itoa(e.HWEnd), nil
	case ColumnMinSinceLastDist:
		return strconv.Itoa(e.MinSinceLastDist), nil
	case ColumnMaxSinceLastDist:
		return strconv.Itoa(e.MaxSinceLastDist), nil
	case ColumnLastDistID:
		return strconv.Itoa(e.LastDistID), nil
	case ColumnEfficiency:
		return FormatFloat(e.Efficiency), nil
	case ColumnSortType:
		return strconv.Itoa(int(e.SortType)), nil
	case ColumnMeasurementType:
		return string(e.MeasurementType), nil
	case ColumnAmount:
		return FormatFloat(e.Amount), nil
	case ColumnDistTypeName:
		return string(e.DistTypeName), nil
	case ColumnStep:
		return strconv.Itoa(e.Step), nil
	}
	if i := boundIndex(column); i >= 0 {
		return FormatFloat(e.Bounds[i]), nil
	}
	if v, ok := e.Classifiers[column]; ok {
		return v, nil
	}
	return "", fmt.Errorf("event has no column %q: %w", column, ErrSchemaViolation)
}

// FormatFloat writes a float in its shortest exact decimal form
func FormatFloat(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func boundIndex(column string) int {
	for i, c := range BoundColumns {
		if c == column {
			return i
		}
	}
	return -1
}

func isEventColumn(schema ClassifierSchema, column string) bool {
	switch column {
	case ColumnUsingID, ColumnSWStart, ColumnSWEnd, ColumnHWStart, ColumnHWEnd,
		ColumnMinSinceLastDist, ColumnMaxSinceLastDist, ColumnLastDistID,
		ColumnEfficiency, ColumnSortType, ColumnMeasurementType,
		ColumnAmount, ColumnDistTypeName, ColumnStep:
		return true
	}
	return boundIndex(column) >= 0 || schema.Contains(column)
}

// ParseDisturbanceEvent reads an event from one event log row. Columns
// missing from the row keep their unconstrained defaults.
func ParseDisturbanceEvent(schema ClassifierSchema, columns, values []string) (DisturbanceEvent, error) {
	if len(columns) != len(values) {
		return DisturbanceEvent{}, fmt.Errorf("row has %d values for %d columns", len(values), len(columns))
	}
	e := DisturbanceEvent{
		Classifiers:     make(Classifiers, len(schema)),
		LastDistID:      Unconstrained,
		MeasurementType: MeasurementMass,
	}
	for i := range e.Bounds {
		e.Bounds[i] = Unconstrained
	}
	for _, name := range schema {
		e.Classifiers[name] = ClassifierPlaceholder
	}

	for i, col := range columns {
		raw := strings.TrimSpace(values[i])
		var err error
		switch col {
		case ColumnUsingID:
			e.UsingID, err = parseBool(raw)
		case ColumnSWStart:
			e.SWStart, err = parseInt(raw)
		case ColumnSWEnd:
			e.SWEnd, err = parseInt(raw)
		case ColumnHWStart:
			e.HWStart, err = parseInt(raw)
		case ColumnHWEnd:
			e.HWEnd, err = parseInt(raw)
		case ColumnMinSinceLastDist:
			e.MinSinceLastDist, err = parseInt(raw)
		case ColumnMaxSinceLastDist:
			e.MaxSinceLastDist, err = parseInt(raw)
		case ColumnLastDistID:
			e.LastDistID, err = parseInt(raw)
		case ColumnEfficiency:
			e.Efficiency, err = strconv.ParseFloat(raw, 64)
		case ColumnSortType:
			var s int
			s, err = parseInt(raw)
			e.SortType = SortType(s)
		case ColumnMeasurementType:
			e.MeasurementType, err = ParseMeasurementType(raw)
		case ColumnAmount:
			e.Amount, err = strconv.ParseFloat(raw, 64)
		case ColumnDistTypeName:
			e.DistTypeName, err = ParseDisturbanceID(raw)
		case ColumnStep:
			e.Step, err = parseInt(raw)
		default:
			if b := boundIndex(col); b >= 0 {
				e.Bounds[b], err = strconv.ParseFloat(raw, 64)
			} else if schema.Contains(col) {
				e.Classifiers[col] = raw
			} else {
				return DisturbanceEvent{}, fmt.Errorf("unknown event column %q: %w", col, ErrSchemaViolation)
			}
		}
		if err != nil {
			return DisturbanceEvent{}, fmt.Errorf("column %s: %w", col, err)
		}
	}
	return e, nil
}

func parseInt(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %q", s)
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("invalid integer: %q", s)
	}
	return int(f), nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "t", "yes":
		return true, nil
	case "false", "0", "f", "no", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean: %q", s)
}

// EventLog is the append-only table of disturbance events handed to the
// simulator. Rows are kept in their written form so historical events are
// reproduced byte for byte.
type EventLog struct {
	schema  ClassifierSchema
	columns []string
	rows    [][]string
}

// NewEventLog creates an event log, rejecting columns no event can fill
func NewEventLog(schema ClassifierSchema, columns []string, rows [][]string) (*EventLog, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("event log needs at least one column: %w", ErrSchemaViolation)
	}
	seen := make(map[string]bool, len(columns))
	var unknown []string
	for _, col := range columns {
		if seen[col] {
			return nil, fmt.Errorf("duplicate event log column %q: %w", col, ErrSchemaViolation)
		}
		seen[col] = true
		if !isEventColumn(schema, col) {
			unknown = append(unknown, col)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown event log columns %s: %w", strings.Join(unknown, ", "), ErrSchemaViolation)
	}
	copied := make([][]string, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("event log row %d has %d values for %d columns: %w", i+1, len(row), len(columns), ErrSchemaViolation)
		}
		copied[i] = append([]string(nil), row...)
	}
	return &EventLog{
		schema:  append(ClassifierSchema(nil), schema...),
		columns: append([]string(nil), columns...),
		rows:    copied,
	}, nil
}

// Columns returns the column order of the log
func (l *EventLog) Columns() []string {
	return append([]string(nil), l.columns...)
}

// Schema returns the classifier schema of the log
func (l *EventLog) Schema() ClassifierSchema {
	return append(ClassifierSchema(nil), l.schema...)
}

// Len returns the number of rows
func (l *EventLog) Len() int {
	return len(l.rows)
}

// Rows returns a copy of the rows in written form
func (l *EventLog) Rows() [][]string {
	out := make([][]string, len(l.rows))
	for i, row := range l.rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Append returns a new log with the events added after the existing rows.
// The receiver is left untouched.
func (l *EventLog) Append(events []DisturbanceEvent) (*EventLog, error) {
	rows := make([][]string, len(l.rows), len(l.rows)+len(events))
	copy(rows, l.rows)
	for i, e := range events {
		row := make([]string, len(l.columns))
		for j, col := range l.columns {
			v, err := e.Value(col)
			if err != nil {
				return nil, fmt.Errorf("event %d: %w", i+1, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return &EventLog{schema: l.schema, columns: l.columns, rows: rows}, nil
}

// Events parses every row of the log
func (l *EventLog) Events() ([]DisturbanceEvent, error) {
	events := make([]DisturbanceEvent, 0, len(l.rows))
	for i, row := range l.rows {
		e, err := ParseDisturbanceEvent(l.schema, l.columns, row)
		if err != nil {
			return nil, fmt.Errorf("event log row %d: %w", i+1, err)
		}
		events = append(events, e)
	}
	return events, nil
}
