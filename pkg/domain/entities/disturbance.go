package entities

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DisturbanceID is the canonical form of a disturbance type identifier.
// Source tables carry the id either as a number or as text; both forms
// are normalised before any join.
type DisturbanceID string

// ParseDisturbanceID normalises a raw disturbance identifier
func ParseDisturbanceID(raw string) (DisturbanceID, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("disturbance id cannot be empty")
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && math.Abs(f) < 1<<63 && f == math.Trunc(f) {
		return DisturbanceID(strconv.FormatInt(int64(f), 10)), nil
	}
	return DisturbanceID(s), nil
}

// DefaultIgnoredDisturbances are the natural disturbances excluded from the
// harvest proportion calculation
var DefaultIgnoredDisturbances = []DisturbanceID{
	"5", "7", "21", "DISTID1", "DISTID5", "DISTID7", "DISTID9b_H", "DISTID9c_H",
}

// SortType is the stand selection order used by the simulator
type SortType int

const (
	SortProportion SortType = 1
	SortRandom     SortType = 6
)

// String method for SortType
func (s SortType) String() string {
	switch s {
	case SortProportion:
		return "proportion"
	case SortRandom:
		return "random"
	default:
		return strconv.Itoa(int(s))
	}
}

// MeasurementType is the unit an event amount is expressed in
type MeasurementType string

const (
	MeasurementArea       MeasurementType = "A"
	MeasurementProportion MeasurementType = "P"
	MeasurementMass       MeasurementType = "M"
)

// ParseMeasurementType validates a measurement type code
func ParseMeasurementType(s string) (MeasurementType, error) {
	switch m := MeasurementType(strings.ToUpper(strings.TrimSpace(s))); m {
	case MeasurementArea, MeasurementProportion, MeasurementMass:
		return m, nil
	default:
		return "", fmt.Errorf("invalid measurement type: %q (expected A, P or M)", s)
	}
}
