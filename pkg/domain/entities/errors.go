package entities

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDataInconsistency reports input tables that contradict each other
	ErrDataInconsistency = errors.New("data inconsistency")
	// ErrConservationViolation reports allocated volume that does not match demand
	ErrConservationViolation = errors.New("conservation violation")
	// ErrSchemaViolation reports events that cannot be written to the event log
	ErrSchemaViolation = errors.New("schema violation")
	// ErrMissingCoefficient reports a missing or zero divisor
	ErrMissingCoefficient = errors.New("missing coefficient")
)

// ConservationError describes one (product, step, class) whose allocated
// volume is outside the tolerance of its demand
type ConservationError struct {
	Product   Product
	Step      int
	ConBroad  ConBroad
	Allocated float64
	Demand    float64
	Tolerance float64
}

func (e *ConservationError) Error() string {
	return fmt.Sprintf(
		"%s conservation violated at step %d %s: allocated %.6f m3, demand %.6f m3 (tolerance %g)",
		e.Product, e.Step, e.ConBroad, e.Allocated, e.Demand, e.Tolerance,
	)
}

func (e *ConservationError) Unwrap() error {
	return ErrConservationViolation
}

// SchemaError lists the disturbance types of rejected events
type SchemaError struct {
	DisturbanceTypes []DisturbanceID
	Reason           string
}

func (e *SchemaError) Error() string {
	ids := make([]string, len(e.DisturbanceTypes))
	for i, id := range e.DisturbanceTypes {
		ids[i] = string(id)
	}
	if len(ids) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s: dist_type_name %s", e.Reason, strings.Join(ids, ", "))
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaViolation
}
