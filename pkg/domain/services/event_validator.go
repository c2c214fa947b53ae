package services

import (
	"fmt"
	"sort"

	"github.com/vsinha/harvest/pkg/domain/entities"
)

// EventValidator checks disturbance events against the simulator's
// constraints before they are written
type EventValidator struct{}

// NewEventValidator creates a new event validator
func NewEventValidator() *EventValidator {
	return &EventValidator{}
}

// ValidationResult contains the results of event validation
type ValidationResult struct {
	RandomSortMass []entities.DisturbanceID
	Errors         []string
}

// Valid reports whether no event was rejected
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Err returns the rejection as a SchemaError, or nil
func (r *ValidationResult) Err() error {
	if len(r.RandomSortMass) == 0 {
		return nil
	}
	return &entities.SchemaError{
		DisturbanceTypes: r.RandomSortMass,
		Reason:           "random sort type 6 is not allowed with disturbances expressed as merchantable carbon (measurement type M)",
	}
}

// IsSortCompatible reports whether the simulator accepts a sort type for a
// measurement type. Random selection cannot target a mass of carbon.
func IsSortCompatible(sort entities.SortType, measurement entities.MeasurementType) bool {
	return !(sort == entities.SortRandom && measurement == entities.MeasurementMass)
}

// ValidateEvents collects the distinct disturbance types of incompatible events
func (v *EventValidator) ValidateEvents(events []entities.DisturbanceEvent) *ValidationResult {
	result := &ValidationResult{
		RandomSortMass: make([]entities.DisturbanceID, 0),
		Errors:         make([]string, 0),
	}

	seen := make(map[entities.DisturbanceID]bool)
	for _, e := range events {
		if IsSortCompatible(e.SortType, e.MeasurementType) || seen[e.DistTypeName] {
			continue
		}
		seen[e.DistTypeName] = true
		result.RandomSortMass = append(result.RandomSortMass, e.DistTypeName)
	}
	sort.Slice(result.RandomSortMass, func(i, j int) bool {
		return result.RandomSortMass[i] < result.RandomSortMass[j]
	})

	if len(result.RandomSortMass) > 0 {
		result.Errors = append(result.Errors,
			fmt.Sprintf("random sort type on mass disturbances: %v", result.RandomSortMass))
	}
	return result
}
