package dto

import (
	"fmt"
	"time"

	"github.com/vsinha/harvest/pkg/application/services/assembly"
	"github.com/vsinha/harvest/pkg/application/services/conservation"
	"github.com/vsinha/harvest/pkg/domain/entities"
)

// AllocationRun contains the complete output of one country run
type AllocationRun struct {
	RunID          string
	Country        string
	Scenario       string
	Rules          []entities.AllocationRule
	Roundwood      []entities.RoundwoodAllocation
	Fuelwood       []entities.FuelwoodAllocation
	Balances       []entities.FuelwoodBalance
	Report         *conservation.Report
	NewEvents      []entities.DisturbanceEvent
	Combined       *entities.EventLog
	AutoAllocation []assembly.AutoAllocationRow
	StartedAt      time.Time
	Duration       time.Duration
}

// NewEventCount returns the number of events the run appended
func (r *AllocationRun) NewEventCount() int {
	return len(r.NewEvents)
}

// HistoryCount returns the number of rows the log held before the run
func (r *AllocationRun) HistoryCount() int {
	if r.Combined == nil {
		return 0
	}
	return r.Combined.Len() - len(r.NewEvents)
}

// GetSummary returns a short description of the run
func (r *AllocationRun) GetSummary() string {
	summary := fmt.Sprintf("Allocation Summary for %s (%s, run %s):\n", r.Country, r.Scenario, r.RunID)
	summary += fmt.Sprintf("  Rules: %d, roundwood allocations: %d, fuelwood allocations: %d\n",
		len(r.Rules), len(r.Roundwood), len(r.Fuelwood))
	clipped := 0
	for _, b := range r.Balances {
		if b.Clipped {
			clipped++
		}
	}
	summary += fmt.Sprintf("  Fuelwood demands covered by byproducts: %d of %d\n", clipped, len(r.Balances))
	summary += fmt.Sprintf("  Events: %d new, %d historical", r.NewEventCount(), r.HistoryCount())
	return summary
}
