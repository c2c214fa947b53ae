package events

import (
	"github.com/vsinha/harvest/pkg/domain/entities"
)

const (
	DemandLoadedEvent        = "demand.loaded"
	ProportionsBuiltEvent    = "proportions.built"
	RoundwoodAllocatedEvent  = "roundwood.allocated"
	FuelwoodAllocatedEvent   = "fuelwood.allocated"
	FuelwoodClippedEvent     = "fuelwood.clipped"
	ConservationCheckedEvent = "conservation.checked"
	EventsAssembledEvent     = "events.assembled"
	RunFailedEvent           = "run.failed"
)

// AllEventTypes lists every run milestone
var AllEventTypes = []string{
	DemandLoadedEvent,
	ProportionsBuiltEvent,
	RoundwoodAllocatedEvent,
	FuelwoodAllocatedEvent,
	FuelwoodClippedEvent,
	ConservationCheckedEvent,
	EventsAssembledEvent,
	RunFailedEvent,
}

type DemandLoaded struct {
	Country  string `json:"country"`
	Scenario string `json:"scenario"`
	Records  int    `json:"records"`
}

type ProportionsBuilt struct {
	Rules      int `json:"rules"`
	Categories int `json:"categories"`
}

type RoundwoodAllocated struct {
	Allocations int     `json:"allocations"`
	Volume      float64 `json:"volume"`
	Byproduct   float64 `json:"byproduct"`
}

type FuelwoodAllocated struct {
	Allocations int     `json:"allocations"`
	Volume      float64 `json:"volume"`
}

type FuelwoodClipped struct {
	Balance entities.FuelwoodBalance `json:"balance"`
}

type ConservationChecked struct {
	Comparisons int `json:"comparisons"`
	Failures    int `json:"failures"`
}

type EventsAssembled struct {
	NewEvents int `json:"new_events"`
	TotalRows int `json:"total_rows"`
}

type RunFailed struct {
	Stage string `json:"stage"`
	Error string `json:"error"`
}

func NewDemandLoadedEvent(runID, country, scenario string, records int) Event {
	return NewEvent(DemandLoadedEvent, runID, DemandLoaded{Country: country, Scenario: scenario, Records: records})
}

func NewProportionsBuiltEvent(runID string, rules []entities.AllocationRule) Event {
	categories := make(map[entities.ProductCategory]bool)
	for _, r := range rules {
		categories[r.Category] = true
	}
	return NewEvent(ProportionsBuiltEvent, runID, ProportionsBuilt{Rules: len(rules), Categories: len(categories)})
}

func NewRoundwoodAllocatedEvent(runID string, allocations []entities.RoundwoodAllocation) Event {
	data := RoundwoodAllocated{Allocations: len(allocations)}
	for _, a := range allocations {
		data.Volume += a.Amount
		data.Byproduct += a.Byproduct()
	}
	return NewEvent(RoundwoodAllocatedEvent, runID, data)
}

func NewFuelwoodAllocatedEvent(runID string, allocations []entities.FuelwoodAllocation) Event {
	data := FuelwoodAllocated{Allocations: len(allocations)}
	for _, a := range allocations {
		data.Volume += a.Amount
	}
	return NewEvent(FuelwoodAllocatedEvent, runID, data)
}

func NewFuelwoodClippedEvent(runID string, balance entities.FuelwoodBalance) Event {
	return NewEvent(FuelwoodClippedEvent, runID, FuelwoodClipped{Balance: balance})
}

func NewConservationCheckedEvent(runID string, comparisons, failures int) Event {
	return NewEvent(ConservationCheckedEvent, runID, ConservationChecked{Comparisons: comparisons, Failures: failures})
}

func NewEventsAssembledEvent(runID string, newEvents, totalRows int) Event {
	return NewEvent(EventsAssembledEvent, runID, EventsAssembled{NewEvents: newEvents, TotalRows: totalRows})
}

func NewRunFailedEvent(runID, stage string, err error) Event {
	return NewEvent(RunFailedEvent, runID, RunFailed{Stage: stage, Error: err.Error()})
}
