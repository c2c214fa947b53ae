package shared

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vsinha/harvest/pkg/application/services/allocation"
	"github.com/vsinha/harvest/pkg/application/services/proportion"
	"github.com/vsinha/harvest/pkg/domain/entities"
	"github.com/vsinha/harvest/pkg/domain/repositories"
)

// Scenario selects how future disturbances are produced
type Scenario string

const (
	// ScenarioStaticDemand allocates the economic demand into new events
	ScenarioStaticDemand Scenario = "static_demand"
	// ScenarioEmpty keeps the historical events only
	ScenarioEmpty Scenario = "empty"
)

// ParseScenario validates a scenario name
func ParseScenario(s string) (Scenario, error) {
	switch sc := Scenario(strings.ToLower(strings.TrimSpace(s))); sc {
	case ScenarioStaticDemand, ScenarioEmpty:
		return sc, nil
	default:
		return "", fmt.Errorf("invalid scenario: %q (expected static_demand or empty)", s)
	}
}

// RunContext holds everything one allocation run reads. Runs share no
// other state, so a context fully determines its result.
type RunContext struct {
	RunID    string
	Country  string
	Scenario Scenario

	Schema            entities.ClassifierSchema
	Demands           []*entities.DemandRecord
	Inventory         []*entities.InventoryRecord
	Yields            []*entities.YieldRecord
	Treatments        []*entities.Treatment
	CorrectionFactors []*entities.CorrectionFactor
	Densities         []*entities.DensityCoefficient

	// Rules skips the proportion table builder when set
	Rules []entities.AllocationRule
	// History is the event log new events are appended to; nil starts a new log
	History *entities.EventLog

	Allocation allocation.Config
	Proportion proportion.Config
}

// NewRunContext creates an empty context with a fresh run id and default configuration
func NewRunContext(country string, scenario Scenario) *RunContext {
	return &RunContext{
		RunID:      uuid.NewString(),
		Country:    country,
		Scenario:   scenario,
		Allocation: allocation.DefaultConfig(),
		Proportion: proportion.DefaultConfig(),
	}
}

// NewRunContextFromRepositories fills a context from the country repositories
func NewRunContextFromRepositories(
	country string,
	scenario Scenario,
	demandRepo repositories.DemandRepository,
	forestRepo repositories.ForestRepository,
	silvicultureRepo repositories.SilvicultureRepository,
) (*RunContext, error) {
	rc := NewRunContext(country, scenario)

	var err error
	if rc.Schema, err = forestRepo.GetSchema(); err != nil {
		return nil, fmt.Errorf("failed to load classifier schema: %w", err)
	}
	if rc.Demands, err = demandRepo.GetDemands(); err != nil {
		return nil, fmt.Errorf("failed to load demand: %w", err)
	}
	if rc.Inventory, err = forestRepo.GetInventory(); err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	if rc.Yields, err = forestRepo.GetYields(); err != nil {
		return nil, fmt.Errorf("failed to load yields: %w", err)
	}
	if rc.Treatments, err = silvicultureRepo.GetTreatments(); err != nil {
		return nil, fmt.Errorf("failed to load treatments: %w", err)
	}
	if rc.CorrectionFactors, err = silvicultureRepo.GetCorrectionFactors(); err != nil {
		return nil, fmt.Errorf("failed to load correction factors: %w", err)
	}
	if rc.Densities, err = silvicultureRepo.GetDensities(); err != nil {
		return nil, fmt.Errorf("failed to load densities: %w", err)
	}
	return rc, nil
}

// Validate checks the context before a run
func (rc *RunContext) Validate() error {
	if rc.Country == "" {
		return fmt.Errorf("run context has no country")
	}
	if _, err := ParseScenario(string(rc.Scenario)); err != nil {
		return err
	}
	if len(rc.Schema) == 0 {
		return fmt.Errorf("run context for %s has no classifier schema", rc.Country)
	}
	return rc.Allocation.Validate()
}

// ProportionInputs returns the tables the proportion builder reads
func (rc *RunContext) ProportionInputs() proportion.Inputs {
	return proportion.Inputs{
		Schema:            rc.Schema,
		Inventory:         rc.Inventory,
		Yields:            rc.Yields,
		Treatments:        rc.Treatments,
		CorrectionFactors: rc.CorrectionFactors,
		Densities:         rc.Densities,
	}
}
