package orchestration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/harvest/pkg/application/dto"
	"github.com/vsinha/harvest/pkg/application/services/allocation"
	"github.com/vsinha/harvest/pkg/application/services/assembly"
	"github.com/vsinha/harvest/pkg/application/services/conservation"
	"github.com/vsinha/harvest/pkg/application/services/proportion"
	"github.com/vsinha/harvest/pkg/application/services/shared"
	"github.com/vsinha/harvest/pkg/domain/entities"
	"github.com/vsinha/harvest/pkg/domain/repositories"
	"github.com/vsinha/harvest/pkg/infrastructure/events"
)

// Run stages, reported in run.failed events
const (
	StageLoad         = "load"
	StageProportions  = "proportions"
	StageRoundwood    = "roundwood"
	StageFuelwood     = "fuelwood"
	StageConservation = "conservation"
	StageAssembly     = "assembly"
	StagePersist      = "persist"
)

// StageError wraps the error of a failed run stage
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// AllocationOrchestrator runs the allocation pipeline for one country:
// proportions, roundwood, fuelwood, conservation and event assembly
type AllocationOrchestrator struct {
	eventStore   events.EventStore
	eventLogRepo repositories.EventLogRepository
	logger       *zap.Logger
}

// NewAllocationOrchestrator creates an orchestrator. A nil event store
// disables milestone publishing.
func NewAllocationOrchestrator(eventStore events.EventStore, logger *zap.Logger) *AllocationOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationOrchestrator{eventStore: eventStore, logger: logger}
}

// WithEventLogRepository makes runs read their history from, and persist
// their new events to, the given repository
func (o *AllocationOrchestrator) WithEventLogRepository(repo repositories.EventLogRepository) *AllocationOrchestrator {
	o.eventLogRepo = repo
	return o
}

func (o *AllocationOrchestrator) publish(runID string, event events.Event) {
	if o.eventStore == nil {
		return
	}
	if err := o.eventStore.AppendEvent(runID, event); err != nil {
		o.logger.Warn("failed to publish run event",
			zap.String("run_id", runID),
			zap.String("type", event.Type()),
			zap.Error(err))
	}
}

func (o *AllocationOrchestrator) fail(runID, stage string, err error) error {
	o.publish(runID, events.NewRunFailedEvent(runID, stage, err))
	return &StageError{Stage: stage, Err: err}
}

// Run executes the complete allocation for the context. A failed stage
// aborts the run and no partial result is returned.
func (o *AllocationOrchestrator) Run(ctx context.Context, rc *shared.RunContext) (*dto.AllocationRun, error) {
	started := time.Now()
	if err := rc.Validate(); err != nil {
		return nil, o.fail(rc.RunID, StageLoad, err)
	}
	logger := o.logger.With(
		zap.String("run_id", rc.RunID),
		zap.String("country", rc.Country),
		zap.String("scenario", string(rc.Scenario)))

	history := rc.History
	if history == nil && o.eventLogRepo != nil {
		var err error
		if history, err = o.eventLogRepo.LoadHistory(ctx, rc.Country, rc.Schema); err != nil {
			return nil, o.fail(rc.RunID, StageLoad, err)
		}
	}
	o.publish(rc.RunID, events.NewDemandLoadedEvent(rc.RunID, rc.Country, string(rc.Scenario), len(rc.Demands)))

	run := &dto.AllocationRun{
		RunID:     rc.RunID,
		Country:   rc.Country,
		Scenario:  string(rc.Scenario),
		StartedAt: started,
	}

	asm := assembly.NewAssembler(rc.Schema, logger)
	if rc.Scenario == shared.ScenarioEmpty {
		combined, err := asm.AppendToHistory(history, nil)
		if err != nil {
			return nil, o.fail(rc.RunID, StageAssembly, err)
		}
		run.Combined = combined
		run.Duration = time.Since(started)
		logger.Info("empty scenario, history kept unchanged", zap.Int("rows", combined.Len()))
		return run, nil
	}

	// proportions
	if err := ctx.Err(); err != nil {
		return nil, o.fail(rc.RunID, StageProportions, err)
	}
	rules := rc.Rules
	if rules == nil {
		var err error
		builder := proportion.NewBuilderWithConfig(rc.Proportion, logger)
		if rules, err = builder.Build(rc.ProportionInputs()); err != nil {
			return nil, o.fail(rc.RunID, StageProportions, err)
		}
	}
	run.Rules = rules
	o.publish(rc.RunID, events.NewProportionsBuiltEvent(rc.RunID, rules))

	allocator, err := allocation.NewAllocatorWithConfig(rc.Allocation, logger)
	if err != nil {
		return nil, o.fail(rc.RunID, StageRoundwood, err)
	}

	// roundwood
	if err := ctx.Err(); err != nil {
		return nil, o.fail(rc.RunID, StageRoundwood, err)
	}
	roundwood, err := allocator.AllocateRoundwood(rc.Demands, rules)
	if err != nil {
		return nil, o.fail(rc.RunID, StageRoundwood, err)
	}
	run.Roundwood = roundwood
	o.publish(rc.RunID, events.NewRoundwoodAllocatedEvent(rc.RunID, roundwood))

	// fuelwood
	if err := ctx.Err(); err != nil {
		return nil, o.fail(rc.RunID, StageFuelwood, err)
	}
	fuelwood, err := allocator.AllocateFuelwood(rc.Demands, rules, roundwood)
	if err != nil {
		return nil, o.fail(rc.RunID, StageFuelwood, err)
	}
	run.Fuelwood = fuelwood.Allocations
	run.Balances = fuelwood.Balances
	o.publish(rc.RunID, events.NewFuelwoodAllocatedEvent(rc.RunID, fuelwood.Allocations))
	for _, balance := range fuelwood.Clipped() {
		o.publish(rc.RunID, events.NewFuelwoodClippedEvent(rc.RunID, balance))
	}

	// conservation
	if err := ctx.Err(); err != nil {
		return nil, o.fail(rc.RunID, StageConservation, err)
	}
	validator := conservation.NewValidator(rc.Allocation, logger)
	report, err := validator.Validate(rc.Demands, roundwood, fuelwood.Allocations)
	if report != nil {
		o.publish(rc.RunID, events.NewConservationCheckedEvent(rc.RunID,
			len(report.Roundwood)+len(report.Fuelwood), len(report.Failures())))
	}
	if err != nil {
		return nil, o.fail(rc.RunID, StageConservation, err)
	}
	run.Report = report

	// assembly
	if err := ctx.Err(); err != nil {
		return nil, o.fail(rc.RunID, StageAssembly, err)
	}
	result, err := asm.Assemble(history, roundwood, fuelwood.Allocations)
	if err != nil {
		return nil, o.fail(rc.RunID, StageAssembly, err)
	}
	run.NewEvents = result.Events
	run.Combined = result.Combined
	run.AutoAllocation = assembly.AutoAllocation(result.Events)
	o.publish(rc.RunID, events.NewEventsAssembledEvent(rc.RunID, len(result.Events), result.Combined.Len()))

	if o.eventLogRepo != nil {
		if err := o.eventLogRepo.Append(ctx, rc.RunID, rc.Country, rc.Schema, result.Combined.Columns(), result.Events); err != nil {
			return nil, o.fail(rc.RunID, StagePersist, err)
		}
	}

	run.Duration = time.Since(started)
	logger.Info("allocation run complete",
		zap.Int("rules", len(rules)),
		zap.Int("roundwood", len(roundwood)),
		zap.Int("fuelwood", len(fuelwood.Allocations)),
		zap.Int("clipped", len(fuelwood.Clipped())),
		zap.Int("new_events", len(result.Events)),
		zap.Duration("duration", run.Duration))
	return run, nil
}

// RunAll executes each context in order. A failed country does not stop
// the others; every failure is returned joined.
func (o *AllocationOrchestrator) RunAll(ctx context.Context, contexts []*shared.RunContext) ([]*dto.AllocationRun, error) {
	var runs []*dto.AllocationRun
	var errs []error
	for _, rc := range contexts {
		run, err := o.Run(ctx, rc)
		if err != nil {
			o.logger.Error("country run failed",
				zap.String("country", rc.Country),
				zap.NamedError("kind", Classify(err)),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", rc.Country, err))
			continue
		}
		runs = append(runs, run)
	}
	return runs, errors.Join(errs...)
}

// Classify maps a run error to the domain error kind it carries
func Classify(err error) error {
	for _, kind := range []error{
		entities.ErrDataInconsistency,
		entities.ErrConservationViolation,
		entities.ErrSchemaViolation,
		entities.ErrMissingCoefficient,
		context.Canceled,
		context.DeadlineExceeded,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
