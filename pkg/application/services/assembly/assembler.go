package assembly

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/vsinha/harvest/pkg/domain/entities"
	"github.com/vsinha/harvest/pkg/domain/services"
)

// Assembler turns allocations into simulator disturbance events and
// appends them to the event log
type Assembler struct {
	schema    entities.ClassifierSchema
	validator *services.EventValidator
	logger    *zap.Logger
}

// NewAssembler creates an assembler for a country classifier schema
func NewAssembler(schema entities.ClassifierSchema, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		schema:    append(entities.ClassifierSchema(nil), schema...),
		validator: services.NewEventValidator(),
		logger:    logger,
	}
}

// Result holds the new events and the log they were appended to
type Result struct {
	Events   []entities.DisturbanceEvent
	Combined *entities.EventLog
}

func (a *Assembler) newEvent(step int, rule entities.AllocationRule, volume float64) (entities.DisturbanceEvent, error) {
	mass, err := services.VolumeToCarbon(volume, rule.Density)
	if err != nil {
		return entities.DisturbanceEvent{}, fmt.Errorf("disturbance %s at step %d: %w", rule.DisturbanceID, step, err)
	}

	classifiers := make(entities.Classifiers, len(a.schema))
	for _, name := range a.schema {
		if v, ok := rule.Classifiers[name]; ok && v != "" {
			classifiers[name] = v
		} else {
			classifiers[name] = entities.ClassifierPlaceholder
		}
	}

	e := entities.DisturbanceEvent{
		Classifiers:      classifiers,
		UsingID:          false,
		SWStart:          rule.MinAge,
		SWEnd:            rule.MaxAge,
		HWStart:          rule.MinAge,
		HWEnd:            rule.MaxAge,
		MinSinceLastDist: rule.MinSinceLast,
		MaxSinceLastDist: rule.MaxSinceLast,
		LastDistID:       entities.Unconstrained,
		Efficiency:       rule.Efficiency,
		SortType:         rule.SortType,
		MeasurementType:  entities.MeasurementMass,
		Amount:           mass,
		DistTypeName:     rule.DisturbanceID,
		Step:             step,
	}
	for i := range e.Bounds {
		e.Bounds[i] = entities.Unconstrained
	}
	return e, nil
}

// BuildEvents converts roundwood then fuelwood allocations into events
// expressed in tonnes of carbon. Events the simulator would reject abort
// the whole batch.
func (a *Assembler) BuildEvents(
	roundwood []entities.RoundwoodAllocation,
	fuelwood []entities.FuelwoodAllocation,
) ([]entities.DisturbanceEvent, error) {
	events := make([]entities.DisturbanceEvent, 0, len(roundwood)+len(fuelwood))
	for _, alloc := range roundwood {
		e, err := a.newEvent(alloc.Step, alloc.Rule, alloc.Amount)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	for _, alloc := range fuelwood {
		e, err := a.newEvent(alloc.Step, alloc.Rule, alloc.Amount)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if result := a.validator.ValidateEvents(events); !result.Valid() {
		return nil, result.Err()
	}
	return events, nil
}

// AppendToHistory appends events after the historical rows, in the
// historical column order. A missing history starts a new log with the
// default columns.
func (a *Assembler) AppendToHistory(history *entities.EventLog, events []entities.DisturbanceEvent) (*entities.EventLog, error) {
	if history == nil {
		var err error
		history, err = entities.NewEventLog(a.schema, entities.EventColumns(a.schema), nil)
		if err != nil {
			return nil, err
		}
	}
	return history.Append(events)
}

// Assemble builds the events of one run and appends them to the history
func (a *Assembler) Assemble(
	history *entities.EventLog,
	roundwood []entities.RoundwoodAllocation,
	fuelwood []entities.FuelwoodAllocation,
) (*Result, error) {
	events, err := a.BuildEvents(roundwood, fuelwood)
	if err != nil {
		return nil, err
	}
	combined, err := a.AppendToHistory(history, events)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("events assembled",
		zap.Int("events", len(events)),
		zap.Int("rows", combined.Len()))
	return &Result{Events: events, Combined: combined}, nil
}
