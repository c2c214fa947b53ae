package memory

import (
	"context"
	"sync"

	"github.com/vsinha/harvest/pkg/domain/entities"
	"github.com/vsinha/harvest/pkg/domain/repositories"
)

// EventLogRepository keeps event logs per country in memory
type EventLogRepository struct {
	mu   sync.RWMutex
	logs map[string]*entities.EventLog
}

// NewEventLogRepository creates an empty in-memory event log repository
func NewEventLogRepository() *EventLogRepository {
	return &EventLogRepository{logs: make(map[string]*entities.EventLog)}
}

// Verify interface compliance
var _ repositories.EventLogRepository = (*EventLogRepository)(nil)

// Seed stores an existing log for a country
func (r *EventLogRepository) Seed(country string, log *entities.EventLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs[country] = log
}

// LoadHistory returns the log of a country, or nil when none was stored
func (r *EventLogRepository) LoadHistory(ctx context.Context, country string, _ entities.ClassifierSchema) (*entities.EventLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.logs[country], nil
}

// Append adds the events of a run to the country log
func (r *EventLogRepository) Append(ctx context.Context, _ string, country string, schema entities.ClassifierSchema, columns []string, events []entities.DisturbanceEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	log := r.logs[country]
	if log == nil {
		var err error
		log, err = entities.NewEventLog(schema, columns, nil)
		if err != nil {
			return err
		}
	}
	combined, err := log.Append(events)
	if err != nil {
		return err
	}
	r.logs[country] = combined
	return nil
}
