package repositories

import (
	"context"

	"github.com/vsinha/harvest/pkg/domain/entities"
)

// EventLogRepository persists the disturbance event log of a country
type EventLogRepository interface {
	// LoadHistory returns the stored log, or nil when the country has none
	LoadHistory(ctx context.Context, country string, schema entities.ClassifierSchema) (*entities.EventLog, error)
	// Append stores the events of one run after the existing rows
	Append(ctx context.Context, runID, country string, schema entities.ClassifierSchema, columns []string, events []entities.DisturbanceEvent) error
}
