package memory

import (
	"fmt"

	"github.com/vsinha/harvest/pkg/domain/entities"
	"github.com/vsinha/harvest/pkg/domain/repositories"
)

// ForestRepository provides in-memory inventory and yield storage
type ForestRepository struct {
	schema    entities.ClassifierSchema
	inventory []entities.InventoryRecord
	yields    []entities.YieldRecord
}

// NewForestRepository creates a new in-memory forest repository
func NewForestRepository(expectedRows int) *ForestRepository {
	return &ForestRepository{
		inventory: make([]entities.InventoryRecord, 0, expectedRows),
		yields:    make([]entities.YieldRecord, 0, expectedRows),
	}
}

// Verify interface compliance
var _ repositories.ForestRepository = (*ForestRepository)(nil)

// LoadSchema sets the classifier schema of the country
func (r *ForestRepository) LoadSchema(schema entities.ClassifierSchema) error {
	if len(schema) == 0 {
		return fmt.Errorf("classifier schema cannot be empty")
	}
	r.schema = append(entities.ClassifierSchema(nil), schema...)
	return nil
}

// GetSchema returns the classifier schema of the country
func (r *ForestRepository) GetSchema() (entities.ClassifierSchema, error) {
	if len(r.schema) == 0 {
		return nil, fmt.Errorf("classifier schema not loaded")
	}
	return append(entities.ClassifierSchema(nil), r.schema...), nil
}

// LoadInventory loads inventory records into the repository
func (r *ForestRepository) LoadInventory(records []*entities.InventoryRecord) error {
	for _, rec := range records {
		if rec.Area < 0 {
			return fmt.Errorf("inventory area cannot be negative: %v", rec.Area)
		}
		r.inventory = append(r.inventory, *rec)
	}
	return nil
}

// GetInventory returns all inventory records
func (r *ForestRepository) GetInventory() ([]*entities.InventoryRecord, error) {
	records := make([]*entities.InventoryRecord, 0, len(r.inventory))
	for i := range r.inventory {
		records = append(records, &r.inventory[i])
	}
	return records, nil
}

// LoadYields loads yield curve values into the repository
func (r *ForestRepository) LoadYields(records []*entities.YieldRecord) error {
	for _, rec := range records {
		r.yields = append(r.yields, *rec)
	}
	return nil
}

// GetYields returns all yield curve values
func (r *ForestRepository) GetYields() ([]*entities.YieldRecord, error) {
	records := make([]*entities.YieldRecord, 0, len(r.yields))
	for i := range r.yields {
		records = append(records, &r.yields[i])
	}
	return records, nil
}
