package repositories

import "github.com/vsinha/harvest/pkg/domain/entities"

// ForestRepository provides access to the forest inventory and its yield curves
type ForestRepository interface {
	GetSchema() (entities.ClassifierSchema, error)
	GetInventory() ([]*entities.InventoryRecord, error)
	GetYields() ([]*entities.YieldRecord, error)
	LoadSchema(schema entities.ClassifierSchema) error
	LoadInventory(records []*entities.InventoryRecord) error
	LoadYields(records []*entities.YieldRecord) error
}
