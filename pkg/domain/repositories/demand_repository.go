package repositories

import "github.com/vsinha/harvest/pkg/domain/entities"

// DemandRepository provides access to projected wood demand
type DemandRepository interface {
	GetDemands() ([]*entities.DemandRecord, error)
	LoadDemands(demands []*entities.DemandRecord) error
}
