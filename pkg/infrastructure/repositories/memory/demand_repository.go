package memory

import (
	"github.com/vsinha/harvest/pkg/domain/entities"
	"github.com/vsinha/harvest/pkg/domain/repositories"
)

// DemandRepository provides in-memory demand storage
type DemandRepository struct {
	demands []entities.DemandRecord
}

// NewDemandRepository creates a new in-memory demand repository
func NewDemandRepository() *DemandRepository {
	return &DemandRepository{
		demands: []entities.DemandRecord{},
	}
}

// Verify interface compliance
var _ repositories.DemandRepository = (*DemandRepository)(nil)

// LoadDemands loads demands into the repository
func (r *DemandRepository) LoadDemands(demands []*entities.DemandRecord) error {
	for _, demand := range demands {
		r.demands = append(r.demands, *demand)
	}
	return nil
}

// GetDemands returns all demand records
func (r *DemandRepository) GetDemands() ([]*entities.DemandRecord, error) {
	var demands []*entities.DemandRecord
	for i := range r.demands {
		demands = append(demands, &r.demands[i])
	}
	return demands, nil
}
