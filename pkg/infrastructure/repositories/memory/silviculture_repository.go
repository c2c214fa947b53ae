package memory

import (
	"github.com/vsinha/harvest/pkg/domain/entities"
	"github.com/vsinha/harvest/pkg/domain/repositories"
)

// SilvicultureRepository provides in-memory storage of treatments and coefficients
type SilvicultureRepository struct {
	treatments []entities.Treatment
	factors    []entities.CorrectionFactor
	densities  []entities.DensityCoefficient
}

// NewSilvicultureRepository creates a new in-memory silviculture repository
func NewSilvicultureRepository() *SilvicultureRepository {
	return &SilvicultureRepository{}
}

// Verify interface compliance
var _ repositories.SilvicultureRepository = (*SilvicultureRepository)(nil)

// LoadTreatments validates and stores silviculture treatments
func (r *SilvicultureRepository) LoadTreatments(treatments []*entities.Treatment) error {
	for _, t := range treatments {
		if err := t.Validate(); err != nil {
			return err
		}
		r.treatments = append(r.treatments, *t)
	}
	return nil
}

// GetTreatments returns all treatments
func (r *SilvicultureRepository) GetTreatments() ([]*entities.Treatment, error) {
	out := make([]*entities.Treatment, 0, len(r.treatments))
	for i := range r.treatments {
		out = append(out, &r.treatments[i])
	}
	return out, nil
}

// LoadCorrectionFactors stores harvest correction factors
func (r *SilvicultureRepository) LoadCorrectionFactors(factors []*entities.CorrectionFactor) error {
	for _, f := range factors {
		r.factors = append(r.factors, *f)
	}
	return nil
}

// GetCorrectionFactors returns all harvest correction factors
func (r *SilvicultureRepository) GetCorrectionFactors() ([]*entities.CorrectionFactor, error) {
	out := make([]*entities.CorrectionFactor, 0, len(r.factors))
	for i := range r.factors {
		out = append(out, &r.factors[i])
	}
	return out, nil
}

// LoadDensities stores wood density coefficients
func (r *SilvicultureRepository) LoadDensities(densities []*entities.DensityCoefficient) error {
	for _, d := range densities {
		r.densities = append(r.densities, *d)
	}
	return nil
}

// GetDensities returns all wood density coefficients
func (r *SilvicultureRepository) GetDensities() ([]*entities.DensityCoefficient, error) {
	out := make([]*entities.DensityCoefficient, 0, len(r.densities))
	for i := range r.densities {
		out = append(out, &r.densities[i])
	}
	return out, nil
}
