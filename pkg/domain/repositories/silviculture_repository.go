package repositories

import "github.com/vsinha/harvest/pkg/domain/entities"

// SilvicultureRepository provides access to silviculture treatments and
// the coefficients they are combined with
type SilvicultureRepository interface {
	GetTreatments() ([]*entities.Treatment, error)
	GetCorrectionFactors() ([]*entities.CorrectionFactor, error)
	GetDensities() ([]*entities.DensityCoefficient, error)
	LoadTreatments(treatments []*entities.Treatment) error
	LoadCorrectionFactors(factors []*entities.CorrectionFactor) error
	LoadDensities(densities []*entities.DensityCoefficient) error
}
