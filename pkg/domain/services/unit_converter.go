package services

import (
	"fmt"
	"math"

	"github.com/vsinha/harvest/pkg/domain/entities"
)

// CarbonFraction is the share of carbon in dry wood mass
const CarbonFraction = 0.5

// VolumeToCarbon converts a wood volume in m3 to tonnes of carbon
func VolumeToCarbon(volume, density float64) (float64, error) {
	if err := checkDensity(density); err != nil {
		return 0, err
	}
	return volume * density * CarbonFraction, nil
}

// CarbonToVolume converts tonnes of carbon back to a wood volume in m3
func CarbonToVolume(mass, density float64) (float64, error) {
	if err := checkDensity(density); err != nil {
		return 0, err
	}
	return mass / CarbonFraction / density, nil
}

// Reconvert sends a volume through carbon and back, the path every
// allocated volume takes between demand and the event log
func Reconvert(volume, density float64) (float64, error) {
	mass, err := VolumeToCarbon(volume, density)
	if err != nil {
		return 0, err
	}
	return CarbonToVolume(mass, density)
}

func checkDensity(density float64) error {
	if math.IsNaN(density) || math.IsInf(density, 0) || density <= 0 {
		return fmt.Errorf("invalid wood density %v: %w", density, entities.ErrMissingCoefficient)
	}
	return nil
}
