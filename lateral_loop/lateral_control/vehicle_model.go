package control

import (
	"fmt"
	"math"
)

const gravityMPS2 = 9.81

// VehicleParams describes the physical car for the linear bicycle model
type VehicleParams struct {
	MassKg             float64 `json:"mass_kg"`
	WheelbaseM         float64 `json:"wheelbase_m"`
	CenterToFrontM     float64 `json:"center_to_front_m"`
	SteerRatio         float64 `json:"steer_ratio"`
	TireStiffnessFront float64 `json:"tire_stiffness_front"` // N/rad
	TireStiffnessRear  float64 `json:"tire_stiffness_rear"`  // N/rad
}

// Validate checks the parameters describe a physically plausible car
func (p VehicleParams) Validate() error {
	if p.MassKg <= 0 {
		return fmt.Errorf("mass_kg must be positive, got %v", p.MassKg)
	}
	if p.WheelbaseM <= 0 {
		return fmt.Errorf("wheelbase_m must be positive, got %v", p.WheelbaseM)
	}
	if p.CenterToFrontM <= 0 || p.CenterToFrontM >= p.WheelbaseM {
		return fmt.Errorf("center_to_front_m must lie inside the wheelbase, got %v", p.CenterToFrontM)
	}
	if p.SteerRatio <= 0 {
		return fmt.Errorf("steer_ratio must be positive, got %v", p.SteerRatio)
	}
	if p.TireStiffnessFront <= 0 || p.TireStiffnessRear <= 0 {
		return fmt.Errorf("tire stiffness must be positive, got front=%v rear=%v",
			p.TireStiffnessFront, p.TireStiffnessRear)
	}
	return nil
}

// BicycleModel is a linear single-track model of the car's steady state
// steering response
type BicycleModel struct {
	p            VehicleParams
	centerToRear float64
	slipFactor   float64 // s^2/m^2
}

// NewBicycleModel builds the model and precomputes the slip factor
func NewBicycleModel(p VehicleParams) (*BicycleModel, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("vehicle params: %w", err)
	}
	aR := p.WheelbaseM - p.CenterToFrontM
	sf := p.MassKg * (p.TireStiffnessFront*p.CenterToFrontM - p.TireStiffnessRear*aR) /
		(p.WheelbaseM * p.WheelbaseM * p.TireStiffnessFront * p.TireStiffnessRear)
	return &BicycleModel{p: p, centerToRear: aR, slipFactor: sf}, nil
}

// CurvatureFactor returns the curvature response to a unit road wheel angle
// at the given speed (1/m per rad)
func (m *BicycleModel) CurvatureFactor(speedMPS float64) float64 {
	return 1.0 / ((1.0 - m.slipFactor*speedMPS*speedMPS) * m.p.WheelbaseM)
}

// CalcCurvature returns the path curvature a steering wheel angle produces
// at the given speed, less the curvature the banked road provides for free
func (m *BicycleModel) CalcCurvature(steerAngleRad, speedMPS, rollRad float64) float64 {
	return m.CurvatureFactor(speedMPS)*steerAngleRad/m.p.SteerRatio - m.RollCompensation(rollRad, speedMPS)
}

// RollCompensation returns the curvature equivalent of the road bank angle.
// Below walking speed the v^2 term is meaningless and 0 is returned.
func (m *BicycleModel) RollCompensation(rollRad, speedMPS float64) float64 {
	if math.Abs(speedMPS) < 1.0 {
		return 0.0
	}
	return gravityMPS2 * math.Sin(rollRad) / (speedMPS * speedMPS)
}

// LateralAccelRollCompensation returns the lateral acceleration the bank
// angle provides for free (m/s^2).
func LateralAccelRollCompensation(rollRad float64) float64 {
	return gravityMPS2 * math.Sin(rollRad)
}
