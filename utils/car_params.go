package utils

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CarSpec identifies the platform and its physical geometry.
type CarSpec struct {
	Name               string  `yaml:"name"`
	Fingerprint        string  `yaml:"fingerprint"`
	EPSFirmware        string  `yaml:"eps_firmware"`
	MassKg             float64 `yaml:"mass_kg"`
	WheelbaseM         float64 `yaml:"wheelbase_m"`
	CenterToFrontM     float64 `yaml:"center_to_front_m"`
	SteerRatio         float64 `yaml:"steer_ratio"`
	TireStiffnessFront float64 `yaml:"tire_stiffness_front"`
	TireStiffnessRear  float64 `yaml:"tire_stiffness_rear"`
}

// SteeringSpec describes the torque actuator.
type SteeringSpec struct {
	ActuatorDelayS   float64 `yaml:"actuator_delay_s"`
	MaxTorque        float64 `yaml:"max_torque"`
	LatAccelFactor   float64 `yaml:"lat_accel_factor"`
	Friction         float64 `yaml:"friction"`
	LatAccelDeadzone float64 `yaml:"lat_accel_deadzone"`
	UseSteeringAngle bool    `yaml:"use_steering_angle"`
}

// CapabilitySpec selects the feedforward path for this platform.
type CapabilitySpec struct {
	NeuralFeedforward bool `yaml:"neural_feedforward"`
	LateralJerk       bool `yaml:"lateral_jerk"`
}

// ModelsSpec points at the learned torque-response model store.
type ModelsSpec struct {
	Dir string `yaml:"dir"`
}

// PIDSpec carries the closed-loop gains.
type PIDSpec struct {
	Kp            float64 `yaml:"kp"`
	Ki            float64 `yaml:"ki"`
	Kd            float64 `yaml:"kd"`
	IntegralLimit float64 `yaml:"integral_limit"`
}

// CarParams is the top-level structure for car_params.yaml.
type CarParams struct {
	Car          CarSpec        `yaml:"car"`
	Steering     SteeringSpec   `yaml:"steering"`
	Capabilities CapabilitySpec `yaml:"capabilities"`
	Models       ModelsSpec     `yaml:"models"`
	PID          PIDSpec        `yaml:"pid"`
}

// LoadCarParams reads and validates car_params.yaml.
func LoadCarParams(path string) (*CarParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read car params: %w", err)
	}
	var p CarParams
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse car params: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("car params %s: %w", path, err)
	}
	return &p, nil
}

func (p *CarParams) Validate() error {
	if p.Car.Fingerprint == "" {
		return fmt.Errorf("car.fingerprint is required")
	}
	if p.Car.MassKg <= 0 {
		return fmt.Errorf("car.mass_kg must be positive, got %v", p.Car.MassKg)
	}
	if p.Car.WheelbaseM <= 0 {
		return fmt.Errorf("car.wheelbase_m must be positive, got %v", p.Car.WheelbaseM)
	}
	if p.Car.CenterToFrontM <= 0 || p.Car.CenterToFrontM >= p.Car.WheelbaseM {
		return fmt.Errorf("car.center_to_front_m must lie inside the wheelbase, got %v", p.Car.CenterToFrontM)
	}
	if p.Car.SteerRatio <= 0 {
		return fmt.Errorf("car.steer_ratio must be positive, got %v", p.Car.SteerRatio)
	}
	if p.Car.TireStiffnessFront <= 0 || p.Car.TireStiffnessRear <= 0 {
		return fmt.Errorf("car tire stiffness must be positive, got %v/%v",
			p.Car.TireStiffnessFront, p.Car.TireStiffnessRear)
	}
	if p.Steering.ActuatorDelayS < 0 {
		return fmt.Errorf("steering.actuator_delay_s must not be negative, got %v", p.Steering.ActuatorDelayS)
	}
	if p.Steering.MaxTorque <= 0 {
		return fmt.Errorf("steering.max_torque must be positive, got %v", p.Steering.MaxTorque)
	}
	if p.Steering.LatAccelFactor <= 0 {
		return fmt.Errorf("steering.lat_accel_factor must be positive, got %v", p.Steering.LatAccelFactor)
	}
	if p.Steering.Friction < 0 {
		return fmt.Errorf("steering.friction must not be negative, got %v", p.Steering.Friction)
	}
	if p.Steering.LatAccelDeadzone < 0 {
		return fmt.Errorf("steering.lat_accel_deadzone must not be negative, got %v", p.Steering.LatAccelDeadzone)
	}
	if p.Capabilities.NeuralFeedforward && p.Models.Dir == "" {
		return fmt.Errorf("models.dir is required when capabilities.neural_feedforward is set")
	}
	return nil
}
