package control

import "fmt"

// Mode selects which feedforward path the controller runs. It is fixed at
// construction; switching paths means building a new controller.
type Mode int

const (
	// ModeStock relies on the analytic torque response only
	ModeStock Mode = iota
	// ModeLateralJerk adds the lookahead lateral jerk term to the stock
	// friction input
	ModeLateralJerk
	// ModeNeuralFeedforward drives feedforward torque from a learned
	// response model
	ModeNeuralFeedforward
)

// String returns the mode name for logging
func (m Mode) String() string {
	switch m {
	case ModeStock:
		return "stock"
	case ModeLateralJerk:
		return "lateral_jerk"
	case ModeNeuralFeedforward:
		return "neural_feedforward"
	default:
		return "unknown"
	}
}

// Config holds lateral feedforward controller parameters
type Config struct {
	CycleDtS            float64 `json:"cycle_dt_s"`
	SteerActuatorDelayS float64 `json:"steer_actuator_delay_s"`

	// Capability flags. UseTorqueModel requires a torque model at
	// construction; ModelFrictionOverride marks models with a weak learned
	// friction response that need the analytic friction added back.
	UseTorqueModel        bool `json:"use_torque_model"`
	UseLateralJerk        bool `json:"use_lateral_jerk"`
	UseSteeringAngle      bool `json:"use_steering_angle"`
	ModelFrictionOverride bool `json:"model_friction_override"`

	// Lookahead horizon grows with speed
	LookaheadSpeedBP []float64 `json:"lookahead_speed_bp"` // m/s
	LookaheadTimeV   []float64 `json:"lookahead_time_v"`   // s

	LatJerkFrictionFactor  float64 `json:"lat_jerk_friction_factor"`
	LatAccelFrictionFactor float64 `json:"lat_accel_friction_factor"`

	// Feature sample times relative to now. Past times index the history
	// buffers, future times index the trajectory prediction.
	FutureTimesS []float64 `json:"future_times_s"`
	PastTimesS   []float64 `json:"past_times_s"`

	PitchFilterRC float64 `json:"pitch_filter_rc"` // s
}

// DefaultConfig returns the shipped lateral feedforward tune
func DefaultConfig() Config {
	return Config{
		CycleDtS:               0.01,
		SteerActuatorDelayS:    0.2,
		LookaheadSpeedBP:       []float64{9.0, 30.0},
		LookaheadTimeV:         []float64{1.4, 2.0},
		LatJerkFrictionFactor:  0.4,
		LatAccelFrictionFactor: 0.7,
		FutureTimesS:           []float64{0.3, 0.6, 1.0, 1.5},
		PastTimesS:             []float64{-0.3, -0.2, -0.1},
		PitchFilterRC:          0.5,
	}
}

// Validate checks the configuration for internal consistency
func (cfg Config) Validate() error {
	if cfg.CycleDtS <= 0 {
		return fmt.Errorf("cycle_dt_s must be positive, got %v", cfg.CycleDtS)
	}
	if cfg.SteerActuatorDelayS < 0 {
		return fmt.Errorf("steer_actuator_delay_s must not be negative, got %v", cfg.SteerActuatorDelayS)
	}
	if len(cfg.LookaheadSpeedBP) == 0 || len(cfg.LookaheadSpeedBP) != len(cfg.LookaheadTimeV) {
		return fmt.Errorf("lookahead breakpoints: %d speeds vs %d times",
			len(cfg.LookaheadSpeedBP), len(cfg.LookaheadTimeV))
	}
	for i := 1; i < len(cfg.LookaheadSpeedBP); i++ {
		if cfg.LookaheadSpeedBP[i] <= cfg.LookaheadSpeedBP[i-1] {
			return fmt.Errorf("lookahead_speed_bp must be strictly increasing")
		}
	}
	if cfg.LatJerkFrictionFactor < 0 || cfg.LatJerkFrictionFactor > 3 {
		return fmt.Errorf("lat_jerk_friction_factor out of range [0, 3]: %v", cfg.LatJerkFrictionFactor)
	}
	if cfg.LatAccelFrictionFactor < 0 || cfg.LatAccelFrictionFactor > 3 {
		return fmt.Errorf("lat_accel_friction_factor out of range [0, 3]: %v", cfg.LatAccelFrictionFactor)
	}
	if len(cfg.FutureTimesS) == 0 {
		return fmt.Errorf("future_times_s must not be empty")
	}
	for i, t := range cfg.FutureTimesS {
		if t <= 0 {
			return fmt.Errorf("future_times_s[%d] must be positive, got %v", i, t)
		}
		if i > 0 && t <= cfg.FutureTimesS[i-1] {
			return fmt.Errorf("future_times_s must be strictly increasing")
		}
	}
	if len(cfg.PastTimesS) == 0 {
		return fmt.Errorf("past_times_s must not be empty")
	}
	for i, t := range cfg.PastTimesS {
		if t >= 0 {
			return fmt.Errorf("past_times_s[%d] must be negative, got %v", i, t)
		}
		if i > 0 && t <= cfg.PastTimesS[i-1] {
			return fmt.Errorf("past_times_s must be strictly increasing")
		}
	}
	if cfg.PitchFilterRC <= 0 {
		return fmt.Errorf("pitch_filter_rc must be positive, got %v", cfg.PitchFilterRC)
	}
	return nil
}
