package control

// VehicleState is the per-cycle vehicle measurement set consumed by the
// lateral controller
type VehicleState struct {
	VEgoMPS          float64 `json:"v_ego_mps"`
	AEgoMPS2         float64 `json:"a_ego_mps2"`
	SteeringAngleDeg float64 `json:"steering_angle_deg"`
	SteeringRateDegS float64 `json:"steering_rate_deg_s"`
}

// CalibratedPose is the device orientation estimate in the road frame.
// Valid is false until the calibrator has produced a usable estimate.
type CalibratedPose struct {
	PitchRad float64
	Valid    bool
}

// JerkState holds the lateral jerk quantities recomputed every cycle
type JerkState struct {
	// Actual is the jerk derived from the measured steering rate (m/s^3)
	Actual float64
	// Lookahead is the sign-consistent predicted jerk over the lookahead window (m/s^3)
	Lookahead float64
	// Setpoint and Measurement are the friction-scaled jerk terms fed to the
	// torque model feature vectors
	Setpoint    float64
	Measurement float64
	// AccelFrictionFactor is the effective lateral acceleration friction
	// factor for this cycle; forced to 1.0 when the jerk terms are unusable
	AccelFrictionFactor float64
}

// FeedforwardRequest carries one cycle's inputs to the feedforward engine
type FeedforwardRequest struct {
	State VehicleState
	// RoadRollRad is the live road roll estimate (rad)
	RoadRollRad float64
	Pose        CalibratedPose
	// DesiredLatAccel is the planner target lateral acceleration (m/s^2)
	DesiredLatAccel float64
	// Setpoint and Measurement are the tracking pair in lateral acceleration
	// space, including any low speed shaping applied by the caller (m/s^2)
	Setpoint    float64
	Measurement float64
	// LatAccelDeadzone widens the friction response deadband with steering
	// angle uncertainty (m/s^2)
	LatAccelDeadzone float64
}

// TorqueLog is the per-cycle log entry shared with the feedback path.
// Error carries the torque-space tracking error the feedback loop acts on.
type TorqueLog struct {
	Error                 float64 `json:"error"`
	TorqueFromSetpoint    float64 `json:"torque_from_setpoint"`
	TorqueFromMeasurement float64 `json:"torque_from_measurement"`
}
