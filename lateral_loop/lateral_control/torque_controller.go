package control

// LatPIDConfig holds feedback gains for the steering torque loop
type LatPIDConfig struct {
	Kp            float64 `json:"kp"`
	Ki            float64 `json:"ki"`
	Kd            float64 `json:"kd"`
	MaxTorque     float64 `json:"max_torque"` // normalized torque bound
	IntegralLimit float64 `json:"integral_limit"`
}

// LatTorqueController closes the loop on the torque-space tracking error and
// blends in the feedforward torque
type LatTorqueController struct {
	cfg LatPIDConfig

	// State
	integral    float64
	prevError   float64
	saturated   bool
	initialized bool
}

// NewLatTorqueController creates a torque feedback controller
func NewLatTorqueController(cfg LatPIDConfig) *LatTorqueController {
	return &LatTorqueController{cfg: cfg}
}

// Reset clears the feedback state
func (lc *LatTorqueController) Reset() {
	lc.integral = 0.0
	lc.prevError = 0.0
	lc.saturated = false
	lc.initialized = false
}

// Update computes the total steering torque command from the torque-space
// tracking error and the feedforward torque
func (lc *LatTorqueController) Update(errorTorque, feedforward, dt float64) float64 {
	if !lc.initialized {
		lc.prevError = errorTorque
		lc.initialized = true
		return ClampFloat(feedforward, -lc.cfg.MaxTorque, lc.cfg.MaxTorque)
	}

	p := lc.cfg.Kp * errorTorque

	// Integral term with anti-windup
	lc.integral += errorTorque * dt
	lc.integral = ClampFloat(lc.integral, -lc.cfg.IntegralLimit, lc.cfg.IntegralLimit)
	i := lc.cfg.Ki * lc.integral

	// Derivative on the error to avoid kick on setpoint steps
	var d float64
	if dt > 0 {
		d = lc.cfg.Kd * (errorTorque - lc.prevError) / dt
	}

	torque := p + i + d + feedforward

	// Saturate and back-calculate the integral so it does not wind past the
	// actuator limit
	lc.saturated = false
	if torque > lc.cfg.MaxTorque {
		torque = lc.cfg.MaxTorque
		lc.saturated = true
		lc.backCalculate(torque, p, d, feedforward)
	} else if torque < -lc.cfg.MaxTorque {
		torque = -lc.cfg.MaxTorque
		lc.saturated = true
		lc.backCalculate(torque, p, d, feedforward)
	}

	lc.prevError = errorTorque
	return torque
}

// backCalculate rewinds the integral to the value that would have produced
// the saturated output, keeping it inside the integral limit
func (lc *LatTorqueController) backCalculate(torque, p, d, feedforward float64) {
	if lc.cfg.Ki == 0 {
		return
	}
	lc.integral = ClampFloat((torque-p-d-feedforward)/lc.cfg.Ki,
		-lc.cfg.IntegralLimit, lc.cfg.IntegralLimit)
}

// Saturated reports whether the last output hit the torque bound
func (lc *LatTorqueController) Saturated() bool {
	return lc.saturated
}

// LatPIDDiagnostics contains feedback internals for monitoring
type LatPIDDiagnostics struct {
	Error    float64 `json:"error"`
	Integral float64 `json:"integral"`
	P        float64 `json:"p"`
	I        float64 `json:"i"`
}

// GetDiagnostics returns the current feedback state for logging/debugging
func (lc *LatTorqueController) GetDiagnostics() LatPIDDiagnostics {
	return LatPIDDiagnostics{
		Error:    lc.prevError,
		Integral: lc.integral,
		P:        lc.cfg.Kp * lc.prevError,
		I:        lc.cfg.Ki * lc.integral,
	}
}
