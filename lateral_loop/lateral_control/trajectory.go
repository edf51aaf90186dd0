package control

const (
	// HorizonLen is the number of samples in a full trajectory prediction
	HorizonLen = 33
	// ControlHorizon is the number of leading horizon samples a prediction
	// must carry to be usable for control
	ControlHorizon = 17
	// planMinIdx is the first horizon index eligible for the lookahead
	// window; earlier samples fall inside the actuator latency
	planMinIdx = 5
)

// HorizonTimes returns the fixed trajectory sample times in seconds: a
// quadratic spacing from 0 to 10 s that concentrates resolution near the
// present.
func HorizonTimes() []float64 {
	t := make([]float64, HorizonLen)
	for i := range t {
		frac := float64(i) / float64(HorizonLen-1)
		t[i] = frac * frac * 10.0
	}
	return t
}

// TrajectoryPrediction is one planner output: predicted lateral acceleration
// and road orientation over the horizon times. Series shorter than the full
// horizon are tolerated down to ControlHorizon samples.
type TrajectoryPrediction struct {
	LatAccel []float64 `json:"lat_accel"` // m/s^2
	Roll     []float64 `json:"roll"`      // rad, relative to the current roll
	Pitch    []float64 `json:"pitch"`     // rad, relative to the current pitch
}

// Valid reports whether the prediction covers at least the control horizon
func (p *TrajectoryPrediction) Valid() bool {
	if p == nil {
		return false
	}
	return len(p.LatAccel) >= ControlHorizon &&
		len(p.Roll) >= ControlHorizon &&
		len(p.Pitch) >= ControlHorizon
}
