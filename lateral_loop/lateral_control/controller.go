package control

import (
	"fmt"
	"math"
)

// TorqueModel maps a feature vector to a normalized steering torque.
// Implementations must be deterministic; the controller may call Evaluate
// several times per cycle.
type TorqueModel interface {
	Evaluate(features []float64) float64
}

// Controller computes the feedforward steering torque and lateral jerk terms
// for one vehicle, one control cycle at a time. It performs no I/O and is not
// safe for concurrent use.
type Controller struct {
	cfg  Config
	mode Mode

	model        TorqueModel
	torqueParams TorqueParams

	// Precomputed horizon geometry
	horizonTimes     []float64
	tDiffs           []float64
	desiredJerkTimeS float64
	nnFutureTimes    []float64
	historyLookbacks []int
	pastFutureLen    int
	featureLen       int

	// State
	prediction  *TrajectoryPrediction
	pitchFilter *FirstOrderFilter
	rollHist    *History[float64]
	desiredHist *History[float64]
	errorHist   *History[float64]
	jerk        JerkState
	lastFF      float64
}

// NewController builds a controller from the given tune. The torque model may
// be nil unless UseTorqueModel is set; torqueParams feed the analytic
// friction response used by the override path.
func NewController(cfg Config, model TorqueModel, torqueParams TorqueParams) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("lateral controller config: %w", err)
	}
	if cfg.UseTorqueModel && model == nil {
		return nil, fmt.Errorf("lateral controller config: torque model enabled but not provided")
	}

	mode := ModeStock
	switch {
	case cfg.UseTorqueModel:
		mode = ModeNeuralFeedforward
	case cfg.UseLateralJerk:
		mode = ModeLateralJerk
	}

	horizonTimes := HorizonTimes()
	tDiffs := make([]float64, len(horizonTimes)-1)
	for i := range tDiffs {
		tDiffs[i] = horizonTimes[i+1] - horizonTimes[i]
	}

	nnTimeOffset := cfg.SteerActuatorDelayS + 0.2
	nnFutureTimes := make([]float64, len(cfg.FutureTimesS))
	for i, t := range cfg.FutureTimesS {
		nnFutureTimes[i] = t + nnTimeOffset
	}

	// Past feature times map onto ring buffer lookbacks. The oldest past
	// time sets the buffer capacity.
	capacity := int(math.Round(-cfg.PastTimesS[0] / cfg.CycleDtS))
	if capacity < 1 {
		return nil, fmt.Errorf("lateral controller config: past_times_s[0]=%v shorter than one cycle", cfg.PastTimesS[0])
	}
	lookbacks := make([]int, len(cfg.PastTimesS))
	for i, t := range cfg.PastTimesS {
		frames := int(math.Round(-t / cfg.CycleDtS))
		if frames < 1 {
			return nil, fmt.Errorf("lateral controller config: past_times_s[%d]=%v shorter than one cycle", i, t)
		}
		lookbacks[i] = frames - 1
	}

	pastFutureLen := len(cfg.PastTimesS) + len(nnFutureTimes)

	c := &Controller{
		cfg:              cfg,
		mode:             mode,
		model:            model,
		torqueParams:     torqueParams,
		horizonTimes:     horizonTimes,
		tDiffs:           tDiffs,
		desiredJerkTimeS: cfg.SteerActuatorDelayS + 0.3,
		nnFutureTimes:    nnFutureTimes,
		historyLookbacks: lookbacks,
		pastFutureLen:    pastFutureLen,
		featureLen:       4 + 2*pastFutureLen,
		pitchFilter:      NewFirstOrderFilter(0.0, cfg.PitchFilterRC, cfg.CycleDtS),
		rollHist:         NewHistory[float64](capacity),
		desiredHist:      NewHistory[float64](capacity),
		errorHist:        NewHistory[float64](capacity),
	}
	c.jerk.AccelFrictionFactor = cfg.LatAccelFrictionFactor
	return c, nil
}

// Mode returns the feedforward path selected at construction
func (c *Controller) Mode() Mode {
	return c.mode
}

// Jerk returns the jerk state computed by the last UpdateLateralJerk call
func (c *Controller) Jerk() JerkState {
	return c.jerk
}

// FeatureLen returns the torque model feature vector length
func (c *Controller) FeatureLen() int {
	return c.featureLen
}

// SetTrajectory installs the latest planner prediction. The controller keeps
// the reference; the caller must not mutate the series afterwards. Passing
// nil marks the prediction unavailable.
func (c *Controller) SetTrajectory(p *TrajectoryPrediction) {
	c.prediction = p
}

// TrajectoryValid reports whether a usable prediction is installed
func (c *Controller) TrajectoryValid() bool {
	return c.prediction.Valid()
}

// Reset clears all per-drive state. The installed trajectory is dropped.
func (c *Controller) Reset() {
	c.prediction = nil
	c.pitchFilter.Reset(0.0)
	c.rollHist.Reset()
	c.desiredHist.Reset()
	c.errorHist.Reset()
	c.jerk = JerkState{AccelFrictionFactor: c.cfg.LatAccelFrictionFactor}
	c.lastFF = 0.0
}

// interpSeries samples a horizon-indexed series at time t, tolerating series
// shorter than the full horizon
func (c *Controller) interpSeries(t float64, series []float64) float64 {
	n := len(series)
	if n > len(c.horizonTimes) {
		n = len(c.horizonTimes)
	}
	return Interp(t, c.horizonTimes[:n], series[:n])
}

// Diagnostics is a per-cycle snapshot of controller internals for logging
type Diagnostics struct {
	Mode                string  `json:"mode"`
	TrajectoryValid     bool    `json:"trajectory_valid"`
	ActualJerk          float64 `json:"actual_jerk"`
	LookaheadJerk       float64 `json:"lookahead_jerk"`
	JerkSetpoint        float64 `json:"jerk_setpoint"`
	JerkMeasurement     float64 `json:"jerk_measurement"`
	AccelFrictionFactor float64 `json:"accel_friction_factor"`
	Feedforward         float64 `json:"feedforward"`
	HistoryDepth        int     `json:"history_depth"`
	MeanAbsError        float64 `json:"mean_abs_error"`
}

// GetDiagnostics returns the current controller state for logging/telemetry
func (c *Controller) GetDiagnostics() Diagnostics {
	var meanErr float64
	if n := c.errorHist.Len(); n > 0 {
		sum := 0.0
		for _, e := range c.errorHist.Snapshot() {
			sum += math.Abs(e)
		}
		meanErr = sum / float64(n)
	}
	return Diagnostics{
		Mode:                c.mode.String(),
		TrajectoryValid:     c.prediction.Valid(),
		ActualJerk:          c.jerk.Actual,
		LookaheadJerk:       c.jerk.Lookahead,
		JerkSetpoint:        c.jerk.Setpoint,
		JerkMeasurement:     c.jerk.Measurement,
		AccelFrictionFactor: c.jerk.AccelFrictionFactor,
		Feedforward:         c.lastFF,
		HistoryDepth:        c.rollHist.Len(),
		MeanAbsError:        meanErr,
	}
}
