package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	control "lateral-torque-core/lateral_loop/lateral_control"
)

// Scenario defines a drive: the road attitude profile and the planned
// lateral acceleration over time.
type Scenario struct {
	Meta     ScenarioMeta      `json:"meta"`
	Timing   ScenarioTiming    `json:"timing"`
	Road     RoadProfile       `json:"road"`
	Defaults ScenarioDefaults  `json:"defaults"`
	Segments []ScenarioSegment `json:"segments"`
}

// ScenarioMeta contains scenario metadata
type ScenarioMeta struct {
	Name        string `json:"name"`
	Version     int    `json:"version"`
	Description string `json:"description"`
}

// ScenarioTiming defines timing parameters
type ScenarioTiming struct {
	DurationS float64 `json:"duration_s"`
	LogHz     float64 `json:"log_hz"`
}

// RoadProfile gives road attitude as piecewise-linear breakpoints over time.
type RoadProfile struct {
	TimeBP []float64 `json:"time_bp"`
	RollV  []float64 `json:"roll_v"`
	PitchV []float64 `json:"pitch_v"`
}

// ScenarioDefaults applies outside every segment.
type ScenarioDefaults struct {
	LatAccel float64 `json:"lat_accel"`
}

// ScenarioSegment defines a time window with a target lateral acceleration.
// A positive period_s shapes the target as a sine starting at t0; otherwise
// the target is a step.
type ScenarioSegment struct {
	T0       float64 `json:"t0"`
	T1       float64 `json:"t1"`
	LatAccel float64 `json:"lat_accel"`
	PeriodS  float64 `json:"period_s,omitempty"`
	Comment  string  `json:"comment,omitempty"`
}

const maxPlannedLatAccel = 6.0

// LoadScenario loads a scenario from JSON file
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read file: %w", err)
	}

	var scen Scenario
	if err := json.Unmarshal(data, &scen); err != nil {
		return Scenario{}, fmt.Errorf("unmarshal: %w", err)
	}

	if scen.Timing.DurationS <= 0 {
		return Scenario{}, fmt.Errorf("invalid duration_s: %f", scen.Timing.DurationS)
	}
	if len(scen.Road.TimeBP) > 0 &&
		(len(scen.Road.RollV) != len(scen.Road.TimeBP) || len(scen.Road.PitchV) != len(scen.Road.TimeBP)) {
		return Scenario{}, fmt.Errorf("road profile lengths do not match time_bp (%d/%d/%d)",
			len(scen.Road.TimeBP), len(scen.Road.RollV), len(scen.Road.PitchV))
	}
	for i, seg := range scen.Segments {
		t1 := seg.T1
		if t1 < 0 {
			t1 = scen.Timing.DurationS
		}
		if seg.T0 < 0 || t1 <= seg.T0 {
			return Scenario{}, fmt.Errorf("segment %d: invalid window [%f, %f]", i, seg.T0, seg.T1)
		}
		if math.Abs(seg.LatAccel) > maxPlannedLatAccel {
			return Scenario{}, fmt.Errorf("segment %d: lat_accel %f exceeds %f m/s^2",
				i, seg.LatAccel, maxPlannedLatAccel)
		}
		if seg.PeriodS < 0 {
			return Scenario{}, fmt.Errorf("segment %d: negative period_s %f", i, seg.PeriodS)
		}
	}

	return scen, nil
}

// LatAccelAt evaluates the planned lateral acceleration at time t.
func (s *Scenario) LatAccelAt(t float64) float64 {
	for _, seg := range s.Segments {
		t1 := seg.T1
		if t1 < 0 {
			t1 = s.Timing.DurationS
		}
		if t >= seg.T0 && t < t1 {
			if seg.PeriodS > 0 {
				return seg.LatAccel * math.Sin(2*math.Pi*(t-seg.T0)/seg.PeriodS)
			}
			return seg.LatAccel
		}
	}
	return s.Defaults.LatAccel
}

// RollAt evaluates the road bank angle at time t.
func (s *Scenario) RollAt(t float64) float64 {
	if len(s.Road.TimeBP) == 0 {
		return 0
	}
	return control.Interp(t, s.Road.TimeBP, s.Road.RollV)
}

// PitchAt evaluates the road grade angle at time t.
func (s *Scenario) PitchAt(t float64) float64 {
	if len(s.Road.TimeBP) == 0 {
		return 0
	}
	return control.Interp(t, s.Road.TimeBP, s.Road.PitchV)
}

// SampleTrajectory synthesizes the planner prediction at time t: planned
// lateral acceleration along the horizon plus road attitude deltas relative
// to now.
func (s *Scenario) SampleTrajectory(t float64, horizonTimes []float64) *control.TrajectoryPrediction {
	n := len(horizonTimes)
	p := &control.TrajectoryPrediction{
		LatAccel: make([]float64, n),
		Roll:     make([]float64, n),
		Pitch:    make([]float64, n),
	}

	rollNow := s.RollAt(t)
	pitchNow := s.PitchAt(t)
	for i, dt := range horizonTimes {
		p.LatAccel[i] = s.LatAccelAt(t + dt)
		p.Roll[i] = s.RollAt(t+dt) - rollNow
		p.Pitch[i] = s.PitchAt(t+dt) - pitchNow
	}
	return p
}
