package control

import (
	"math"
	"testing"
)

// linearCurvModel is a curvature model stub with unit response per radian
type linearCurvModel float64

func (m linearCurvModel) CalcCurvature(steerAngleRad, speedMPS, rollRad float64) float64 {
	return float64(m) * steerAngleRad
}

func newJerkController(t *testing.T, useAngle bool) *Controller {
	t.Helper()
	cfg := DefaultConfig()
	cfg.UseLateralJerk = true
	cfg.UseSteeringAngle = useAngle
	c, err := NewController(cfg, nil, TorqueParams{LatAccelFactor: 2.0, Friction: 0.1})
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	return c
}

// rampPrediction plans lateral acceleration rising linearly with horizon time,
// which makes every predicted jerk sample equal to the slope
func rampPrediction(slope float64) *TrajectoryPrediction {
	ts := HorizonTimes()
	p := &TrajectoryPrediction{
		LatAccel: make([]float64, HorizonLen),
		Roll:     make([]float64, HorizonLen),
		Pitch:    make([]float64, HorizonLen),
	}
	for i, tv := range ts {
		p.LatAccel[i] = slope * tv
	}
	return p
}

// peakPrediction rises until peakIdx then falls, flipping the jerk sign there
func peakPrediction(peakIdx int) *TrajectoryPrediction {
	ts := HorizonTimes()
	p := rampPrediction(1.0)
	for i := peakIdx + 1; i < HorizonLen; i++ {
		p.LatAccel[i] = ts[peakIdx] - (ts[i] - ts[peakIdx])
	}
	return p
}

func TestUpdateLateralJerk_StockModeStaysIdle(t *testing.T) {
	c, err := NewController(DefaultConfig(), nil, TorqueParams{LatAccelFactor: 2.0})
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	c.SetTrajectory(rampPrediction(1.0))
	c.UpdateLateralJerk(VehicleState{VEgoMPS: 20.0}, nil, 0.0)
	j := c.Jerk()
	if j.Actual != 0 || j.Lookahead != 0 || j.Setpoint != 0 || j.Measurement != 0 {
		t.Fatalf("expected idle jerk state in stock mode, got %+v", j)
	}
	if j.AccelFrictionFactor != 0.7 {
		t.Fatalf("expected configured friction factor 0.7, got %v", j.AccelFrictionFactor)
	}
}

func TestUpdateLateralJerk_ZeroWithoutPrediction(t *testing.T) {
	c := newJerkController(t, true)
	vs := VehicleState{VEgoMPS: 15.0, SteeringRateDegS: 25.0}
	c.UpdateLateralJerk(vs, linearCurvModel(0.002), 0.5)
	j := c.Jerk()
	if j.Actual != 0 || j.Lookahead != 0 || j.Setpoint != 0 || j.Measurement != 0 {
		t.Fatalf("expected all jerk quantities zero without a prediction, got %+v", j)
	}
	if j.AccelFrictionFactor != 0.7 {
		t.Fatalf("expected configured friction factor 0.7, got %v", j.AccelFrictionFactor)
	}
}

func TestUpdateLateralJerk_PersistentJerkSurvivesLookahead(t *testing.T) {
	c := newJerkController(t, false)
	c.SetTrajectory(rampPrediction(1.0))
	c.UpdateLateralJerk(VehicleState{VEgoMPS: 5.0}, nil, 0.0)
	j := c.Jerk()
	if math.Abs(j.Lookahead-1.0) > 1e-9 {
		t.Fatalf("expected lookahead jerk 1.0 on a unit ramp, got %v", j.Lookahead)
	}
	if math.Abs(j.Setpoint-0.4) > 1e-9 {
		t.Fatalf("expected jerk setpoint 0.4, got %v", j.Setpoint)
	}
	if j.Measurement != 0 {
		t.Fatalf("expected zero jerk measurement without steering angle, got %v", j.Measurement)
	}
	if j.AccelFrictionFactor != 0.7 {
		t.Fatalf("expected configured friction factor 0.7, got %v", j.AccelFrictionFactor)
	}
}

func TestUpdateLateralJerk_SignFlipCollapsesLookahead(t *testing.T) {
	c := newJerkController(t, false)
	c.SetTrajectory(peakPrediction(8))
	c.UpdateLateralJerk(VehicleState{VEgoMPS: 5.0}, nil, 0.0)
	j := c.Jerk()
	if j.Lookahead != 0 || j.Setpoint != 0 {
		t.Fatalf("expected lookahead collapse on sign flip, got %+v", j)
	}
	if j.AccelFrictionFactor != 1.0 {
		t.Fatalf("expected friction factor forced to 1.0, got %v", j.AccelFrictionFactor)
	}
}

func TestUpdateLateralJerk_SpeedWidensWindow(t *testing.T) {
	// The jerk sign flips at horizon index 14, outside the low speed window
	// but inside the high speed one
	pred := peakPrediction(14)

	slow := newJerkController(t, false)
	slow.SetTrajectory(pred)
	slow.UpdateLateralJerk(VehicleState{VEgoMPS: 5.0}, nil, 0.0)
	if j := slow.Jerk(); j.Lookahead == 0 {
		t.Fatalf("expected the short window to miss the flip, got %+v", j)
	}

	fast := newJerkController(t, false)
	fast.SetTrajectory(pred)
	fast.UpdateLateralJerk(VehicleState{VEgoMPS: 30.0}, nil, 0.0)
	if j := fast.Jerk(); j.Lookahead != 0 || j.AccelFrictionFactor != 1.0 {
		t.Fatalf("expected the long window to catch the flip, got %+v", j)
	}
}

func TestUpdateLateralJerk_AngleModeForcesFullFrictionFactor(t *testing.T) {
	c := newJerkController(t, true)
	c.SetTrajectory(rampPrediction(1.0))
	vs := VehicleState{VEgoMPS: 20.0, SteeringRateDegS: 40.0}
	c.UpdateLateralJerk(vs, linearCurvModel(0.002), 0.0)
	j := c.Jerk()
	if j.Actual != 0 || j.Lookahead != 0 {
		t.Fatalf("expected angle mode to zero the jerk terms, got %+v", j)
	}
	if j.AccelFrictionFactor != 1.0 {
		t.Fatalf("expected friction factor forced to 1.0 in angle mode, got %v", j.AccelFrictionFactor)
	}
}

func TestUpdateLateralJerk_FrictionFactorRecoversEachCycle(t *testing.T) {
	c := newJerkController(t, false)
	c.SetTrajectory(peakPrediction(8))
	c.UpdateLateralJerk(VehicleState{VEgoMPS: 5.0}, nil, 0.0)
	if j := c.Jerk(); j.AccelFrictionFactor != 1.0 {
		t.Fatalf("expected forced factor 1.0 after collapse, got %v", j.AccelFrictionFactor)
	}

	c.SetTrajectory(rampPrediction(1.0))
	c.UpdateLateralJerk(VehicleState{VEgoMPS: 5.0}, nil, 0.0)
	if j := c.Jerk(); j.AccelFrictionFactor != 0.7 {
		t.Fatalf("expected factor back at 0.7 on a clean cycle, got %v", j.AccelFrictionFactor)
	}
}
