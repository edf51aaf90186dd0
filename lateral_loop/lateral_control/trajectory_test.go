package control

import (
	"math"
	"testing"
)

func TestHorizonTimes_QuadraticSpacing(t *testing.T) {
	ts := HorizonTimes()
	if len(ts) != HorizonLen {
		t.Fatalf("expected %d horizon times, got %d", HorizonLen, len(ts))
	}
	if ts[0] != 0.0 {
		t.Errorf("expected horizon to start at 0, got %v", ts[0])
	}
	if math.Abs(ts[HorizonLen-1]-10.0) > 1e-12 {
		t.Errorf("expected horizon to end at 10 s, got %v", ts[HorizonLen-1])
	}
	if math.Abs(ts[16]-2.5) > 1e-12 {
		t.Errorf("expected control horizon edge at 2.5 s, got %v", ts[16])
	}
	for i := 1; i < len(ts); i++ {
		if ts[i] <= ts[i-1] {
			t.Fatalf("horizon times not strictly increasing at %d: %v <= %v", i, ts[i], ts[i-1])
		}
	}
}

func TestTrajectoryPrediction_Valid(t *testing.T) {
	var nilPred *TrajectoryPrediction
	if nilPred.Valid() {
		t.Error("expected nil prediction to be invalid")
	}

	short := &TrajectoryPrediction{
		LatAccel: make([]float64, ControlHorizon-1),
		Roll:     make([]float64, HorizonLen),
		Pitch:    make([]float64, HorizonLen),
	}
	if short.Valid() {
		t.Error("expected short acceleration series to invalidate the prediction")
	}

	ok := &TrajectoryPrediction{
		LatAccel: make([]float64, ControlHorizon),
		Roll:     make([]float64, ControlHorizon),
		Pitch:    make([]float64, ControlHorizon),
	}
	if !ok.Valid() {
		t.Error("expected control-horizon-length prediction to be valid")
	}
}
