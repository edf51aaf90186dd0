package control

import (
	"math"
	"testing"
)

func TestApplyCenterDeadzone(t *testing.T) {
	if got := ApplyCenterDeadzone(0.05, 0.1); got != 0.0 {
		t.Errorf("expected small error zeroed, got %v", got)
	}
	if got := ApplyCenterDeadzone(-0.05, 0.1); got != 0.0 {
		t.Errorf("expected small negative error zeroed, got %v", got)
	}
	if got := ApplyCenterDeadzone(0.2, 0.1); got != 0.2 {
		t.Errorf("expected error outside deadzone kept, got %v", got)
	}
	if got := ApplyCenterDeadzone(0.1, 0.1); got != 0.1 {
		t.Errorf("expected boundary error kept, got %v", got)
	}
}

func TestTorqueFromLateralAccelLinear_LinearTerm(t *testing.T) {
	params := TorqueParams{LatAccelFactor: 2.0, Friction: 0.1}
	inputs := LatControlInputs{LatAccelMPS2: 3.0, VEgoMPS: 20.0}
	got := TorqueFromLateralAccelLinear(inputs, params, 0.0, 0.0, true, false)
	if math.Abs(got-1.5) > 1e-12 {
		t.Fatalf("expected 3.0/2.0 = 1.5 with zero error, got %v", got)
	}
}

func TestTorqueFromLateralAccelLinear_FrictionSaturates(t *testing.T) {
	params := TorqueParams{LatAccelFactor: 1.0, Friction: 0.15}
	inputs := LatControlInputs{VEgoMPS: 20.0}

	if got := TorqueFromLateralAccelLinear(inputs, params, 0.5, 0.0, true, false); math.Abs(got-0.15) > 1e-12 {
		t.Errorf("expected +0.15 past the threshold, got %v", got)
	}
	if got := TorqueFromLateralAccelLinear(inputs, params, -0.5, 0.0, true, false); math.Abs(got+0.15) > 1e-12 {
		t.Errorf("expected -0.15 past the threshold, got %v", got)
	}
	// Halfway inside the band interpolates linearly
	if got := TorqueFromLateralAccelLinear(inputs, params, 0.15, 0.0, true, false); math.Abs(got-0.075) > 1e-12 {
		t.Errorf("expected 0.075 at half threshold, got %v", got)
	}
}

func TestTorqueFromLateralAccelLinear_DeadzoneSuppressesSmallErrors(t *testing.T) {
	params := TorqueParams{LatAccelFactor: 1.0, Friction: 0.15}
	got := TorqueFromLateralAccelLinear(LatControlInputs{}, params, 0.05, 0.1, true, false)
	if got != 0.0 {
		t.Fatalf("expected deadzoned error to produce no torque, got %v", got)
	}
}

func TestTorqueFromLateralAccelLinear_FrictionCompensationOff(t *testing.T) {
	params := TorqueParams{LatAccelFactor: 2.0, Friction: 0.15}
	got := TorqueFromLateralAccelLinear(LatControlInputs{LatAccelMPS2: 1.0}, params, 0.5, 0.0, false, false)
	if math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("expected pure linear term 0.5 with friction off, got %v", got)
	}
}
