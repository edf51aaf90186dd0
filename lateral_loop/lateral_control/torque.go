package control

// FrictionThreshold is the lateral acceleration error (m/s^2) at which the
// analytic friction response saturates
const FrictionThreshold = 0.3

// TorqueParams is the per-car tune of the analytic torque response
type TorqueParams struct {
	LatAccelFactor float64 `json:"lat_accel_factor"` // m/s^2 per unit torque
	Friction       float64 `json:"friction"`         // unit torque
}

// LatControlInputs bundles the measurements the torque response depends on
type LatControlInputs struct {
	LatAccelMPS2     float64
	RollCompensation float64
	VEgoMPS          float64
	AEgoMPS2         float64
}

// ApplyCenterDeadzone zeroes an error inside the deadzone band
func ApplyCenterDeadzone(err, deadzone float64) float64 {
	if err > -deadzone && err < deadzone {
		return 0.0
	}
	return err
}

// frictionResponse maps a deadzoned lateral acceleration error onto the
// saturating friction torque band
func frictionResponse(latAccelError, deadzone float64, params TorqueParams, frictionCompensation bool) float64 {
	if !frictionCompensation {
		return 0.0
	}
	return Interp(ApplyCenterDeadzone(latAccelError, deadzone),
		[]float64{-FrictionThreshold, FrictionThreshold},
		[]float64{-params.Friction, params.Friction})
}

// TorqueFromLateralAccelLinear is the stock linear torque response: desired
// lateral acceleration scaled by the car's torque gain plus a saturating
// friction term. The linear response ignores gravityAdjusted; callers fold
// roll into LatAccelMPS2 themselves.
func TorqueFromLateralAccelLinear(inputs LatControlInputs, params TorqueParams,
	latAccelError, deadzone float64, frictionCompensation, gravityAdjusted bool) float64 {
	friction := frictionResponse(latAccelError, deadzone, params, frictionCompensation)
	return inputs.LatAccelMPS2/params.LatAccelFactor + friction
}
