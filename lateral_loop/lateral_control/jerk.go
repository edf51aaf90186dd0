package control

import "math"

// CurvatureModel converts a steering wheel angle into path curvature
type CurvatureModel interface {
	CalcCurvature(steerAngleRad, speedMPS, rollRad float64) float64
}

// UpdateLateralJerk recomputes the cycle's jerk state from the vehicle
// measurements and the installed trajectory prediction.
//
// Instantaneous lateral jerk changes too rapidly to act on directly, so the
// predicted jerk is reduced over a speed-dependent lookahead window: only a
// value whose sign persists across the window survives, and short-lived jerk
// collapses to zero. When the jerk terms are unusable the lateral
// acceleration friction factor is raised to 1.0 for this cycle so the
// friction input stays at full strength.
func (c *Controller) UpdateLateralJerk(vs VehicleState, vm CurvatureModel, desiredLatAccel float64) {
	c.jerk = JerkState{AccelFrictionFactor: c.cfg.LatAccelFrictionFactor}
	if c.mode == ModeStock {
		return
	}

	if c.cfg.UseSteeringAngle && vm != nil {
		steerRateRad := vs.SteeringRateDegS * math.Pi / 180.0
		actualCurvatureRate := -vm.CalcCurvature(steerRateRad, vs.VEgoMPS, 0.0)
		c.jerk.Actual = actualCurvatureRate * vs.VEgoMPS * vs.VEgoMPS
	}

	p := c.prediction
	if !p.Valid() {
		// No trustworthy plan. Every jerk quantity reads zero so downstream
		// consumers fall back to pure lateral acceleration tracking.
		c.jerk.Actual = 0.0
		return
	}

	lookaheadT := Interp(vs.VEgoMPS, c.cfg.LookaheadSpeedBP, c.cfg.LookaheadTimeV)
	upper := len(c.horizonTimes)
	for i, t := range c.horizonTimes {
		if t > lookaheadT {
			upper = i
			break
		}
	}

	n := len(p.LatAccel)
	if n > len(c.horizonTimes) {
		n = len(c.horizonTimes)
	}
	predictedJerk := PredictedLateralJerk(p.LatAccel[:n], c.tDiffs[:n-1])
	desiredJerk := (c.interpSeries(c.desiredJerkTimeS, p.LatAccel) - desiredLatAccel) / c.desiredJerkTimeS

	if upper > len(predictedJerk) {
		upper = len(predictedJerk)
	}
	var window []float64
	if planMinIdx < upper {
		window = predictedJerk[planMinIdx:upper]
	}
	c.jerk.Lookahead = LookaheadValue(window, desiredJerk)

	// In angle mode, and whenever the lookahead collapses to zero, the jerk
	// terms are disabled for the cycle.
	if c.cfg.UseSteeringAngle || c.jerk.Lookahead == 0.0 {
		c.jerk.Lookahead = 0.0
		c.jerk.Actual = 0.0
		c.jerk.AccelFrictionFactor = 1.0
	}
	c.jerk.Setpoint = c.cfg.LatJerkFrictionFactor * c.jerk.Lookahead
	c.jerk.Measurement = c.cfg.LatJerkFrictionFactor * c.jerk.Actual
}
