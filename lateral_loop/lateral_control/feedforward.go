package control

import "math"

// UpdateFeedforward runs the learned torque-response model for one cycle and
// returns the feedforward torque. The log's error field is rewritten with the
// torque-space tracking error derived from the same model, which keeps the
// feedback path consistent with the feedforward path.
//
// Outside neural feedforward mode, or without a valid trajectory prediction,
// the call is a no-op: it returns 0 and leaves the log and all history
// buffers untouched.
func (c *Controller) UpdateFeedforward(req FeedforwardRequest, log *TorqueLog) float64 {
	c.lastFF = 0.0
	if c.mode != ModeNeuralFeedforward || !c.prediction.Valid() {
		return 0.0
	}
	p := c.prediction
	vs := req.State

	// Update past data. Roll is projected through the filtered pitch so the
	// model sees the lateral gravity component, not the raw bank angle.
	roll := req.RoadRollRad
	pitch := c.pitchFilter.State()
	if req.Pose.Valid {
		pitch = c.pitchFilter.Update(req.Pose.PitchRad)
	}
	roll = RollPitchAdjust(roll, pitch)
	c.rollHist.Append(roll)
	c.desiredHist.Append(req.DesiredLatAccel)

	// Shift the future sample times by the distance the expected speed
	// change moves them
	adjustedTimes := make([]float64, len(c.nnFutureTimes))
	for i, t := range c.nnFutureTimes {
		adjustedTimes[i] = t + 0.5*vs.AEgoMPS2*(t/math.Max(vs.VEgoMPS, 1.0))
	}

	pastRolls := make([]float64, len(c.historyLookbacks))
	pastDesired := make([]float64, len(c.historyLookbacks))
	for i, back := range c.historyLookbacks {
		pastRolls[i] = c.rollHist.LookBack(back)
		pastDesired[i] = c.desiredHist.LookBack(back)
	}

	// Future planned accelerations only use the control horizon; the tail of
	// the prediction is not actuated
	nAccel := len(p.LatAccel)
	if nAccel > ControlHorizon {
		nAccel = ControlHorizon
	}
	futureRolls := make([]float64, len(adjustedTimes))
	futureDesired := make([]float64, len(adjustedTimes))
	for i, t := range adjustedTimes {
		futureRolls[i] = RollPitchAdjust(
			c.interpSeries(t, p.Roll)+roll,
			c.interpSeries(t, p.Pitch)+pitch)
		futureDesired[i] = Interp(t, c.horizonTimes[:nAccel], p.LatAccel[:nAccel])
	}

	// Torque-space error response. Past error history must not bias the
	// error estimate, so both vectors repeat their current value in the
	// past/future slots.
	setpointInput := make([]float64, 0, c.featureLen)
	setpointInput = append(setpointInput, vs.VEgoMPS, req.Setpoint, c.jerk.Setpoint, roll)
	for i := 0; i < c.pastFutureLen; i++ {
		setpointInput = append(setpointInput, req.Setpoint)
	}
	setpointInput = append(setpointInput, pastRolls...)
	setpointInput = append(setpointInput, futureRolls...)

	measurementInput := make([]float64, 0, c.featureLen)
	measurementInput = append(measurementInput, vs.VEgoMPS, req.Measurement, c.jerk.Measurement, roll)
	for i := 0; i < c.pastFutureLen; i++ {
		measurementInput = append(measurementInput, req.Measurement)
	}
	measurementInput = append(measurementInput, pastRolls...)
	measurementInput = append(measurementInput, futureRolls...)

	log.TorqueFromSetpoint = c.model.Evaluate(setpointInput)
	log.TorqueFromMeasurement = c.model.Evaluate(measurementInput)
	log.Error = log.TorqueFromSetpoint - log.TorqueFromMeasurement

	// Feedforward response from the desired trajectory
	trackErr := req.Setpoint - req.Measurement
	frictionInput := c.jerk.AccelFrictionFactor*trackErr + c.cfg.LatJerkFrictionFactor*c.jerk.Lookahead

	ffInput := make([]float64, 0, c.featureLen)
	ffInput = append(ffInput, vs.VEgoMPS, req.DesiredLatAccel, frictionInput, roll)
	ffInput = append(ffInput, pastDesired...)
	ffInput = append(ffInput, futureDesired...)
	ffInput = append(ffInput, pastRolls...)
	ffInput = append(ffInput, futureRolls...)
	ff := c.model.Evaluate(ffInput)

	// Models trained on cars with little torque friction underreport the
	// friction response; add the analytic one back into the error term
	if c.cfg.ModelFrictionOverride {
		log.Error += TorqueFromLateralAccelLinear(
			LatControlInputs{VEgoMPS: vs.VEgoMPS, AEgoMPS2: vs.AEgoMPS2},
			c.torqueParams, frictionInput, req.LatAccelDeadzone, true, false)
	}

	c.errorHist.Append(trackErr)
	c.lastFF = ff
	return ff
}

// StockLateralJerkFriction builds the friction input for the analytic torque
// response from a lateral acceleration error and the cycle's jerk state
func (c *Controller) StockLateralJerkFriction(latAccelError float64) float64 {
	accelTerm := c.jerk.AccelFrictionFactor * latAccelError
	jerkTerm := c.cfg.LatJerkFrictionFactor * c.jerk.Actual
	return accelTerm + jerkTerm
}
