package control

import (
	"fmt"
	"math"
)

// Sign returns 1.0 for positive values, -1.0 for negative values and 0.0 for zero
func Sign(x float64) float64 {
	if x > 0.0 {
		return 1.0
	}
	if x < 0.0 {
		return -1.0
	}
	return 0.0
}

// RollPitchAdjust projects a road roll angle through the vehicle pitch.
// On an incline part of the gravitational acceleration points in the
// longitudinal direction, shrinking the lateral component felt by the car.
func RollPitchAdjust(rollRad, pitchRad float64) float64 {
	return rollRad * math.Cos(pitchRad)
}

// PredictedLateralJerk differentiates a predicted lateral acceleration series
// over the horizon time steps. timeDiffs[i] must be the time delta between
// accel sample i and i+1; a length mismatch is a caller bug and panics.
//
// Returns: len(latAccels)-1 jerk values (m/s^3)
func PredictedLateralJerk(latAccels, timeDiffs []float64) []float64 {
	if len(latAccels) < 1 {
		return nil
	}
	if len(timeDiffs) != len(latAccels)-1 {
		panic(fmt.Sprintf("predicted lateral jerk: %d accel samples need %d time diffs, got %d",
			len(latAccels), len(latAccels)-1, len(timeDiffs)))
	}
	jerk := make([]float64, len(latAccels)-1)
	for i := range jerk {
		jerk[i] = (latAccels[i+1] - latAccels[i]) / timeDiffs[i]
	}
	return jerk
}

// LookaheadValue reduces a window of predicted values to a single conservative
// value. If any predicted value disagrees in sign with the current value the
// window is treated as untrustworthy and 0 is returned; otherwise the result
// is the smallest magnitude among the window and the current value.
func LookaheadValue(futureVals []float64, currentVal float64) float64 {
	if len(futureVals) == 0 {
		return currentVal
	}
	currentSign := Sign(currentVal)
	minVal := currentVal
	for _, v := range futureVals {
		if Sign(v) != currentSign {
			return 0.0
		}
		if math.Abs(v) < math.Abs(minVal) {
			minVal = v
		}
	}
	return minVal
}

// Interp linearly interpolates y at x over the breakpoints (xp, yp), clamping
// to the edge values outside the breakpoint range. xp must be monotonically
// increasing and the same length as yp; a mismatch is a caller bug and panics.
func Interp(x float64, xp, yp []float64) float64 {
	if len(xp) == 0 || len(xp) != len(yp) {
		panic(fmt.Sprintf("interp: breakpoint lengths %d and %d", len(xp), len(yp)))
	}
	if x <= xp[0] {
		return yp[0]
	}
	last := len(xp) - 1
	if x >= xp[last] {
		return yp[last]
	}
	for i := 0; i < last; i++ {
		if x <= xp[i+1] {
			span := xp[i+1] - xp[i]
			if span <= 0 {
				return yp[i+1]
			}
			frac := (x - xp[i]) / span
			return yp[i] + frac*(yp[i+1]-yp[i])
		}
	}
	return yp[last]
}

// ClampFloat clamps value between min and max
func ClampFloat(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// BoolToFloat converts bool to float64 (for CAN encoding)
func BoolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
