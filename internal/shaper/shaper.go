// Package shaper turns acceleration targets into bounded longitudinal
// commands. Both functions are stateless.
package shaper

import (
	"math"

	"github.com/kgkim70/openpilot/internal/interp"
)

// FollowAggression scales how hard a lead target is tracked: lower is
// more aggressive.
const FollowAggression = 0.15

const (
	// AccelScale converts m/s^2 into a normalized gas/brake command.
	AccelScale = 4.8
	// CreepSpeed is the speed (m/s) below which creep compensation applies.
	CreepSpeed = 2.68
	// CreepBrake is the compensation at standstill.
	CreepBrake = 0.10
)

var (
	// normalized max accel; full accel at low speed overshoots the set speed
	maxAccel = interp.MustTable([]float64{10, 20}, []float64{0.85, 1.0})

	// limit when aEgo exceeds aTarget
	accelErrLimit = interp.MustTable([]float64{0.3, 1.1}, []float64{1.0, 0.1})
	// limit when vEgo exceeds vTarget
	speedErrLimit = interp.MustTable([]float64{0.0, 0.5}, []float64{1.0, 0.1})
	// release the accel limit while still well below vTarget
	speedRangeLimit = interp.MustTable([]float64{-1.0, 0.0}, []float64{1.0, 0.0})
)

// CreepCompensation returns the brake term subtracted at low speed. It
// ramps linearly from CreepBrake at standstill to zero at CreepSpeed.
func CreepCompensation(speed float64) float64 {
	if speed >= CreepSpeed {
		return 0
	}
	return (CreepSpeed - speed) / CreepSpeed * CreepBrake
}

// ComputeCreepAdjustedAccel maps an acceleration target to a normalized
// gas (positive) or brake (negative) command with creep compensation.
func ComputeCreepAdjustedAccel(accel, speed float64) float64 {
	return accel/AccelScale - CreepCompensation(speed)
}

// Limiters exposes the intermediate terms of CalcAccelOverride.
type Limiters struct {
	MaxAccel float64
	Speed    float64
	Accel    float64
}

// ComputeLimiters evaluates the override limiters without combining them.
func ComputeLimiters(aEgo, aTarget, vEgo, vTarget float64) Limiters {
	eA := aEgo - aTarget
	eV := vEgo - vTarget
	return Limiters{
		MaxAccel: maxAccel.At(vEgo),
		Speed:    speedErrLimit.At(eV),
		Accel:    math.Max(accelErrLimit.At(eA), speedRangeLimit.At(eV)),
	}
}

// CalcAccelOverride returns the max throttle the PCM may apply. It is
// usually the speed-scheduled ceiling, scaled up with a large aTarget for
// quicker restarts, and cut back as vEgo approaches vTarget or aEgo
// overshoots aTarget.
func CalcAccelOverride(aEgo, aTarget, vEgo, vTarget float64) float64 {
	l := ComputeLimiters(aEgo, aTarget, vEgo, vTarget)
	return math.Max(l.MaxAccel, aTarget/FollowAggression) * math.Min(l.Speed, l.Accel)
}
