package main

import (
	"math"

	"github.com/kgkim70/openpilot/internal/car"
	"github.com/kgkim70/openpilot/internal/cycle"
	"github.com/kgkim70/openpilot/internal/interp"
	"github.com/kgkim70/openpilot/internal/params"
	"github.com/kgkim70/openpilot/internal/shaper"
)

// Longitudinal authority limits, m/s^2.
const (
	maxPlanAccel = 2.0
	minPlanAccel = -3.5
)

// Planner holds a set speed using the profile's longitudinal gain
// schedule and shapes the result into gas and brake.
type Planner struct {
	kp, ki   interp.Curve
	target   float64 // m/s
	dt       float64
	integral float64
}

// NewPlanner returns a planner holding target (m/s) at tick period dt
// seconds.
func NewPlanner(p params.Profile, target, dt float64) *Planner {
	return &Planner{
		kp:     p.LongitudinalTuning.Kp.Clone(),
		ki:     p.LongitudinalTuning.Ki.Clone(),
		target: target,
		dt:     dt,
	}
}

// Plan builds the request for one tick. Outside Enabled mode it asks for
// nothing and winds the integrator down.
func (p *Planner) Plan(state car.VehicleState, mode cycle.Mode) car.ControlRequest {
	req := car.ControlRequest{
		HUDControl: car.HUDControl{SetSpeed: p.target},
	}
	if mode != cycle.Enabled || p.target <= 0 {
		p.integral = 0
		return req
	}

	errV := p.target - state.VEgo
	aTarget := p.kp.At(state.VEgo)*errV + p.integral
	if aTarget > minPlanAccel && aTarget < maxPlanAccel {
		p.integral += p.ki.At(state.VEgo) * errV * p.dt
	}
	aTarget = clip(aTarget, minPlanAccel, maxPlanAccel)

	gb := shaper.ComputeCreepAdjustedAccel(aTarget, state.VEgo)
	req.Enabled = true
	req.Actuators = car.Actuators{
		Accel:         aTarget,
		Gas:           clip(gb, 0, 1),
		Brake:         clip(-gb, 0, 1),
		AccelOverride: shaper.CalcAccelOverride(state.AEgo, aTarget, state.VEgo, p.target),
	}
	return req
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
