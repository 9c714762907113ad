package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kgkim70/openpilot/internal/car"
	"github.com/kgkim70/openpilot/internal/cycle"
	"github.com/kgkim70/openpilot/internal/params"
)

func TestPlanIdleRequestsNothing(t *testing.T) {
	p := NewPlanner(params.Defaults(params.Bolt), 25, 0.01)
	req := p.Plan(car.VehicleState{VEgo: 10}, cycle.Idle)

	assert.False(t, req.Enabled)
	assert.Equal(t, car.Actuators{}, req.Actuators)
	assert.Equal(t, 25.0, req.HUDControl.SetSpeed)
}

func TestPlanBelowTargetAccelerates(t *testing.T) {
	p := NewPlanner(params.Defaults(params.Bolt), 25, 0.01)
	req := p.Plan(car.VehicleState{VEgo: 20}, cycle.Enabled)

	assert.True(t, req.Enabled)
	assert.Greater(t, req.Actuators.Accel, 0.0)
	assert.Greater(t, req.Actuators.Gas, 0.0)
	assert.Zero(t, req.Actuators.Brake)
	assert.LessOrEqual(t, req.Actuators.Accel, maxPlanAccel)
}

func TestPlanAboveTargetBrakes(t *testing.T) {
	p := NewPlanner(params.Defaults(params.Bolt), 15, 0.01)
	req := p.Plan(car.VehicleState{VEgo: 25}, cycle.Enabled)

	assert.Less(t, req.Actuators.Accel, 0.0)
	assert.Zero(t, req.Actuators.Gas)
	assert.Greater(t, req.Actuators.Brake, 0.0)
	assert.GreaterOrEqual(t, req.Actuators.Accel, minPlanAccel)
}

func TestPlanOverrideStaysBounded(t *testing.T) {
	p := NewPlanner(params.Defaults(params.Volt), 30, 0.01)
	for _, v := range []float64{0, 1, 5, 12, 20, 29.5, 30, 35} {
		for _, a := range []float64{-2, 0, 1.5} {
			req := p.Plan(car.VehicleState{VEgo: v, AEgo: a}, cycle.Enabled)
			o := req.Actuators.AccelOverride
			assert.GreaterOrEqual(t, o, 0.0, "v=%v a=%v", v, a)
			assert.LessOrEqual(t, o, maxPlanAccel/0.15, "v=%v a=%v", v, a)
		}
	}
}

func TestPlanIntegratorResetsOnDisengage(t *testing.T) {
	p := NewPlanner(params.Defaults(params.Bolt), 25, 0.1)
	for i := 0; i < 50; i++ {
		p.Plan(car.VehicleState{VEgo: 24}, cycle.Enabled)
	}
	assert.Greater(t, p.integral, 0.0)

	p.Plan(car.VehicleState{VEgo: 24}, cycle.Disabled)
	assert.Zero(t, p.integral)
}

func TestPlanZeroTargetNeverEngages(t *testing.T) {
	p := NewPlanner(params.Defaults(params.Bolt), 0, 0.01)
	req := p.Plan(car.VehicleState{VEgo: 10}, cycle.Enabled)
	assert.False(t, req.Enabled)
}
