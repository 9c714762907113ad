// Package cycle runs the per-tick vehicle control interface: it enriches
// the decoded snapshot, derives events, and hands actuator intent to the
// dispatcher. Nothing here blocks or aborts a tick.
package cycle

import (
	"errors"
	"fmt"

	"github.com/kgkim70/openpilot/internal/car"
	"github.com/kgkim70/openpilot/internal/monitoring"
	"github.com/kgkim70/openpilot/internal/params"
	"github.com/kgkim70/openpilot/internal/safety"
	"github.com/kgkim70/openpilot/internal/units"
	"github.com/kgkim70/openpilot/internal/vehiclemodel"
)

// MaxDisplaySpeed is the highest set speed shown on the dash; anything
// above it is displayed as no target.
const MaxDisplaySpeed = 70

var (
	ErrNoDecoder    = errors.New("cycle: decoder is required")
	ErrNoDispatcher = errors.New("cycle: dispatcher is required")
)

// Config wires the external collaborators. Model defaults to the
// profile's bicycle model and Common to safety.BusCommon.
type Config struct {
	Decoder    Decoder
	Dispatcher Dispatcher
	Model      YawRateModel
	Common     safety.CommonFunc
}

// Cycle is the data-driven VehicleControlInterface implementation shared
// by every variant.
type Cycle struct {
	profile    params.Profile
	decoder    Decoder
	dispatcher Dispatcher
	model      YawRateModel
	engine     safety.Engine
	state      ControlState
	last       car.VehicleState
}

var _ VehicleControlInterface = (*Cycle)(nil)

// New builds a cycle for profile p.
func New(p params.Profile, cfg Config) (*Cycle, error) {
	if cfg.Decoder == nil {
		return nil, ErrNoDecoder
	}
	if cfg.Dispatcher == nil {
		return nil, ErrNoDispatcher
	}
	model := cfg.Model
	if model == nil {
		model = vehiclemodel.New(p)
	}
	common := cfg.Common
	if common == nil {
		common = safety.BusCommon
	}
	return &Cycle{
		profile:    p.Clone(),
		decoder:    cfg.Decoder,
		dispatcher: cfg.Dispatcher,
		model:      model,
		engine:     safety.Engine{MinEnableSpeed: p.MinEnableSpeed, Common: common},
		state:      NewControlState(),
	}, nil
}

// Params returns a copy of the session profile.
func (c *Cycle) Params() params.Profile {
	return c.profile.Clone()
}

// State returns a copy of the cross-cycle state.
func (c *Cycle) State() ControlState {
	return c.state
}

// Last returns the snapshot produced by the most recent Update.
func (c *Cycle) Last() car.VehicleState {
	return c.last
}

// Update decodes frames and returns the enriched snapshot for this tick.
// The decoded cruise main switch is authoritative for availability and
// enablement; Profile.EnableCruise is not consulted.
func (c *Cycle) Update(req car.ControlRequest, frames []car.Frame) car.VehicleState {
	if c.state.phase == phaseUpdated {
		monitoring.Logf("cycle: update called twice without apply at frame %d", c.state.Frame)
	}

	ret := c.decoder.Decode(frames)

	ret.CruiseState.Available = ret.MainOn
	ret.CruiseState.Enabled = ret.MainOn
	ret.CruiseState.Standstill = false

	// The snapshot carries the level in force before this tick's press.
	ret.FollowLevel = c.state.FollowLevel

	ret.YawRate = c.model.YawRate(ret.SteeringAngle*units.DegToRad, ret.VEgo)
	if l, ok := c.dispatcher.(SteerRateLimiter); ok {
		ret.SteeringRateLimited = l.SteerRateLimited()
	}

	c.state.StepFollowLevel(ret.DistanceButton)

	ret.Events = c.engine.Derive(ret, safety.Previous{CruiseEnabled: c.state.CruiseEnabledPrev})
	c.state.CruiseEnabledPrev = ret.CruiseState.Enabled

	c.last = ret
	c.state.phase = phaseUpdated
	return ret
}

// Apply dispatches the request and advances the frame counter exactly
// once, whether or not the dispatcher succeeds.
func (c *Cycle) Apply(req car.ControlRequest) ([]car.Frame, error) {
	if c.state.phase != phaseUpdated {
		monitoring.Logf("cycle: apply without a preceding update at frame %d", c.state.Frame)
	}

	hud := req.HUDControl
	hud.SetSpeed = ClampDisplaySpeed(hud.SetSpeed)

	frame := c.state.Frame
	out, err := c.dispatcher.Dispatch(DispatchInput{
		Enabled:   req.Enabled,
		State:     c.last,
		Frame:     frame,
		Actuators: req.Actuators,
		HUD:       hud,
	})
	c.state.Frame++
	c.state.phase = phaseApplied

	if err != nil {
		return nil, fmt.Errorf("failed to dispatch frame %d: %w", frame, err)
	}
	return out, nil
}

// ClampDisplaySpeed hides set speeds the dash cannot show.
func ClampDisplaySpeed(v float64) float64 {
	if v > MaxDisplaySpeed {
		return 0
	}
	return v
}
