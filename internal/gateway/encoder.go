package gateway

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/kgkim70/openpilot/internal/car"
	"github.com/kgkim70/openpilot/internal/cycle"
	"github.com/kgkim70/openpilot/internal/interp"
	"github.com/kgkim70/openpilot/internal/params"
)

// Per-frame steering command slew, in normalized units.
const (
	SteerDeltaUp   = 7.0 / 300
	SteerDeltaDown = 17.0 / 300
)

// Command is the payload of the frame sent at CommandAddress.
type Command struct {
	Frame         uint64          `json:"frame"`
	Enabled       bool            `json:"enabled"`
	Steer         float64         `json:"steer"`
	Gas           float64         `json:"gas"`
	Brake         float64         `json:"brake"`
	AccelOverride float64         `json:"accel_override"`
	SetSpeed      float64         `json:"set_speed"`
	LanesVisible  bool            `json:"lanes_visible"`
	LeadVisible   bool            `json:"lead_visible"`
	VisualAlert   car.VisualAlert `json:"visual_alert"`
}

// CommandEncoder is the dispatcher for the adapter. It clips steering to
// the profile's speed-dependent maximum and slews it per frame.
type CommandEncoder struct {
	Bus int

	steerMax    interp.Curve
	lastSteer   float64
	rateLimited bool
}

var (
	_ cycle.Dispatcher       = (*CommandEncoder)(nil)
	_ cycle.SteerRateLimiter = (*CommandEncoder)(nil)
)

func NewCommandEncoder(p params.Profile) *CommandEncoder {
	return &CommandEncoder{steerMax: p.SteerMax.Clone()}
}

// SteerRateLimited reports whether the last dispatched steer differed
// from the request.
func (e *CommandEncoder) SteerRateLimited() bool {
	return e.rateLimited
}

// Dispatch implements cycle.Dispatcher.
func (e *CommandEncoder) Dispatch(in cycle.DispatchInput) ([]car.Frame, error) {
	requested := in.Actuators.Steer
	limit := e.steerMax.At(in.State.VEgo)
	steer := limitSteer(requested, e.lastSteer, limit)
	e.rateLimited = math.Abs(steer-requested) > 1e-9

	cmd := Command{
		Frame:         in.Frame,
		Enabled:       in.Enabled,
		AccelOverride: in.Actuators.AccelOverride,
		SetSpeed:      in.HUD.SetSpeed,
		LanesVisible:  in.HUD.LanesVisible,
		LeadVisible:   in.HUD.LeadVisible,
		VisualAlert:   in.HUD.VisualAlert,
	}
	if in.Enabled {
		cmd.Steer = steer
		cmd.Gas = clip(in.Actuators.Gas, 0, 1)
		cmd.Brake = clip(in.Actuators.Brake, 0, 1)
	}
	e.lastSteer = cmd.Steer

	b, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to encode command: %w", err)
	}
	return []car.Frame{{Bus: e.Bus, Address: CommandAddress, Data: b}}, nil
}

// limitSteer clips target to ±max and moves it from last by at most
// SteerDeltaUp away from zero or SteerDeltaDown towards it.
func limitSteer(target, last, max float64) float64 {
	target = clip(target, -max, max)
	if last > 0 {
		return clip(target, math.Max(last-SteerDeltaDown, -SteerDeltaUp), last+SteerDeltaUp)
	}
	return clip(target, last-SteerDeltaUp, math.Min(last+SteerDeltaDown, SteerDeltaUp))
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
