// Package safety derives the per-cycle safety and mode events from a
// vehicle-state snapshot. Derivation is pure: the same snapshot and
// previous-cycle view always yield the same events.
package safety

import (
	"github.com/kgkim70/openpilot/internal/car"
	"github.com/kgkim70/openpilot/internal/events"
)

// Previous is the slice of last-cycle state the rules depend on.
type Previous struct {
	CruiseEnabled bool
}

// CommonFunc produces the vehicle-agnostic events emitted ahead of the
// variant rules (door, seatbelt, gear, bus errors and the like).
type CommonFunc func(state car.VehicleState) events.Set

// Engine evaluates the rule set. The zero value emits no common events
// and treats every speed as high enough to engage.
type Engine struct {
	MinEnableSpeed float64
	Common         CommonFunc
}

// Derive evaluates every rule on every call; rules do not short-circuit
// each other.
func (e Engine) Derive(state car.VehicleState, prev Previous) events.Set {
	var out events.Set
	if e.Common != nil {
		out = out.Add(e.Common(state)...)
	}

	cruise := state.CruiseState
	if !cruise.Available {
		out = out.Add(events.New(events.WrongCarMode, events.NoEntry, events.UserDisable))
	}

	if cruise.Enabled && !prev.CruiseEnabled {
		out = out.Add(events.New(events.PCMEnable, events.Enable))
	} else if !cruise.Enabled {
		out = out.Add(events.New(events.PCMDisable, events.UserDisable))
	}

	if state.VEgo < e.MinEnableSpeed {
		out = out.Add(events.New(events.SpeedTooLow, events.NoEntry))
	}
	if state.ParkBrake {
		out = out.Add(events.New(events.ParkBrake, events.NoEntry, events.UserDisable))
	}
	if cruise.Standstill {
		out = out.Add(events.New(events.ResumeRequired, events.Warning))
	}
	return out
}

// BusCommon is the default common-event source: it reports an invalid
// bus so nothing engages on untrusted kinematics.
func BusCommon(state car.VehicleState) events.Set {
	if state.CanValid {
		return nil
	}
	return events.Set{events.New(events.CanError, events.NoEntry, events.UserDisable)}
}
