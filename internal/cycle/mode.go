package cycle

import "github.com/kgkim70/openpilot/internal/events"

// Mode is the engagement state reported by ModeTracker.
type Mode int

const (
	Idle Mode = iota
	Enabled
	Disabled
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Enabled:
		return "enabled"
	case Disabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// ModeTracker follows engagement from event tags. An ENABLE event engages
// unless any NO_ENTRY event is present in the same tick; any
// USER_DISABLE event disengages. It is for the arbitration layer around
// the cycle; Cycle itself never reads it.
type ModeTracker struct {
	mode Mode
}

// Mode returns the current mode.
func (t *ModeTracker) Mode() Mode {
	return t.mode
}

// Step advances the tracker with one tick's events.
func (t *ModeTracker) Step(set events.Set) Mode {
	switch t.mode {
	case Enabled:
		if set.Any(events.UserDisable) {
			t.mode = Disabled
		}
	default:
		if set.Any(events.Enable) && !set.Any(events.NoEntry) {
			t.mode = Enabled
		}
	}
	return t.mode
}
