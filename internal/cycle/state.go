package cycle

// Follow level bounds. Levels wrap from MinFollowLevel back to
// MaxFollowLevel.
const (
	MinFollowLevel = 1
	MaxFollowLevel = 3
)

type phase int

const (
	phaseStart phase = iota
	phaseUpdated
	phaseApplied
)

// ControlState is the cycle-to-cycle memory of one vehicle session. It is
// owned by a single control loop goroutine.
type ControlState struct {
	CruiseEnabledPrev  bool
	PrevDistanceButton bool
	FollowLevel        int
	Frame              uint64

	phase phase
}

// NewControlState returns the state at session start.
func NewControlState() ControlState {
	return ControlState{FollowLevel: MaxFollowLevel}
}

// StepFollowLevel applies the distance button for one cycle. A rising
// edge lowers the follow level, wrapping below MinFollowLevel to
// MaxFollowLevel. It reports whether an edge was seen.
func (s *ControlState) StepFollowLevel(pressed bool) bool {
	edge := pressed && !s.PrevDistanceButton
	s.PrevDistanceButton = pressed
	if !edge {
		return false
	}
	s.FollowLevel--
	if s.FollowLevel < MinFollowLevel {
		s.FollowLevel = MaxFollowLevel
	}
	return true
}
