package cycle

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgkim70/openpilot/internal/car"
	"github.com/kgkim70/openpilot/internal/events"
	"github.com/kgkim70/openpilot/internal/params"
	"github.com/kgkim70/openpilot/internal/testutil"
)

// scriptedDecoder returns the next queued snapshot on every Decode call
// and repeats the last one once the queue is drained.
type scriptedDecoder struct {
	states []car.VehicleState
	calls  int
}

func (d *scriptedDecoder) Decode(frames []car.Frame) car.VehicleState {
	i := d.calls
	if i >= len(d.states) {
		i = len(d.states) - 1
	}
	d.calls++
	return d.states[i]
}

type recordingDispatcher struct {
	inputs  []DispatchInput
	err     error
	limited bool
}

func (d *recordingDispatcher) Dispatch(in DispatchInput) ([]car.Frame, error) {
	d.inputs = append(d.inputs, in)
	if d.err != nil {
		return nil, d.err
	}
	return []car.Frame{{Address: 0x180, Data: []byte{byte(in.Frame)}}}, nil
}

func (d *recordingDispatcher) SteerRateLimited() bool { return d.limited }

type plainDispatcher struct{}

func (plainDispatcher) Dispatch(DispatchInput) ([]car.Frame, error) { return nil, nil }

type fixedYaw float64

func (f fixedYaw) YawRate(steerAngle, speed float64) float64 { return float64(f) }

func raw(vEgo float64, mainOn bool) car.VehicleState {
	return car.VehicleState{VEgo: vEgo, MainOn: mainOn, CanValid: true}
}

func newCycle(t *testing.T, dec Decoder, disp Dispatcher) *Cycle {
	t.Helper()
	c, err := New(params.Defaults(params.Bolt), Config{Decoder: dec, Dispatcher: disp, Model: fixedYaw(0.1)})
	require.NoError(t, err)
	return c
}

func TestNewRequiresCollaborators(t *testing.T) {
	p := params.Defaults(params.Bolt)

	_, err := New(p, Config{Dispatcher: plainDispatcher{}})
	assert.ErrorIs(t, err, ErrNoDecoder)

	_, err = New(p, Config{Decoder: &scriptedDecoder{states: []car.VehicleState{{}}}})
	assert.ErrorIs(t, err, ErrNoDispatcher)
}

func TestParamsReturnsCopy(t *testing.T) {
	c := newCycle(t, &scriptedDecoder{states: []car.VehicleState{{}}}, plainDispatcher{})

	p := c.Params()
	p.SteerMax.V[0] = 99
	assert.NotEqual(t, 99.0, c.Params().SteerMax.V[0])
}

func TestUpdateCruiseFollowsMainSwitch(t *testing.T) {
	dec := &scriptedDecoder{states: []car.VehicleState{raw(20, true)}}
	c := newCycle(t, dec, plainDispatcher{})

	got := c.Update(car.ControlRequest{}, nil)
	assert.True(t, got.CruiseState.Available)
	assert.True(t, got.CruiseState.Enabled)
	assert.False(t, got.CruiseState.Standstill)
	assert.Equal(t, 0.1, got.YawRate)
	assert.True(t, got.Events.Contains(events.PCMEnable))
}

func TestUpdateEnableThenDisable(t *testing.T) {
	dec := &scriptedDecoder{states: []car.VehicleState{raw(20, true), raw(20, true), raw(20, false)}}
	c := newCycle(t, dec, plainDispatcher{})

	first := c.Update(car.ControlRequest{}, nil)
	_, _ = c.Apply(car.ControlRequest{})
	second := c.Update(car.ControlRequest{}, nil)
	_, _ = c.Apply(car.ControlRequest{})
	third := c.Update(car.ControlRequest{}, nil)

	assert.Equal(t, []string{events.PCMEnable}, first.Events.Names())
	assert.Empty(t, second.Events)
	assert.Equal(t, []string{events.WrongCarMode, events.PCMDisable}, third.Events.Names())
	assert.False(t, c.State().CruiseEnabledPrev)
}

func TestEnableAndDisableAreExclusive(t *testing.T) {
	states := []car.VehicleState{
		raw(20, true), raw(20, false), raw(0, true), raw(5, false), raw(30, true), raw(30, true),
	}
	c := newCycle(t, &scriptedDecoder{states: states}, plainDispatcher{})

	for i := range states {
		got := c.Update(car.ControlRequest{}, nil)
		_, _ = c.Apply(car.ControlRequest{})
		enable := got.Events.Contains(events.PCMEnable)
		disable := got.Events.Contains(events.PCMDisable)
		assert.False(t, enable && disable, "cycle %d", i)
	}
}

func TestUpdateInvalidBusRaisesCanError(t *testing.T) {
	s := raw(20, true)
	s.CanValid = false
	c := newCycle(t, &scriptedDecoder{states: []car.VehicleState{s}}, plainDispatcher{})

	got := c.Update(car.ControlRequest{}, nil)
	require.NotEmpty(t, got.Events)
	assert.Equal(t, events.CanError, got.Events[0].Name)
	assert.True(t, got.Events.Any(events.NoEntry))
}

func TestUpdateSurfacesSteerRateLimit(t *testing.T) {
	disp := &recordingDispatcher{limited: true}
	c := newCycle(t, &scriptedDecoder{states: []car.VehicleState{raw(20, true)}}, disp)

	assert.True(t, c.Update(car.ControlRequest{}, nil).SteeringRateLimited)

	c2 := newCycle(t, &scriptedDecoder{states: []car.VehicleState{raw(20, true)}}, plainDispatcher{})
	assert.False(t, c2.Update(car.ControlRequest{}, nil).SteeringRateLimited)
}

func TestFollowLevelStaysInRange(t *testing.T) {
	var states []car.VehicleState
	for i := 0; i < 40; i++ {
		s := raw(20, true)
		s.DistanceButton = i%3 != 0
		states = append(states, s)
	}
	c := newCycle(t, &scriptedDecoder{states: states}, plainDispatcher{})

	for range states {
		got := c.Update(car.ControlRequest{}, nil)
		_, _ = c.Apply(car.ControlRequest{})
		assert.GreaterOrEqual(t, got.FollowLevel, MinFollowLevel)
		assert.LessOrEqual(t, got.FollowLevel, MaxFollowLevel)
	}
}

func TestFollowLevelReportedBeforePress(t *testing.T) {
	idle, pressed := raw(20, true), raw(20, true)
	pressed.DistanceButton = true
	c := newCycle(t, &scriptedDecoder{states: []car.VehicleState{idle, pressed, idle}}, plainDispatcher{})

	var levels []int
	for i := 0; i < 3; i++ {
		levels = append(levels, c.Update(car.ControlRequest{}, nil).FollowLevel)
		_, _ = c.Apply(car.ControlRequest{})
	}

	assert.Equal(t, []int{3, 3, 2}, levels)
	assert.Equal(t, 2, c.State().FollowLevel)
}

func TestStepFollowLevel(t *testing.T) {
	s := NewControlState()
	require.Equal(t, 3, s.FollowLevel)

	presses := []bool{true, true, false, true, false, true, false, true}
	var levels []int
	for _, p := range presses {
		s.StepFollowLevel(p)
		levels = append(levels, s.FollowLevel)
	}

	// Held buttons count once; 1 wraps back to 3.
	assert.Equal(t, []int{2, 2, 2, 1, 1, 3, 3, 2}, levels)
}

func TestApplyClampsDisplaySpeed(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{75, 0},
		{70.01, 0},
		{70, 70},
		{65, 65},
		{0, 0},
	}
	for _, tt := range tests {
		disp := &recordingDispatcher{}
		c := newCycle(t, &scriptedDecoder{states: []car.VehicleState{raw(20, true)}}, disp)
		c.Update(car.ControlRequest{}, nil)

		_, err := c.Apply(car.ControlRequest{HUDControl: car.HUDControl{SetSpeed: tt.in}})
		require.NoError(t, err)
		require.Len(t, disp.inputs, 1)
		assert.Equal(t, tt.want, disp.inputs[0].HUD.SetSpeed, "set speed %v", tt.in)
	}
}

func TestApplyPassesRequestAndState(t *testing.T) {
	disp := &recordingDispatcher{}
	c := newCycle(t, &scriptedDecoder{states: []car.VehicleState{raw(12, true)}}, disp)
	state := c.Update(car.ControlRequest{}, nil)

	req := car.ControlRequest{
		Enabled:   true,
		Actuators: car.Actuators{Gas: 0.3, Steer: -0.2},
		HUDControl: car.HUDControl{
			SetSpeed:    30,
			LeadVisible: true,
			VisualAlert: car.AlertSteerRequired,
		},
	}
	out, err := c.Apply(req)
	require.NoError(t, err)
	require.Len(t, out, 1)

	want := DispatchInput{
		Enabled:   true,
		State:     state,
		Frame:     0,
		Actuators: req.Actuators,
		HUD:       req.HUDControl,
	}
	if diff := cmp.Diff(want, disp.inputs[0]); diff != "" {
		t.Errorf("dispatch input mismatch (-want +got):\n%s", diff)
	}
}

func TestFrameCounterAdvancesOncePerApply(t *testing.T) {
	disp := &recordingDispatcher{}
	c := newCycle(t, &scriptedDecoder{states: []car.VehicleState{raw(20, true)}}, disp)

	for i := 0; i < 5; i++ {
		c.Update(car.ControlRequest{}, nil)
		_, err := c.Apply(car.ControlRequest{})
		require.NoError(t, err)
	}
	assert.Equal(t, uint64(5), c.State().Frame)
	for i, in := range disp.inputs {
		assert.Equal(t, uint64(i), in.Frame)
	}
}

func TestFrameCounterAdvancesOnDispatchError(t *testing.T) {
	boom := errors.New("bus full")
	disp := &recordingDispatcher{err: boom}
	c := newCycle(t, &scriptedDecoder{states: []car.VehicleState{raw(20, true)}}, disp)

	c.Update(car.ControlRequest{}, nil)
	_, err := c.Apply(car.ControlRequest{})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, uint64(1), c.State().Frame)

	c.Update(car.ControlRequest{}, nil)
	_, err = c.Apply(car.ControlRequest{})
	require.Error(t, err)
	assert.Equal(t, uint64(2), c.State().Frame)
}

func TestOutOfOrderCallsAreLogged(t *testing.T) {
	logs := testutil.CaptureLogs(t)
	c := newCycle(t, &scriptedDecoder{states: []car.VehicleState{raw(20, true)}}, plainDispatcher{})

	_, err := c.Apply(car.ControlRequest{})
	require.NoError(t, err)
	c.Update(car.ControlRequest{}, nil)
	c.Update(car.ControlRequest{}, nil)

	lines := logs.Lines()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "apply without a preceding update")
	assert.Contains(t, lines[1], "update called twice")
}

func TestCycleIsDeterministic(t *testing.T) {
	states := []car.VehicleState{raw(0, false), raw(3, true), raw(9, true), raw(9, false)}
	states[2].DistanceButton = true
	states[3].ParkBrake = true

	run := func() []car.VehicleState {
		c := newCycle(t, &scriptedDecoder{states: states}, plainDispatcher{})
		var out []car.VehicleState
		for range states {
			out = append(out, c.Update(car.ControlRequest{}, nil))
			_, _ = c.Apply(car.ControlRequest{})
		}
		return out
	}

	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("runs diverged (-first +second):\n%s", diff)
	}
}
