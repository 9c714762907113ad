package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgkim70/openpilot/internal/car"
	"github.com/kgkim70/openpilot/internal/events"
	"github.com/kgkim70/openpilot/internal/params"
	"github.com/kgkim70/openpilot/internal/testutil"
)

func openTest(t *testing.T) *Recorder {
	t.Helper()
	testutil.MuteLogs(t)
	r, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func cycleAt(frame uint64, evs ...events.Event) Cycle {
	return Cycle{
		Frame: frame,
		Time:  time.Date(2024, 3, 1, 12, 0, 0, int(frame)*10_000_000, time.UTC),
		Mode:  "enabled",
		State: car.VehicleState{
			VEgo:        20,
			FollowLevel: 3,
			CanValid:    true,
			CruiseState: car.CruiseState{Enabled: true},
			Events:      evs,
		},
		Request: car.ControlRequest{
			Enabled:    true,
			Actuators:  car.Actuators{Accel: 0.4, Gas: 0.1, AccelOverride: 0.9},
			HUDControl: car.HUDControl{SetSpeed: 25},
		},
	}
}

func TestOpenMigratesToLatest(t *testing.T) {
	r := openTest(t)
	version, dirty, err := r.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// reopening an up-to-date database is a no-op
	require.NoError(t, r.MigrateUp())
}

func TestRecordAndFlush(t *testing.T) {
	r := openTest(t)
	ctx := context.Background()

	id, err := r.StartSession(ctx, params.Defaults(params.Bolt), time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	enable := events.New(events.PCMEnable, events.Enable)
	tooSlow := events.New(events.SpeedTooLow, events.NoEntry)
	r.Record(cycleAt(0, enable, tooSlow))
	r.Record(cycleAt(1, tooSlow))
	r.Record(cycleAt(2))
	assert.Equal(t, 3, r.Pending())

	require.NoError(t, r.Flush(ctx))
	assert.Zero(t, r.Pending())

	n, err := r.CycleCount(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	counts, err := r.EventCounts(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{events.PCMEnable: 1, events.SpeedTooLow: 2}, counts)

	// flushing an empty buffer is a no-op
	require.NoError(t, r.Flush(ctx))
}

func TestRecordWithoutSessionIsDropped(t *testing.T) {
	r := openTest(t)
	r.Record(cycleAt(0))
	assert.Zero(t, r.Pending())
}

func TestEndSession(t *testing.T) {
	r := openTest(t)
	ctx := context.Background()

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := r.StartSession(ctx, params.Defaults(params.Volt), start)
	require.NoError(t, err)
	r.Record(cycleAt(0))

	require.NoError(t, r.EndSession(ctx, start.Add(time.Minute)))

	sessions, err := r.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, id, sessions[0].ID)
	assert.Equal(t, string(params.Volt), sessions[0].Variant)
	require.NotNil(t, sessions[0].EndedAt)
	assert.True(t, sessions[0].EndedAt.Equal(start.Add(time.Minute)))

	n, err := r.CycleCount(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// a second end with no session is harmless
	require.NoError(t, r.EndSession(ctx, start))
}

func TestRunFlushesOnTickAndCancel(t *testing.T) {
	r := openTest(t)
	ctx, cancel := context.WithCancel(context.Background())

	id, err := r.StartSession(ctx, params.Defaults(params.Bolt), time.Now())
	require.NoError(t, err)

	tick := make(chan time.Time)
	done := make(chan struct{})
	go func() {
		r.Run(ctx, tick)
		close(done)
	}()

	r.Record(cycleAt(0))
	tick <- time.Now()
	r.Record(cycleAt(1))
	cancel()
	<-done

	n, err := r.CycleCount(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFrameEventsKeepOrderAndTags(t *testing.T) {
	r := openTest(t)
	ctx := context.Background()
	id, err := r.StartSession(ctx, params.Defaults(params.Bolt), time.Now())
	require.NoError(t, err)

	want := events.Set{
		events.New(events.WrongCarMode, events.NoEntry, events.UserDisable),
		events.New(events.PCMDisable, events.UserDisable),
		events.New(events.ResumeRequired, events.Warning),
	}
	r.Record(cycleAt(3, want...))
	require.NoError(t, r.Flush(ctx))

	got, err := r.FrameEvents(ctx, id, 3)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	none, err := r.FrameEvents(ctx, id, 4)
	require.NoError(t, err)
	assert.Empty(t, none)
}
