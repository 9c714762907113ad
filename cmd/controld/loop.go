package main

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/kgkim70/openpilot/internal/car"
	"github.com/kgkim70/openpilot/internal/cycle"
	"github.com/kgkim70/openpilot/internal/events"
	"github.com/kgkim70/openpilot/internal/gateway"
	"github.com/kgkim70/openpilot/internal/monitoring"
	"github.com/kgkim70/openpilot/internal/recorder"
	"github.com/kgkim70/openpilot/internal/timeutil"
	"github.com/kgkim70/openpilot/internal/units"
)

// CycleRecorder receives every completed tick.
type CycleRecorder interface {
	Record(recorder.Cycle)
}

// Stats summarizes a run.
type Stats struct {
	Ticks          int
	DispatchErrors int
	SendErrors     int
	Overruns       int
	Engagements    int
}

// Loop drives one vehicle at a fixed rate: pull frames, update, plan,
// apply, send.
type Loop struct {
	Clock    timeutil.Clock
	Period   time.Duration
	Source   gateway.Source
	Vehicle  cycle.VehicleControlInterface
	Planner  *Planner
	Send     func([]car.Frame) error // nil drops outbound frames
	Recorder CycleRecorder           // optional
	Units    string                  // speed units for log lines; m/s when empty

	mode    cycle.ModeTracker
	lastReq car.ControlRequest
	stats   Stats
}

func (l *Loop) speedUnits() string {
	if units.IsValid(l.Units) {
		return l.Units
	}
	return units.MPS
}

// Stats returns the counters so far.
func (l *Loop) Stats() Stats {
	return l.stats
}

// Mode returns the current engagement mode.
func (l *Loop) Mode() cycle.Mode {
	return l.mode.Mode()
}

// Step runs one tick. It reports done once the source is exhausted.
func (l *Loop) Step(now time.Time) (done bool, err error) {
	frames, err := l.Source.Next()
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	state := l.Vehicle.Update(l.lastReq, frames)

	before := l.mode.Mode()
	mode := l.mode.Step(state.Events)
	if mode != before {
		if mode == cycle.Enabled {
			l.stats.Engagements++
		}
		cause := state.Events.WithTag(events.Enable)
		if mode == cycle.Disabled {
			cause = state.Events.WithTag(events.UserDisable)
		}
		monitoring.Logger.Info().
			Str("from", before.String()).
			Str("to", mode.String()).
			Strs("cause", cause.Names()).
			Strs("events", state.Events.Names()).
			Float64("speed", units.ConvertSpeed(state.VEgo, l.Units)).
			Str("units", l.speedUnits()).
			Msg("mode change")
	}

	req := l.Planner.Plan(state, mode)
	out, err := l.Vehicle.Apply(req)
	switch {
	case err != nil:
		l.stats.DispatchErrors++
		monitoring.Logf("controld: %v", err)
	case l.Send != nil && len(out) > 0:
		if err := l.Send(out); err != nil {
			l.stats.SendErrors++
			monitoring.Logf("controld: %v", err)
		}
	}

	if l.Recorder != nil {
		l.Recorder.Record(recorder.Cycle{
			Frame:   uint64(l.stats.Ticks),
			Time:    now,
			Mode:    mode.String(),
			State:   state,
			Request: req,
		})
	}

	l.lastReq = req
	l.stats.Ticks++
	return false, nil
}

// Run steps on every tick of the clock until ctx is cancelled or the
// source is exhausted.
func (l *Loop) Run(ctx context.Context) error {
	ticker := l.Clock.NewTicker(l.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C():
			done, err := l.Step(now)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
			if l.Clock.Since(now) > l.Period {
				l.stats.Overruns++
			}
		}
	}
}

// RunUnpaced steps as fast as the source allows; used for replays.
func (l *Loop) RunUnpaced(ctx context.Context) error {
	now := l.Clock.Now()
	for ctx.Err() == nil {
		done, err := l.Step(now)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		now = now.Add(l.Period)
	}
	return nil
}
