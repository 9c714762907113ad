// Command controld runs the vehicle control cycle against a bus gateway
// adapter or a recorded capture.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kgkim70/openpilot/internal/config"
	"github.com/kgkim70/openpilot/internal/gateway"
	"github.com/kgkim70/openpilot/internal/monitoring"
	"github.com/kgkim70/openpilot/internal/recorder"
	"github.com/kgkim70/openpilot/internal/timeutil"
	"github.com/kgkim70/openpilot/internal/units"
	"github.com/kgkim70/openpilot/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to a JSON session config (CONTROLD_* env vars override it)")
	unpaced     = flag.Bool("unpaced", false, "Replay as fast as possible instead of at rate_hz")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("controld"))
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		monitoring.Logger.Fatal().Err(err).Msg("failed to load config")
	}
	monitoring.Setup(os.Stderr, cfg.GetLogLevel(), cfg.GetLogConsole())
	monitoring.Logf("starting %s", version.String("controld"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		monitoring.Logger.Fatal().Err(err).Msg("controld failed")
	}
}

func run(ctx context.Context, cfg *config.SessionConfig) error {
	profile, err := buildProfile(cfg)
	if err != nil {
		return err
	}
	vehicle, err := newVehicle(profile)
	if err != nil {
		return err
	}
	monitoring.Logger.Info().
		Str("variant", string(profile.Variant)).
		Bool("camera", profile.EnableCamera).
		Bool("long_control", profile.OpenpilotLongitudinalControl).
		Float64("min_enable_speed", profile.MinEnableSpeed).
		Msg("profile ready")

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	// stopWorkers is called before any resource a worker uses is closed.
	stopWorkers := sync.OnceFunc(func() {
		cancel()
		wg.Wait()
	})
	defer stopWorkers()

	clock := timeutil.RealClock{}
	loop := &Loop{
		Clock:   clock,
		Period:  cfg.GetPeriod(),
		Vehicle: vehicle,
		Planner: NewPlanner(profile, units.ToMPS(cfg.GetTargetSpeedKPH(), units.KPH), cfg.GetPeriod().Seconds()),
		Units:   cfg.GetDisplayUnits(),
	}

	var (
		collector *gateway.Collector
		admin     []func(*http.ServeMux) error
	)

	switch {
	case cfg.GetReplayFile() != "":
		replay, err := gateway.OpenReplay(cfg.GetReplayFile())
		if err != nil {
			return err
		}
		defer replay.Close()
		loop.Source = replay

	case cfg.GetPort() != "":
		link, err := gateway.OpenSerial(cfg.GetPort(), cfg.PortOptions())
		if err != nil {
			return err
		}
		defer func() {
			stopWorkers()
			link.Close()
		}()

		collector = gateway.NewCollector()
		// Close releases the subscription along with the port.
		_, lines := link.Subscribe()

		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := link.Monitor(ctx); err != nil && !errors.Is(err, context.Canceled) {
				monitoring.Logf("failed to monitor gateway: %v", err)
			}
			monitoring.Logf("monitor routine terminated")
		}()
		go func() {
			defer wg.Done()
			collector.Run(ctx, lines)
		}()

		loop.Source = collector
		loop.Send = link.Send
		admin = append(admin, func(mux *http.ServeMux) error {
			link.AttachAdminRoutes(mux)
			return nil
		})

	default:
		return errors.New("either port or replay_file must be configured")
	}

	var (
		rec     *recorder.Recorder
		session string
	)
	if path := cfg.GetDBPath(); path != "" {
		rec, err = recorder.Open(path)
		if err != nil {
			return err
		}
		defer func() {
			stopWorkers()
			rec.Close()
		}()

		session, err = rec.StartSession(ctx, profile, clock.Now())
		if err != nil {
			return err
		}
		monitoring.Logger.Info().Str("session", session).Str("db", path).Msg("recording")
		loop.Recorder = rec

		flush := clock.NewTicker(cfg.GetFlushInterval())
		defer flush.Stop()
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.Run(ctx, flush.C())
		}()
		defer func() {
			stopWorkers()
			if err := rec.EndSession(context.Background(), clock.Now()); err != nil {
				monitoring.Logf("failed to end session: %v", err)
				return
			}
			logSummary(rec, session)
		}()
		admin = append(admin, rec.AttachAdminRoutes)
	}

	if addr := cfg.GetDebugListen(); addr != "" {
		mux := http.NewServeMux()
		for _, attach := range admin {
			if err := attach(mux); err != nil {
				return err
			}
		}
		srv := &http.Server{Addr: addr, Handler: mux}
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveDebug(ctx, srv)
		}()
		monitoring.Logger.Info().Str("addr", addr).Msg("debug routes at /debug/")
	}

	if cfg.GetReplayFile() != "" && *unpaced {
		err = loop.RunUnpaced(ctx)
	} else {
		err = loop.Run(ctx)
	}

	stopWorkers()

	s := loop.Stats()
	ev := monitoring.Logger.Info().
		Int("ticks", s.Ticks).
		Int("engagements", s.Engagements).
		Int("dispatch_errors", s.DispatchErrors).
		Int("send_errors", s.SendErrors).
		Int("overruns", s.Overruns)
	if collector != nil {
		ev = ev.Int("dropped_frames", collector.Dropped())
	}
	ev.Msg("session finished")
	return err
}

// serveDebug runs srv until ctx is cancelled.
func serveDebug(ctx context.Context, srv *http.Server) {
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			monitoring.Logf("debug server failed: %v", err)
		}
	}()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("debug server shutdown: %v", err)
	}
}

// logSummary reports what the recorder stored for session.
func logSummary(rec *recorder.Recorder, session string) {
	sum, err := rec.Summarize(context.Background(), session)
	if err != nil {
		monitoring.Logf("failed to summarize session %s: %v", session, err)
		return
	}
	monitoring.Logger.Info().
		Str("session", sum.ID).
		Int("cycles", sum.Cycles).
		Interface("events", sum.Events).
		Msg("session recorded")
}
