// Package recorder keeps a per-session sqlite log of control cycles and
// the events they raised.
package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kgkim70/openpilot/internal/car"
	"github.com/kgkim70/openpilot/internal/events"
	"github.com/kgkim70/openpilot/internal/monitoring"
	"github.com/kgkim70/openpilot/internal/params"
)

// Cycle is one recorded control tick.
type Cycle struct {
	Frame   uint64
	Time    time.Time
	Mode    string
	State   car.VehicleState
	Request car.ControlRequest
}

// Session summarizes one recorded drive.
type Session struct {
	ID        string     `json:"id"`
	Variant   string     `json:"variant"`
	CarName   string     `json:"car_name"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Summary is a session with its stored totals.
type Summary struct {
	Session
	Cycles int            `json:"cycles"`
	Events map[string]int `json:"events"`
}

// Recorder buffers cycles in memory and writes them in batches. Record is
// safe to call from the control loop while Flush runs elsewhere.
type Recorder struct {
	db *sql.DB

	mu      sync.Mutex
	session string
	pending []Cycle
}

// Open opens (or creates) the database at path and migrates it.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recorder db: %w", err)
	}
	// sqlite allows one writer; a single connection also keeps :memory:
	// databases intact across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000; PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	r := &Recorder{db: db}
	if err := r.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// StartSession registers a new session and makes it current.
func (r *Recorder) StartSession(ctx context.Context, p params.Profile, start time.Time) (string, error) {
	profileJSON, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode profile: %w", err)
	}

	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, variant, car_name, profile_json, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(p.Variant), p.CarName, string(profileJSON), start.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert session: %w", err)
	}

	r.mu.Lock()
	r.session = id
	r.pending = nil
	r.mu.Unlock()
	return id, nil
}

// Record queues one cycle for the current session. Cycles recorded
// before StartSession are dropped.
func (r *Recorder) Record(c Cycle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == "" {
		return
	}
	r.pending = append(r.pending, c)
}

// Pending reports how many cycles await a flush.
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Flush writes queued cycles and their events in one transaction. On
// failure the batch is put back so a later flush can retry it.
func (r *Recorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	session := r.session
	batch := r.pending
	r.pending = nil
	r.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	if err := r.write(ctx, session, batch); err != nil {
		r.mu.Lock()
		if r.session == session {
			r.pending = append(batch, r.pending...)
		}
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *Recorder) write(ctx context.Context, session string, batch []Cycle) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	cycleStmt, err := tx.PrepareContext(ctx, `INSERT INTO cycles (
			session_id, frame, recorded_at, mode, v_ego, a_ego, steering_angle, yaw_rate,
			cruise_enabled, follow_level, can_valid, accel, gas, brake, accel_override, set_speed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare cycle insert: %w", err)
	}
	defer cycleStmt.Close()

	eventStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cycle_events (session_id, frame, position, name, tags) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare event insert: %w", err)
	}
	defer eventStmt.Close()

	for _, c := range batch {
		s, a := c.State, c.Request.Actuators
		if _, err := cycleStmt.ExecContext(ctx,
			session, int64(c.Frame), c.Time.UTC(), c.Mode, s.VEgo, s.AEgo, s.SteeringAngle, s.YawRate,
			s.CruiseState.Enabled, s.FollowLevel, s.CanValid, a.Accel, a.Gas, a.Brake, a.AccelOverride,
			c.Request.HUDControl.SetSpeed,
		); err != nil {
			return fmt.Errorf("failed to insert cycle %d: %w", c.Frame, err)
		}
		for i, ev := range s.Events {
			tags := make([]string, len(ev.Tags))
			for j, t := range ev.Tags {
				tags[j] = t.String()
			}
			if _, err := eventStmt.ExecContext(ctx, session, int64(c.Frame), i, ev.Name, strings.Join(tags, ",")); err != nil {
				return fmt.Errorf("failed to insert event %s for cycle %d: %w", ev.Name, c.Frame, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cycles: %w", err)
	}
	return nil
}

// Run flushes on every tick until ctx is cancelled, then flushes once
// more.
func (r *Recorder) Run(ctx context.Context, tick <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			if err := r.Flush(context.Background()); err != nil {
				monitoring.Logf("recorder: final flush failed: %v", err)
			}
			return
		case <-tick:
			if err := r.Flush(ctx); err != nil {
				monitoring.Logf("recorder: flush failed: %v", err)
			}
		}
	}
}

// EndSession flushes and stamps the current session's end time.
func (r *Recorder) EndSession(ctx context.Context, end time.Time) error {
	if err := r.Flush(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	session := r.session
	r.session = ""
	r.mu.Unlock()
	if session == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE sessions SET ended_at = ? WHERE session_id = ?`, end.UTC(), session); err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return nil
}

// Sessions lists recorded sessions, newest first.
func (r *Recorder) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, sessionColumns+` ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const sessionColumns = `SELECT session_id, variant, car_name, started_at, ended_at FROM sessions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var s Session
	var ended sql.NullTime
	if err := row.Scan(&s.ID, &s.Variant, &s.CarName, &s.StartedAt, &ended); err != nil {
		return Session{}, fmt.Errorf("failed to scan session: %w", err)
	}
	if ended.Valid {
		t := ended.Time
		s.EndedAt = &t
	}
	return s, nil
}

// CycleCount returns the number of cycles stored for a session.
func (r *Recorder) CycleCount(ctx context.Context, session string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cycles WHERE session_id = ?`, session).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count cycles: %w", err)
	}
	return n, nil
}

// EventCounts tallies stored events by name for a session.
func (r *Recorder) EventCounts(ctx context.Context, session string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, COUNT(*) FROM cycle_events WHERE session_id = ? GROUP BY name`, session)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		out[name] = n
	}
	return out, rows.Err()
}

// FrameEvents returns the events stored for one cycle, in raised order.
func (r *Recorder) FrameEvents(ctx context.Context, session string, frame uint64) (events.Set, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, tags FROM cycle_events WHERE session_id = ? AND frame = ? ORDER BY position`,
		session, int64(frame))
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out events.Set
	for rows.Next() {
		var name, tagList string
		if err := rows.Scan(&name, &tagList); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		var tags []events.Tag
		for _, s := range strings.Split(tagList, ",") {
			if s == "" {
				continue
			}
			tag, err := events.ParseTag(s)
			if err != nil {
				return nil, fmt.Errorf("event %s at frame %d: %w", name, frame, err)
			}
			tags = append(tags, tag)
		}
		out = out.Add(events.New(name, tags...))
	}
	return out, rows.Err()
}

// Summarize returns a session with the totals stored for it.
func (r *Recorder) Summarize(ctx context.Context, id string) (Summary, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, sessionColumns+` WHERE session_id = ?`, id))
	if err != nil {
		return Summary{}, err
	}
	cycles, err := r.CycleCount(ctx, s.ID)
	if err != nil {
		return Summary{}, err
	}
	evs, err := r.EventCounts(ctx, s.ID)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Session: s, Cycles: cycles, Events: evs}, nil
}

// Close flushes anything pending and closes the database.
func (r *Recorder) Close() error {
	if err := r.Flush(context.Background()); err != nil {
		monitoring.Logf("recorder: flush on close failed: %v", err)
	}
	return r.db.Close()
}
