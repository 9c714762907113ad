package recorder

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"
)

// Overview is the payload of /debug/sessions.
type Overview struct {
	SchemaVersion uint      `json:"schema_version"`
	Dirty         bool      `json:"dirty"`
	Pending       int       `json:"pending"`
	Sessions      []Summary `json:"sessions"`
}

// AttachAdminRoutes mounts a tailsql console over the session database
// and a JSON session overview under /debug/.
func (r *Recorder) AttachAdminRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://sessions.db", r.db, &tailsql.DBOptions{
		Label: "Session recorder",
	})
	debug.Handle("tailsql/", "SQL over recorded sessions", tsql.NewMux())

	debug.HandleFunc("sessions", "Recorded sessions with cycle and event totals", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ov, err := r.overview(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(ov); err != nil {
			http.Error(w, "Failed to encode sessions", http.StatusInternalServerError)
		}
	})
	debug.HandleSilentFunc("session-events", func(w http.ResponseWriter, req *http.Request) {
		id := req.URL.Query().Get("id")
		frame, err := strconv.ParseUint(req.URL.Query().Get("frame"), 10, 64)
		if id == "" || err != nil {
			http.Error(w, "Need id and frame", http.StatusBadRequest)
			return
		}
		evs, err := r.FrameEvents(req.Context(), id, frame)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(evs); err != nil {
			http.Error(w, "Failed to encode events", http.StatusInternalServerError)
		}
	})
	return nil
}

func (r *Recorder) overview(req *http.Request) (Overview, error) {
	version, dirty, err := r.MigrateVersion()
	if err != nil {
		return Overview{}, err
	}
	ov := Overview{SchemaVersion: version, Dirty: dirty, Pending: r.Pending(), Sessions: []Summary{}}

	sessions, err := r.Sessions(req.Context())
	if err != nil {
		return Overview{}, err
	}
	for _, s := range sessions {
		sum, err := r.Summarize(req.Context(), s.ID)
		if err != nil {
			return Overview{}, err
		}
		ov.Sessions = append(ov.Sessions, sum)
	}
	return ov, nil
}
