package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgkim70/openpilot/internal/car"
)

// localRequest looks like it came from loopback so tsweb's debug access
// check lets it through.
func localRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.RemoteAddr = "127.0.0.1:12345"
	return req
}

// queued counts lines waiting in subscriber channels.
func queued[T SerialPorter](l *Link[T]) int {
	l.subscriberMu.Lock()
	defer l.subscriberMu.Unlock()
	n := 0
	for _, ch := range l.subscribers {
		n += len(ch)
	}
	return n
}

func newAdminMux(t *testing.T) (*Link[*testPort], *testPort, *http.ServeMux) {
	t.Helper()
	port := newTestPort("")
	link := NewLink(port)
	mux := http.NewServeMux()
	link.AttachAdminRoutes(mux)
	return link, port, mux
}

func TestAdminStats(t *testing.T) {
	link, _, mux := newAdminMux(t)
	_, _ = link.Subscribe()
	link.publish("a")
	require.NoError(t, link.WriteLine("b"))

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, localRequest(http.MethodGet, "/debug/gateway-stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got LinkStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, LinkStats{LinesRead: 1, LinesWritten: 1, Subscribers: 1}, got)
}

func TestAdminSend(t *testing.T) {
	frame, err := FormatFrame(car.Frame{Bus: 0, Address: CommandAddress, Data: []byte(`{"frame":1}`)})
	require.NoError(t, err)

	tests := []struct {
		name       string
		method     string
		form       url.Values
		wantStatus int
	}{
		{"valid frame", http.MethodPost, url.Values{"frame": {frame}}, http.StatusOK},
		{"missing frame", http.MethodPost, url.Values{}, http.StatusBadRequest},
		{"blank frame", http.MethodPost, url.Values{"frame": {"   "}}, http.StatusBadRequest},
		{"not a frame", http.MethodPost, url.Values{"frame": {"OJ"}}, http.StatusBadRequest},
		{"get not allowed", http.MethodGet, url.Values{}, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, port, mux := newAdminMux(t)
			req := localRequest(tt.method, "/debug/gateway-send", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, frame+"\n", port.written.String())
			} else {
				assert.Empty(t, port.written.String())
			}
		})
	}
}

func TestAdminSendWriteError(t *testing.T) {
	_, port, mux := newAdminMux(t)
	port.writeErr = io.ErrClosedPipe
	frame, err := FormatFrame(car.Frame{Address: CommandAddress})
	require.NoError(t, err)

	req := localRequest(http.MethodPost, "/debug/gateway-send", strings.NewReader(url.Values{"frame": {frame}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAdminTail(t *testing.T) {
	link, _, mux := newAdminMux(t)

	t.Run("post not allowed", func(t *testing.T) {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, localRequest(http.MethodPost, "/debug/gateway-tail", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("streams lines until the client leaves", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		req := localRequest(http.MethodGet, "/debug/gateway-tail", nil).WithContext(ctx)
		w := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			defer close(done)
			mux.ServeHTTP(w, req)
		}()

		require.Eventually(t, func() bool { return link.Stats().Subscribers == 1 }, time.Second, time.Millisecond)
		link.publish(`{"bus":0}`)
		// once the handler has taken the line it writes it before selecting again
		require.Eventually(t, func() bool { return queued(link) == 0 }, time.Second, time.Millisecond)
		cancel()
		<-done

		assert.Contains(t, w.Body.String(), "data: {\"bus\":0}\n\n")
		assert.Zero(t, link.Stats().Subscribers)
	})
}
