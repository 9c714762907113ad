package gateway

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/kgkim70/openpilot/internal/car"
	"github.com/kgkim70/openpilot/internal/monitoring"
)

// Source yields the inbound frames for one control tick. It returns
// io.EOF once no more ticks are available.
type Source interface {
	Next() ([]car.Frame, error)
}

// maxPending caps frames held between ticks; the oldest are dropped first.
const maxPending = 4096

// Collector buffers frames arriving from a live link until the control
// loop drains them.
type Collector struct {
	mu      sync.Mutex
	pending []car.Frame
	dropped int
}

func NewCollector() *Collector {
	return &Collector{}
}

// Run consumes lines until lines is closed or ctx is cancelled.
// Unparseable lines are logged and skipped.
func (c *Collector) Run(ctx context.Context, lines <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			f, err := ParseFrame(line)
			if err != nil {
				monitoring.Logf("gateway: skipping line: %v", err)
				continue
			}
			c.push(f)
		}
	}
}

func (c *Collector) push(f car.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) >= maxPending {
		c.pending = c.pending[1:]
		c.dropped++
	}
	c.pending = append(c.pending, f)
}

// Next returns and clears everything received since the previous call.
// A live collector never reports io.EOF.
func (c *Collector) Next() ([]car.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.pending
	c.pending = nil
	return out, nil
}

// Dropped reports how many frames were discarded for overflow.
func (c *Collector) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Replay reads a recorded JSON-lines capture. Each tick ends at a frame
// on StateAddress.
type Replay struct {
	scan   *bufio.Scanner
	closer io.Closer
	line   int
}

// NewReplay reads a capture from r.
func NewReplay(r io.Reader) *Replay {
	rp := &Replay{scan: bufio.NewScanner(r)}
	if c, ok := r.(io.Closer); ok {
		rp.closer = c
	}
	return rp
}

// OpenReplay opens a capture file.
func OpenReplay(path string) (*Replay, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open replay: %w", err)
	}
	return NewReplay(f), nil
}

// Next returns the frames of the next tick.
func (r *Replay) Next() ([]car.Frame, error) {
	var out []car.Frame
	for r.scan.Scan() {
		r.line++
		if len(r.scan.Bytes()) == 0 {
			continue
		}
		f, err := ParseFrame(r.scan.Text())
		if err != nil {
			return nil, fmt.Errorf("replay line %d: %w", r.line, err)
		}
		out = append(out, f)
		if f.Address == StateAddress {
			return out, nil
		}
	}
	if err := r.scan.Err(); err != nil {
		return nil, fmt.Errorf("failed to read replay: %w", err)
	}
	if len(out) > 0 {
		return out, nil
	}
	return nil, io.EOF
}

// Close releases the underlying reader if it can be closed.
func (r *Replay) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
