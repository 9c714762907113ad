// Package gateway talks to the bus gateway adapter over a serial link.
// The adapter speaks JSON lines: one car.Frame per line in each
// direction. Signal decoding happens on the adapter; frames at
// StateAddress carry its decoded vehicle state.
package gateway

import (
	"bufio"
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/kgkim70/openpilot/internal/car"
)

var ErrWriteFailed = errors.New("failed to write to gateway port")

// subscriberBuffer bounds how far a slow subscriber may lag before lines
// are dropped for it.
const subscriberBuffer = 256

// Link multiplexes one gateway port: every line read is fanned out to all
// subscribers, and writes are serialized.
type Link[T SerialPorter] struct {
	port         T
	subscribers  map[string]chan string
	subscriberMu sync.Mutex
	writeMu      sync.Mutex
	closing      bool
	closingMu    sync.Mutex

	linesRead    atomic.Uint64
	linesDropped atomic.Uint64
	linesWritten atomic.Uint64
}

// LinkStats counts traffic through a Link since it was opened.
type LinkStats struct {
	LinesRead    uint64 `json:"lines_read"`
	LinesDropped uint64 `json:"lines_dropped"`
	LinesWritten uint64 `json:"lines_written"`
	Subscribers  int    `json:"subscribers"`
}

// Stats returns the current counters.
func (l *Link[T]) Stats() LinkStats {
	l.subscriberMu.Lock()
	n := len(l.subscribers)
	l.subscriberMu.Unlock()
	return LinkStats{
		LinesRead:    l.linesRead.Load(),
		LinesDropped: l.linesDropped.Load(),
		LinesWritten: l.linesWritten.Load(),
		Subscribers:  n,
	}
}

// NewLink wraps port.
func NewLink[T SerialPorter](port T) *Link[T] {
	return &Link[T]{
		port:        port,
		subscribers: make(map[string]chan string),
	}
}

func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

// Subscribe returns an ID and a channel receiving every line read from
// the port.
func (l *Link[T]) Subscribe() (string, chan string) {
	id := randomID()
	ch := make(chan string, subscriberBuffer)
	l.subscriberMu.Lock()
	defer l.subscriberMu.Unlock()
	l.subscribers[id] = ch
	return id, ch
}

// Unsubscribe closes and removes the subscriber.
func (l *Link[T]) Unsubscribe(id string) {
	l.subscriberMu.Lock()
	defer l.subscriberMu.Unlock()
	if ch, ok := l.subscribers[id]; ok {
		close(ch)
		delete(l.subscribers, id)
	}
}

// WriteLine writes one line to the port.
func (l *Link[T]) WriteLine(line string) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	n, err := l.port.Write([]byte(line))
	if err != nil {
		return err
	}
	if n != len(line) {
		return ErrWriteFailed
	}
	l.linesWritten.Add(1)
	return nil
}

// Send encodes and writes frames in order.
func (l *Link[T]) Send(frames []car.Frame) error {
	for _, f := range frames {
		line, err := FormatFrame(f)
		if err != nil {
			return err
		}
		if err := l.WriteLine(line); err != nil {
			return fmt.Errorf("failed to send frame 0x%x: %w", f.Address, err)
		}
	}
	return nil
}

// Monitor reads lines until the port is exhausted, the link is closed or
// ctx is cancelled. A clean end of input returns nil.
func (l *Link[T]) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(l.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// the blocking Scan runs apart from the select so cancellation is
	// observed promptly.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					return err
				default:
					return nil
				}
			}
			if l.isClosing() {
				return nil
			}
			l.publish(line)
		}
	}
}

// publish fans line out to every subscriber without blocking.
func (l *Link[T]) publish(line string) {
	l.linesRead.Add(1)
	l.subscriberMu.Lock()
	defer l.subscriberMu.Unlock()
	for _, ch := range l.subscribers {
		select {
		case ch <- line:
		default:
			// drop for this subscriber rather than stall the port
			l.linesDropped.Add(1)
		}
	}
}

func (l *Link[T]) isClosing() bool {
	l.closingMu.Lock()
	defer l.closingMu.Unlock()
	return l.closing
}

// Close closes all subscriber channels and the port.
func (l *Link[T]) Close() error {
	l.closingMu.Lock()
	l.closing = true
	l.closingMu.Unlock()

	l.subscriberMu.Lock()
	defer l.subscriberMu.Unlock()
	for id, ch := range l.subscribers {
		close(ch)
		delete(l.subscribers, id)
	}
	return l.port.Close()
}
