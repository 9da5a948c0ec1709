// Package gate provides a per-channel buffering valve between an event
// channel and its downstream consumers. A paused gate queues events in
// arrival order and forwards all of them on resume before any newer event.
package gate

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/papercomputeco/spool/pkg/event"
)

var (
	// ErrNotPaused is returned when resuming a gate that is flowing.
	ErrNotPaused = errors.New("gate is not paused")

	// ErrAlreadyPaused is returned when pausing a gate that is paused.
	ErrAlreadyPaused = errors.New("gate is already paused")
)

// Handler consumes events forwarded by a gate. A handler must not call back
// into the gate that invoked it.
type Handler func(event.Event)

// State is the flow state of a gate.
type State int

const (
	Flowing State = iota
	Paused
)

func (s State) String() string {
	if s == Paused {
		return "paused"
	}
	return "flowing"
}

// Gate buffers a single channel's events while paused.
type Gate struct {
	channel string

	// mu guards state and buffer, and is held while forwarding so that a
	// drain on resume is never interleaved with live deliveries.
	mu     sync.Mutex
	state  State
	buffer []event.Event
	next   Handler

	warnThreshold int
	nextWarn      int
	logger        *slog.Logger
}

// New creates a flowing gate for channel that forwards to next.
func New(channel string, next Handler, opts ...Option) *Gate {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Gate{
		channel:       channel,
		next:          next,
		warnThreshold: o.warnThreshold,
		nextWarn:      o.warnThreshold,
		logger:        o.logger.With("channel", channel),
	}
}

// Channel returns the channel name the gate serves.
func (g *Gate) Channel() string {
	return g.channel
}

// Bind replaces the downstream handler.
func (g *Gate) Bind(next Handler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next = next
}

// Deliver forwards e downstream, or appends it to the buffer while paused.
func (g *Gate) Deliver(e event.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == Paused {
		g.buffer = append(g.buffer, e)
		g.maybeWarn()
		return
	}
	g.forward(e)
}

// Pause stops forwarding; subsequent events are buffered.
func (g *Gate) Pause() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == Paused {
		return ErrAlreadyPaused
	}
	g.state = Paused
	g.logger.Debug("gate paused")
	return nil
}

// Resume drains the buffer downstream in arrival order and returns the gate
// to flowing. Events delivered concurrently wait until the drain completes.
func (g *Gate) Resume() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != Paused {
		return ErrNotPaused
	}

	drained := len(g.buffer)
	for i, e := range g.buffer {
		g.forward(e)
		g.buffer[i] = event.Event{}
	}
	g.buffer = nil
	g.state = Flowing
	g.nextWarn = g.warnThreshold

	g.logger.Debug("gate resumed", "drained", drained)
	return nil
}

// Clear discards buffered events without forwarding them and returns how
// many were dropped. The flow state is unchanged.
func (g *Gate) Clear() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := len(g.buffer)
	g.buffer = nil
	g.nextWarn = g.warnThreshold
	if n > 0 {
		g.logger.Info("discarded buffered events", "count", n)
	}
	return n
}

// PausedCount returns the number of buffered events.
func (g *Gate) PausedCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.buffer)
}

// State returns the current flow state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// IsPaused reports whether the gate is buffering.
func (g *Gate) IsPaused() bool {
	return g.State() == Paused
}

func (g *Gate) forward(e event.Event) {
	if g.next == nil {
		g.logger.Debug("no consumer bound, dropping event", "type", string(e.Type))
		return
	}
	g.next(e)
}

// maybeWarn logs each time the buffer crosses a multiple of the configured
// threshold.
func (g *Gate) maybeWarn() {
	if g.warnThreshold <= 0 || len(g.buffer) < g.nextWarn {
		return
	}
	g.logger.Warn("paused channel buffer is growing", "buffered", len(g.buffer))
	g.nextWarn += g.warnThreshold
}
