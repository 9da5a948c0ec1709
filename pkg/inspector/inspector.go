// Package inspector is the coordinator that owns the span index, the thread
// store, the per-channel gates and the breakpoint registry. It subscribes to
// event channels and routes every delivered event through
// detector → gate → {span index, thread store}. Consumers receive copies.
package inspector

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/papercomputeco/spool/pkg/breakpoint"
	"github.com/papercomputeco/spool/pkg/channel"
	"github.com/papercomputeco/spool/pkg/event"
	"github.com/papercomputeco/spool/pkg/gate"
	"github.com/papercomputeco/spool/pkg/span"
	"github.com/papercomputeco/spool/pkg/thread"
)

// ErrAlreadyAttached is returned when attaching a channel twice.
var ErrAlreadyAttached = errors.New("channel already attached")

// ErrNotAttached is returned when detaching an unknown channel.
var ErrNotAttached = errors.New("channel not attached")

// Subscriber is the event channel capability the inspector consumes.
type Subscriber interface {
	Subscribe(name string, h channel.Handler) func()
}

// Sink selects which projections a channel's events feed.
type Sink uint8

const (
	SinkSpans Sink = 1 << iota
	SinkThreads

	SinkAll = SinkSpans | SinkThreads
)

func (s Sink) String() string {
	switch s {
	case SinkSpans:
		return "spans"
	case SinkThreads:
		return "threads"
	case SinkAll:
		return "all"
	default:
		return "none"
	}
}

// Config is the configuration for an Inspector.
type Config struct {
	// Strict panics when the registry and a gate disagree about a
	// channel's pause state. Enable in development and tests.
	Strict bool

	// BufferWarnThreshold logs a warning each time a paused channel's
	// buffer grows by this many events. Zero disables it.
	BufferWarnThreshold int

	// Breakpoints are conditions that pause a channel before the matching
	// event is applied.
	Breakpoints []breakpoint.Condition

	Logger *slog.Logger
}

// Inspector coordinates reconciliation for a set of channels.
type Inspector struct {
	spans    *span.Index
	threads  *thread.Store
	gates    *gate.Set
	registry *breakpoint.Registry
	detector *breakpoint.Detector
	logger   *slog.Logger

	mu       sync.Mutex
	routes   map[string]Sink
	bound    map[string]*gate.Gate
	attached map[string]func()
}

// New creates an inspector with empty state.
func New(c *Config) *Inspector {
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	gates := gate.NewSet(
		gate.WithLogger(logger),
		gate.WithWarnThreshold(c.BufferWarnThreshold),
	)
	registry := breakpoint.NewRegistry(gates,
		breakpoint.WithStrict(c.Strict),
		breakpoint.WithLogger(logger),
	)

	return &Inspector{
		spans:    span.NewIndex(logger),
		threads:  thread.NewStore(logger),
		gates:    gates,
		registry: registry,
		detector: breakpoint.NewDetector(registry, c.Breakpoints, logger),
		logger:   logger,
		routes:   make(map[string]Sink),
		bound:    make(map[string]*gate.Gate),
		attached: make(map[string]func()),
	}
}

// Attach subscribes to a channel and feeds its events into sink.
func (i *Inspector) Attach(sub Subscriber, name string, sink Sink) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.attached[name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyAttached, name)
	}
	i.routeLocked(name, sink)

	i.attached[name] = sub.Subscribe(name, func(e event.Event) {
		i.Deliver(name, e)
	})
	i.logger.Info("attached channel", "channel", name, "sink", sink.String())
	return nil
}

// Detach unsubscribes from a channel. Events already applied stay applied;
// breakpoints on the channel are abandoned and its buffer discarded.
func (i *Inspector) Detach(name string) error {
	i.mu.Lock()
	unsubscribe, ok := i.attached[name]
	delete(i.attached, name)
	i.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotAttached, name)
	}
	unsubscribe()

	if i.registry.IsPaused(name) {
		if _, err := i.registry.Abandon(name); err != nil {
			return fmt.Errorf("abandoning %s: %w", name, err)
		}
	}
	// The route stays so a later Attach or Deliver reopens the gate with
	// the same sink.
	i.gates.Remove(name)
	i.logger.Info("detached channel", "channel", name)
	return nil
}

// Attached returns the sorted names of subscribed channels.
func (i *Inspector) Attached() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return slices.Sorted(maps.Keys(i.attached))
}

// Route sets the sink for a channel without subscribing to it, for callers
// that push events through Deliver directly.
func (i *Inspector) Route(name string, sink Sink) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.routeLocked(name, sink)
}

// Deliver runs one event through the pipeline for a channel. It is the
// subscription handler and must not be called concurrently for the same
// channel. Unrouted channels feed every sink.
func (i *Inspector) Deliver(name string, e event.Event) {
	i.mu.Lock()
	sink, routed := i.routes[name]
	if !routed {
		sink = SinkAll
	}
	// A gate removed by Detach may since have been recreated unbound by a
	// pause, so compare against the gate this inspector bound.
	g, open := i.gates.Get(name)
	if !routed || !open || g != i.bound[name] {
		g = i.routeLocked(name, sink)
	}
	i.mu.Unlock()

	if bp, ok := i.detector.Inspect(name, e); ok {
		i.logger.Debug("holding event at breakpoint",
			"channel", name,
			"breakpoint_id", bp.ID,
			"span_id", e.SpanID,
		)
	}

	g.Deliver(e)
}

// routeLocked binds the channel's gate to the sink's projections.
func (i *Inspector) routeLocked(name string, sink Sink) *gate.Gate {
	i.routes[name] = sink
	g := i.gates.Open(name, func(e event.Event) {
		i.apply(name, sink, e)
	})
	i.bound[name] = g
	return g
}

func (i *Inspector) apply(name string, sink Sink, e event.Event) {
	if sink&SinkSpans != 0 {
		outcome := i.spans.Apply(e)
		if outcome.Changed() {
			i.logger.Debug("applied event",
				"channel", name,
				"type", string(e.Type),
				"span_id", e.SpanID,
				"outcome", outcome.String(),
			)
		} else {
			i.logger.Debug("event left spans unchanged",
				"channel", name,
				"type", string(e.Type),
				"span_id", e.SpanID,
				"outcome", outcome.String(),
			)
		}
	}
	if sink&SinkThreads != 0 {
		i.threads.Apply(e)
	}
}
