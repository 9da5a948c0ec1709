// Package breakpoint tracks active breakpoints and is the single writer of
// pause and resume transitions on the debug gates. A channel is paused if and
// only if at least one breakpoint references it.
package breakpoint

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ReasonManual is recorded for breakpoints created by an explicit pause.
const ReasonManual = "manual"

var (
	// ErrUnknownBreakpoint is returned when continuing a breakpoint id that
	// is not active.
	ErrUnknownBreakpoint = errors.New("unknown breakpoint")

	// ErrNotPaused is returned when resuming a channel with no breakpoints.
	ErrNotPaused = errors.New("channel is not paused")
)

// Controller is the gate surface the registry drives.
type Controller interface {
	Pause(channel string) error
	Resume(channel string) error
	Clear(channel string) int
	IsPaused(channel string) bool
}

// Breakpoint is an active pause request bound to a channel.
type Breakpoint struct {
	ID      string    `json:"id"`
	Channel string    `json:"channel"`
	Reason  string    `json:"reason"`
	HitAt   time.Time `json:"hit_at"`
}

// Registry records breakpoints and keeps the gates in agreement with them.
type Registry struct {
	mu          sync.Mutex
	gates       Controller
	breakpoints map[string]Breakpoint

	// order holds breakpoint ids in hit order
	order []string

	strict bool
	now    func() time.Time
	logger *slog.Logger
}

// NewRegistry creates a registry driving gates.
func NewRegistry(gates Controller, opts ...Option) *Registry {
	o := options{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Registry{
		gates:       gates,
		breakpoints: make(map[string]Breakpoint),
		strict:      o.strict,
		now:         o.now,
		logger:      o.logger,
	}
}

// Hit records a breakpoint on channel and pauses the channel if this is its
// first breakpoint.
func (r *Registry) Hit(channel, reason string) (Breakpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.countLocked(channel) == 0 {
		if err := r.gates.Pause(channel); err != nil {
			return Breakpoint{}, fmt.Errorf("pausing channel %s: %w", channel, err)
		}
	}

	bp := Breakpoint{
		ID:      uuid.NewString(),
		Channel: channel,
		Reason:  reason,
		HitAt:   r.now(),
	}
	r.breakpoints[bp.ID] = bp
	r.order = append(r.order, bp.ID)

	r.logger.Info("breakpoint hit",
		"breakpoint_id", bp.ID,
		"channel", channel,
		"reason", reason,
	)
	r.verifyLocked(channel)
	return bp, nil
}

// PauseChannel places a manual breakpoint on channel.
func (r *Registry) PauseChannel(channel string) (Breakpoint, error) {
	return r.Hit(channel, ReasonManual)
}

// ContinueOne removes a breakpoint and resumes its channel when no other
// breakpoint still references it.
func (r *Registry) ContinueOne(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bp, ok := r.breakpoints[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBreakpoint, id)
	}
	r.removeLocked(id)

	if r.countLocked(bp.Channel) == 0 {
		if err := r.gates.Resume(bp.Channel); err != nil {
			r.verifyLocked(bp.Channel)
			return fmt.Errorf("resuming channel %s: %w", bp.Channel, err)
		}
	}

	r.logger.Info("breakpoint continued", "breakpoint_id", id, "channel", bp.Channel)
	r.verifyLocked(bp.Channel)
	return nil
}

// ResumeChannel continues every breakpoint bound to channel.
func (r *Registry) ResumeChannel(channel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.countLocked(channel) == 0 {
		return fmt.Errorf("%w: %s", ErrNotPaused, channel)
	}
	r.dropChannelLocked(channel)

	if err := r.gates.Resume(channel); err != nil {
		r.verifyLocked(channel)
		return fmt.Errorf("resuming channel %s: %w", channel, err)
	}

	r.logger.Info("channel resumed", "channel", channel)
	r.verifyLocked(channel)
	return nil
}

// ContinueAll clears every breakpoint and resumes every paused channel in
// the order their first breakpoint was hit. It returns the number of
// breakpoints cleared.
func (r *Registry) ContinueAll() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var channels []string
	for _, id := range r.order {
		ch := r.breakpoints[id].Channel
		if !slices.Contains(channels, ch) {
			channels = append(channels, ch)
		}
	}

	cleared := len(r.order)
	r.breakpoints = make(map[string]Breakpoint)
	r.order = nil

	var errs []error
	for _, ch := range channels {
		if err := r.gates.Resume(ch); err != nil {
			errs = append(errs, fmt.Errorf("resuming channel %s: %w", ch, err))
		}
		r.verifyLocked(ch)
	}

	if cleared > 0 {
		r.logger.Info("continued all breakpoints", "cleared", cleared, "channels", len(channels))
	}
	return cleared, errors.Join(errs...)
}

// Abandon drops every breakpoint on channel, discards the channel's buffered
// events and lets it flow again. It returns the number of discarded events.
func (r *Registry) Abandon(channel string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	discarded := r.gates.Clear(channel)
	if r.countLocked(channel) == 0 {
		return discarded, nil
	}
	r.dropChannelLocked(channel)

	if err := r.gates.Resume(channel); err != nil {
		r.verifyLocked(channel)
		return discarded, fmt.Errorf("resuming channel %s: %w", channel, err)
	}

	r.logger.Info("debug session abandoned", "channel", channel, "discarded", discarded)
	r.verifyLocked(channel)
	return discarded, nil
}

// Get returns an active breakpoint by id.
func (r *Registry) Get(id string) (Breakpoint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bp, ok := r.breakpoints[id]
	return bp, ok
}

// List returns active breakpoints in hit order.
func (r *Registry) List() []Breakpoint {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := make([]Breakpoint, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, r.breakpoints[id])
	}
	return list
}

// IsPaused reports whether any breakpoint references channel.
func (r *Registry) IsPaused(channel string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countLocked(channel) > 0
}

func (r *Registry) countLocked(channel string) int {
	n := 0
	for _, bp := range r.breakpoints {
		if bp.Channel == channel {
			n++
		}
	}
	return n
}

func (r *Registry) removeLocked(id string) {
	delete(r.breakpoints, id)
	r.order = slices.DeleteFunc(r.order, func(o string) bool { return o == id })
}

func (r *Registry) dropChannelLocked(channel string) {
	r.order = slices.DeleteFunc(r.order, func(id string) bool {
		if r.breakpoints[id].Channel != channel {
			return false
		}
		delete(r.breakpoints, id)
		return true
	})
}

// verifyLocked checks that the registry and the gate agree on channel's
// pause state. A disagreement is a wiring defect.
func (r *Registry) verifyLocked(channel string) {
	want := r.countLocked(channel) > 0
	got := r.gates.IsPaused(channel)
	if want == got {
		return
	}

	msg := fmt.Sprintf("breakpoint registry and gate disagree on channel %q: registry paused=%t, gate paused=%t", channel, want, got)
	if r.strict {
		panic(msg)
	}
	r.logger.Error(msg)
}
