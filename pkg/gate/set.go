package gate

import (
	"maps"
	"slices"
	"sync"
)

// Set owns one gate per channel. Gates are created lazily so that a channel
// can be paused before its subscription is attached.
type Set struct {
	mu    sync.Mutex
	gates map[string]*Gate
	opts  []Option
}

// NewSet creates an empty set; opts apply to every gate it creates.
func NewSet(opts ...Option) *Set {
	return &Set{
		gates: make(map[string]*Gate),
		opts:  opts,
	}
}

// Open returns the gate for channel bound to next, creating it if needed.
func (s *Set) Open(channel string, next Handler) *Gate {
	g := s.gate(channel)
	g.Bind(next)
	return g
}

// Get returns the gate for channel if one exists.
func (s *Set) Get(channel string) (*Gate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.gates[channel]
	return g, ok
}

// Pause pauses channel's gate.
func (s *Set) Pause(channel string) error {
	return s.gate(channel).Pause()
}

// Resume drains and resumes channel's gate.
func (s *Set) Resume(channel string) error {
	g, ok := s.Get(channel)
	if !ok {
		return ErrNotPaused
	}
	return g.Resume()
}

// Clear discards channel's buffered events.
func (s *Set) Clear(channel string) int {
	g, ok := s.Get(channel)
	if !ok {
		return 0
	}
	return g.Clear()
}

// IsPaused reports whether channel's gate is buffering.
func (s *Set) IsPaused(channel string) bool {
	g, ok := s.Get(channel)
	return ok && g.IsPaused()
}

// PausedCount returns the number of events buffered for channel.
func (s *Set) PausedCount(channel string) int {
	g, ok := s.Get(channel)
	if !ok {
		return 0
	}
	return g.PausedCount()
}

// PausedCounts returns the buffered event count of every paused channel.
func (s *Set) PausedCounts() map[string]int {
	counts := make(map[string]int)
	for _, g := range s.snapshot() {
		if g.IsPaused() {
			counts[g.Channel()] = g.PausedCount()
		}
	}
	return counts
}

// Channels returns the sorted names of every channel with a gate.
func (s *Set) Channels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.gates))
}

// Remove drops channel's gate. Buffered events are discarded.
func (s *Set) Remove(channel string) {
	s.mu.Lock()
	g, ok := s.gates[channel]
	delete(s.gates, channel)
	s.mu.Unlock()

	if ok {
		g.Clear()
	}
}

func (s *Set) gate(channel string) *Gate {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.gates[channel]
	if !ok {
		g = New(channel, nil, s.opts...)
		s.gates[channel] = g
	}
	return g
}

func (s *Set) snapshot() []*Gate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Collect(maps.Values(s.gates))
}
