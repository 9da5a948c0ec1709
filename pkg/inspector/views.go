package inspector

import (
	"github.com/papercomputeco/spool/pkg/breakpoint"
	"github.com/papercomputeco/spool/pkg/span"
	"github.com/papercomputeco/spool/pkg/thread"
)

// Hierarchy returns the span forest derived from the current index.
func (i *Inspector) Hierarchy() []*span.Node {
	return i.spans.Roots()
}

// FlatList returns every span ordered by start time.
func (i *Inspector) FlatList() []span.Span {
	return i.spans.FlatList()
}

// Span returns a copy of one span.
func (i *Inspector) Span(spanID string) (span.Span, bool) {
	return i.spans.Get(spanID)
}

// SpanStats reports span index counters.
func (i *Inspector) SpanStats() span.Stats {
	return i.spans.Stats()
}

// Thread returns a copy of one thread.
func (i *Inspector) Thread(threadID string) (thread.Thread, bool) {
	return i.threads.Get(threadID)
}

// ThreadCount returns the number of threads in the store.
func (i *Inspector) ThreadCount() int {
	return i.threads.Len()
}

// Threads returns copies of every thread.
func (i *Inspector) Threads() []thread.Thread {
	return i.threads.List()
}

// CreateThread registers a local thread before the server confirms it.
func (i *Inspector) CreateThread(threadID string) (thread.Thread, error) {
	return i.threads.Create(threadID)
}

// Breakpoints lists active breakpoints in hit order.
func (i *Inspector) Breakpoints() []breakpoint.Breakpoint {
	return i.registry.List()
}

// Breakpoint returns one active breakpoint.
func (i *Inspector) Breakpoint(id string) (breakpoint.Breakpoint, bool) {
	return i.registry.Get(id)
}

// Conditions returns the configured breakpoint conditions.
func (i *Inspector) Conditions() []breakpoint.Condition {
	return i.detector.Conditions()
}

// PausedCount returns the number of events buffered on a channel.
func (i *Inspector) PausedCount(name string) int {
	return i.gates.PausedCount(name)
}

// BufferedCounts returns the buffered event count of every paused channel.
func (i *Inspector) BufferedCounts() map[string]int {
	return i.gates.PausedCounts()
}

// Channels returns every channel the inspector has seen.
func (i *Inspector) Channels() []string {
	return i.gates.Channels()
}

// IsPaused reports whether a channel is held by a breakpoint.
func (i *Inspector) IsPaused(name string) bool {
	return i.registry.IsPaused(name)
}

// Reset clears the span index and thread store. Gates and breakpoints are
// left alone.
func (i *Inspector) Reset() {
	i.spans.Clear()
	i.threads.Clear()
	i.logger.Info("inspector state reset")
}
