// Package thread folds execution events into aggregate per-conversation
// state: accumulated cost, participating models and active run ids.
package thread

import (
	"slices"

	"github.com/papercomputeco/spool/pkg/event"
)

// Thread is the aggregate record for one conversation.
type Thread struct {
	ThreadID string `json:"thread_id"`

	// RunIDs and InputModels keep first-seen order for display; membership
	// is set semantics.
	RunIDs      []string `json:"run_ids"`
	InputModels []string `json:"input_models"`

	Cost         float64 `json:"cost"`
	FinishTimeUs int64   `json:"finish_time_us,omitempty"`

	// IsFromLocal is true until a server event confirms the thread, after
	// which it never reverts.
	IsFromLocal bool `json:"is_from_local"`
}

// New returns a locally created, unconfirmed thread.
func New(threadID string) Thread {
	return Thread{
		ThreadID:    threadID,
		IsFromLocal: true,
	}
}

// Clone returns a copy of t that shares no slices with it.
func (t Thread) Clone() Thread {
	t.RunIDs = slices.Clone(t.RunIDs)
	t.InputModels = slices.Clone(t.InputModels)
	return t
}

// HasRun reports whether runID participated in the thread.
func (t Thread) HasRun(runID string) bool {
	return slices.Contains(t.RunIDs, runID)
}

// Reduce folds e into t and returns the new thread. t is never modified, so
// a snapshot can be reduced speculatively without touching the canonical
// value. Events for other threads return t unchanged.
func Reduce(t Thread, e event.Event) Thread {
	if e.ThreadID == "" || e.ThreadID != t.ThreadID {
		return t
	}

	next := t.Clone()
	next.IsFromLocal = false
	next.FinishTimeUs = event.ScaledTimestamp(e.Timestamp)

	if e.RunID != "" && !next.HasRun(e.RunID) {
		next.RunIDs = append(next.RunIDs, e.RunID)
	}

	if start, ok := e.LLMStart(); ok {
		next.InputModels = dedupe(append(next.InputModels, start.ModelKey()))
	}

	// Negative costs are a producer error and are folded as-is.
	if cost, ok := e.Cost(); ok {
		next.Cost += cost
	}

	return next
}

// ReduceAll folds events into t in order.
func ReduceAll(t Thread, events ...event.Event) Thread {
	for _, e := range events {
		t = Reduce(t, e)
	}
	return t
}

// dedupe removes repeated values keeping the first occurrence.
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
