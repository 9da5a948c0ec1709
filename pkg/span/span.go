// Package span reconciles a live, possibly reordered and duplicated stream of
// span events into a consistent index of spans, and derives hierarchical and
// flat views of that index on demand.
package span

import (
	"github.com/papercomputeco/spool/pkg/event"
)

// StateDeltaKey is the attribute key under which merged state deltas live.
const StateDeltaKey = "state_delta"

// Span is a unit of work in a call tree.
type Span struct {
	SpanID       string `json:"span_id"`
	ParentSpanID string `json:"parent_span_id,omitempty"`
	TraceID      string `json:"trace_id,omitempty"`
	ThreadID     string `json:"thread_id,omitempty"`
	RunID        string `json:"run_id,omitempty"`

	OperationName event.Operation `json:"operation_name"`
	StartTimeUs   int64           `json:"start_time_us"`

	// FinishTimeUs is nil while the span is in progress. Once set the span
	// is terminal.
	FinishTimeUs *int64 `json:"finish_time_us,omitempty"`

	Attribute    map[string]any `json:"attribute,omitempty"`
	IsInProgress bool           `json:"is_in_progress"`
}

// Terminal reports whether the span has finished.
func (s *Span) Terminal() bool {
	return s.FinishTimeUs != nil
}

// Placeholder reports whether the span was created by a state delta and has
// not been backfilled by a Started event yet.
func (s *Span) Placeholder() bool {
	return s.OperationName == event.OperationPlaceholder
}

// StateDelta returns the merged state delta, or nil when none was recorded.
func (s *Span) StateDelta() map[string]any {
	sd, _ := s.Attribute[StateDeltaKey].(map[string]any)
	return sd
}

// Clone returns a deep copy of s.
func (s *Span) Clone() Span {
	c := *s
	if s.FinishTimeUs != nil {
		f := *s.FinishTimeUs
		c.FinishTimeUs = &f
	}
	c.Attribute = copyMap(s.Attribute)
	return c
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
