package span

import (
	"log/slog"
	"sync"

	"github.com/papercomputeco/spool/pkg/event"
)

// Index is the authoritative in-memory map from span id to span. It is
// written by one event handler per channel and may be read concurrently.
type Index struct {
	// mu guards spans and stats
	mu sync.RWMutex

	// spans is keyed by the producer-assigned span id
	spans map[string]*Span

	stats  counters
	logger *slog.Logger
}

type counters struct {
	dropped    uint64
	malformed  uint64
	duplicates uint64
}

// Stats is a point-in-time summary of the index.
type Stats struct {
	Spans        int    `json:"spans"`
	InProgress   int    `json:"in_progress"`
	Placeholders int    `json:"placeholders"`
	Terminal     int    `json:"terminal"`
	Dropped      uint64 `json:"dropped"`
	Malformed    uint64 `json:"malformed"`
	Duplicates   uint64 `json:"duplicates"`
}

// NewIndex creates an empty index.
func NewIndex(logger *slog.Logger) *Index {
	return &Index{
		spans:  make(map[string]*Span),
		logger: logger,
	}
}

// Apply folds a single event into the index. It never fails: malformed,
// orphaned and late events are absorbed and reported through the Outcome.
func (x *Index) Apply(e event.Event) Outcome {
	switch e.Type {
	case event.TypeStarted:
		return x.ApplyStarted(e)
	case event.TypeFinished:
		return x.ApplyFinished(e)
	case event.TypeStateDelta:
		return x.ApplyStateDelta(e)
	default:
		return OutcomeIgnored
	}
}

// ApplyStarted inserts a new in-progress span or backfills a placeholder.
// Started events for terminal spans are dropped.
func (x *Index) ApplyStarted(e event.Event) Outcome {
	if !x.valid(e) {
		return OutcomeMalformed
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	s, ok := x.spans[e.SpanID]
	if !ok {
		op := e.OperationName
		if op == "" {
			op = event.OperationGeneric
		}
		x.spans[e.SpanID] = &Span{
			SpanID:        e.SpanID,
			ParentSpanID:  e.ParentSpanID,
			TraceID:       e.TraceID,
			ThreadID:      e.ThreadID,
			RunID:         e.RunID,
			OperationName: op,
			StartTimeUs:   e.StartTime(),
			Attribute:     copyMap(e.Attribute),
			IsInProgress:  true,
		}
		return OutcomeCreated
	}

	if s.Terminal() {
		x.stats.duplicates++
		x.logger.Debug("dropping start for terminal span", "span_id", e.SpanID)
		return OutcomeDuplicate
	}

	// Accumulated deltas win over whatever state the Started payload carries.
	accumulated := s.StateDelta()
	s.Attribute = copyMap(e.Attribute)
	if accumulated != nil {
		merged := s.StateDelta()
		if merged == nil {
			merged = make(map[string]any, len(accumulated))
		}
		for k, v := range accumulated {
			merged[k] = v
		}
		if s.Attribute == nil {
			s.Attribute = make(map[string]any, 1)
		}
		s.Attribute[StateDeltaKey] = merged
	}

	if e.OperationName != "" {
		s.OperationName = e.OperationName
	} else if s.Placeholder() {
		s.OperationName = event.OperationGeneric
	}
	s.StartTimeUs = e.StartTime()
	overwrite(&s.ParentSpanID, e.ParentSpanID)
	overwrite(&s.TraceID, e.TraceID)
	overwrite(&s.ThreadID, e.ThreadID)
	overwrite(&s.RunID, e.RunID)

	return OutcomeBackfilled
}

// ApplyFinished marks a span terminal and merges the finish attribute patch.
// A finish for an unknown span is dropped; a repeated finish is a no-op.
func (x *Index) ApplyFinished(e event.Event) Outcome {
	if !x.valid(e) {
		return OutcomeMalformed
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	s, ok := x.spans[e.SpanID]
	if !ok {
		x.stats.dropped++
		x.logger.Warn("dropping finish for unknown span", "span_id", e.SpanID)
		return OutcomeDropped
	}
	if s.Terminal() {
		x.stats.duplicates++
		x.logger.Debug("dropping duplicate finish", "span_id", e.SpanID)
		return OutcomeDuplicate
	}

	for k, v := range e.Attribute {
		if k == StateDeltaKey {
			if patch, ok := v.(map[string]any); ok {
				s.mergeDelta(patch)
				continue
			}
		}
		if s.Attribute == nil {
			s.Attribute = make(map[string]any, len(e.Attribute))
		}
		s.Attribute[k] = copyValue(v)
	}

	finish := e.FinishTime()
	s.FinishTimeUs = &finish
	s.IsInProgress = false

	return OutcomeFinished
}

// ApplyStateDelta merges a delta into the span's state, creating a
// placeholder span when the span has not been observed yet.
func (x *Index) ApplyStateDelta(e event.Event) Outcome {
	if !x.valid(e) {
		return OutcomeMalformed
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	s, ok := x.spans[e.SpanID]
	if !ok {
		s = &Span{
			SpanID:        e.SpanID,
			ParentSpanID:  e.ParentSpanID,
			TraceID:       e.TraceID,
			ThreadID:      e.ThreadID,
			RunID:         e.RunID,
			OperationName: event.OperationPlaceholder,
			StartTimeUs:   event.ScaledTimestamp(e.Timestamp),
			IsInProgress:  true,
		}
		s.mergeDelta(e.Delta)
		x.spans[e.SpanID] = s
		return OutcomeCreated
	}

	if s.Terminal() {
		x.stats.duplicates++
		x.logger.Debug("dropping state delta for terminal span", "span_id", e.SpanID)
		return OutcomeDuplicate
	}

	s.mergeDelta(e.Delta)
	fill(&s.ParentSpanID, e.ParentSpanID)
	fill(&s.TraceID, e.TraceID)
	fill(&s.ThreadID, e.ThreadID)
	fill(&s.RunID, e.RunID)

	return OutcomeUpdated
}

// Get returns a copy of the span with the given id.
func (x *Index) Get(spanID string) (Span, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	s, ok := x.spans[spanID]
	if !ok {
		return Span{}, false
	}
	return s.Clone(), true
}

// Clear removes every span and resets counters.
func (x *Index) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.spans = make(map[string]*Span)
	x.stats = counters{}
}

// Stats summarises the current index.
func (x *Index) Stats() Stats {
	x.mu.RLock()
	defer x.mu.RUnlock()

	st := Stats{
		Spans:      len(x.spans),
		Dropped:    x.stats.dropped,
		Malformed:  x.stats.malformed,
		Duplicates: x.stats.duplicates,
	}
	for _, s := range x.spans {
		switch {
		case s.Terminal():
			st.Terminal++
		case s.IsInProgress:
			st.InProgress++
		}
		if s.Placeholder() {
			st.Placeholders++
		}
	}
	return st
}

func (x *Index) valid(e event.Event) bool {
	if err := event.Validate(e); err != nil {
		x.mu.Lock()
		x.stats.malformed++
		x.mu.Unlock()
		x.logger.Warn("ignoring malformed event", "type", string(e.Type), "error", err)
		return false
	}
	return true
}

// mergeDelta shallow-merges delta into the span's state delta, last write
// wins per key.
func (s *Span) mergeDelta(delta map[string]any) {
	if len(delta) == 0 {
		return
	}
	if s.Attribute == nil {
		s.Attribute = make(map[string]any, 1)
	}
	sd := s.StateDelta()
	if sd == nil {
		sd = make(map[string]any, len(delta))
		s.Attribute[StateDeltaKey] = sd
	}
	for k, v := range delta {
		sd[k] = copyValue(v)
	}
}

// overwrite replaces dst with v unless v is empty.
func overwrite(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// fill sets dst to v only when dst has no value yet.
func fill(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
