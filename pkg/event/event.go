// Package event defines the execution events that describe a running LLM call
// graph. Events are produced upstream, delivered over named channels and
// consumed read-only by the span index and the thread projection.
package event

import (
	"encoding/json"
	"math"
)

// Type tags the kind of an Event on the wire.
type Type string

const (
	TypeStarted    Type = "Started"
	TypeFinished   Type = "Finished"
	TypeStateDelta Type = "StateDelta"
	TypeCustom     Type = "Custom"
)

// Known reports whether t is one of the recognised event types.
func (t Type) Known() bool {
	switch t {
	case TypeStarted, TypeFinished, TypeStateDelta, TypeCustom:
		return true
	default:
		return false
	}
}

// Operation is the kind of work a span represents.
type Operation string

const (
	OperationModelCall      Operation = "model_call"
	OperationTool           Operation = "tool"
	OperationRequestRouting Operation = "request_routing"
	OperationAgent          Operation = "agent"
	OperationGeneric        Operation = "generic"

	// OperationPlaceholder marks a span created by an early state delta
	// before its Started event was observed.
	OperationPlaceholder Operation = "span"
)

// Custom event names with a known payload shape.
const (
	CustomLLMStart     = "llm_start"
	CustomCost         = "cost"
	CustomMessageEvent = "message_event"
	CustomSpanEnd      = "span_end"
)

// Event is a single immutable execution event. Fields irrelevant to Type are
// left empty. Consumers must treat Attribute, Delta and Value as read-only.
type Event struct {
	Type      Type    `json:"type"`
	Timestamp float64 `json:"timestamp"`

	ThreadID     string `json:"thread_id,omitempty"`
	RunID        string `json:"run_id,omitempty"`
	TraceID      string `json:"trace_id,omitempty"`
	SpanID       string `json:"span_id,omitempty"`
	ParentSpanID string `json:"parent_span_id,omitempty"`

	// Started / Finished
	OperationName Operation      `json:"operation_name,omitempty"`
	Attribute     map[string]any `json:"attribute,omitempty"`
	StartTimeUs   int64          `json:"start_time_us,omitempty"`
	FinishTimeUs  int64          `json:"finish_time_us,omitempty"`

	// StateDelta
	Delta map[string]any `json:"delta,omitempty"`

	// Custom
	Name  string          `json:"name,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// ScaledTimestamp converts a producer timestamp to the microsecond field
// representation by scaling it by 1000, matching the producer contract.
func ScaledTimestamp(ts float64) int64 {
	return int64(math.Round(ts * 1000))
}

// StartTime returns the explicit start_time_us when present, otherwise the
// scaled event timestamp.
func (e Event) StartTime() int64 {
	if e.StartTimeUs != 0 {
		return e.StartTimeUs
	}
	return ScaledTimestamp(e.Timestamp)
}

// FinishTime returns the explicit finish_time_us when present, otherwise the
// scaled event timestamp.
func (e Event) FinishTime() int64 {
	if e.FinishTimeUs != 0 {
		return e.FinishTimeUs
	}
	return ScaledTimestamp(e.Timestamp)
}
