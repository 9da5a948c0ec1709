package event

import "errors"

var (
	// ErrUnknownType indicates an event whose type tag is not recognised.
	ErrUnknownType = errors.New("unknown event type")

	// ErrMissingSpanID indicates a span event without a span_id.
	ErrMissingSpanID = errors.New("missing span_id")

	// ErrMissingName indicates a Custom event without a name.
	ErrMissingName = errors.New("missing custom event name")
)
