// Package sse provides a minimal SSE (Server-Sent Events) reader used to
// consume remote event streams. Each SSE event's type names the target
// channel and its data carries one JSON encoded event.
//
// This package does NOT provide SSE writer or server capabilities.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import "time"

// Event is a single parsed SSE event, delimited by a blank line in the
// stream.
type Event struct {
	// Type is the "event:" field. Empty means the default "message" type.
	Type string

	// Data is every "data:" line of the event joined with "\n".
	Data string

	// ID is the last "id:" field, if present.
	ID string

	// Retry is the reconnection delay requested by the server, zero when
	// the event carried no valid "retry:" field.
	Retry time.Duration
}
