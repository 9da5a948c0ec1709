package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/spool/pkg/breakpoint"
	"github.com/papercomputeco/spool/pkg/gate"
	"github.com/papercomputeco/spool/pkg/span"
	"github.com/papercomputeco/spool/pkg/thread"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatsResponse summarizes the inspector state.
type StatsResponse struct {
	Spans       span.Stats     `json:"spans"`
	Threads     int            `json:"threads"`
	Breakpoints int            `json:"breakpoints"`
	Buffered    map[string]int `json:"buffered"`
	Attached    []string       `json:"attached"`
}

// SpanListResponse is the flat span list.
type SpanListResponse struct {
	Count int         `json:"count"`
	Spans []span.Span `json:"spans"`
}

// SpanTreeResponse is the span forest.
type SpanTreeResponse struct {
	Count int          `json:"count"`
	Roots []*span.Node `json:"roots"`
}

// ThreadListResponse lists threads.
type ThreadListResponse struct {
	Count   int             `json:"count"`
	Threads []thread.Thread `json:"threads"`
}

// CreateThreadRequest is the body of POST /v1/threads. A missing id is
// generated.
type CreateThreadRequest struct {
	ThreadID string `json:"thread_id"`
}

// BreakpointListResponse lists active breakpoints and buffered counts.
type BreakpointListResponse struct {
	Breakpoints []breakpoint.Breakpoint `json:"breakpoints"`
	Buffered    map[string]int          `json:"buffered"`
}

// ContinueResponse reports how many breakpoints were continued.
type ContinueResponse struct {
	Continued int `json:"continued"`
}

// ChannelStatus describes one channel seen by the inspector.
type ChannelStatus struct {
	Name     string `json:"name"`
	Paused   bool   `json:"paused"`
	Buffered int    `json:"buffered"`
	Attached bool   `json:"attached"`

	// Queued counts events accepted by the bus but not yet dispatched.
	// Zero when the publisher does not expose its queue.
	Queued int `json:"queued"`
}

// AbandonResponse reports how many buffered events were discarded.
type AbandonResponse struct {
	Channel   string `json:"channel"`
	Discarded int    `json:"discarded"`
}

// fail writes err with the status its kind maps to: misuse is a conflict,
// unknown ids are not found.
func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, breakpoint.ErrUnknownBreakpoint),
		errors.Is(err, thread.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, breakpoint.ErrNotPaused),
		errors.Is(err, gate.ErrNotPaused),
		errors.Is(err, gate.ErrAlreadyPaused):
		status = fiber.StatusConflict
	case errors.Is(err, thread.ErrEmptyThreadID):
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
}
