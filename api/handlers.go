package api

import (
	"slices"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/papercomputeco/spool/pkg/event"
)

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	return c.JSON(StatsResponse{
		Spans:       s.inspector.SpanStats(),
		Threads:     s.inspector.ThreadCount(),
		Breakpoints: len(s.inspector.Breakpoints()),
		Buffered:    s.inspector.BufferedCounts(),
		Attached:    s.inspector.Attached(),
	})
}

func (s *Server) handleListSpans(c *fiber.Ctx) error {
	spans := s.inspector.FlatList()
	return c.JSON(SpanListResponse{Count: len(spans), Spans: spans})
}

func (s *Server) handleSpanTree(c *fiber.Ctx) error {
	roots := s.inspector.Hierarchy()
	return c.JSON(SpanTreeResponse{Count: len(roots), Roots: roots})
}

func (s *Server) handleGetSpan(c *fiber.Ctx) error {
	sp, ok := s.inspector.Span(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "span not found"})
	}
	return c.JSON(sp)
}

func (s *Server) handleListThreads(c *fiber.Ctx) error {
	threads := s.inspector.Threads()
	return c.JSON(ThreadListResponse{Count: len(threads), Threads: threads})
}

func (s *Server) handleCreateThread(c *fiber.Ctx) error {
	var req CreateThreadRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
		}
	}
	if req.ThreadID == "" {
		req.ThreadID = uuid.NewString()
	}

	t, err := s.inspector.CreateThread(req.ThreadID)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

func (s *Server) handleGetThread(c *fiber.Ctx) error {
	t, ok := s.inspector.Thread(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "thread not found"})
	}
	return c.JSON(t)
}

func (s *Server) handleListBreakpoints(c *fiber.Ctx) error {
	return c.JSON(BreakpointListResponse{
		Breakpoints: s.inspector.Breakpoints(),
		Buffered:    s.inspector.BufferedCounts(),
	})
}

func (s *Server) handleContinueAll(c *fiber.Ctx) error {
	n, err := s.inspector.ContinueAll()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(ContinueResponse{Continued: n})
}

func (s *Server) handleContinueBreakpoint(c *fiber.Ctx) error {
	if err := s.inspector.ContinueOne(c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(ContinueResponse{Continued: 1})
}

// queueDepth is implemented by publishers that buffer events per channel.
type queueDepth interface {
	Pending(name string) int
}

func (s *Server) handleListChannels(c *fiber.Ctx) error {
	attached := s.inspector.Attached()

	names := s.inspector.Channels()
	for _, name := range attached {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	queue, _ := s.config.Publisher.(queueDepth)

	statuses := make([]ChannelStatus, 0, len(names))
	for _, name := range names {
		status := ChannelStatus{
			Name:     name,
			Paused:   s.inspector.IsPaused(name),
			Buffered: s.inspector.PausedCount(name),
			Attached: slices.Contains(attached, name),
		}
		if queue != nil {
			status.Queued = queue.Pending(name)
		}
		statuses = append(statuses, status)
	}
	return c.JSON(statuses)
}

func (s *Server) handlePauseChannel(c *fiber.Ctx) error {
	bp, err := s.inspector.PauseChannel(c.Params("name"))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(bp)
}

func (s *Server) handleResumeChannel(c *fiber.Ctx) error {
	if err := s.inspector.ResumeChannel(c.Params("name")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleAbandonChannel(c *fiber.Ctx) error {
	name := c.Params("name")
	n, err := s.inspector.Abandon(name)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(AbandonResponse{Channel: name, Discarded: n})
}

// handlePublishEvent publishes one JSON event onto a channel of the bus.
func (s *Server) handlePublishEvent(c *fiber.Ctx) error {
	e, err := event.Decode(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}
	if err := event.Validate(e); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	if err := s.config.Publisher.Publish(c.UserContext(), c.Params("name"), e); err != nil {
		s.logger.Error("failed to publish event",
			"channel", c.Params("name"),
			"error", err,
		)
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "failed to publish event"})
	}
	return c.SendStatus(fiber.StatusAccepted)
}
