package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/spool/pkg/inspector"
)

// Server is the API server for inspecting and controlling the inspector.
type Server struct {
	config    Config
	inspector *inspector.Inspector
	logger    *slog.Logger
	app       *fiber.App
}

// NewServer creates a new API server around an existing inspector.
func NewServer(config Config, in *inspector.Inspector, logger *slog.Logger) (*Server, error) {
	if in == nil {
		return nil, errors.New("inspector is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    config,
		inspector: in,
		logger:    logger,
		app:       app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/v1/stats", s.handleStats)

	app.Get("/v1/spans", s.handleListSpans)
	app.Get("/v1/spans/tree", s.handleSpanTree)
	app.Get("/v1/spans/:id", s.handleGetSpan)

	app.Get("/v1/threads", s.handleListThreads)
	app.Post("/v1/threads", s.handleCreateThread)
	app.Get("/v1/threads/:id", s.handleGetThread)

	app.Get("/v1/breakpoints", s.handleListBreakpoints)
	app.Post("/v1/breakpoints/continue", s.handleContinueAll)
	app.Post("/v1/breakpoints/:id/continue", s.handleContinueBreakpoint)

	app.Get("/v1/channels", s.handleListChannels)
	app.Post("/v1/channels/:name/pause", s.handlePauseChannel)
	app.Post("/v1/channels/:name/resume", s.handleResumeChannel)
	app.Post("/v1/channels/:name/abandon", s.handleAbandonChannel)
	if config.Publisher != nil {
		app.Post("/v1/channels/:name/events", s.handlePublishEvent)
	}

	if config.MCP != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCP))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
