// Package mcp provides an MCP (Model Context Protocol) server exposing the
// inspector's span, thread and breakpoint views as request/response tools.
package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/spool/pkg/inspector"
	"github.com/papercomputeco/spool/pkg/utils"
)

type Config struct {
	// Inspector answers every tool call
	Inspector *inspector.Inspector

	// Noop for empty MCP server
	Noop bool

	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the inspection tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "spool",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)
	s.mcpServer = mcpServer

	if !c.Noop {
		if c.Inspector == nil {
			return nil, errors.New("inspector is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        getHierarchyToolName,
			Description: getHierarchyDescription,
		}, s.handleGetHierarchy)
		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        getSpanToolName,
			Description: getSpanDescription,
		}, s.handleGetSpan)
		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        getThreadToolName,
			Description: getThreadDescription,
		}, s.handleGetThread)
		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        listBreakpointsToolName,
			Description: listBreakpointsDescription,
		}, s.handleListBreakpoints)
		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        continueBreakpointToolName,
			Description: continueBreakpointDescription,
		}, s.handleContinueBreakpoint)
		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        continueAllToolName,
			Description: continueAllDescription,
		}, s.handleContinueAll)
	}

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// textResult serializes out as JSON for the text content block that
// accompanies structured output.
func textResult[T any](logger *slog.Logger, out T) (*mcp.CallToolResult, T, error) {
	jsonBytes, err := json.Marshal(out)
	if err != nil {
		logger.Error("failed to marshal tool output", "error", err)
		var zero T
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err)), zero, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, out, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
