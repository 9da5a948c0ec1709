package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	listBreakpointsToolName    = "list_breakpoints"
	listBreakpointsDescription = "List active breakpoints in hit order with the number of events buffered on each paused channel."

	continueBreakpointToolName    = "continue_breakpoint"
	continueBreakpointDescription = "Continue one breakpoint. Its channel resumes and replays buffered events once no other breakpoint holds it."

	continueAllToolName    = "continue_all"
	continueAllDescription = "Continue every active breakpoint and resume all paused channels."
)

// BreakpointInfo describes one active breakpoint.
type BreakpointInfo struct {
	ID       string `json:"id"`
	Channel  string `json:"channel"`
	Reason   string `json:"reason"`
	HitAt    string `json:"hit_at"`
	Buffered int    `json:"buffered"`
}

// ListBreakpointsInput is empty; the tool takes no arguments.
type ListBreakpointsInput struct{}

// ListBreakpointsOutput represents the output of the list_breakpoints tool.
type ListBreakpointsOutput struct {
	Breakpoints []BreakpointInfo `json:"breakpoints"`
	Count       int              `json:"count"`
}

// ContinueBreakpointInput represents the input arguments for the
// continue_breakpoint tool.
type ContinueBreakpointInput struct {
	ID string `json:"id" jsonschema:"the breakpoint id returned by list_breakpoints"`
}

// ContinueAllInput is empty; the tool takes no arguments.
type ContinueAllInput struct{}

// ContinueOutput represents the output of the continue tools.
type ContinueOutput struct {
	Continued int `json:"continued"`
}

func (s *Server) handleListBreakpoints(_ context.Context, _ *mcp.CallToolRequest, _ ListBreakpointsInput) (*mcp.CallToolResult, ListBreakpointsOutput, error) {
	in := s.config.Inspector
	buffered := in.BufferedCounts()

	out := ListBreakpointsOutput{Breakpoints: []BreakpointInfo{}}
	for _, bp := range in.Breakpoints() {
		out.Breakpoints = append(out.Breakpoints, BreakpointInfo{
			ID:       bp.ID,
			Channel:  bp.Channel,
			Reason:   bp.Reason,
			HitAt:    bp.HitAt.Format(time.RFC3339Nano),
			Buffered: buffered[bp.Channel],
		})
	}
	out.Count = len(out.Breakpoints)

	return textResult(s.config.Logger, out)
}

func (s *Server) handleContinueBreakpoint(_ context.Context, _ *mcp.CallToolRequest, input ContinueBreakpointInput) (*mcp.CallToolResult, ContinueOutput, error) {
	logger := s.config.Logger
	logger.Debug("MCP continue_breakpoint request", "breakpoint_id", input.ID)

	if err := s.config.Inspector.ContinueOne(input.ID); err != nil {
		logger.Warn("failed to continue breakpoint", "breakpoint_id", input.ID, "error", err)
		return errorResult(fmt.Sprintf("Failed to continue breakpoint: %v", err)), ContinueOutput{}, nil
	}
	return textResult(logger, ContinueOutput{Continued: 1})
}

func (s *Server) handleContinueAll(_ context.Context, _ *mcp.CallToolRequest, _ ContinueAllInput) (*mcp.CallToolResult, ContinueOutput, error) {
	logger := s.config.Logger

	n, err := s.config.Inspector.ContinueAll()
	if err != nil {
		logger.Error("failed to continue all breakpoints", "error", err)
		return errorResult(fmt.Sprintf("Failed to continue breakpoints: %v", err)), ContinueOutput{Continued: n}, nil
	}
	return textResult(logger, ContinueOutput{Continued: n})
}
