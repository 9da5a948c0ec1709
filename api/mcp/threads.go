package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/spool/pkg/thread"
)

var (
	getThreadToolName    = "get_thread"
	getThreadDescription = "Return the aggregate state of a conversation thread: accumulated cost, participating models and run ids."
)

// ThreadInput represents the input arguments for the get_thread tool.
type ThreadInput struct {
	ThreadID string `json:"thread_id" jsonschema:"the id of the thread to return"`
}

// ThreadOutput represents the output of the get_thread tool.
type ThreadOutput struct {
	Thread thread.Thread `json:"thread"`
}

func (s *Server) handleGetThread(_ context.Context, _ *mcp.CallToolRequest, input ThreadInput) (*mcp.CallToolResult, ThreadOutput, error) {
	logger := s.config.Logger
	logger.Debug("MCP get_thread request", "thread_id", input.ThreadID)

	t, ok := s.config.Inspector.Thread(input.ThreadID)
	if !ok {
		return errorResult(fmt.Sprintf("Thread not found: %s", input.ThreadID)), ThreadOutput{}, nil
	}
	if t.RunIDs == nil {
		t.RunIDs = []string{}
	}
	if t.InputModels == nil {
		t.InputModels = []string{}
	}
	return textResult(logger, ThreadOutput{Thread: t})
}
