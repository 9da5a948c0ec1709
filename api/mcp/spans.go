package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/spool/pkg/span"
)

var (
	getHierarchyToolName    = "get_hierarchy"
	getHierarchyDescription = "Return the reconciled span tree of the LLM call graph in depth-first order. Each entry carries its depth and the span's operation, timing and attributes."

	getSpanToolName    = "get_span"
	getSpanDescription = "Return a single span by id, including its merged state delta."
)

// HierarchyInput represents the input arguments for the get_hierarchy tool.
type HierarchyInput struct {
	TraceID string `json:"trace_id,omitempty" jsonschema:"only return trees whose root belongs to this trace"`
}

// TreeEntry is one span of a flattened tree.
type TreeEntry struct {
	Depth    int       `json:"depth"`
	Children int       `json:"children"`
	Span     span.Span `json:"span"`
}

// HierarchyOutput represents the output of the get_hierarchy tool.
type HierarchyOutput struct {
	Roots   int         `json:"roots"`
	Count   int         `json:"count"`
	Entries []TreeEntry `json:"entries"`
}

// SpanInput represents the input arguments for the get_span tool.
type SpanInput struct {
	SpanID string `json:"span_id" jsonschema:"the id of the span to return"`
}

// SpanOutput represents the output of the get_span tool.
type SpanOutput struct {
	Span span.Span `json:"span"`
}

func (s *Server) handleGetHierarchy(_ context.Context, _ *mcp.CallToolRequest, input HierarchyInput) (*mcp.CallToolResult, HierarchyOutput, error) {
	logger := s.config.Logger
	logger.Debug("MCP get_hierarchy request", "trace_id", input.TraceID)

	out := HierarchyOutput{Entries: []TreeEntry{}}
	for _, root := range s.config.Inspector.Hierarchy() {
		if input.TraceID != "" && root.Span.TraceID != input.TraceID {
			continue
		}
		out.Roots++
		out.Entries = flatten(out.Entries, root, 0)
	}
	out.Count = len(out.Entries)

	return textResult(logger, out)
}

func flatten(entries []TreeEntry, n *span.Node, depth int) []TreeEntry {
	entries = append(entries, TreeEntry{
		Depth:    depth,
		Children: len(n.Children),
		Span:     n.Span,
	})
	for _, c := range n.Children {
		entries = flatten(entries, c, depth+1)
	}
	return entries
}

func (s *Server) handleGetSpan(_ context.Context, _ *mcp.CallToolRequest, input SpanInput) (*mcp.CallToolResult, SpanOutput, error) {
	logger := s.config.Logger
	logger.Debug("MCP get_span request", "span_id", input.SpanID)

	sp, ok := s.config.Inspector.Span(input.SpanID)
	if !ok {
		return errorResult(fmt.Sprintf("Span not found: %s", input.SpanID)), SpanOutput{}, nil
	}
	return textResult(logger, SpanOutput{Span: sp})
}
