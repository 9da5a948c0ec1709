package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/spool/pkg/event"
	"github.com/papercomputeco/spool/pkg/inspector"
	"github.com/papercomputeco/spool/pkg/logger"
)

// connect opens a client session to s over in-memory transports.
func connect(ctx context.Context, s *Server) *mcp.ClientSession {
	GinkgoHelper()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ss, err := s.mcpServer.Connect(ctx, serverTransport, nil)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(ss.Close)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(cs.Close)
	return cs
}

func callTool(ctx context.Context, cs *mcp.ClientSession, name string, args map[string]any, out any) *mcp.CallToolResult {
	GinkgoHelper()
	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	Expect(err).NotTo(HaveOccurred())
	Expect(res.Content).To(HaveLen(1))

	if out != nil && !res.IsError {
		text, ok := res.Content[0].(*mcp.TextContent)
		Expect(ok).To(BeTrue())
		Expect(json.Unmarshal([]byte(text.Text), out)).To(Succeed())
	}
	return res
}

var _ = Describe("MCP Server", func() {
	var (
		ctx    context.Context
		in     *inspector.Inspector
		server *Server
	)

	BeforeEach(func() {
		ctx = context.Background()
		in = inspector.New(&inspector.Config{Strict: true, Logger: logger.Nop()})

		var err error
		server, err = NewServer(Config{Inspector: in, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when inspector is nil", func() {
			_, err := NewServer(Config{Logger: logger.Nop()})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("inspector is required"))
		})

		It("returns an error when logger is nil", func() {
			_, err := NewServer(Config{Inspector: in})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("logger is required"))
		})

		It("builds an empty server in noop mode", func() {
			s, err := NewServer(Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Handler()).NotTo(BeNil())
		})

		It("registers the inspection tools", func() {
			cs := connect(ctx, server)
			res, err := cs.ListTools(ctx, &mcp.ListToolsParams{})
			Expect(err).NotTo(HaveOccurred())

			var names []string
			for _, t := range res.Tools {
				names = append(names, t.Name)
			}
			Expect(names).To(ConsistOf(
				"get_hierarchy", "get_span", "get_thread",
				"list_breakpoints", "continue_breakpoint", "continue_all",
			))
		})
	})

	Context("with reconciled spans", func() {
		BeforeEach(func() {
			in.Deliver("trace", event.Event{Type: event.TypeStarted, SpanID: "a", TraceID: "t1", Timestamp: 1, OperationName: event.OperationAgent})
			in.Deliver("trace", event.Event{Type: event.TypeStarted, SpanID: "b", ParentSpanID: "a", TraceID: "t1", Timestamp: 2, OperationName: event.OperationModelCall})
			in.Deliver("trace", event.Event{Type: event.TypeStarted, SpanID: "c", TraceID: "t2", Timestamp: 3, OperationName: event.OperationTool})
		})

		It("returns the flattened hierarchy", func() {
			cs := connect(ctx, server)

			var out HierarchyOutput
			res := callTool(ctx, cs, "get_hierarchy", map[string]any{}, &out)
			Expect(res.IsError).To(BeFalse())
			Expect(out.Roots).To(Equal(2))
			Expect(out.Count).To(Equal(3))
			Expect(out.Entries[0].Span.SpanID).To(Equal("a"))
			Expect(out.Entries[0].Children).To(Equal(1))
			Expect(out.Entries[1].Span.SpanID).To(Equal("b"))
			Expect(out.Entries[1].Depth).To(Equal(1))
		})

		It("filters the hierarchy by trace", func() {
			cs := connect(ctx, server)

			var out HierarchyOutput
			callTool(ctx, cs, "get_hierarchy", map[string]any{"trace_id": "t2"}, &out)
			Expect(out.Roots).To(Equal(1))
			Expect(out.Entries).To(HaveLen(1))
			Expect(out.Entries[0].Span.SpanID).To(Equal("c"))
		})

		It("returns a span", func() {
			cs := connect(ctx, server)

			var out SpanOutput
			callTool(ctx, cs, "get_span", map[string]any{"span_id": "b"}, &out)
			Expect(out.Span.ParentSpanID).To(Equal("a"))
			Expect(out.Span.IsInProgress).To(BeTrue())
		})

		It("reports an unknown span as a tool error", func() {
			cs := connect(ctx, server)

			res := callTool(ctx, cs, "get_span", map[string]any{"span_id": "missing"}, nil)
			Expect(res.IsError).To(BeTrue())
		})
	})

	Describe("get_thread", func() {
		It("returns the folded thread", func() {
			in.Deliver("conversation", event.Event{Type: event.TypeStarted, SpanID: "s", ThreadID: "th", RunID: "r1", Timestamp: 1})
			cost, err := event.NewCustom(event.CustomCost, 2, event.Cost{Cost: 0.5})
			Expect(err).NotTo(HaveOccurred())
			cost.ThreadID = "th"
			in.Deliver("conversation", cost)

			cs := connect(ctx, server)
			var out ThreadOutput
			callTool(ctx, cs, "get_thread", map[string]any{"thread_id": "th"}, &out)
			Expect(out.Thread.RunIDs).To(Equal([]string{"r1"}))
			Expect(out.Thread.Cost).To(BeNumerically("~", 0.5))
		})

		It("reports an unknown thread as a tool error", func() {
			cs := connect(ctx, server)
			res := callTool(ctx, cs, "get_thread", map[string]any{"thread_id": "nope"}, nil)
			Expect(res.IsError).To(BeTrue())
		})
	})

	Describe("breakpoints", func() {
		It("lists and continues a breakpoint", func() {
			bp, err := in.PauseChannel("trace")
			Expect(err).NotTo(HaveOccurred())
			in.Deliver("trace", event.Event{Type: event.TypeStarted, SpanID: "a", Timestamp: 1})

			cs := connect(ctx, server)

			var list ListBreakpointsOutput
			callTool(ctx, cs, "list_breakpoints", map[string]any{}, &list)
			Expect(list.Count).To(Equal(1))
			Expect(list.Breakpoints[0].ID).To(Equal(bp.ID))
			Expect(list.Breakpoints[0].Buffered).To(Equal(1))

			var out ContinueOutput
			callTool(ctx, cs, "continue_breakpoint", map[string]any{"id": bp.ID}, &out)
			Expect(out.Continued).To(Equal(1))
			Expect(in.FlatList()).To(HaveLen(1))
		})

		It("reports an unknown breakpoint as a tool error", func() {
			cs := connect(ctx, server)
			res := callTool(ctx, cs, "continue_breakpoint", map[string]any{"id": "nope"}, nil)
			Expect(res.IsError).To(BeTrue())
		})

		It("continues every breakpoint", func() {
			_, err := in.PauseChannel("a")
			Expect(err).NotTo(HaveOccurred())
			_, err = in.PauseChannel("b")
			Expect(err).NotTo(HaveOccurred())

			cs := connect(ctx, server)
			var out ContinueOutput
			callTool(ctx, cs, "continue_all", map[string]any{}, &out)
			Expect(out.Continued).To(Equal(2))
			Expect(in.Breakpoints()).To(BeEmpty())
		})
	})
})
