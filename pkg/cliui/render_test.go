package cliui_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/spool/pkg/breakpoint"
	"github.com/papercomputeco/spool/pkg/cliui"
	"github.com/papercomputeco/spool/pkg/event"
	"github.com/papercomputeco/spool/pkg/span"
	"github.com/papercomputeco/spool/pkg/thread"
)

func finishedAt(us int64) *int64 {
	return &us
}

var _ = Describe("Render", func() {
	It("labels finished and running spans", func() {
		done := span.Span{SpanID: "a", OperationName: event.OperationTool, StartTimeUs: 1000, FinishTimeUs: finishedAt(13000)}
		Expect(cliui.Plain(cliui.SpanLabel(done))).To(Equal("✓ tool a (12ms)"))

		running := span.Span{SpanID: "b", OperationName: event.OperationPlaceholder, IsInProgress: true}
		Expect(cliui.Plain(cliui.SpanLabel(running))).To(Equal("… span b"))
	})

	It("draws nested spans under their root", func() {
		roots := span.BuildForest([]span.Span{
			{SpanID: "root", OperationName: event.OperationAgent, StartTimeUs: 0},
			{SpanID: "call", ParentSpanID: "root", OperationName: event.OperationModelCall, StartTimeUs: 1},
			{SpanID: "tool", ParentSpanID: "call", OperationName: event.OperationTool, StartTimeUs: 2},
		})

		out := cliui.Plain(cliui.RenderHierarchy(roots))
		Expect(out).To(ContainSubstring("agent root"))
		Expect(out).To(ContainSubstring("model_call call"))
		Expect(out).To(ContainSubstring("tool tool"))
		Expect(out).To(ContainSubstring("╰──"))
	})

	It("reports empty views", func() {
		Expect(cliui.Plain(cliui.RenderHierarchy(nil))).To(Equal("no spans"))
		Expect(cliui.Plain(cliui.RenderThreads(nil))).To(Equal("no threads"))
		Expect(cliui.Plain(cliui.RenderBreakpoints(nil, nil))).To(Equal("no active breakpoints"))
	})

	It("tabulates threads", func() {
		out := cliui.Plain(cliui.RenderThreads([]thread.Thread{{
			ThreadID:    "t1",
			RunIDs:      []string{"r1", "r2"},
			InputModels: []string{"openai/gpt-4.1"},
			Cost:        0.25,
		}}))
		Expect(out).To(ContainSubstring("THREAD"))
		Expect(out).To(ContainSubstring("t1"))
		Expect(out).To(ContainSubstring("openai/gpt-4.1"))
		Expect(out).To(ContainSubstring("0.2500"))
	})

	It("lists breakpoints with buffered counts", func() {
		out := cliui.Plain(cliui.RenderBreakpoints(
			[]breakpoint.Breakpoint{{ID: "bp-1", Channel: "trace", Reason: "manual"}},
			map[string]int{"trace": 3},
		))
		Expect(out).To(Equal("✗ trace manual [3 buffered] bp-1"))
	})
})

var _ = Describe("Step", func() {
	It("returns the step error", func() {
		boom := errors.New("boom")
		Expect(cliui.Step(io.Discard, "replaying", func() error { return boom })).To(MatchError(boom))
		Expect(cliui.Mark(boom)).To(Equal(cliui.FailMark))
		Expect(cliui.Mark(nil)).To(Equal(cliui.SuccessMark))
	})

	It("ends with the result line", func() {
		var buf bytes.Buffer
		Expect(cliui.Step(&buf, "replaying", func() error {
			time.Sleep(100 * time.Millisecond)
			return nil
		})).To(Succeed())

		lines := strings.Split(buf.String(), "\r")
		last := lines[len(lines)-1]
		Expect(last).To(HavePrefix("  " + cliui.SuccessMark + " replaying"))
		Expect(last).To(HaveSuffix("\n"))
	})

	It("formats durations", func() {
		Expect(cliui.FormatDuration(500 * time.Microsecond)).To(Equal("500µs"))
		Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})
})
