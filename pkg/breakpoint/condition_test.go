package breakpoint_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/spool/pkg/breakpoint"
	"github.com/papercomputeco/spool/pkg/event"
	"github.com/papercomputeco/spool/pkg/gate"
	"github.com/papercomputeco/spool/pkg/logger"
)

var _ = Describe("Condition", func() {
	toolStart := event.Event{Type: event.TypeStarted, SpanID: "s1", OperationName: event.OperationTool}

	It("matches everything when empty", func() {
		c := breakpoint.Condition{}
		Expect(c.Matches("any", toolStart)).To(BeTrue())
		Expect(c.String()).To(Equal("step"))
	})

	It("narrows by each populated field", func() {
		c := breakpoint.Condition{Channel: "c", EventType: event.TypeStarted, Operation: event.OperationTool}
		Expect(c.Matches("c", toolStart)).To(BeTrue())
		Expect(c.Matches("other", toolStart)).To(BeFalse())

		modelStart := toolStart
		modelStart.OperationName = event.OperationModelCall
		Expect(c.Matches("c", modelStart)).To(BeFalse())
		Expect(c.String()).To(Equal("channel=c type=Started operation=tool"))
	})

	It("matches custom names only on custom events", func() {
		c := breakpoint.Condition{CustomName: event.CustomCost}
		Expect(c.Matches("c", event.Event{Type: event.TypeCustom, Name: event.CustomCost})).To(BeTrue())
		Expect(c.Matches("c", event.Event{Type: event.TypeStarted, Name: event.CustomCost})).To(BeFalse())
	})
})

var _ = Describe("Detector", func() {
	var (
		gates    *gate.Set
		registry *breakpoint.Registry
	)

	BeforeEach(func() {
		gates = gate.NewSet(gate.WithLogger(logger.Nop()))
		registry = breakpoint.NewRegistry(gates, breakpoint.WithStrict(true), breakpoint.WithLogger(logger.Nop()))
	})

	It("hits a breakpoint for the first matching event only", func() {
		d := breakpoint.NewDetector(registry, []breakpoint.Condition{{SpanID: "target"}}, logger.Nop())

		_, hit := d.Inspect("c", event.Event{Type: event.TypeStarted, SpanID: "other"})
		Expect(hit).To(BeFalse())

		bp, hit := d.Inspect("c", event.Event{Type: event.TypeStarted, SpanID: "target"})
		Expect(hit).To(BeTrue())
		Expect(bp.Reason).To(Equal("span=target"))
		Expect(gates.IsPaused("c")).To(BeTrue())

		_, hit = d.Inspect("c", event.Event{Type: event.TypeFinished, SpanID: "target"})
		Expect(hit).To(BeFalse())
		Expect(registry.List()).To(HaveLen(1))
	})

	It("does nothing without conditions", func() {
		d := breakpoint.NewDetector(registry, nil, logger.Nop())
		_, hit := d.Inspect("c", event.Event{Type: event.TypeStarted, SpanID: "s"})
		Expect(hit).To(BeFalse())
		Expect(d.Conditions()).To(BeEmpty())
	})
})
