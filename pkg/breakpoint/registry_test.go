package breakpoint_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/spool/pkg/breakpoint"
	"github.com/papercomputeco/spool/pkg/event"
	"github.com/papercomputeco/spool/pkg/gate"
	"github.com/papercomputeco/spool/pkg/logger"
)

var _ = Describe("Registry", func() {
	var (
		gates    *gate.Set
		registry *breakpoint.Registry
		applied  map[string][]string
	)

	open := func(channel string) *gate.Gate {
		return gates.Open(channel, func(e event.Event) {
			applied[channel] = append(applied[channel], e.SpanID)
		})
	}

	BeforeEach(func() {
		applied = map[string][]string{}
		gates = gate.NewSet(gate.WithLogger(logger.Nop()))
		registry = breakpoint.NewRegistry(gates,
			breakpoint.WithStrict(true),
			breakpoint.WithLogger(logger.Nop()),
			breakpoint.WithClock(func() time.Time { return time.Unix(1735689600, 0) }),
		)
	})

	It("pauses the channel on the first hit", func() {
		g := open("c")
		bp, err := registry.Hit("c", "tool call")
		Expect(err).NotTo(HaveOccurred())
		Expect(bp.ID).NotTo(BeEmpty())
		Expect(bp.Channel).To(Equal("c"))
		Expect(bp.Reason).To(Equal("tool call"))
		Expect(bp.HitAt).To(Equal(time.Unix(1735689600, 0)))

		Expect(g.IsPaused()).To(BeTrue())
		Expect(registry.IsPaused("c")).To(BeTrue())
	})

	It("keeps a channel paused while another breakpoint references it", func() {
		g := open("c")
		first, err := registry.Hit("c", "a")
		Expect(err).NotTo(HaveOccurred())
		second, err := registry.PauseChannel("c")
		Expect(err).NotTo(HaveOccurred())
		Expect(second.Reason).To(Equal(breakpoint.ReasonManual))

		g.Deliver(event.Event{Type: event.TypeStateDelta, SpanID: "e1"})

		Expect(registry.ContinueOne(first.ID)).To(Succeed())
		Expect(g.IsPaused()).To(BeTrue())
		Expect(applied["c"]).To(BeEmpty())

		Expect(registry.ContinueOne(second.ID)).To(Succeed())
		Expect(g.IsPaused()).To(BeFalse())
		Expect(applied["c"]).To(Equal([]string{"e1"}))
	})

	It("lists breakpoints in hit order", func() {
		a, _ := registry.Hit("x", "a")
		b, _ := registry.Hit("y", "b")
		c, _ := registry.Hit("x", "c")

		var ids []string
		for _, bp := range registry.List() {
			ids = append(ids, bp.ID)
		}
		Expect(ids).To(Equal([]string{a.ID, b.ID, c.ID}))

		got, ok := registry.Get(b.ID)
		Expect(ok).To(BeTrue())
		Expect(got.Channel).To(Equal("y"))
	})

	It("continues everything at once", func() {
		gx, gy := open("x"), open("y")
		_, _ = registry.Hit("x", "a")
		_, _ = registry.Hit("y", "b")
		_, _ = registry.Hit("x", "c")
		gx.Deliver(event.Event{Type: event.TypeStateDelta, SpanID: "x1"})
		gy.Deliver(event.Event{Type: event.TypeStateDelta, SpanID: "y1"})

		cleared, err := registry.ContinueAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(cleared).To(Equal(3))
		Expect(registry.List()).To(BeEmpty())
		Expect(gates.PausedCounts()).To(BeEmpty())
		Expect(applied).To(Equal(map[string][]string{"x": {"x1"}, "y": {"y1"}}))
	})

	It("resumes a channel by name", func() {
		open("c")
		_, _ = registry.Hit("c", "a")
		_, _ = registry.Hit("c", "b")

		Expect(registry.ResumeChannel("c")).To(Succeed())
		Expect(registry.List()).To(BeEmpty())
		Expect(gates.IsPaused("c")).To(BeFalse())
	})

	It("abandons a channel, discarding its buffer", func() {
		g := open("c")
		_, _ = registry.Hit("c", "a")
		g.Deliver(event.Event{Type: event.TypeStateDelta, SpanID: "e1"})
		g.Deliver(event.Event{Type: event.TypeStateDelta, SpanID: "e2"})

		discarded, err := registry.Abandon("c")
		Expect(err).NotTo(HaveOccurred())
		Expect(discarded).To(Equal(2))
		Expect(g.IsPaused()).To(BeFalse())
		Expect(applied["c"]).To(BeEmpty())
	})

	It("reports misuse to the caller", func() {
		err := registry.ContinueOne("nope")
		Expect(errors.Is(err, breakpoint.ErrUnknownBreakpoint)).To(BeTrue())

		err = registry.ResumeChannel("idle")
		Expect(errors.Is(err, breakpoint.ErrNotPaused)).To(BeTrue())

		cleared, err := registry.ContinueAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(cleared).To(Equal(0))
	})

	Context("when the gate is changed behind the registry's back", func() {
		It("panics in strict mode", func() {
			open("c")
			_, _ = registry.Hit("c", "a")
			Expect(gates.Resume("c")).To(Succeed())

			Expect(func() {
				_, _ = registry.PauseChannel("c")
			}).To(PanicWith(ContainSubstring("disagree")))
		})

		It("logs the disagreement otherwise", func() {
			var buf bytes.Buffer
			lenient := breakpoint.NewRegistry(gates, breakpoint.WithLogger(logger.New(logger.WithWriter(&buf))))
			open("c")
			_, _ = lenient.Hit("c", "a")
			Expect(gates.Resume("c")).To(Succeed())

			_, err := lenient.PauseChannel("c")
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(ContainSubstring("disagree"))
		})
	})
})
