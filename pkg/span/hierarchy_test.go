package span_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/spool/pkg/event"
	"github.com/papercomputeco/spool/pkg/logger"
	"github.com/papercomputeco/spool/pkg/span"
)

func rootIDs(idx *span.Index) []string {
	var ids []string
	for n := range idx.Hierarchy() {
		ids = append(ids, n.Span.SpanID)
	}
	return ids
}

var _ = Describe("Hierarchy", func() {
	var idx *span.Index

	BeforeEach(func() {
		idx = span.NewIndex(logger.Nop())
	})

	It("reconstructs the tree from out-of-order events", func() {
		idx.Apply(started("a", "", 0))
		idx.Apply(delta("b", "a", 1, map[string]any{"x": 1}))
		idx.Apply(started("b", "a", 2))
		idx.Apply(finished("b", 3))

		roots := idx.Roots()
		Expect(roots).To(HaveLen(1))
		Expect(roots[0].Span.SpanID).To(Equal("a"))
		Expect(roots[0].Children).To(HaveLen(1))

		b := roots[0].Children[0].Span
		Expect(b.SpanID).To(Equal("b"))
		Expect(b.IsInProgress).To(BeFalse())
		Expect(b.StateDelta()).To(Equal(map[string]any{"x": 1}))
	})

	It("promotes orphans to roots until their parent arrives", func() {
		idx.Apply(started("child", "missing", 2))
		Expect(rootIDs(idx)).To(Equal([]string{"child"}))

		idx.Apply(started("missing", "", 1))
		roots := idx.Roots()
		Expect(roots).To(HaveLen(1))
		Expect(roots[0].Span.SpanID).To(Equal("missing"))
		Expect(roots[0].Children[0].Span.SpanID).To(Equal("child"))
	})

	It("is restartable and reflects writes between ranges", func() {
		seq := idx.Hierarchy()
		idx.Apply(started("a", "", 1))

		count := 0
		for range seq {
			count++
		}
		Expect(count).To(Equal(1))

		idx.Apply(started("b", "", 2))
		count = 0
		for range seq {
			count++
		}
		Expect(count).To(Equal(2))
	})

	It("stops early when the consumer breaks", func() {
		idx.Apply(started("a", "", 1))
		idx.Apply(started("b", "", 2))

		var seen []string
		for n := range idx.Hierarchy() {
			seen = append(seen, n.Span.SpanID)
			break
		}
		Expect(seen).To(Equal([]string{"a"}))
	})

	It("never loses spans caught in a parent cycle", func() {
		idx.Apply(started("x", "y", 1))
		idx.Apply(started("y", "x", 2))
		idx.Apply(started("self", "self", 3))

		total := 0
		for n := range idx.Hierarchy() {
			total += n.Size()
		}
		Expect(total).To(Equal(3))
		Expect(rootIDs(idx)).To(Equal([]string{"self", "x"}))
	})

	It("orders children by start time then id", func() {
		idx.Apply(started("root", "", 0))
		idx.Apply(started("c2", "root", 5))
		idx.Apply(started("c1b", "root", 1))
		idx.Apply(started("c1a", "root", 1))

		roots := idx.Roots()
		var ids []string
		for _, c := range roots[0].Children {
			ids = append(ids, c.Span.SpanID)
		}
		Expect(ids).To(Equal([]string{"c1a", "c1b", "c2"}))
	})
})

var _ = Describe("FlatList", func() {
	It("orders by start time with span id tie-breaks", func() {
		idx := span.NewIndex(logger.Nop())
		idx.Apply(started("b", "", 2))
		idx.Apply(started("z", "", 1))
		idx.Apply(started("a", "", 2))
		idx.Apply(event.Event{Type: event.TypeStateDelta, SpanID: "p", Timestamp: 0.5, Delta: map[string]any{"k": 1}})

		var ids []string
		for _, s := range idx.FlatList() {
			ids = append(ids, s.SpanID)
		}
		Expect(ids).To(Equal([]string{"p", "z", "a", "b"}))
	})
})
