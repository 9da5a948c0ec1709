package span

import (
	"cmp"
	"iter"
	"slices"
)

// Node is a span together with its derived children.
type Node struct {
	Span     Span    `json:"span"`
	Children []*Node `json:"children,omitempty"`
}

// Size returns the number of spans in the subtree rooted at n.
func (n *Node) Size() int {
	size := 1
	for _, c := range n.Children {
		size += c.Size()
	}
	return size
}

// FlatList returns copies of every span ordered by start time, ties broken
// by span id.
func (x *Index) FlatList() []Span {
	x.mu.RLock()
	list := make([]Span, 0, len(x.spans))
	for _, s := range x.spans {
		list = append(list, s.Clone())
	}
	x.mu.RUnlock()

	sortSpans(list)
	return list
}

// Hierarchy returns the forest of root spans. Each range over the sequence
// derives the forest afresh from the current index, so spans whose parent
// arrives late are re-parented on the next read. A span whose parent is not
// in the index is yielded as a root.
func (x *Index) Hierarchy() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, root := range BuildForest(x.FlatList()) {
			if !yield(root) {
				return
			}
		}
	}
}

// Roots collects the hierarchy into a slice.
func (x *Index) Roots() []*Node {
	return slices.Collect(x.Hierarchy())
}

// BuildForest links spans into trees. Spans are expected in flat-list order;
// roots and children keep that order. Spans trapped in a parent cycle are
// promoted to roots so nothing is lost.
func BuildForest(spans []Span) []*Node {
	byID := make(map[string]int, len(spans))
	for i := range spans {
		byID[spans[i].SpanID] = i
	}

	children := make(map[string][]int, len(spans))
	isRoot := make([]bool, len(spans))
	for i := range spans {
		parent := spans[i].ParentSpanID
		if _, known := byID[parent]; parent == "" || !known || parent == spans[i].SpanID {
			isRoot[i] = true
			continue
		}
		children[parent] = append(children[parent], i)
	}

	visited := make([]bool, len(spans))
	var build func(i int) *Node
	build = func(i int) *Node {
		visited[i] = true
		n := &Node{Span: spans[i]}
		for _, c := range children[spans[i].SpanID] {
			if visited[c] {
				continue
			}
			n.Children = append(n.Children, build(c))
		}
		return n
	}

	var forest []*Node
	for i := range spans {
		if isRoot[i] && !visited[i] {
			forest = append(forest, build(i))
		}
	}
	for i := range spans {
		if !visited[i] {
			forest = append(forest, build(i))
		}
	}
	return forest
}

func sortSpans(list []Span) {
	slices.SortFunc(list, func(a, b Span) int {
		if c := cmp.Compare(a.StartTimeUs, b.StartTimeUs); c != 0 {
			return c
		}
		return cmp.Compare(a.SpanID, b.SpanID)
	})
}
