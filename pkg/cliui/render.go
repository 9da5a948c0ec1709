package cliui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"charm.land/lipgloss/v2/tree"
	"github.com/charmbracelet/x/ansi"

	"github.com/papercomputeco/spool/pkg/breakpoint"
	"github.com/papercomputeco/spool/pkg/span"
	"github.com/papercomputeco/spool/pkg/thread"
)

var (
	operationStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	placeholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	enumeratorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginRight(1)
	headerStyle      = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle        = lipgloss.NewStyle().Padding(0, 1)
)

// Plain strips terminal styling, for output that is not a terminal.
func Plain(s string) string {
	return ansi.Strip(s)
}

// SpanLabel renders one span as "<mark> <operation> <id> (<duration>)".
func SpanLabel(s span.Span) string {
	mark := PendingMark
	if s.Terminal() {
		mark = SuccessMark
	}

	op := operationStyle.Render(string(s.OperationName))
	if s.Placeholder() {
		op = placeholderStyle.Render(string(s.OperationName))
	}

	label := fmt.Sprintf("%s %s %s", mark, op, s.SpanID)
	if s.Terminal() {
		d := time.Duration(*s.FinishTimeUs-s.StartTimeUs) * time.Microsecond
		label += " " + StepStyle.Render("("+FormatDuration(d)+")")
	}
	return label
}

// RenderHierarchy draws the span forest as a tree, one root per block.
func RenderHierarchy(roots []*span.Node) string {
	if len(roots) == 0 {
		return StepStyle.Render("no spans")
	}

	blocks := make([]string, 0, len(roots))
	for _, root := range roots {
		blocks = append(blocks, spanTree(root).String())
	}
	return strings.Join(blocks, "\n")
}

func spanTree(n *span.Node) *tree.Tree {
	t := tree.Root(SpanLabel(n.Span)).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(enumeratorStyle)
	for _, child := range n.Children {
		if len(child.Children) == 0 {
			t.Child(SpanLabel(child.Span))
			continue
		}
		t.Child(spanTree(child))
	}
	return t
}

// RenderThreads draws one row per thread.
func RenderThreads(threads []thread.Thread) string {
	if len(threads) == 0 {
		return StepStyle.Render("no threads")
	}

	t := table.New().
		Headers("THREAD", "RUNS", "MODELS", "COST", "LOCAL").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, th := range threads {
		t.Row(
			th.ThreadID,
			strconv.Itoa(len(th.RunIDs)),
			strings.Join(th.InputModels, ", "),
			strconv.FormatFloat(th.Cost, 'f', 4, 64),
			strconv.FormatBool(th.IsFromLocal),
		)
	}
	return t.String()
}

// RenderBreakpoints lists active breakpoints with their buffered counts.
func RenderBreakpoints(bps []breakpoint.Breakpoint, buffered map[string]int) string {
	if len(bps) == 0 {
		return StepStyle.Render("no active breakpoints")
	}

	lines := make([]string, 0, len(bps))
	for _, bp := range bps {
		lines = append(lines, fmt.Sprintf("%s %s %s %s",
			FailMark,
			bp.Channel,
			StepStyle.Render(bp.Reason),
			StepStyle.Render(fmt.Sprintf("[%d buffered] %s", buffered[bp.Channel], bp.ID)),
		))
	}
	return strings.Join(lines, "\n")
}
