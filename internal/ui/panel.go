package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/tada/internal/model"
)

// Badge renders a fixed-width priority label, e.g. "[High  ]".
func Badge(p model.Priority) string {
	return Current().PriorityStyle(p).Render(fmt.Sprintf("[%-6s]", p.Label()))
}

// PriorityBar renders the share of each priority as a bar of the given
// width, high first.
func PriorityBar(todos []model.Todo, width int) string {
	if width < 5 {
		width = 5
	}
	counts := map[model.Priority]int{}
	for _, t := range todos {
		counts[t.Priority]++
	}
	t := Current()
	if len(todos) == 0 {
		return t.Muted.Render(strings.Repeat("░", width))
	}

	var b strings.Builder
	used := 0
	for _, p := range []model.Priority{model.PriorityHigh, model.PriorityMiddle, model.PriorityLow} {
		n := counts[p] * width / len(todos)
		if p == model.PriorityLow {
			n = width - used
		}
		used += n
		b.WriteString(t.PriorityStyle(p).Render(strings.Repeat("█", n)))
	}
	return b.String()
}

// Panel draws a framed box using the current theme.
func Panel(w io.Writer, lines []string) {
	t := Current()
	maxw := 0
	for _, ln := range lines {
		if vw := lipgloss.Width(ln); vw > maxw {
			maxw = vw
		}
	}
	pad := func(s string) string {
		if vis := lipgloss.Width(s); vis < maxw {
			s += strings.Repeat(" ", maxw-vis)
		}
		return s
	}
	fmt.Fprintln(w, t.CornerTL+strings.Repeat(t.H, maxw+2)+t.CornerTR)
	for _, ln := range lines {
		fmt.Fprintln(w, t.V+" "+pad(ln)+" "+t.V)
	}
	fmt.Fprintln(w, t.CornerBL+strings.Repeat(t.H, maxw+2)+t.CornerBR)
}

// OK prints a success line.
func OK(w io.Writer, msg string) {
	t := Current()
	fmt.Fprintln(w, t.Success.Render(t.SymOK+" "+msg))
}

// Fail prints an error line.
func Fail(w io.Writer, msg string) {
	t := Current()
	fmt.Fprintln(w, t.Error.Render(t.SymFail+" "+msg))
}

// Truncate shortens s to at most n visible runes, ending with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n < 4 {
		return s
	}
	return string(r[:n-3]) + "..."
}
