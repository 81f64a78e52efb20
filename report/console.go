package report

import (
	"bufio"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dcshock/runstate/state"
)

// Console is a buffered state.Sink for a terminal or any io.Writer. When
// styled, critical lines and the abort notice are rendered in bold red and the
// header in bold; otherwise lines are written verbatim.
type Console struct {
	w        *bufio.Writer
	styled   bool
	critical lipgloss.Style
	header   lipgloss.Style
}

// NewConsole returns a Console writing to w. Styling uses a lipgloss renderer
// bound to w, so it degrades to plain text when w is not a color terminal.
func NewConsole(w io.Writer, styled bool) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:        bufio.NewWriter(w),
		styled:   styled,
		critical: r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		header:   r.NewStyle().Bold(true),
	}
}

// WriteLine implements state.Sink.
func (c *Console) WriteLine(line string) error {
	if _, err := c.w.WriteString(c.render(line)); err != nil {
		return err
	}
	return c.w.WriteByte('\n')
}

// Flush implements state.Sink.
func (c *Console) Flush() error { return c.w.Flush() }

func (c *Console) render(line string) string {
	if !c.styled {
		return line
	}
	switch {
	case strings.HasPrefix(line, state.CriticalPrefix), line == state.AbortNotice:
		return c.critical.Render(line)
	case line == state.ReportHeader:
		return c.header.Render(line)
	default:
		return line
	}
}

var _ state.Sink = (*Console)(nil)
