package notifier

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/clusterdash/alertd/internal/types"
)

var (
	colorRed    = lipgloss.Color("#FF5555")
	colorYellow = lipgloss.Color("#F1FA8C")
	colorGreen  = lipgloss.Color("#50FA7B")
	colorCyan   = lipgloss.Color("#8BE9FD")
	colorGray   = lipgloss.Color("#6272A4")

	toastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			Padding(1, 2)

	buttonStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	metaStyle   = lipgloss.NewStyle().Foreground(colorGray)
)

func severityColor(sev types.Severity) lipgloss.Color {
	switch sev {
	case types.SeverityError:
		return colorRed
	case types.SeverityWarning:
		return colorYellow
	case types.SeveritySuccess:
		return colorGreen
	default:
		return colorCyan
	}
}

// Console draws alerts as boxed toasts on a terminal
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	width int
}

// NewConsole writes toasts to out. width 0 lets lipgloss size the box.
func NewConsole(out io.Writer, width int) *Console {
	return &Console{out: out, width: width}
}

// Name implements Notifier
func (c *Console) Name() string { return "console" }

// Notify implements Notifier
func (c *Console) Notify(_ context.Context, msg types.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.out, Render(msg, c.width))
	return err
}

// Render draws msg as a box
func Render(msg types.Message, width int) string {
	style := toastStyle
	if msg.Modal {
		style = modalStyle
	}
	style = style.BorderForeground(severityColor(msg.Severity))
	if width > 0 {
		style = style.Width(width)
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(severityColor(msg.Severity)).
		Render(strings.ToUpper(string(msg.Severity))))
	b.WriteString(" ")
	b.WriteString(msg.Text)

	for _, a := range msg.Actions {
		b.WriteString("\n")
		b.WriteString(buttonStyle.Render("[" + a.Label + "]"))
		if a.Href != "" {
			b.WriteString(metaStyle.Render(" → " + a.Href))
		}
	}

	var meta []string
	if msg.Retry > 0 {
		meta = append(meta, fmt.Sprintf("retry #%d", msg.Retry))
	}
	if msg.Sticky() {
		meta = append(meta, "sticky")
	} else {
		meta = append(meta, "closes in "+msg.Timeout.String())
	}
	if !msg.Dismissible {
		meta = append(meta, "cannot be dismissed")
	}
	b.WriteString("\n")
	b.WriteString(metaStyle.Render(strings.Join(meta, " · ")))

	return style.Render(b.String())
}
