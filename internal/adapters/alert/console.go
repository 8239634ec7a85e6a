package alert

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// Console prints notices and alerts to a terminal stream, one per line.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	quiet bool
}

func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stderr
	}
	return &Console{w: w}
}

// Quiet suppresses notices. Alerts are always shown.
func (c *Console) Quiet(q bool) *Console {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quiet = q
	return c
}

func (c *Console) Notify(_ context.Context, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.quiet {
		return
	}
	fmt.Fprintln(c.w, noticeStyle.Render("✔ "+msg))
}

func (c *Console) Alert(_ context.Context, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, alertStyle.Render("✖ "+msg))
}
