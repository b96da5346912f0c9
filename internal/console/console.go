// Package console runs rpint in a terminal: a Bubble Tea program that shows
// the frames meant for the panel and turns keys into button events. It is
// used on development machines and for bench testing without the LCD HAT.
package console

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rpint/rpint/internal/display"
	"github.com/rpint/rpint/internal/errors"
	"github.com/rpint/rpint/internal/input"
	"github.com/rpint/rpint/internal/power"
)

// Console is both a display.Sink and an input.Source.
type Console struct {
	history *power.History
	opts    []tea.ProgramOption

	mu     sync.Mutex
	prog   *tea.Program
	last   *display.Frame
	closed bool
}

// New creates a Console. history may be nil; opts are passed to the Bubble
// Tea program.
func New(history *power.History, opts ...tea.ProgramOption) *Console {
	return &Console{history: history, opts: opts}
}

// Measurer returns the measurer that matches the terminal cell grid.
func (c *Console) Measurer() display.Measurer {
	return display.FixedWidth(CellWidth)
}

// Run shows the console until ctx is cancelled or the user quits. Quitting
// is not an error; the caller decides whether it ends the process.
func (c *Console) Run(ctx context.Context, h input.Handler) error {
	m := NewModel(ctx, h, c.history)

	c.mu.Lock()
	if c.last != nil {
		m.frame = *c.last
	}
	opts := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, c.opts...)
	p := tea.NewProgram(m, opts...)
	c.prog = p
	c.mu.Unlock()

	_, err := p.Run()

	c.mu.Lock()
	c.prog = nil
	c.mu.Unlock()

	if err != nil && ctx.Err() == nil {
		return errors.WrapWithCode(err, errors.ErrDisplay,
			"Console stopped unexpectedly",
			"Run from an interactive terminal, or use serial_display_type = \"log\"")
	}
	return nil
}

// Present implements display.Sink.
func (c *Console) Present(_ context.Context, f display.Frame) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New(errors.ErrDisplay, "Console is closed", "")
	}
	c.last = &f
	p := c.prog
	c.mu.Unlock()

	if p != nil {
		p.Send(frameMsg(f))
	}
	return nil
}

// Close implements display.Sink.
func (c *Console) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.prog != nil {
		c.prog.Quit()
	}
	return nil
}

func (c *Console) program() *tea.Program {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prog
}
