// Package input turns button presses into actions: scroll commands for the
// render loop, a manual neighbor refresh, and the long-press shutdown.
package input

import (
	"context"
	"sync"

	"github.com/rpint/rpint/internal/display"
	"github.com/rpint/rpint/internal/errors"
	"github.com/rpint/rpint/internal/exec"
	"github.com/rpint/rpint/internal/logger"
)

// Event is a user action from a button or key.
type Event int

// Events.
const (
	EventUp Event = iota + 1
	EventDown
	EventLeft
	EventRight
	// EventRefresh is a short press of the power button.
	EventRefresh
	// EventShutdown is a long press of the power button.
	EventShutdown
)

// String returns the event name for logs.
func (e Event) String() string {
	switch e {
	case EventUp:
		return "up"
	case EventDown:
		return "down"
	case EventLeft:
		return "left"
	case EventRight:
		return "right"
	case EventRefresh:
		return "refresh"
	case EventShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Handler receives events from a Source.
type Handler interface {
	Handle(ctx context.Context, ev Event) error
}

// Source produces events until ctx is cancelled.
type Source interface {
	Run(ctx context.Context, h Handler) error
}

// Refresher asks for an immediate neighbor collection.
type Refresher interface {
	Trigger()
}

// Shutdowner carries out the long-press action.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// ShutdownFunc adapts a function to Shutdowner.
type ShutdownFunc func(ctx context.Context) error

// Shutdown implements Shutdowner.
func (f ShutdownFunc) Shutdown(ctx context.Context) error { return f(ctx) }

// CommandShutdown powers the host off by running a command.
type CommandShutdown struct {
	Runner exec.Runner
	Argv   []string
}

// Shutdown runs the command and treats a non-zero exit as a failure.
func (c CommandShutdown) Shutdown(ctx context.Context) error {
	res, err := c.Runner.Run(ctx, c.Argv)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return errors.New(errors.ErrInput,
			"Shutdown command failed: "+res.Summary(),
			"Check shutdown_command, and that the user may run it without a password")
	}
	return nil
}

// Controller dispatches events. Scroll events go to the render loop over
// commands; the send never blocks and a full channel drops the event.
type Controller struct {
	commands  chan<- display.Command
	refresher Refresher
	shutdown  Shutdowner
	log       logger.Logger

	once        sync.Once
	shutdownErr error
}

// NewController creates a Controller. refresher and shutdown may be nil.
func NewController(commands chan<- display.Command, refresher Refresher, shutdown Shutdowner, log logger.Logger) *Controller {
	if log == nil {
		log = logger.Noop()
	}
	return &Controller{
		commands:  commands,
		refresher: refresher,
		shutdown:  shutdown,
		log:       log,
	}
}

// Handle performs ev. Only a failed shutdown returns an error.
func (c *Controller) Handle(ctx context.Context, ev Event) error {
	switch ev {
	case EventUp:
		c.send(display.ScrollUp)
	case EventDown:
		c.send(display.ScrollDown)
	case EventLeft:
		c.send(display.ScrollLeft)
	case EventRight:
		c.send(display.ScrollRight)
	case EventRefresh:
		if c.refresher == nil {
			return nil
		}
		c.log.Info("refresh requested")
		c.refresher.Trigger()
	case EventShutdown:
		return c.runShutdown(ctx)
	default:
		c.log.Debug("ignoring unknown event %d", int(ev))
	}
	return nil
}

func (c *Controller) send(cmd display.Command) {
	if c.commands == nil {
		return
	}
	select {
	case c.commands <- cmd:
	default:
		c.log.Debug("scroll %s dropped, render loop is busy", cmd)
	}
}

// runShutdown runs the shutdown action at most once per process. Later long
// presses return the first outcome.
func (c *Controller) runShutdown(ctx context.Context) error {
	c.once.Do(func() {
		if c.shutdown == nil {
			return
		}
		c.log.Warn("long press: shutting down")
		if err := c.shutdown.Shutdown(ctx); err != nil {
			c.log.Error("shutdown failed: %v", err)
			c.shutdownErr = err
		}
	})
	return c.shutdownErr
}
