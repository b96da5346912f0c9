package input

import (
	"context"
	"time"

	"github.com/rpint/rpint/internal/errors"
	"github.com/rpint/rpint/internal/logger"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Button timing.
const (
	DefaultDebounce = 30 * time.Millisecond
	DefaultHoldTime = 5 * time.Second
	// pollInterval bounds how long a button waits for an edge before checking
	// for cancellation and hold time.
	pollInterval = 50 * time.Millisecond
)

// Pin is the part of a periph.io GPIO pin a button needs.
type Pin interface {
	Name() string
	In(pull gpio.Pull, edge gpio.Edge) error
	WaitForEdge(timeout time.Duration) bool
	Read() gpio.Level
}

// Button is an active-low push button. Without a hold event it emits press
// as soon as it goes down. With one, releasing before holdTime emits press
// and holding for holdTime emits hold.
type Button struct {
	pin      Pin
	press    Event
	hold     Event
	holdTime time.Duration
	debounce time.Duration
	now      func() time.Time
	log      logger.Logger
}

// NewButton creates a Button on pin.
func NewButton(pin Pin, press Event, log logger.Logger) *Button {
	if log == nil {
		log = logger.Noop()
	}
	return &Button{
		pin:      pin,
		press:    press,
		debounce: DefaultDebounce,
		now:      time.Now,
		log:      log,
	}
}

// WithHold makes the button emit ev after being held for d.
func (b *Button) WithHold(ev Event, d time.Duration) *Button {
	if d <= 0 {
		d = DefaultHoldTime
	}
	b.hold = ev
	b.holdTime = d
	return b
}

// Run watches the pin until ctx is cancelled.
func (b *Button) Run(ctx context.Context, h Handler) error {
	if err := b.pin.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return errors.WrapWithCode(err, errors.ErrInput,
			"Couldn't configure button "+b.pin.Name(),
			"Check the pin name and that the user is in the 'gpio' group")
	}
	b.log.Debug("watching %s for %s", b.pin.Name(), b.press)

	var (
		pressed bool
		since   time.Time
		fired   bool
	)
	for {
		if ctx.Err() != nil {
			return nil
		}

		if b.pin.WaitForEdge(pollInterval) && !sleepCtx(ctx, b.debounce) {
			return nil
		}
		down := b.pin.Read() == gpio.Low
		now := b.now()

		switch {
		case down && !pressed:
			pressed, since, fired = true, now, false
			if b.hold == 0 {
				b.emit(ctx, h, b.press)
			}
		case down && pressed && b.hold != 0 && !fired && now.Sub(since) >= b.holdTime:
			fired = true
			b.emit(ctx, h, b.hold)
		case !down && pressed:
			pressed = false
			if b.hold != 0 && !fired {
				b.emit(ctx, h, b.press)
			}
		}
	}
}

func (b *Button) emit(ctx context.Context, h Handler, ev Event) {
	b.log.Debug("%s: %s", b.pin.Name(), ev)
	if err := h.Handle(ctx, ev); err != nil {
		b.log.Warn("%s on %s: %v", ev, b.pin.Name(), err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// ButtonConfig names the GPIO line for each button.
type ButtonConfig struct {
	Up       string
	Down     string
	Left     string
	Right    string
	Power    string
	HoldTime time.Duration
}

// Buttons runs several buttons as one Source.
type Buttons []*Button

// OpenButtons initialises the host drivers and looks up each pin by name.
func OpenButtons(cfg ButtonConfig, log logger.Logger) (Buttons, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrInput,
			"Couldn't initialise the board drivers",
			"Set use_buttons = false on hardware without the button HAT")
	}

	lookup := func(name string) (Pin, error) {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, errors.New(errors.ErrInput,
				"No GPIO named "+name,
				"Use names like GPIO21 in the button_* settings")
		}
		return p, nil
	}

	var out Buttons
	for _, def := range []struct {
		name string
		ev   Event
	}{
		{cfg.Up, EventUp},
		{cfg.Down, EventDown},
		{cfg.Left, EventLeft},
		{cfg.Right, EventRight},
	} {
		pin, err := lookup(def.name)
		if err != nil {
			return nil, err
		}
		out = append(out, NewButton(pin, def.ev, log))
	}

	pin, err := lookup(cfg.Power)
	if err != nil {
		return nil, err
	}
	out = append(out, NewButton(pin, EventRefresh, log).WithHold(EventShutdown, cfg.HoldTime))
	return out, nil
}

// Run watches every button. A setup failure on one stops them all.
func (bs Buttons) Run(ctx context.Context, h Handler) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, b := range bs {
		g.Go(func() error { return b.Run(gctx, h) })
	}
	return g.Wait()
}
