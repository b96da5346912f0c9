package display

import (
	"context"
	"time"

	"github.com/rpint/rpint/internal/errors"
	"github.com/rpint/rpint/internal/logger"
	"github.com/rpint/rpint/internal/store"
)

// Config describes the viewport and what to show in it.
type Config struct {
	// Period is the time between frames.
	Period time.Duration
	// Width and Height are the viewport size in pixels.
	Width  int
	Height int
	// Lines is how many label/value pairs fit on screen.
	Lines    int
	FontSize int
	// ShowBattery draws the battery header and reads the battery scalars.
	ShowBattery bool
	// Flags holds the show_* toggles.
	Flags map[string]bool
	// Extra lines are appended after the fields, "LABEL: value" each.
	Extra []string
}

// LineHeight is the distance between a label and its value.
func (c Config) LineHeight() int {
	return c.FontSize + 1
}

// Renderer snapshots the store and presents a frame every period. It is the
// only owner of the scroll state; input reaches it as Commands.
type Renderer struct {
	store    store.Store
	sink     Sink
	measurer Measurer
	commands <-chan Command
	cfg      Config
	log      logger.Logger

	state State
	lines []Line
}

// NewRenderer creates a Renderer. commands may be nil when there is no input.
func NewRenderer(s store.Store, sink Sink, m Measurer, commands <-chan Command, cfg Config, log logger.Logger) *Renderer {
	if cfg.Period <= 0 {
		cfg.Period = time.Second
	}
	if cfg.Lines < 1 {
		cfg.Lines = 1
	}
	if log == nil {
		log = logger.Noop()
	}
	return &Renderer{
		store:    s,
		sink:     sink,
		measurer: m,
		commands: commands,
		cfg:      cfg,
		log:      log,
	}
}

// Run renders until ctx is cancelled. A scroll command is applied and shown
// right away instead of waiting for the next tick. Store and sink failures
// end the loop.
func (r *Renderer) Run(ctx context.Context) error {
	r.log.Info("render loop started (period=%s lines=%d)", r.cfg.Period, r.cfg.Lines)

	ticker := time.NewTicker(r.cfg.Period)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			r.log.Debug("render loop stopping")
			return nil
		}
		if err := r.RenderOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		select {
		case <-ctx.Done():
			r.log.Debug("render loop stopping")
			return nil
		case <-ticker.C:
		case cmd := <-r.commands:
			r.Apply(cmd)
		}
	}
}

// Apply performs a scroll command against the most recently rendered lines.
func (r *Renderer) Apply(cmd Command) {
	maxX := MaxScrollX(ContentWidth(r.lines, r.measurer), r.cfg.Width)
	r.state.Apply(cmd, len(r.lines), r.cfg.Lines, maxX)
	r.log.Debug("scroll %s -> row=%d x=%d", cmd, r.state.Row, r.state.X)
}

// State returns the current scroll position.
func (r *Renderer) State() State {
	return r.state
}

// RenderOnce builds and presents one frame.
func (r *Renderer) RenderOnce(ctx context.Context) error {
	snap, err := TakeSnapshot(ctx, r.store, r.cfg.ShowBattery)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrDisplay,
			"Couldn't read the shared store",
			"Check the shared store is reachable")
	}

	r.lines = BuildLines(snap, r.cfg.Flags, r.cfg.Extra)
	maxX := MaxScrollX(ContentWidth(r.lines, r.measurer), r.cfg.Width)
	r.state.Clamp(len(r.lines), r.cfg.Lines, maxX)

	battery := ""
	if r.cfg.ShowBattery {
		battery = snap.BatteryText()
	}
	frame := Compose(r.state.Visible(r.lines, r.cfg.Lines), r.state, battery, r.cfg)

	if err := r.sink.Present(ctx, frame); err != nil {
		return errors.WrapWithCode(err, errors.ErrDisplay,
			"Couldn't draw to the display",
			"Check serial_display_device, or set serial_display_type = \"log\"")
	}
	return nil
}

// Compose lays out the battery header (when battery is non-empty) and the
// visible lines. Each line takes two rows: label in lime, value in cyan.
func Compose(visible []Line, st State, battery string, cfg Config) Frame {
	f := Frame{Width: cfg.Width, Height: cfg.Height}
	if battery != "" {
		f.Ops = append(f.Ops, DrawOp{Text: battery, X: LeftMargin, Y: 0, Color: ColorYellow})
	}

	lh := cfg.LineHeight()
	x := LeftMargin - st.X
	for i, l := range visible {
		y := TopY + 2*lh*i
		f.Ops = append(f.Ops,
			DrawOp{Text: l.Label, X: x, Y: y, Color: ColorLime},
			DrawOp{Text: l.Value, X: x, Y: y + lh, Color: ColorCyan},
		)
	}
	return f
}
