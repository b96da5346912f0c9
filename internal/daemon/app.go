// Package daemon wires the collectors, the render loop and the input
// sources into one process and runs them until a signal, a quit from the
// console, or the first fatal worker error.
package daemon

import (
	"context"
	"io"
	"os/signal"
	"syscall"

	"github.com/rpint/rpint/internal/config"
	"github.com/rpint/rpint/internal/console"
	"github.com/rpint/rpint/internal/display"
	"github.com/rpint/rpint/internal/errors"
	"github.com/rpint/rpint/internal/exec"
	"github.com/rpint/rpint/internal/input"
	"github.com/rpint/rpint/internal/lldp"
	"github.com/rpint/rpint/internal/lock"
	"github.com/rpint/rpint/internal/logger"
	"github.com/rpint/rpint/internal/netif"
	"github.com/rpint/rpint/internal/power"
	"github.com/rpint/rpint/internal/store"
	"golang.org/x/sync/errgroup"
)

// commandBuffer is how many scroll commands may wait for the render loop.
const commandBuffer = 8

// Options changes how the daemon talks to the outside world. The zero value
// runs on real hardware as configured.
type Options struct {
	// Console shows the screen in the terminal and reads keys instead of
	// buttons. It is also enabled by serial_display_type = "console".
	Console bool
	// AllowPoweroff lets the console's long press run shutdown_command.
	// Without it the long press only stops rpint.
	AllowPoweroff bool

	Log    logger.Logger
	Runner exec.Runner

	// Test seams. Nil fields use the configured hardware.
	Sink     display.Sink
	Measurer display.Measurer
	Power    power.Source
	Sources  []input.Source
	Links    netif.Source
}

// App holds everything a running daemon owns. Build it with New and start it
// with Run; each App runs once.
type App struct {
	cfg  *config.Config
	opts Options
	log  logger.Logger

	lock    *lock.Lock
	store   store.Store
	history *power.History

	lldp     *lldp.Worker
	power    *power.Worker
	render   *display.Renderer
	sink     display.Sink
	console  *console.Console
	sources  []input.Source
	commands chan display.Command
	closers  []io.Closer

	consoleMode bool
	cancel      context.CancelFunc
	released    bool
}

// New takes the pid lock, opens and flushes the store and builds every
// worker. Nothing runs yet. On error everything acquired so far is released.
func New(ctx context.Context, cfg *config.Config, opts Options) (app *App, err error) {
	if opts.Log == nil {
		opts.Log = logger.Noop()
	}
	if opts.Runner == nil {
		opts.Runner = exec.NewLocalRunner()
	}
	if opts.Links == nil {
		opts.Links = netif.Interfaces{}
	}

	a := &App{
		cfg:         cfg,
		opts:        opts,
		log:         opts.Log.With("daemon"),
		commands:    make(chan display.Command, commandBuffer),
		consoleMode: opts.Console || cfg.Setup.DisplayType == config.DisplayConsole,
	}
	defer func() {
		if err != nil {
			a.release()
		}
	}()

	a.lock, err = lock.Acquire(cfg.Setup.PIDFile, "rpint run")
	if err != nil {
		return nil, err
	}

	a.store, err = store.Open(ctx, cfg.Store, opts.Log.With("store"))
	if err != nil {
		return nil, err
	}
	if err := a.store.FlushAll(ctx); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrStore,
			"Couldn't clear the store at startup",
			"Check that the store is writable")
	}

	a.buildLLDP()
	if err := a.buildPower(); err != nil {
		return nil, err
	}
	if err := a.buildDisplay(); err != nil {
		return nil, err
	}
	if err := a.buildInput(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) buildLLDP() {
	s := a.cfg.Setup
	collector := lldp.NewCollector(a.opts.Runner, lldp.CollectorConfig{
		Command:   s.LLDPCommand,
		Timeout:   s.LLDPTimeout,
		Interface: s.LLDPInterface,
	}, a.opts.Log.With("lldp"))

	a.lldp = lldp.NewWorker(collector, a.store, a.opts.Links, lldp.WorkerConfig{
		Periodic:       s.AutoLLDPRead,
		Interval:       s.LLDPReadInterval,
		LocalInterface: s.LLDPInterface,
	}, a.opts.Log.With("lldp"))
}

func (a *App) buildPower() error {
	s := a.cfg.Setup
	if !s.UseUPSHat {
		return nil
	}

	src := a.opts.Power
	if src == nil {
		hat, err := power.OpenINA219(s.UPSHatBus, s.UPSHatAddress)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, hat)
		src = hat
	}

	a.history = power.NewHistory(power.DefaultHistorySize)
	a.power = power.NewWorker(src, a.store, s.UPSHatInterval, a.history, a.opts.Log.With("power"))
	return nil
}

func (a *App) buildDisplay() error {
	s := a.cfg.Setup

	if a.consoleMode {
		a.console = console.New(a.history)
	}
	if !s.UseSerialDisplay {
		return nil
	}

	sink, measurer := a.opts.Sink, a.opts.Measurer
	switch {
	case sink != nil:
	case a.console != nil:
		sink, measurer = a.console, a.console.Measurer()
	default:
		face, err := display.LoadFace(s.FontPath, s.FontSize)
		if err != nil {
			return err
		}
		measurer = display.FaceMeasurer{Face: face}
		if s.DisplayType == config.DisplayLog {
			sink = display.NewLogSink(a.opts.Log.With("display"))
			break
		}
		fb, err := display.OpenFramebuffer(display.FramebufferConfig{
			Device:  s.DisplayDevice,
			Width:   s.DisplayWidth,
			Height:  s.DisplayHeight,
			OffsetX: s.HorizontalOffset,
			OffsetY: s.VerticalOffset,
			Rotate:  s.Rotate,
			BGR:     s.Background,
		}, face)
		if err != nil {
			return err
		}
		sink = fb
	}
	if measurer == nil {
		measurer = display.FixedWidth(s.FontSize * 6 / 10)
	}

	a.sink = sink
	a.render = display.NewRenderer(a.store, sink, measurer, a.commands, display.Config{
		Period:      s.RefreshPeriod(),
		Width:       s.DisplayWidth,
		Height:      s.DisplayHeight,
		Lines:       s.DisplayLines,
		FontSize:    s.FontSize,
		ShowBattery: s.UseUPSHat,
		Flags:       s.ShowFlags(),
		Extra:       s.ExtraLines,
	}, a.opts.Log.With("display"))
	return nil
}

func (a *App) buildInput() error {
	s := a.cfg.Setup
	switch {
	case a.opts.Sources != nil:
		a.sources = append(a.sources, a.opts.Sources...)
	case a.console != nil:
		a.sources = append(a.sources, a.console)
	case s.UseButtons:
		buttons, err := input.OpenButtons(input.ButtonConfig{
			Up:       s.ButtonUp,
			Down:     s.ButtonDown,
			Left:     s.ButtonLeft,
			Right:    s.ButtonRight,
			Power:    s.ButtonShutdown,
			HoldTime: s.ShutdownHoldTime,
		}, a.opts.Log.With("input"))
		if err != nil {
			return err
		}
		a.sources = append(a.sources, buttons)
	}
	return nil
}

// shutdowner picks what the long press does.
func (a *App) shutdowner() input.Shutdowner {
	if a.consoleMode && !a.opts.AllowPoweroff {
		return input.ShutdownFunc(func(context.Context) error {
			a.log.Warn("long press in console mode: stopping rpint (use --allow-poweroff to power off)")
			a.cancel()
			return nil
		})
	}
	return input.CommandShutdown{Runner: a.opts.Runner, Argv: a.cfg.Setup.ShutdownCommand}
}

// Run starts every worker and blocks until they have all stopped. SIGINT
// and SIGTERM, a console quit, or the first worker error end the run. The
// sink, the store and the lock are released after the last worker returns.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, a.cancel = context.WithCancel(ctx)
	defer a.cancel()

	controller := input.NewController(a.commands, a.lldp, a.shutdowner(), a.opts.Log.With("input"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.lldp.Run(gctx) })
	if a.power != nil {
		g.Go(func() error { return a.power.Run(gctx) })
	}
	if a.render != nil {
		g.Go(func() error { return a.render.Run(gctx) })
	}
	for _, src := range a.sources {
		g.Go(func() error {
			err := src.Run(gctx, controller)
			if err == nil {
				// A source that ends on its own (the console's quit key)
				// ends the run.
				a.cancel()
			}
			return err
		})
	}
	a.log.Info("running: lldp=%t power=%t display=%t inputs=%d",
		a.cfg.Setup.AutoLLDPRead, a.power != nil, a.render != nil, len(a.sources))

	err := g.Wait()
	a.release()

	if err != nil {
		a.log.Error("stopped: %v", err)
		return err
	}
	a.log.Info("stopped")
	return nil
}

// Store returns the shared store. It is closed once Run returns, though the
// memory backend stays readable.
func (a *App) Store() store.Store {
	return a.store
}

// release closes what New acquired, in reverse order: sink, hardware,
// store, then the pid lock.
func (a *App) release() {
	if a.released {
		return
	}
	a.released = true

	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			a.log.Warn("closing display: %v", err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn("closing device: %v", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("closing store: %v", err)
		}
	}
	if err := a.lock.Release(); err != nil {
		a.log.Warn("releasing lock: %v", err)
	}
}

// Run builds an App and runs it.
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	app, err := New(ctx, cfg, opts)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}
