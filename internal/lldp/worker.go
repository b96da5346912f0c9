package lldp

import (
	"context"
	"time"

	"github.com/rpint/rpint/internal/errors"
	"github.com/rpint/rpint/internal/logger"
	"github.com/rpint/rpint/internal/netif"
	"github.com/rpint/rpint/internal/store"
)

// DefaultInterval is the periodic refresh period.
const DefaultInterval = 30 * time.Second

// WorkerConfig controls the refresh schedule.
type WorkerConfig struct {
	// Periodic enables refreshing every Interval. Without it the worker only
	// collects at startup and on Trigger.
	Periodic bool
	Interval time.Duration
	// LocalInterface is the interface whose own address and MAC are stored
	// next to the neighbor record.
	LocalInterface string
}

// Worker keeps the neighbors and local_link hashes fresh.
type Worker struct {
	collector *Collector
	store     store.Store
	links     netif.Source
	cfg       WorkerConfig
	trigger   chan struct{}
	log       logger.Logger
}

// NewWorker creates a Worker. links may be nil to skip local link facts.
func NewWorker(c *Collector, s store.Store, links netif.Source, cfg WorkerConfig, log logger.Logger) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.LocalInterface == "" {
		cfg.LocalInterface = netif.DefaultInterface
	}
	if log == nil {
		log = logger.Noop()
	}
	return &Worker{
		collector: c,
		store:     s,
		links:     links,
		cfg:       cfg,
		trigger:   make(chan struct{}, 1),
		log:       log,
	}
}

// Trigger asks for a collection as soon as possible. It never blocks;
// requests made while one is already pending are merged.
func (w *Worker) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Run collects once, then on every tick (when periodic) and every Trigger,
// until ctx is cancelled. Only store failures end it early.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("neighbor worker started (periodic=%v interval=%s)", w.cfg.Periodic, w.cfg.Interval)

	if err := w.RefreshOnce(ctx); err != nil {
		return err
	}

	var tick <-chan time.Time
	if w.cfg.Periodic {
		ticker := time.NewTicker(w.cfg.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("neighbor worker stopping")
			return nil
		case <-tick:
		case <-w.trigger:
			w.log.Info("manual neighbor refresh requested")
		}
		if err := w.RefreshOnce(ctx); err != nil {
			return err
		}
	}
}

// RefreshOnce performs one collect-and-save cycle.
func (w *Worker) RefreshOnce(ctx context.Context) error {
	rec := w.collector.Collect(ctx)
	if ctx.Err() != nil {
		return nil
	}
	if err := Save(ctx, w.store, &rec); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errors.WrapWithCode(err, errors.ErrLLDP,
			"Couldn't store neighbor record",
			"Check the shared store is reachable")
	}

	if w.links == nil {
		return nil
	}
	link, err := w.links.Lookup(ctx, w.cfg.LocalInterface)
	if err != nil {
		w.log.Warn("local interface lookup failed: %v", err)
	}
	if err := netif.Save(ctx, w.store, link); err != nil && ctx.Err() == nil {
		return errors.WrapWithCode(err, errors.ErrLLDP,
			"Couldn't store local link facts",
			"Check the shared store is reachable")
	}
	return nil
}
