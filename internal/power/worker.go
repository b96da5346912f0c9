package power

import (
	"context"
	"time"

	"github.com/rpint/rpint/internal/errors"
	"github.com/rpint/rpint/internal/logger"
	"github.com/rpint/rpint/internal/store"
)

// DefaultInterval is the sampling period.
const DefaultInterval = time.Second

// Worker samples a Source on a fixed period and writes each sample to the
// store.
type Worker struct {
	source   Source
	store    store.Store
	interval time.Duration
	history  *History
	log      logger.Logger
}

// NewWorker creates a Worker. history may be nil.
func NewWorker(src Source, s store.Store, interval time.Duration, history *History, log logger.Logger) *Worker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = logger.Noop()
	}
	return &Worker{
		source:   src,
		store:    s,
		interval: interval,
		history:  history,
		log:      log,
	}
}

// Run samples immediately and then every interval until ctx is cancelled.
// A read or write failure ends the worker; there is no retry.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("power worker started (interval=%s)", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			w.log.Debug("power worker stopping")
			return nil
		}
		if err := w.SampleOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			w.log.Debug("power worker stopping")
			return nil
		case <-ticker.C:
		}
	}
}

// SampleOnce reads the source once and stores the result.
func (w *Worker) SampleOnce(ctx context.Context) error {
	reading, err := w.source.Read(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errors.WrapWithCode(err, errors.ErrPower,
			"Couldn't read the battery monitor",
			"Check the UPS HAT connection, or set use_ups_hat = false")
	}

	sample := FromReading(reading)
	if err := Save(ctx, w.store, sample); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errors.WrapWithCode(err, errors.ErrPower,
			"Couldn't store battery sample",
			"Check the shared store is reachable")
	}
	if w.history != nil {
		w.history.Push(sample)
	}

	w.log.Debug("battery %d%% %.2fV %.2fW", sample.Charge, sample.Voltage, sample.Load)
	return nil
}
