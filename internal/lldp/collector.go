package lldp

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/rpint/rpint/internal/exec"
	"github.com/rpint/rpint/internal/logger"
)

// DefaultCommand asks lldpd for its full neighbor table as JSON.
var DefaultCommand = []string{"lldpcli", "show", "neighbors", "details", "-f", "json"}

// DefaultTimeout bounds a single lldpcli run.
const DefaultTimeout = 10 * time.Second

// CollectorConfig controls how neighbor data is fetched.
type CollectorConfig struct {
	// Command is the argv to run. Defaults to DefaultCommand.
	Command []string
	// Timeout kills the command when it runs longer. Defaults to DefaultTimeout.
	Timeout time.Duration
	// Interface picks the neighbor entry to report; empty takes the first.
	Interface string
}

// Collector runs the discovery command and parses its output.
type Collector struct {
	runner exec.Runner
	cfg    CollectorConfig
	log    logger.Logger
}

// NewCollector creates a Collector. A nil runner uses exec.NewLocalRunner.
func NewCollector(runner exec.Runner, cfg CollectorConfig, log logger.Logger) *Collector {
	if runner == nil {
		runner = exec.NewLocalRunner()
	}
	if len(cfg.Command) == 0 {
		cfg.Command = DefaultCommand
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Noop()
	}
	return &Collector{runner: runner, cfg: cfg, log: log}
}

// Discover runs one discovery and returns the parsed record. On any error the
// record is the sentinel record and err wraps ErrCommandFailed,
// ErrParseFailed or ErrNoNeighbors.
func (c *Collector) Discover(ctx context.Context) (Record, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	res, err := c.runner.Run(runCtx, c.cfg.Command)
	if err != nil {
		return SentinelRecord(), fmt.Errorf("%w: %v", ErrCommandFailed, err)
	}
	if res.ExitCode != 0 {
		return SentinelRecord(), fmt.Errorf("%w: %s exited with code %d: %s",
			ErrCommandFailed, c.cfg.Command[0], res.ExitCode, res.Summary())
	}

	return Parse(res.Stdout, c.cfg.Interface)
}

// Collect is Discover with failures logged instead of returned. It always
// yields a complete record.
func (c *Collector) Collect(ctx context.Context) Record {
	rec, err := c.Discover(ctx)
	switch {
	case err == nil:
		c.log.Debug("neighbor %s on port %s", rec.ChassisID, rec.PortID)
	case stderrors.Is(err, ErrNoNeighbors):
		c.log.Info("no LLDP neighbor seen yet")
	case ctx.Err() != nil:
		c.log.Debug("discovery interrupted: %v", ctx.Err())
	default:
		c.log.Warn("neighbor discovery failed: %v", err)
	}
	return rec
}
