package doctor

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/rpint/rpint/internal/config"
	"github.com/rpint/rpint/internal/exec"
	"github.com/rpint/rpint/internal/lldp"
	"github.com/rpint/rpint/internal/lock"
	"github.com/rpint/rpint/internal/logger"
	"github.com/rpint/rpint/internal/store"
)

// Categories, in display order.
const (
	CategoryConfig   = "CONFIG"
	CategoryLLDP     = "LLDP"
	CategoryStore    = "STORE"
	CategoryHardware = "HARDWARE"
	CategoryDaemon   = "DAEMON"
)

// ConfigCheck loads and validates the config file.
type ConfigCheck struct {
	// Path is the --config value; empty searches the usual places.
	Path string
}

func (c *ConfigCheck) Name() string     { return "config" }
func (c *ConfigCheck) Category() string { return CategoryConfig }

func (c *ConfigCheck) Run(context.Context) CheckResult {
	path, err := config.Find(c.Path)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    "No config file found",
			Suggestion: "Run 'rpint config init' to create rpint.toml",
		}
	}
	if _, err := config.Load(path); err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    "Config file " + path + " has errors",
			Suggestion: "Run 'rpint config validate' for details",
		}
	}
	return CheckResult{Status: StatusPass, Message: "Config file: " + path}
}

// CommandCheck verifies a helper program is on PATH.
type CommandCheck struct {
	// Group is the category; empty means LLDP.
	Group      string
	Label      string
	Command    string
	Suggestion string
	// Optional downgrades a missing command to a warning.
	Optional   bool
}

func (c *CommandCheck) Name() string { return "command_" + c.Command }
func (c *CommandCheck) Category() string {
	if c.Group == "" {
		return CategoryLLDP
	}
	return c.Group
}

func (c *CommandCheck) Run(context.Context) CheckResult {
	path, err := exec.LookPath(c.Command)
	if err != nil {
		status := StatusFail
		if c.Optional {
			status = StatusWarn
		}
		return CheckResult{
			Status:     status,
			Message:    fmt.Sprintf("%s (%s) not found", c.Label, c.Command),
			Suggestion: c.Suggestion,
		}
	}
	return CheckResult{Status: StatusPass, Message: fmt.Sprintf("%s: %s", c.Label, path)}
}

// LLDPCheck asks lldpd for the neighbor table once.
type LLDPCheck struct {
	Collector *lldp.Collector
}

func (c *LLDPCheck) Name() string     { return "lldp_neighbor" }
func (c *LLDPCheck) Category() string { return CategoryLLDP }

func (c *LLDPCheck) Run(ctx context.Context) CheckResult {
	rec, err := c.Collector.Discover(ctx)
	switch {
	case err == nil:
		return CheckResult{
			Status:  StatusPass,
			Message: fmt.Sprintf("Neighbor %s on port %s", rec.ChassisID, rec.PortID),
		}
	case stderrors.Is(err, lldp.ErrNoNeighbors):
		return CheckResult{
			Status:     StatusWarn,
			Message:    "lldpd has not seen a neighbor yet",
			Suggestion: "Check the cable, and that the switch has LLDP enabled",
		}
	case stderrors.Is(err, lldp.ErrParseFailed):
		return CheckResult{
			Status:     StatusFail,
			Message:    "lldpcli output could not be read",
			Suggestion: "Make sure lldp_command ends with '-f json'",
		}
	default:
		return CheckResult{
			Status:     StatusFail,
			Message:    "lldpcli failed: " + err.Error(),
			Suggestion: "Start lldpd: sudo systemctl enable --now lldpd",
		}
	}
}

// StoreCheck opens the configured store backend.
type StoreCheck struct {
	Config config.StoreConfig
}

func (c *StoreCheck) Name() string     { return "store" }
func (c *StoreCheck) Category() string { return CategoryStore }

func (c *StoreCheck) Run(ctx context.Context) CheckResult {
	s, err := store.Open(ctx, c.Config, logger.Noop())
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    "Cannot reach redis at " + c.Config.Address,
			Suggestion: "Start redis (sudo systemctl start redis-server) or use backend = \"memory\"",
		}
	}
	_ = s.Close()
	if c.Config.Backend == config.BackendRedis {
		return CheckResult{Status: StatusPass, Message: "Redis reachable at " + c.Config.Address}
	}
	return CheckResult{Status: StatusPass, Message: "In-process store"}
}

// DeviceCheck verifies a device node exists and can be opened for writing.
type DeviceCheck struct {
	Label      string
	Path       string
	Suggestion string
}

func (c *DeviceCheck) Name() string     { return "device_" + strings.TrimPrefix(c.Path, "/dev/") }
func (c *DeviceCheck) Category() string { return CategoryHardware }

func (c *DeviceCheck) Run(context.Context) CheckResult {
	f, err := os.OpenFile(c.Path, os.O_WRONLY, 0)
	switch {
	case err == nil:
		_ = f.Close()
		return CheckResult{Status: StatusPass, Message: fmt.Sprintf("%s: %s", c.Label, c.Path)}
	case os.IsNotExist(err):
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s %s does not exist", c.Label, c.Path),
			Suggestion: c.Suggestion,
		}
	case os.IsPermission(err):
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("No permission to open %s", c.Path),
			Suggestion: "Run rpint as root, or add the user to the video and i2c groups",
		}
	default:
		return CheckResult{Status: StatusFail, Message: fmt.Sprintf("Cannot open %s: %v", c.Path, err)}
	}
}

// LockCheck reports whether a daemon already holds the pid file.
type LockCheck struct {
	Path string
}

func (c *LockCheck) Name() string     { return "pid_lock" }
func (c *LockCheck) Category() string { return CategoryDaemon }

func (c *LockCheck) Run(context.Context) CheckResult {
	if holder := lock.Holder(c.Path); holder != "" {
		return CheckResult{
			Status:     StatusWarn,
			Message:    "rpint is already running: " + holder,
			Suggestion: "A second 'rpint run' will refuse to start; stop the service first",
		}
	}
	return CheckResult{Status: StatusPass, Message: "No running instance (" + c.Path + ")"}
}

// I2CDevice maps the ups_hat_i2c_bus setting to its device node. periph.io
// accepts a bare bus number, a /dev path, or empty for the first bus.
func I2CDevice(bus string) string {
	switch {
	case bus == "":
		return "/dev/i2c-1"
	case strings.HasPrefix(bus, "/"):
		return bus
	case strings.HasPrefix(bus, "I2C"):
		return "/dev/i2c-" + strings.TrimPrefix(bus, "I2C")
	default:
		return "/dev/i2c-" + bus
	}
}

// Checks builds the check list for cfg. runner runs lldpcli; nil uses the
// local runner.
func Checks(cfg *config.Config, configPath string, runner exec.Runner) []Check {
	s := cfg.Setup
	checks := []Check{&ConfigCheck{Path: configPath}}

	if len(s.LLDPCommand) > 0 {
		checks = append(checks, &CommandCheck{
			Label:      "lldpcli",
			Command:    s.LLDPCommand[0],
			Suggestion: "Install lldpd: sudo apt install lldpd",
		})
	}
	checks = append(checks, &LLDPCheck{Collector: lldp.NewCollector(runner, lldp.CollectorConfig{
		Command:   s.LLDPCommand,
		Timeout:   s.LLDPTimeout,
		Interface: s.LLDPInterface,
	}, logger.Noop())})

	checks = append(checks, &StoreCheck{Config: cfg.Store})

	if s.UseSerialDisplay && s.DisplayType == config.DisplayST7735 {
		checks = append(checks, &DeviceCheck{
			Label:      "LCD framebuffer",
			Path:       s.DisplayDevice,
			Suggestion: "Enable the fbtft overlay for the ST7735 in /boot/config.txt and reboot",
		})
	}
	if s.UseUPSHat {
		checks = append(checks, &DeviceCheck{
			Label:      "UPS HAT I2C bus",
			Path:       I2CDevice(s.UPSHatBus),
			Suggestion: "Enable I2C: sudo raspi-config nonint do_i2c 0",
		})
	}
	if len(s.ShutdownCommand) > 0 && s.UseButtons {
		checks = append(checks, &CommandCheck{
			Group:      CategoryDaemon,
			Label:      "shutdown command",
			Command:    s.ShutdownCommand[0],
			Suggestion: "Fix shutdown_command in rpint.toml",
			Optional:   true,
		})
	}

	return append(checks, &LockCheck{Path: s.PIDFile})
}
