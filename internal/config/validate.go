package config

import (
	"fmt"
	"strings"

	"github.com/rpint/rpint/internal/errors"
)

// ValidDisplayTypes lists the accepted serial_display_type values.
var ValidDisplayTypes = map[string]bool{
	DisplayST7735:  true,
	DisplayConsole: true,
	DisplayLog:     true,
}

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if err := validateSetup(cfg.Setup); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the [setup] table in your rpint.toml.")
	}

	if err := validateStore(cfg.Store); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the [store] table in your rpint.toml.")
	}

	if err := validateLog(cfg.Log); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the [log] table in your rpint.toml.")
	}

	return nil
}

// validateSetup checks the appliance settings.
func validateSetup(s Setup) error {
	if s.RefreshRate <= 0 {
		return fmt.Errorf("serial_display_refresh_rate must be positive, got %v", s.RefreshRate)
	}
	if s.FontSize <= 0 {
		return fmt.Errorf("font_size must be positive, got %d", s.FontSize)
	}
	if s.DisplayWidth <= 0 || s.DisplayHeight <= 0 {
		return fmt.Errorf("display geometry %dx%d isn't valid - width and height must be positive", s.DisplayWidth, s.DisplayHeight)
	}
	if s.HorizontalOffset < 0 || s.VerticalOffset < 0 {
		return fmt.Errorf("display offsets can't be negative")
	}
	if s.Rotate < 0 || s.Rotate > 3 {
		return fmt.Errorf("serial_display_rotate %d isn't valid - use 0, 1, 2 or 3 (quarter turns)", s.Rotate)
	}
	if s.DisplayLines < 1 {
		return fmt.Errorf("serial_display_lines must be at least 1, got %d", s.DisplayLines)
	}
	if !ValidDisplayTypes[s.DisplayType] {
		return fmt.Errorf("serial_display_type '%s' isn't valid - use lcd_st7735, console or log", s.DisplayType)
	}
	if s.DisplayType == DisplayST7735 && strings.TrimSpace(s.DisplayDevice) == "" {
		return fmt.Errorf("serial_display_device is required for lcd_st7735")
	}

	if len(s.LLDPCommand) == 0 || strings.TrimSpace(s.LLDPCommand[0]) == "" {
		return fmt.Errorf("lldp_command is empty - the default is [\"lldpcli\", \"show\", \"neighbors\", \"details\", \"-f\", \"json\"]")
	}
	if s.LLDPReadInterval <= 0 {
		return fmt.Errorf("lldp_read_interval must be positive, got %v", s.LLDPReadInterval)
	}
	if s.LLDPTimeout <= 0 {
		return fmt.Errorf("lldp_timeout must be positive, got %v", s.LLDPTimeout)
	}

	if s.UseUPSHat {
		if s.UPSHatAddress <= 0 || s.UPSHatAddress > 0x7f {
			return fmt.Errorf("ups_hat_i2c_address 0x%x isn't a 7-bit I2C address", s.UPSHatAddress)
		}
		if s.UPSHatInterval <= 0 {
			return fmt.Errorf("ups_hat_interval must be positive, got %v", s.UPSHatInterval)
		}
	}

	if s.UseButtons {
		if s.ShutdownHoldTime <= 0 {
			return fmt.Errorf("shutdown_hold_time must be positive, got %v", s.ShutdownHoldTime)
		}
		for key, name := range map[string]string{
			"button_up":       s.ButtonUp,
			"button_down":     s.ButtonDown,
			"button_left":     s.ButtonLeft,
			"button_right":    s.ButtonRight,
			"button_shutdown": s.ButtonShutdown,
		} {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("%s is empty - set a GPIO name like GPIO21 or disable use_buttons", key)
			}
		}
	}
	if len(s.ShutdownCommand) == 0 {
		return fmt.Errorf("shutdown_command is empty")
	}

	for _, line := range s.ExtraLines {
		if strings.TrimSpace(line) == "" {
			return fmt.Errorf("extra_lines has an empty entry - remove it")
		}
	}

	return nil
}

// validateStore checks the store backend configuration.
func validateStore(st StoreConfig) error {
	switch st.Backend {
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(st.Address) == "" {
			return fmt.Errorf("store.address is required for the redis backend")
		}
		if st.DB < 0 {
			return fmt.Errorf("store.db can't be negative")
		}
	default:
		return fmt.Errorf("store.backend '%s' isn't valid - use 'memory' or 'redis'", st.Backend)
	}
	return nil
}

// validateLog checks logging configuration.
func validateLog(l LogConfig) error {
	validFormats := map[string]bool{"auto": true, "json": true, "console": true, "": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("log.format '%s' isn't valid - use 'auto', 'json', or 'console'", l.Format)
	}
	validOutputs := map[string]bool{"stderr": true, "stdout": true, "": true}
	if !validOutputs[l.Output] {
		return fmt.Errorf("log.output '%s' isn't valid - use 'stderr' or 'stdout'", l.Output)
	}
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true, "": true,
	}
	if !validLevels[strings.ToLower(l.Level)] {
		return fmt.Errorf("log.level '%s' isn't valid - use debug, info, warn or error", l.Level)
	}
	return nil
}
