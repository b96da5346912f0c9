package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rpint/rpint/internal/logger"
)

// Display types accepted by serial_display_type.
const (
	DisplayST7735  = "lcd_st7735"
	DisplayConsole = "console"
	DisplayLog     = "log"
)

// Store backends accepted by store.backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config represents the complete rpint.toml configuration file.
type Config struct {
	Setup Setup       `mapstructure:"setup" yaml:"setup" toml:"setup"`
	Log   LogConfig   `mapstructure:"log" yaml:"log" toml:"log"`
	Store StoreConfig `mapstructure:"store" yaml:"store" toml:"store"`
}

// LogConfig is the [log] table. It is handed to logger.New unchanged.
type LogConfig = logger.Config

// Setup holds the appliance settings. Key names match the [setup] table of
// the config file.
type Setup struct {
	// Feature toggles.
	UseUPSHat        bool `mapstructure:"use_ups_hat" yaml:"use_ups_hat" toml:"use_ups_hat"`
	UseSerialDisplay bool `mapstructure:"use_serial_display" yaml:"use_serial_display" toml:"use_serial_display"`
	AutoLLDPRead     bool `mapstructure:"auto_lldp_read" yaml:"auto_lldp_read" toml:"auto_lldp_read"`
	UseButtons       bool `mapstructure:"use_buttons" yaml:"use_buttons" toml:"use_buttons"`

	// Neighbor discovery.
	LLDPReadInterval time.Duration `mapstructure:"lldp_read_interval" yaml:"lldp_read_interval" toml:"lldp_read_interval"`
	LLDPTimeout      time.Duration `mapstructure:"lldp_timeout" yaml:"lldp_timeout" toml:"lldp_timeout"`
	// LLDPInterface picks the neighbor entry to report. Empty means the
	// first interface lldpcli lists.
	LLDPInterface string   `mapstructure:"lldp_interface" yaml:"lldp_interface" toml:"lldp_interface"`
	LLDPCommand   []string `mapstructure:"lldp_command" yaml:"lldp_command" toml:"lldp_command"`

	// Font. Empty FontPath uses the embedded Go Mono face.
	FontSize int    `mapstructure:"font_size" yaml:"font_size" toml:"font_size"`
	FontPath string `mapstructure:"font_path" yaml:"font_path" toml:"font_path"`

	// Display.
	DisplayType      string   `mapstructure:"serial_display_type" yaml:"serial_display_type" toml:"serial_display_type"`
	DisplayDevice    string   `mapstructure:"serial_display_device" yaml:"serial_display_device" toml:"serial_display_device"`
	RefreshRate      float64  `mapstructure:"serial_display_refresh_rate" yaml:"serial_display_refresh_rate" toml:"serial_display_refresh_rate"`
	DisplayWidth     int      `mapstructure:"serial_display_width" yaml:"serial_display_width" toml:"serial_display_width"`
	DisplayHeight    int      `mapstructure:"serial_display_height" yaml:"serial_display_height" toml:"serial_display_height"`
	HorizontalOffset int      `mapstructure:"serial_display_horizontal_offset" yaml:"serial_display_horizontal_offset" toml:"serial_display_horizontal_offset"`
	VerticalOffset   int      `mapstructure:"serial_display_vertical_offset" yaml:"serial_display_vertical_offset" toml:"serial_display_vertical_offset"`
	Rotate           int      `mapstructure:"serial_display_rotate" yaml:"serial_display_rotate" toml:"serial_display_rotate"`
	Background       bool     `mapstructure:"serial_display_background" yaml:"serial_display_background" toml:"serial_display_background"`
	DisplayLines     int      `mapstructure:"serial_display_lines" yaml:"serial_display_lines" toml:"serial_display_lines"`
	ExtraLines       []string `mapstructure:"extra_lines" yaml:"extra_lines" toml:"extra_lines"`

	// UPS HAT (INA219).
	UPSHatBus      string        `mapstructure:"ups_hat_i2c_bus" yaml:"ups_hat_i2c_bus" toml:"ups_hat_i2c_bus"`
	UPSHatAddress  int           `mapstructure:"ups_hat_i2c_address" yaml:"ups_hat_i2c_address" toml:"ups_hat_i2c_address"`
	UPSHatInterval time.Duration `mapstructure:"ups_hat_interval" yaml:"ups_hat_interval" toml:"ups_hat_interval"`

	// Buttons, named the way periph.io's gpioreg knows them.
	ButtonUp         string        `mapstructure:"button_up" yaml:"button_up" toml:"button_up"`
	ButtonDown       string        `mapstructure:"button_down" yaml:"button_down" toml:"button_down"`
	ButtonLeft       string        `mapstructure:"button_left" yaml:"button_left" toml:"button_left"`
	ButtonRight      string        `mapstructure:"button_right" yaml:"button_right" toml:"button_right"`
	ButtonShutdown   string        `mapstructure:"button_shutdown" yaml:"button_shutdown" toml:"button_shutdown"`
	ShutdownHoldTime time.Duration `mapstructure:"shutdown_hold_time" yaml:"shutdown_hold_time" toml:"shutdown_hold_time"`
	ShutdownCommand  []string      `mapstructure:"shutdown_command" yaml:"shutdown_command" toml:"shutdown_command"`

	PIDFile string `mapstructure:"pid_file" yaml:"pid_file" toml:"pid_file"`

	// Display line toggles. Order on screen is fixed by the display package,
	// not by the order of these keys.
	ShowChassisID          bool `mapstructure:"show_chassis_id" yaml:"show_chassis_id" toml:"show_chassis_id"`
	ShowPortID             bool `mapstructure:"show_port_id" yaml:"show_port_id" toml:"show_port_id"`
	ShowVLANID             bool `mapstructure:"show_vlan_id" yaml:"show_vlan_id" toml:"show_vlan_id"`
	ShowChassisDescription bool `mapstructure:"show_chassis_description" yaml:"show_chassis_description" toml:"show_chassis_description"`
	ShowPortDescr          bool `mapstructure:"show_port_descr" yaml:"show_port_descr" toml:"show_port_descr"`
	ShowAutoNegCurrent     bool `mapstructure:"show_auto_neg_current" yaml:"show_auto_neg_current" toml:"show_auto_neg_current"`
	ShowAutoSupported      bool `mapstructure:"show_auto_supported" yaml:"show_auto_supported" toml:"show_auto_supported"`
	ShowAutoEnabled        bool `mapstructure:"show_auto_enabled" yaml:"show_auto_enabled" toml:"show_auto_enabled"`
	ShowAvailableModes     bool `mapstructure:"show_available_modes_str" yaml:"show_available_modes_str" toml:"show_available_modes_str"`
	ShowPowerSupported     bool `mapstructure:"show_power_supported" yaml:"show_power_supported" toml:"show_power_supported"`
	ShowPowerEnabled       bool `mapstructure:"show_power_enabled" yaml:"show_power_enabled" toml:"show_power_enabled"`
	ShowDeviceType         bool `mapstructure:"show_device_type" yaml:"show_device_type" toml:"show_device_type"`
	ShowCapability         bool `mapstructure:"show_capability" yaml:"show_capability" toml:"show_capability"`
	ShowManagementIP       bool `mapstructure:"show_management_ip" yaml:"show_management_ip" toml:"show_management_ip"`
	ShowLocalIP            bool `mapstructure:"show_local_ip" yaml:"show_local_ip" toml:"show_local_ip"`
	ShowLocalMAC           bool `mapstructure:"show_local_mac" yaml:"show_local_mac" toml:"show_local_mac"`
	ShowBatteryVoltage     bool `mapstructure:"show_battery_voltage" yaml:"show_battery_voltage" toml:"show_battery_voltage"`
	ShowBatteryLoad        bool `mapstructure:"show_battery_load" yaml:"show_battery_load" toml:"show_battery_load"`
}

// ShowFlags returns the display toggles keyed by their config key.
func (s Setup) ShowFlags() map[string]bool {
	ptrs := s.showFlagFields()
	out := make(map[string]bool, len(ptrs))
	for key, p := range ptrs {
		out[key] = *p
	}
	return out
}

// SetShowFlags turns on exactly the toggles named in on. Unknown keys are
// ignored.
func (s *Setup) SetShowFlags(on map[string]bool) {
	for key, p := range s.showFlagFields() {
		*p = on[key]
	}
}

func (s *Setup) showFlagFields() map[string]*bool {
	return map[string]*bool{
		"show_chassis_id":          &s.ShowChassisID,
		"show_port_id":             &s.ShowPortID,
		"show_vlan_id":             &s.ShowVLANID,
		"show_chassis_description": &s.ShowChassisDescription,
		"show_port_descr":          &s.ShowPortDescr,
		"show_auto_neg_current":    &s.ShowAutoNegCurrent,
		"show_auto_supported":      &s.ShowAutoSupported,
		"show_auto_enabled":        &s.ShowAutoEnabled,
		"show_available_modes_str": &s.ShowAvailableModes,
		"show_power_supported":     &s.ShowPowerSupported,
		"show_power_enabled":       &s.ShowPowerEnabled,
		"show_device_type":         &s.ShowDeviceType,
		"show_capability":          &s.ShowCapability,
		"show_management_ip":       &s.ShowManagementIP,
		"show_local_ip":            &s.ShowLocalIP,
		"show_local_mac":           &s.ShowLocalMAC,
		"show_battery_voltage":     &s.ShowBatteryVoltage,
		"show_battery_load":        &s.ShowBatteryLoad,
	}
}

// RefreshPeriod converts the refresh rate in Hz to a tick period.
func (s Setup) RefreshPeriod() time.Duration {
	if s.RefreshRate <= 0 {
		return time.Second
	}
	return time.Duration(float64(time.Second) / s.RefreshRate)
}

// StoreConfig selects and configures the shared store backend.
type StoreConfig struct {
	// Backend is "memory" (default) or "redis".
	Backend string `mapstructure:"backend" yaml:"backend" toml:"backend"`
	Address string `mapstructure:"address" yaml:"address" toml:"address"`
	DB      int    `mapstructure:"db" yaml:"db" toml:"db"`
	// Password for redis AUTH. Usually set through RPINT_STORE_PASSWORD.
	Password string `mapstructure:"password" yaml:"password" toml:"password"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix" toml:"prefix"`
}

// DefaultConfig returns a Config with the appliance defaults for a
// Waveshare 1.44" LCD HAT and a Waveshare UPS HAT.
func DefaultConfig() *Config {
	return &Config{
		Setup: Setup{
			UseUPSHat:        false,
			UseSerialDisplay: true,
			AutoLLDPRead:     true,
			UseButtons:       true,

			LLDPReadInterval: 30 * time.Second,
			LLDPTimeout:      10 * time.Second,
			LLDPCommand:      []string{"lldpcli", "show", "neighbors", "details", "-f", "json"},

			FontSize: 12,

			DisplayType:      DisplayST7735,
			DisplayDevice:    "/dev/fb1",
			RefreshRate:      4,
			DisplayWidth:     128,
			DisplayHeight:    128,
			HorizontalOffset: 1,
			VerticalOffset:   2,
			Rotate:           0,
			Background:       true,
			DisplayLines:     3,
			ExtraLines:       []string{},

			UPSHatAddress:  0x43,
			UPSHatInterval: time.Second,

			ButtonUp:         "GPIO6",
			ButtonDown:       "GPIO19",
			ButtonLeft:       "GPIO5",
			ButtonRight:      "GPIO26",
			ButtonShutdown:   "GPIO21",
			ShutdownHoldTime: 5 * time.Second,
			ShutdownCommand:  []string{"sudo", "poweroff"},

			PIDFile: filepath.Join(os.TempDir(), "rpint.pid"),

			ShowChassisID:          true,
			ShowPortID:             true,
			ShowVLANID:             true,
			ShowChassisDescription: true,
			ShowPortDescr:          true,
			ShowAutoNegCurrent:     true,
			ShowAutoSupported:      true,
			ShowAutoEnabled:        true,
			ShowAvailableModes:     true,
			ShowPowerSupported:     true,
			ShowPowerEnabled:       true,
			ShowDeviceType:         true,
			ShowManagementIP:       true,
		},
		Log: logger.DefaultConfig(),
		Store: StoreConfig{
			Backend: BackendMemory,
			Address: "localhost:6379",
			Prefix:  "rpint:",
		},
	}
}
