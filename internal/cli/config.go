package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rpint/rpint/internal/config"
	"github.com/rpint/rpint/internal/display"
	"github.com/rpint/rpint/internal/errors"
	"github.com/rpint/rpint/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create, show or check rpint.toml",
}

var (
	initForce    bool
	initDefaults bool
	initPath     string
)

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a new rpint.toml",
	Long: `Write a new rpint.toml, asking which hardware is attached and which
neighbor details to show. With --defaults nothing is asked and the built-in
defaults for a Waveshare 1.44" LCD HAT are written.

Examples:
  rpint config init
  rpint config init --defaults --path /etc/rpint/rpint.toml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInit(cmd.OutOrStdout(), configInitOptions{
			Path:     initPath,
			Force:    initForce,
			Defaults: initDefaults,
			Ask:      askSetup,
			Confirm:  confirmOverwrite,
		})
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration rpint would run with: the config file merged
with defaults and RPINT_* environment overrides. Without a config file the
defaults are shown.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigOrDefaults()
		if err != nil {
			return err
		}
		return configShow(cmd.OutOrStdout(), cfg)
	},
}

var configLinesCmd = &cobra.Command{
	Use:   "lines",
	Short: "List the screen lines in order and whether each is shown",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigOrDefaults()
		if err != nil {
			return err
		}
		configLines(cmd.OutOrStdout(), cfg)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check rpint.toml for errors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, path, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s is valid\n", ui.SuccessStyle().Render(ui.SymbolSuccess), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configLinesCmd, configValidateCmd)

	configInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")
	configInitCmd.Flags().BoolVar(&initDefaults, "defaults", false, "write the defaults without asking")
	configInitCmd.Flags().StringVar(&initPath, "path", config.ConfigFileName, "where to write the file")
}

type configInitOptions struct {
	Path     string
	Force    bool
	Defaults bool
	// Ask fills in cfg interactively.
	Ask func(cfg *config.Config) error
	// Confirm asks whether an existing file may be replaced.
	Confirm func(path string) (bool, error)
}

func configInit(w io.Writer, opts configInitOptions) error {
	path := opts.Path
	if path == "" {
		path = config.ConfigFileName
	}

	force := opts.Force
	if _, err := os.Stat(path); err == nil && !force && !opts.Defaults && opts.Confirm != nil {
		ok, err := opts.Confirm(path)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !ok {
			fmt.Fprintln(w, "Cancelled.")
			return nil
		}
		force = true
	}

	cfg := config.DefaultConfig()
	if !opts.Defaults && opts.Ask != nil {
		if err := opts.Ask(cfg); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Check terminal compatibility or use --defaults")
		}
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.Write(path, cfg, force); err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	fmt.Fprintf(w, "%s Wrote %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), abs)
	fmt.Fprintln(w, ui.MutedStyle().Render("  Start the panel with: rpint run --config "+abs))
	return nil
}

func configShow(w io.Writer, cfg *config.Config) error {
	data, err := config.Marshal(cfg)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't render the config",
			"This shouldn't happen - please report this bug!")
	}
	_, err = w.Write(data)
	return err
}

// configLines prints every display toggle in screen order, then the extra
// lines.
func configLines(w io.Writer, cfg *config.Config) {
	shown := cfg.Setup.ShowFlags()
	rows := make([][]string, 0, len(shown)+len(cfg.Setup.ExtraLines))
	for i, flag := range display.Flags() {
		state := "no"
		if shown[flag] {
			state = "yes"
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), display.Label(flag), flag, state})
	}
	for _, extra := range cfg.Setup.ExtraLines {
		rows = append(rows, []string{strconv.Itoa(len(rows) + 1), display.ParseLine(extra).Label, "extra_lines", "yes"})
	}

	fmt.Fprintln(w, ui.RenderSimpleTable([]ui.TableColumn{
		{Title: "#", Width: 3},
		{Title: "LINE", Width: 18},
		{Title: "KEY", Width: 26},
		{Title: "SHOWN", Width: 6},
	}, rows))
}

func confirmOverwrite(path string) (bool, error) {
	var overwrite bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", path)).
				Value(&overwrite),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return overwrite, nil
}

// Hardware features offered by config init.
var features = []struct {
	key   string
	label string
}{
	{"use_serial_display", "LCD HAT display"},
	{"use_buttons", "LCD HAT buttons"},
	{"use_ups_hat", "UPS HAT battery"},
	{"auto_lldp_read", "Periodic LLDP refresh"},
}

// askSetup runs the interactive config init form against cfg.
func askSetup(cfg *config.Config) error {
	s := &cfg.Setup
	enabled := map[string]*bool{
		"use_serial_display": &s.UseSerialDisplay,
		"use_buttons":        &s.UseButtons,
		"use_ups_hat":        &s.UseUPSHat,
		"auto_lldp_read":     &s.AutoLLDPRead,
	}

	featureOpts := make([]huh.Option[string], 0, len(features))
	for _, f := range features {
		featureOpts = append(featureOpts, huh.NewOption(f.label, f.key).Selected(*enabled[f.key]))
	}

	current := s.ShowFlags()
	lineOpts := make([]huh.Option[string], 0, len(current))
	for _, flag := range display.Flags() {
		label := strings.ReplaceAll(strings.TrimPrefix(flag, "show_"), "_", " ")
		lineOpts = append(lineOpts, huh.NewOption(label, flag).Selected(current[flag]))
	}

	var chosenFeatures, chosenLines []string
	iface := s.LLDPInterface
	redisAddr := cfg.Store.Address

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Attached hardware").
				Options(featureOpts...).
				Value(&chosenFeatures),
			huh.NewSelect[string]().
				Title("Where to draw the panel").
				Options(
					huh.NewOption("LCD HAT (ST7735 framebuffer)", config.DisplayST7735),
					huh.NewOption("Terminal", config.DisplayConsole),
					huh.NewOption("Log only", config.DisplayLog),
				).
				Value(&s.DisplayType),
		),
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Lines to show").
				Description("Screen order is fixed; this only picks which lines appear").
				Options(lineOpts...).
				Value(&chosenLines),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("LLDP interface (optional)").
				Description("Leave empty to report the first interface lldpd lists").
				Placeholder("eth0").
				Value(&iface).
				Validate(func(v string) error {
					if strings.ContainsAny(v, " \t") {
						return fmt.Errorf("interface name cannot contain whitespace")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Store backend").
				Options(
					huh.NewOption("In process", config.BackendMemory),
					huh.NewOption("Redis (lets 'rpint status' read it)", config.BackendRedis),
				).
				Value(&cfg.Store.Backend),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Redis address").
				Value(&redisAddr).
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return fmt.Errorf("redis address is required")
					}
					return nil
				}),
		).WithHideFunc(func() bool { return cfg.Store.Backend != config.BackendRedis }),
	)

	if err := form.Run(); err != nil {
		return err
	}

	applyFeatures(s, chosenFeatures)
	s.SetShowFlags(toSet(chosenLines))
	s.LLDPInterface = strings.TrimSpace(iface)
	cfg.Store.Address = strings.TrimSpace(redisAddr)
	return nil
}

func applyFeatures(s *config.Setup, chosen []string) {
	on := toSet(chosen)
	s.UseSerialDisplay = on["use_serial_display"]
	s.UseButtons = on["use_buttons"]
	s.UseUPSHat = on["use_ups_hat"]
	s.AutoLLDPRead = on["auto_lldp_read"]
}

func toSet(keys []string) map[string]bool {
	out := make(map[string]bool, len(keys))
	for _, k := range keys {
		out[k] = true
	}
	return out
}
