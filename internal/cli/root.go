package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rpint/rpint/internal/config"
	"github.com/rpint/rpint/internal/errors"
	"github.com/rpint/rpint/internal/logger"
	"github.com/rpint/rpint/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Global flags
var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "rpint",
	Short: "LLDP and battery status panel for a Raspberry Pi",
	Long: `rpint shows which switch port a Raspberry Pi is plugged into.

It reads LLDP neighbor details from lldpd, samples the UPS HAT battery, and
draws both on a small LCD HAT whose buttons scroll the view. A long press on
the power key shuts the device down.

Examples:
  rpint run                  # the appliance daemon
  rpint run --console        # same, drawn in this terminal
  rpint lldp                 # one discovery, printed
  rpint config init          # write rpint.toml`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor || !term.IsTerminal(int(os.Stdout.Fd())) {
			ui.DisableColors()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./rpint.toml, /etc/rpint/rpint.toml, ~/.config/rpint/rpint.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command and exits with its status.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(handleError(err, os.Stderr))
	}
}

// handleError prints err for a person and returns the exit code.
func handleError(err error, w io.Writer) int {
	if code, ok := errors.GetExitCode(err); ok {
		return code
	}

	var rpErr *errors.Error
	if stderrors.As(err, &rpErr) {
		fmt.Fprint(w, ui.ErrorStyle().Render(strings.TrimRight(rpErr.Error(), "\n"))+"\n")
		return 1
	}

	fmt.Fprintf(w, "%s %v\n", ui.ErrorStyle().Render(ui.SymbolFail), err)
	if isUnknownCommandError(err) {
		if name := extractUnknownCommand(err); name != "" {
			if s := rootCmd.SuggestionsFor(name); len(s) > 0 {
				fmt.Fprintf(w, "\n  Did you mean '%s'?\n", s[0])
			}
		}
		fmt.Fprintln(w, "\n  Run 'rpint --help' for usage.")
	}
	return 1
}

// isUnknownCommandError checks whether cobra rejected the command line.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag")
}

// extractUnknownCommand pulls the command name out of cobra's
// `unknown command "foo" for "rpint"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

// loadConfig finds and loads the config named by --config.
func loadConfig() (*config.Config, string, error) {
	return config.FindAndLoad(cfgFile)
}

// newLogger builds the process logger from the [log] table. --verbose
// forces debug level.
func newLogger(cfg config.LogConfig) (logger.Logger, error) {
	if verbose {
		cfg.Level = "debug"
	}
	log, err := logger.New(cfg)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid [log] settings",
			"Check level, format and output in the [log] table")
	}
	logger.SetDefault(log)
	return log, nil
}

// fileLogger writes JSON log lines to path, for runs where the terminal is
// taken by the console view.
func fileLogger(path string) (logger.Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't open log file "+path,
			"Check that the directory is writable")
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log := logger.NewWriter(f, level)
	logger.SetDefault(log)
	return log, f, nil
}
