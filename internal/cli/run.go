package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rpint/rpint/internal/config"
	"github.com/rpint/rpint/internal/daemon"
	"github.com/rpint/rpint/internal/logger"
	"github.com/spf13/cobra"
)

// consoleLogFile receives logs while the console view owns the terminal.
const consoleLogFile = "rpint-console.log"

var (
	runConsole       bool
	runAllowPoweroff bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the appliance daemon",
	Long: `Run discovery, battery sampling and the display until SIGINT or SIGTERM.

Only one daemon runs per machine; a second one exits with an error naming
the first. The store is emptied at startup.

With --console the screen is drawn in this terminal and the keyboard stands
in for the buttons: arrows or hjkl scroll, r refreshes LLDP, x is the long
press and q quits. The long press only stops rpint unless --allow-poweroff
is given.

Examples:
  rpint run
  rpint run --config /etc/rpint/rpint.toml -v
  rpint run --console`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}
		return runDaemon(cmd, cfg, path)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runConsole, "console", false, "draw the screen in this terminal and read keys instead of buttons")
	runCmd.Flags().BoolVar(&runAllowPoweroff, "allow-poweroff", false, "let the console's long press run shutdown_command")
}

func runDaemon(cmd *cobra.Command, cfg *config.Config, path string) error {
	console := runConsole || cfg.Setup.DisplayType == config.DisplayConsole

	var log logger.Logger
	if console {
		logPath := filepath.Join(os.TempDir(), consoleLogFile)
		fileLog, closer, err := fileLogger(logPath)
		if err != nil {
			return err
		}
		defer closer.Close()
		log = fileLog
		fmt.Fprintf(cmd.ErrOrStderr(), "Logging to %s\n", logPath)
	} else {
		var err error
		if log, err = newLogger(cfg.Log); err != nil {
			return err
		}
	}
	log.Info("rpint %s starting with %s", formatVersion(version), path)

	return daemon.Run(cmd.Context(), cfg, daemon.Options{
		Console:       console,
		AllowPoweroff: runAllowPoweroff,
		Log:           log,
	})
}
