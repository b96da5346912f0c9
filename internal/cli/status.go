package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rpint/rpint/internal/config"
	"github.com/rpint/rpint/internal/display"
	"github.com/rpint/rpint/internal/errors"
	"github.com/rpint/rpint/internal/logger"
	"github.com/rpint/rpint/internal/store"
	"github.com/rpint/rpint/internal/ui"
	"github.com/spf13/cobra"
)

var statusFormat string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the running daemon last stored",
	Long: `Read the neighbor record, local link facts and battery values that the
running daemon keeps in its store, and print them.

This needs the redis store backend: the memory backend lives inside the
daemon process and can't be read from outside.

Examples:
  rpint status
  rpint status --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Store.Backend != config.BackendRedis {
			return errors.New(errors.ErrStore,
				"rpint status needs the redis store backend",
				"Set backend = \"redis\" in the [store] table and restart the daemon")
		}
		s, err := store.Open(cmd.Context(), cfg.Store, logger.Noop())
		if err != nil {
			return err
		}
		defer s.Close()
		return statusCommand(cmd.Context(), cmd.OutOrStdout(), s, cfg, statusFormat)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVarP(&statusFormat, "format", "f", formatTable, "output format: table or json")
}

// statusResult is what rpint status prints in json.
type statusResult struct {
	Neighbor map[string]string `json:"neighbor"`
	Local    map[string]string `json:"local"`
	Battery  map[string]string `json:"battery,omitempty"`
}

func statusCommand(ctx context.Context, w io.Writer, s store.Store, cfg *config.Config, format string) error {
	if format != formatTable && format != formatJSON {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown format '%s'", format),
			"Use --format table or json")
	}

	snap, err := display.TakeSnapshot(ctx, s, cfg.Setup.UseUPSHat)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrStore,
			"Couldn't read the store",
			"Check that redis is reachable at "+cfg.Store.Address)
	}

	if format == formatJSON {
		return WriteJSONSuccess(w, statusResult{Neighbor: snap.Neighbor, Local: snap.Link, Battery: snap.Battery})
	}

	if len(snap.Neighbor) == 0 && len(snap.Link) == 0 {
		ui.PrintWarning("The store is empty. Is rpint run going, with the same [store] settings?")
	}

	flags := make(map[string]bool)
	for _, f := range display.Flags() {
		flags[f] = true
	}
	if !cfg.Setup.UseUPSHat {
		delete(flags, "show_battery_voltage")
		delete(flags, "show_battery_load")
	}

	title := "Neighbor"
	if snap.Battery != nil {
		title = snap.BatteryText()
	}
	rows := lineRows(display.BuildLines(snap, flags, cfg.Setup.ExtraLines))
	fmt.Fprint(w, ui.RenderFieldTable(title, rows))
	return nil
}
