package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rpint/rpint/internal/config"
	"github.com/rpint/rpint/internal/doctor"
	"github.com/rpint/rpint/internal/errors"
	"github.com/rpint/rpint/internal/ui"
	"github.com/spf13/cobra"
)

var doctorFormat string

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that this device is ready to run rpint",
	Long: `Run health checks for the config file, lldpd, the store backend and the
HAT device nodes, and say how to fix what's wrong.

Exits non-zero when any check fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _ := loadConfigOrDefaults()
		return doctorCommand(cmd.Context(), cmd.OutOrStdout(), doctorChecks(cfg), doctorFormat)
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().StringVarP(&doctorFormat, "format", "f", formatTable, "output format: table or json")
}

// doctorChecks builds the checks; with no usable config only the config
// check runs, since everything else depends on it.
func doctorChecks(cfg *config.Config) []doctor.Check {
	if cfg == nil {
		return []doctor.Check{&doctor.ConfigCheck{Path: cfgFile}}
	}
	return doctor.Checks(cfg, cfgFile, nil)
}

func doctorCommand(ctx context.Context, w io.Writer, checks []doctor.Check, format string) error {
	if format != formatTable && format != formatJSON {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown format '%s'", format),
			"Use --format table or json")
	}

	results := doctor.RunAllParallel(ctx, checks)

	if format == formatJSON {
		if err := WriteJSONSuccess(w, results); err != nil {
			return err
		}
	} else {
		renderResults(w, results)
	}

	if doctor.HasFailures(results) {
		return errors.NewExitError(1)
	}
	return nil
}

func renderResults(w io.Writer, results []doctor.CheckResult) {
	order, grouped := doctor.GroupByCategory(results)
	for _, cat := range order {
		fmt.Fprintln(w, ui.InfoStyle().Bold(true).Render(cat))
		for _, r := range grouped[cat] {
			fmt.Fprintf(w, "  %s %s\n", statusSymbol(r.Status), r.Message)
			if r.Suggestion != "" && r.Status != doctor.StatusPass {
				fmt.Fprintf(w, "    %s\n", ui.MutedStyle().Render(r.Suggestion))
			}
		}
		fmt.Fprintln(w)
	}

	summary := doctor.Summary(results)
	if doctor.HasIssues(results) {
		fmt.Fprintln(w, ui.WarningStyle().Render(summary))
		return
	}
	fmt.Fprintln(w, ui.SuccessStyle().Render(summary))
}

func statusSymbol(s doctor.CheckStatus) string {
	switch s {
	case doctor.StatusPass:
		return ui.SuccessStyle().Render(ui.SymbolSuccess)
	case doctor.StatusWarn:
		return ui.WarningStyle().Render(ui.SymbolWarning)
	default:
		return ui.ErrorStyle().Render(ui.SymbolFail)
	}
}
