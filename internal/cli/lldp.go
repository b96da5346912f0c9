package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/rpint/rpint/internal/config"
	"github.com/rpint/rpint/internal/display"
	"github.com/rpint/rpint/internal/errors"
	"github.com/rpint/rpint/internal/exec"
	"github.com/rpint/rpint/internal/lldp"
	"github.com/rpint/rpint/internal/logger"
	"github.com/rpint/rpint/internal/netif"
	"github.com/rpint/rpint/internal/store"
	"github.com/rpint/rpint/internal/ui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats for rpint lldp.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var (
	lldpFormat string
	lldpSave   bool
)

var lldpCmd = &cobra.Command{
	Use:   "lldp",
	Short: "Run one neighbor discovery and print it",
	Long: `Ask lldpd for the current neighbor once and print what the screen would show.

Without a config file the built-in defaults are used. With --save the
neighbor record and local link facts are also written to the configured
store, which is useful with the redis backend.

Examples:
  rpint lldp
  rpint lldp --format json
  rpint lldp --format yaml --save`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigOrDefaults()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg.Log)
		if err != nil {
			return err
		}
		return lldpCommand(cmd.Context(), cmd.OutOrStdout(), cfg, lldpOptions{
			Format: lldpFormat,
			Save:   lldpSave,
			Log:    log,
		})
	},
}

func init() {
	rootCmd.AddCommand(lldpCmd)
	lldpCmd.Flags().StringVarP(&lldpFormat, "format", "f", formatTable, "output format: table, json or yaml")
	lldpCmd.Flags().BoolVar(&lldpSave, "save", false, "also write the result to the configured store")
}

type lldpOptions struct {
	Format string
	Save   bool
	Log    logger.Logger
	Runner exec.Runner
	Links  netif.Source
}

// lldpResult is what rpint lldp prints in json and yaml.
type lldpResult struct {
	Neighbor lldp.Record `json:"neighbor" yaml:"neighbor"`
	Local    netif.Link  `json:"local" yaml:"local"`
	Found    bool        `json:"found" yaml:"found"`
}

func lldpCommand(ctx context.Context, w io.Writer, cfg *config.Config, opts lldpOptions) error {
	switch opts.Format {
	case formatTable, formatJSON, formatYAML:
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown format '%s'", opts.Format),
			"Use --format table, json or yaml")
	}
	if opts.Log == nil {
		opts.Log = logger.Noop()
	}
	if opts.Links == nil {
		opts.Links = netif.Interfaces{}
	}

	s := cfg.Setup
	collector := lldp.NewCollector(opts.Runner, lldp.CollectorConfig{
		Command:   s.LLDPCommand,
		Timeout:   s.LLDPTimeout,
		Interface: s.LLDPInterface,
	}, opts.Log.With("lldp"))

	rec, err := collector.Discover(ctx)
	if err != nil && !stderrors.Is(err, lldp.ErrNoNeighbors) {
		lerr := errors.WrapWithCode(err, errors.ErrLLDP,
			"Neighbor discovery failed",
			"Check that lldpd is installed and running: systemctl status lldpd")
		if opts.Format == formatJSON {
			_ = WriteJSONFromError(w, lerr)
			return errors.NewExitError(1)
		}
		return lerr
	}

	iface := s.LLDPInterface
	if iface == "" {
		iface = netif.DefaultInterface
	}
	link, lerr := opts.Links.Lookup(ctx, iface)
	if lerr != nil {
		opts.Log.Warn("local interface lookup failed: %v", lerr)
		link = netif.Unknown(iface)
	}

	if opts.Save {
		if err := saveDiscovery(ctx, cfg.Store, rec, link, opts.Log); err != nil {
			return err
		}
	}

	res := lldpResult{Neighbor: rec, Local: link, Found: err == nil}
	switch opts.Format {
	case formatJSON:
		return WriteJSONSuccess(w, res)
	case formatYAML:
		out, err := yaml.Marshal(res)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrLLDP, "Couldn't render YAML", "")
		}
		_, err = w.Write(out)
		return err
	}

	if !res.Found {
		ui.PrintWarning("No LLDP neighbor seen yet. lldpd may need up to 30s after the link comes up.")
	}
	fmt.Fprint(w, ui.RenderFieldTable("Neighbor on "+iface, fieldRows(rec, link)))
	return nil
}

// fieldRows lays the record out in screen order, battery lines excluded.
func fieldRows(rec lldp.Record, link netif.Link) []ui.FieldRow {
	flags := make(map[string]bool)
	for _, f := range display.Flags() {
		if !strings.HasPrefix(f, "show_battery") {
			flags[f] = true
		}
	}
	snap := display.Snapshot{Neighbor: rec.Fields(), Link: link.Fields()}

	return lineRows(display.BuildLines(snap, flags, nil))
}

func lineRows(lines []display.Line) []ui.FieldRow {
	rows := make([]ui.FieldRow, len(lines))
	for i, l := range lines {
		rows[i] = ui.FieldRow{Label: l.Label, Value: l.Value}
	}
	return rows
}

func saveDiscovery(ctx context.Context, cfg config.StoreConfig, rec lldp.Record, link netif.Link, log logger.Logger) error {
	s, err := store.Open(ctx, cfg, log.With("store"))
	if err != nil {
		return err
	}
	defer s.Close()

	if err := lldp.Save(ctx, s, &rec); err != nil {
		return errors.WrapWithCode(err, errors.ErrStore, "Couldn't save the neighbor record", "")
	}
	if err := netif.Save(ctx, s, link); err != nil {
		return errors.WrapWithCode(err, errors.ErrStore, "Couldn't save local link facts", "")
	}
	log.Info("saved neighbor %s to the %s store", rec.PortID, cfg.Backend)
	return nil
}

// loadConfigOrDefaults is loadConfig, falling back to the defaults when no
// file exists and none was named.
func loadConfigOrDefaults() (*config.Config, error) {
	cfg, _, err := loadConfig()
	if err == nil {
		return cfg, nil
	}
	if cfgFile == "" && errors.IsCode(err, errors.ErrConfig) && strings.Contains(err.Error(), "No config file found") {
		return config.DefaultConfig(), nil
	}
	return nil, err
}
