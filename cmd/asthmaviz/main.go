package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/asthmatracker/asthmaviz/internal/config"
	"github.com/asthmatracker/asthmaviz/internal/logger"
	"github.com/asthmatracker/asthmaviz/internal/norms"
	"github.com/asthmatracker/asthmaviz/internal/records"
	"github.com/asthmatracker/asthmaviz/internal/render"
	"github.com/asthmatracker/asthmaviz/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		fmt.Fprintf(os.Stderr, "Config path: %s\n", config.ConfigPath())
		os.Exit(1)
	}

	root := newRootCommand(cfg, os.Stdout)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// app is the state shared by every subcommand.
type app struct {
	cfg   config.Config
	out   io.Writer
	debug bool
	log   *zap.Logger
}

func newRootCommand(cfg config.Config, out io.Writer) *cobra.Command {
	a := &app{cfg: cfg, out: out, debug: cfg.Debug, log: zap.NewNop()}

	root := &cobra.Command{
		Use:           "asthmaviz",
		Short:         "asthmaviz renders asthma diary charts: attacks, peak flow with zones, and medicine intakes.",
		SilenceUsage:  true,
		SilenceErrors: false,
		Version:       version.String(),
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			log, err := logger.New(a.debug)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			a.log = log
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = a.log.Sync()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().BoolVar(&a.debug, "debug", cfg.Debug, "enable debug logging (also ASTHMAVIZ_DEBUG)")

	root.AddCommand(
		a.newRenderCommand(),
		a.newWatchCommand(),
		a.newZonesCommand(),
		a.newRecordCommand(),
		a.newViewCommand(),
		a.newServeCommand(),
		a.newVersionCommand(),
	)
	return root
}

func (a *app) renderer() *render.Renderer {
	return render.New(render.Options{
		Attacks:  a.cfg.AttackOptions(),
		PeakFlow: a.cfg.PeakFlowOptions(),
		Heatmap:  a.cfg.HeatmapOptions(),
	}, a.log)
}

func (a *app) openStore() (*records.Store, error) {
	store, err := records.OpenStore(a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a.log.Debug("store opened", zap.String("path", a.cfg.DBPath))
	return store, nil
}

func (a *app) norms() (*norms.Table, error) {
	table, err := norms.Resolve(a.cfg.NormsPath)
	if err != nil {
		return nil, err
	}
	a.log.Debug("reference table loaded", zap.String("path", a.cfg.NormsPath), zap.Int("rows", table.Len()))
	return table, nil
}

func (a *app) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintln(a.out, "asthmaviz "+strings.TrimSpace(version.String()))
		},
	}
}
