package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/asthmatracker/asthmaviz/internal/logger"
	"github.com/asthmatracker/asthmaviz/internal/render"
	"github.com/asthmatracker/asthmaviz/internal/server"
)

func (a *app) newServeCommand() *cobra.Command {
	var (
		addr      string
		cacheSize int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve patient charts and reference zones over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			log, err := logger.NewServer(a.debug)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			table, err := a.norms()
			if err != nil {
				return err
			}

			srv, err := server.New(server.Params{
				Store: store,
				Norms: table,
				Renderer: render.New(render.Options{
					Attacks:  a.cfg.AttackOptions(),
					PeakFlow: a.cfg.PeakFlowOptions(),
					Heatmap:  a.cfg.HeatmapOptions(),
				}, log),
				Windows:   a.cfg.Windows(),
				Logger:    log,
				CacheSize: cacheSize,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			log.Info("starting server", zap.String("db", a.cfg.DBPath))
			return srv.Start(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", a.cfg.ListenAddr, "listen address")
	cmd.Flags().IntVar(&cacheSize, "cache-size", server.DefaultCacheSize, "rendered SVG cache entries")
	return cmd
}
