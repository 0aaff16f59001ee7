package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/asthmatracker/asthmaviz/internal/config"
	"github.com/asthmatracker/asthmaviz/internal/records"
	"github.com/asthmatracker/asthmaviz/internal/tui"
)

func (a *app) newViewCommand() *cobra.Command {
	var oms string
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse a patient's charts in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.runView(oms)
		},
	}
	cmd.Flags().StringVar(&oms, "oms", "", "patient OMS number")
	_ = cmd.MarkFlagRequired("oms")
	return cmd
}

func (a *app) runView(oms string) error {
	if err := tui.LoadThemes(config.ConfigDir()); err != nil {
		a.log.Warn("loading external themes", zap.Error(err))
	}
	tui.SetThemeByName(a.cfg.Theme)

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	table, err := a.norms()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := tui.NewModel(tui.Options{
		Attacks:  a.cfg.AttackOptions(),
		PeakFlow: a.cfg.PeakFlowOptions(),
		Heatmap:  a.cfg.HeatmapOptions(),
		Windows:  a.cfg.Windows(),
		Logger:   a.log,
		Loader: func(loadCtx context.Context, w records.Windows) (records.Snapshot, error) {
			return store.Snapshot(loadCtx, oms, time.Now(), w, table)
		},
	})

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
			program.Quit()
		case <-ctx.Done():
		}
	}()

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("view: %w", err)
	}
	return nil
}
