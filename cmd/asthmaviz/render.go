package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/asthmatracker/asthmaviz/internal/render"
)

func (a *app) newRenderCommand() *cobra.Command {
	var (
		out   string
		oms   string
		kind  string
		width float64
	)
	cmd := &cobra.Command{
		Use:   "render [document.json|-]",
		Short: "Render a JSON chart document, or a stored patient's chart, as SVG",
		Long: "Render reads a document {\"kind\":\"attacks|pef|medicine\",...} from a file or stdin.\n" +
			"With --oms it renders the patient's chart from the record store instead.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				doc render.Document
				err error
			)
			switch {
			case oms != "":
				doc, err = a.patientDocument(cmd.Context(), oms, kind, width)
			case len(args) == 1:
				doc, err = readDocument(args[0], cmd.InOrStdin())
			default:
				return fmt.Errorf("render: need a document path or --oms")
			}
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := a.renderer().Render(doc, &buf); err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err := a.out.Write(buf.Bytes())
				return err
			}
			return writeFile(out, buf.Bytes())
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output SVG path (default stdout)")
	cmd.Flags().StringVar(&oms, "oms", "", "render a stored patient's chart by OMS number")
	cmd.Flags().StringVar(&kind, "kind", string(render.KindAttacks), "chart kind with --oms: attacks, pef or medicine")
	cmd.Flags().Float64Var(&width, "width", 0, "container width in px (0 = desktop default)")
	return cmd
}

func (a *app) patientDocument(ctx context.Context, oms, kind string, width float64) (render.Document, error) {
	k, err := render.ParseKind(kind)
	if err != nil {
		return render.Document{}, err
	}
	store, err := a.openStore()
	if err != nil {
		return render.Document{}, err
	}
	defer store.Close()
	table, err := a.norms()
	if err != nil {
		return render.Document{}, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	snap, err := store.Snapshot(ctx, oms, time.Now(), a.cfg.Windows(), table)
	if err != nil {
		return render.Document{}, err
	}
	return render.FromSnapshot(snap, k, width), nil
}

func readDocument(path string, stdin io.Reader) (render.Document, error) {
	if path == "-" {
		return render.Decode(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return render.Document{}, fmt.Errorf("render: opening document: %w", err)
	}
	defer f.Close()
	return render.Decode(f)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("render: creating output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("render: writing output: %w", err)
	}
	return nil
}

func (a *app) newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <document.json> <out.svg>",
		Short: "Re-render a document to SVG whenever it changes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			r := a.renderer()
			r.OnRender = func(err error) {
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "render failed: %v\n", err)
					return
				}
				fmt.Fprintf(a.out, "%s  rendered %s\n", time.Now().Format("15:04:05"), args[1])
			}
			a.log.Info("watching", zap.String("in", args[0]), zap.String("out", args[1]))
			return r.Watch(ctx, args[0], args[1])
		},
	}
}
