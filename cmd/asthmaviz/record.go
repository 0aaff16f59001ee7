package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/asthmatracker/asthmaviz/internal/core"
	"github.com/asthmatracker/asthmaviz/internal/records"
)

// Local wall-clock layouts accepted by --at, tried before RFC 3339.
var atLayouts = []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"}

// parseAt reads a --at value. Empty means now.
func parseAt(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}
	for _, layout := range atLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --at %q: want \"YYYY-MM-DD HH:MM\" or RFC 3339", s)
}

func (a *app) newRecordCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Add a patient or a diary entry to the record store",
	}
	cmd.AddCommand(
		a.newRecordPatientCommand(),
		a.newRecordAttackCommand(),
		a.newRecordPeakFlowCommand(),
		a.newRecordIntakeCommand(),
	)
	return cmd
}

// withStore opens the store for the duration of fn.
func (a *app) withStore(fn func(*records.Store) error) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func (a *app) patientID(ctx context.Context, store *records.Store, oms string) (string, error) {
	p, err := store.PatientByOMS(ctx, oms)
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

func (a *app) newRecordPatientCommand() *cobra.Command {
	var p core.Patient
	cmd := &cobra.Command{
		Use:   "patient",
		Short: "Create or update a patient by OMS number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(func(store *records.Store) error {
				saved, err := store.UpsertPatient(cmd.Context(), p)
				if err != nil {
					return err
				}
				a.log.Info("patient saved", zap.String("id", saved.ID), zap.String("oms", saved.OMS))
				fmt.Fprintf(a.out, "patient %s (ОМС %s)\n", saved.ID, saved.OMS)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&p.OMS, "oms", "", "OMS policy number")
	cmd.Flags().StringVar(&p.Name, "name", "", "display name")
	cmd.Flags().StringVar(&p.Sex, "sex", "", "sex: муж/жен")
	cmd.Flags().StringVar(&p.Birthday, "birthday", "", "birth date, YYYY-MM-DD")
	cmd.Flags().Float64Var(&p.Height, "height", 0, "height in cm")
	_ = cmd.MarkFlagRequired("oms")
	return cmd
}

func (a *app) newRecordAttackCommand() *cobra.Command {
	var (
		oms   string
		at    string
		scale int
	)
	cmd := &cobra.Command{
		Use:   "attack",
		Short: "Record an asthma attack with its severity (1-5)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			when, err := parseAt(at, time.Now())
			if err != nil {
				return err
			}
			return a.withStore(func(store *records.Store) error {
				id, err := a.patientID(cmd.Context(), store, oms)
				if err != nil {
					return err
				}
				saved, err := store.AddAttack(cmd.Context(), records.Attack{PatientID: id, At: when, Scale: scale})
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "attack %s at %s, scale %d\n", saved.ID, saved.At.Local().Format("2006-01-02 15:04"), saved.Scale)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&oms, "oms", "", "patient OMS number")
	cmd.Flags().StringVar(&at, "at", "", "when, \"YYYY-MM-DD HH:MM\" local or RFC 3339 (default now)")
	cmd.Flags().IntVar(&scale, "scale", 0, "severity 1-5")
	_ = cmd.MarkFlagRequired("oms")
	_ = cmd.MarkFlagRequired("scale")
	return cmd
}

func (a *app) newRecordPeakFlowCommand() *cobra.Command {
	var (
		oms    string
		at     string
		result float64
	)
	cmd := &cobra.Command{
		Use:   "pef",
		Short: "Record a peak-flow reading in l/min",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			when, err := parseAt(at, time.Now())
			if err != nil {
				return err
			}
			return a.withStore(func(store *records.Store) error {
				id, err := a.patientID(cmd.Context(), store, oms)
				if err != nil {
					return err
				}
				saved, err := store.AddPeakFlow(cmd.Context(), records.PeakFlow{PatientID: id, At: when, Result: result})
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "pef %s at %s, %s l/min\n", saved.ID, saved.At.Local().Format("2006-01-02 15:04"), trimFloat(saved.Result))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&oms, "oms", "", "patient OMS number")
	cmd.Flags().StringVar(&at, "at", "", "when, \"YYYY-MM-DD HH:MM\" local or RFC 3339 (default now)")
	cmd.Flags().Float64Var(&result, "result", 0, "reading in l/min")
	_ = cmd.MarkFlagRequired("oms")
	_ = cmd.MarkFlagRequired("result")
	return cmd
}

func (a *app) newRecordIntakeCommand() *cobra.Command {
	var (
		oms      string
		at       string
		medicine string
		mkg      float64
	)
	cmd := &cobra.Command{
		Use:   "intake",
		Short: "Record a medicine intake",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			when, err := parseAt(at, time.Now())
			if err != nil {
				return err
			}
			in := records.Intake{At: when, Medicine: medicine}
			if cmd.Flags().Changed("mkg") {
				in.Mkg = &mkg
			}
			return a.withStore(func(store *records.Store) error {
				id, err := a.patientID(cmd.Context(), store, oms)
				if err != nil {
					return err
				}
				in.PatientID = id
				saved, err := store.AddIntake(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "intake %s at %s, %s\n", saved.ID, saved.At.Local().Format("2006-01-02 15:04"), saved.Medicine)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&oms, "oms", "", "patient OMS number")
	cmd.Flags().StringVar(&at, "at", "", "when, \"YYYY-MM-DD HH:MM\" local or RFC 3339 (default now)")
	cmd.Flags().StringVar(&medicine, "medicine", "", "medicine name")
	cmd.Flags().Float64Var(&mkg, "mkg", 0, "dose in mkg")
	_ = cmd.MarkFlagRequired("oms")
	_ = cmd.MarkFlagRequired("medicine")
	return cmd
}

func trimFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
}
