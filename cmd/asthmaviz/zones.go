package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/asthmatracker/asthmaviz/internal/core"
	"github.com/asthmatracker/asthmaviz/internal/norms"
)

func (a *app) newZonesCommand() *cobra.Command {
	var (
		sex      string
		age      int
		birthday string
		height   float64
	)
	cmd := &cobra.Command{
		Use:   "zones",
		Short: "Look up the peak-flow zones for sex, age and height",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			table, err := a.norms()
			if err != nil {
				return err
			}

			var (
				z  core.ZoneSet
				ok bool
			)
			if birthday != "" {
				z, ok = norms.ZonesForPatient(table, core.Patient{Sex: sex, Birthday: birthday, Height: height}, time.Now())
			} else {
				if age < 0 {
					return fmt.Errorf("zones: need --age or --birthday")
				}
				var row norms.Row
				row, ok = norms.Pick(table, sex, age, height)
				if ok {
					z, ok = row.Zones()
				}
			}
			if !ok {
				fmt.Fprintln(a.out, "no reference row matches")
				return nil
			}
			printZones(a, z)
			return nil
		},
	}
	cmd.Flags().StringVar(&sex, "sex", "", "sex: муж/жен (m/f accepted)")
	cmd.Flags().IntVar(&age, "age", -1, "age in completed years")
	cmd.Flags().StringVar(&birthday, "birthday", "", "birth date, YYYY-MM-DD (overrides --age)")
	cmd.Flags().Float64Var(&height, "height", 0, "height in cm")
	_ = cmd.MarkFlagRequired("sex")
	_ = cmd.MarkFlagRequired("height")
	return cmd
}

func printZones(a *app, z core.ZoneSet) {
	fmt.Fprintf(a.out, "red     %6.0f – %-6.0f\n", z.Red[0], z.Red[1])
	fmt.Fprintf(a.out, "yellow  %6.0f – %-6.0f\n", z.Yellow[0], z.Yellow[1])
	fmt.Fprintf(a.out, "green   %6.0f – %-6.0f\n", z.Green[0], z.Green[1])
	fmt.Fprintf(a.out, "norm    %6.0f l/min\n", z.Norm)
}
