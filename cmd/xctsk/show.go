package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dpup/xctsk-viewer/server/internal/services"
)

func newShowCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <file|code>",
		Short: "Print the turnpoint table and task distances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			artifacts, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Metadata   services.Metadata       `json:"metadata"`
					Turnpoints []services.TurnpointRow `json:"turnpoints"`
				}{artifacts.Metadata, artifacts.Rows})
			}
			return printTask(out, artifacts)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print metadata and rows as JSON")
	return cmd
}

func printTask(w io.Writer, a *services.TaskArtifacts) error {
	m := a.Metadata
	if m.Name != "" {
		fmt.Fprintf(w, "%s\n", m.Name)
	}
	fmt.Fprintf(w, "Type: %s  Earth model: %s  Turnpoints: %d\n\n", m.TaskType, m.EarthModel, m.TurnpointCount)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tName\tRole\tRadius\tLeg\tCenters\tOptimized\t")
	for _, row := range a.Rows {
		optimized := "-"
		if row.OptimizedDistance != nil {
			optimized = km(*row.OptimizedDistance)
		}
		leg := "-"
		if row.Index > 1 {
			leg = km(row.CenterLeg)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.0f m\t%s\t%s\t%s\t\n",
			row.Index, row.Name, row.RoleLabel, row.Radius, leg, km(row.CenterDistance), optimized)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nDistance through centers: %s\n", km(m.CenterDistance))
	if m.OptimizedDistance != nil {
		fmt.Fprintf(w, "Optimized distance:       %s\n", km(*m.OptimizedDistance))
		if m.Savings != nil && m.SavingsPercent != nil {
			fmt.Fprintf(w, "Savings:                  %s (%.1f%%)\n", km(*m.Savings), *m.SavingsPercent)
		}
	} else {
		fmt.Fprintln(w, "Optimized distance:       unavailable")
	}

	if m.TakeoffOpen != "" || m.TakeoffClose != "" {
		fmt.Fprintf(w, "Takeoff window:           %s - %s\n", clock(m.TakeoffOpen), clock(m.TakeoffClose))
	}
	if m.SSSType != "" {
		fmt.Fprintf(w, "Start:                    %s %s, first gate %s\n", m.SSSType, m.SSSDirection, clock(m.SSSFirstGate))
	}
	if m.GoalType != "" {
		fmt.Fprintf(w, "Goal:                     %s, deadline %s\n", m.GoalType, clock(m.GoalDeadline))
	}
	return nil
}

func km(meters float64) string {
	return fmt.Sprintf("%.1f km", meters/1000)
}

// clock formats an "HH:MM:SSZ" time as "HH:MM (UTC)"
func clock(s string) string {
	if len(s) < 5 {
		return "-"
	}
	return s[:5] + " (UTC)"
}
