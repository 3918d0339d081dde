package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rakeplan/core/model"
	"github.com/kilianp07/rakeplan/core/scheduler"
	"github.com/kilianp07/rakeplan/pkg/export"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show fleet utilization and schedule performance",
	RunE:  runMetrics,
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}

type metricsReport struct {
	Metrics        scheduler.Metrics            `json:"metrics"`
	Fleet          map[model.RakeStatus]int     `json:"fleet"`
	Schedules      map[model.ScheduleStatus]int `json:"schedules"`
	MaintenanceDue []string                     `json:"maintenanceDue"`
}

func runMetrics(cmd *cobra.Command, _ []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	ds := svc.Dataset()
	rep := metricsReport{
		Metrics:        svc.Metrics(),
		Fleet:          scheduler.FleetSummary(ds.Rakes),
		Schedules:      scheduler.StatusBreakdown(ds.Schedules),
		MaintenanceDue: []string{},
	}
	for _, r := range svc.MaintenanceDue() {
		rep.MaintenanceDue = append(rep.MaintenanceDue, r.ID)
	}
	if asJSON {
		return export.WriteJSON(cmd.OutOrStdout(), rep)
	}

	m := rep.Metrics
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "utilization\t%.1f%%\n", m.UtilizationRate*100)
	fmt.Fprintf(tw, "on-time performance\t%.1f%% (%d of %d completed runs measured)\n",
		m.OnTimePerformance*100, m.MeasuredRuns, m.CompletedRuns)
	fmt.Fprintf(tw, "scheduled rakes\t%d\n", m.TotalScheduledRakes)
	fmt.Fprintf(tw, "average route time\t%.1fh\n", m.AverageRouteTimeHours)
	if m.OverUtilized {
		fmt.Fprintf(tw, "warning\tutilization above %.0f%%\n", cfg.Scheduling.MaxRakeUtilization*100)
	}
	for _, st := range model.RakeStatuses {
		fmt.Fprintf(tw, "rakes %s\t%d\n", st, rep.Fleet[st])
	}
	fmt.Fprintf(tw, "maintenance due\t%v\n", rep.MaintenanceDue)
	return tw.Flush()
}
