package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rakeplan/core/model"
	"github.com/kilianp07/rakeplan/core/scheduler"
	"github.com/kilianp07/rakeplan/pkg/export"
)

var (
	planStart       string
	planDays        int
	planConstraints string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Forecast demand and assign rakes to routes",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planStart, "start", "", "period start, RFC3339 (default now)")
	planCmd.Flags().IntVar(&planDays, "days", 7, "length of the planning period in days")
	planCmd.Flags().StringVar(&planConstraints, "constraints", "", "scheduling constraints file (yaml or json) replacing the scheduling section")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	if planConstraints != "" {
		c, err := scheduler.LoadConfig(planConstraints)
		if err != nil {
			return fmt.Errorf("load constraints: %w", err)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("constraints %s: %w", planConstraints, err)
		}
		cfg.Scheduling = c
	}
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	period := svc.DefaultPeriod()
	if planStart != "" {
		if period.Start, err = time.Parse(time.RFC3339, planStart); err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
	}
	period.End = period.Start.AddDate(0, 0, planDays)

	ctx, stop := signalContext(context.Background())
	defer stop()
	res, err := svc.Plan(ctx, period)
	if err != nil {
		return err
	}
	if asJSON {
		return export.WriteJSON(cmd.OutOrStdout(), res)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %d schedules created\n", res.RunID, len(res.Created))
	if err := printSchedules(out, res.Created); err != nil {
		return err
	}
	if res.PublishFailures > 0 {
		fmt.Fprintf(out, "%d schedules could not be published\n", res.PublishFailures)
	}
	return nil
}

func printSchedules(w io.Writer, schedules []model.Schedule) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCHEDULE\tRAKE\tROUTE\tDEPARTURE\tARRIVAL\tSTATUS\tCARGO")
	for _, s := range schedules {
		cargo := "-"
		if s.Cargo != nil {
			cargo = fmt.Sprintf("%s %.0ft", s.Cargo.Type, s.Cargo.WeightTons)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.RakeID, s.RouteID,
			s.Departure.Format("2006-01-02 15:04"), s.Arrival.Format("2006-01-02 15:04"), s.Status, cargo)
	}
	return tw.Flush()
}
