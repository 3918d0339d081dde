package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rakeplan/core/model"
	"github.com/kilianp07/rakeplan/pkg/export"
)

var (
	exportDir       string
	exportAll       string
	exportForecasts bool
	exportPlan      bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the fleet, schedules and forecasts as CSV",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportDir, "out", "o", "export", "directory receiving one CSV file per entity")
	exportCmd.Flags().StringVar(&exportAll, "all", "", "also write the complete dataset to this file (- for stdout)")
	exportCmd.Flags().BoolVar(&exportForecasts, "forecasts", true, "include tomorrow's demand forecasts")
	exportCmd.Flags().BoolVar(&exportPlan, "plan", false, "run the planner first so created schedules are exported")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	if exportPlan {
		ctx, stop := signalContext(context.Background())
		defer stop()
		if _, err := svc.Plan(ctx, svc.DefaultPeriod()); err != nil {
			return err
		}
	}
	var forecasts []model.DemandForecast
	if exportForecasts {
		forecasts = svc.Forecast(svc.DefaultPeriod().Start.AddDate(0, 0, 1))
	}
	ds := svc.Dataset()
	if err := export.WriteDir(exportDir, ds, forecasts); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "exported to %s\n", exportDir)

	switch exportAll {
	case "":
		return nil
	case "-":
		return export.WriteAll(cmd.OutOrStdout(), ds, forecasts, svc.DefaultPeriod().Start)
	default:
		f, err := os.Create(exportAll)
		if err != nil {
			return err
		}
		if err := export.WriteAll(f, ds, forecasts, svc.DefaultPeriod().Start); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	}
}
