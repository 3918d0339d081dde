package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rakeplan/core/model"
	"github.com/kilianp07/rakeplan/pkg/export"
)

var (
	forecastDate  string
	forecastRoute string
	forecastDays  int
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast route demand",
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().StringVar(&forecastDate, "date", "", "target date YYYY-MM-DD (default today)")
	forecastCmd.Flags().StringVar(&forecastRoute, "route", "", "forecast a single route over --days")
	forecastCmd.Flags().IntVar(&forecastDays, "days", 7, "number of days forecast for --route")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, _ []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	date := svc.DefaultPeriod().Start
	if forecastDate != "" {
		if date, err = time.Parse("2006-01-02", forecastDate); err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}
	var out []model.DemandForecast
	if forecastRoute != "" {
		if out, err = svc.ForecastHorizon(forecastRoute, date, forecastDays); err != nil {
			return err
		}
	} else {
		out = svc.Forecast(date)
	}
	if asJSON {
		return export.WriteJSON(cmd.OutOrStdout(), out)
	}
	names := map[string]string{}
	for _, r := range svc.Dataset().Routes {
		names[r.ID] = r.Name
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROUTE\tNAME\tDATE\tDEMAND\tCONFIDENCE\tFACTORS")
	for _, f := range out {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.0f%%\t%s\n", f.RouteID, names[f.RouteID],
			f.Date.Format("2006-01-02"), f.PredictedDemand, f.Confidence*100, strings.Join(f.Factors, ", "))
	}
	return tw.Flush()
}
