package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rakeplan/pkg/export"
)

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule <route-id>",
	Short: "Shift low priority schedules to free rakes for a route",
	Args:  cobra.ExactArgs(1),
	RunE:  runReschedule,
}

func init() {
	rootCmd.AddCommand(rescheduleCmd)
}

func runReschedule(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	res, err := svc.Reschedule(args[0])
	if err != nil {
		return err
	}
	if asJSON {
		return export.WriteJSON(cmd.OutOrStdout(), res)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d schedules shifted for %s\n", res.Rescheduled, args[0])
	return printSchedules(cmd.OutOrStdout(), res.Updated)
}
