package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

const flagSweepTaskID = "task-id"

func init() {
	sweepCmd.Flags().String(flagSweepTaskID, "", "Poll only this task")
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Trigger the completion sweep through the cron endpoint",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cronSecret == "" {
			return fmt.Errorf("cron secret is required, set --%s", flagCronSecret)
		}

		if taskID, _ := cmd.Flags().GetString(flagSweepTaskID); taskID != "" {
			view, err := apiClient.CronPollTask(cmd.Context(), taskID)
			if err != nil {
				return fmt.Errorf("error polling task: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), view)
		}

		report, err := apiClient.CronSweep(cmd.Context())
		if err != nil {
			return fmt.Errorf("error running sweep: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), report)
	},
}

// GetSweepCmd returns the sweep command
func GetSweepCmd() *cobra.Command {
	return sweepCmd
}
