package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show your remaining try-on quota",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := requireUserID(); err != nil {
			return err
		}
		status, err := apiClient.GetQuota(cmd.Context())
		if err != nil {
			return fmt.Errorf("error getting quota: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), status)
	},
}

// GetQuotaCmd returns the quota command
func GetQuotaCmd() *cobra.Command {
	return quotaCmd
}
