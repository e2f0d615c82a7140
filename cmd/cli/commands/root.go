// Package commands implements the try-on command line client
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tryonlabs/tryon/internal/constants"
	"github.com/tryonlabs/tryon/pkg/api/v1/client"
	"github.com/tryonlabs/tryon/pkg/api/v1/routes"
)

// flag names
const (
	flagServerAddress = "server-address"
	flagUserID        = "user-id"
	flagCronSecret    = "cron-secret"
)

// environment variable names
const (
	envServerAddress = "TRYON_SERVER_ADDRESS"
	envUserID        = "TRYON_USER_ID"
)

var (
	// apiClient is the shared API client instance
	apiClient client.Client
	// serverAddress holds the target API server address. Flag parsing sets this.
	serverAddress string
	userID        string
	cronSecret    string
)

// initClient initializes the API client
func initClient() error {
	opts := client.DefaultOptions()
	opts.BaseURL = serverAddress
	opts.UserID = userID
	opts.CronSecret = cronSecret

	var err error
	apiClient, err = client.NewClient(opts)
	return err
}

func init() {
	// Defaults only; PersistentPreRunE applies the env var overrides.
	RootCmd.PersistentFlags().StringVarP(&serverAddress, flagServerAddress, "s", routes.DefaultBaseURL, "Address of the try-on API server (env: "+envServerAddress+")")
	RootCmd.PersistentFlags().StringVarP(&userID, flagUserID, "u", "", "User id sent as X-User-ID (env: "+envUserID+")")
	RootCmd.PersistentFlags().StringVar(&cronSecret, flagCronSecret, "", "Cron secret for the sweep command (env: "+constants.EnvCronSecret+")")

	RootCmd.AddCommand(GetTryOnCmd())
	RootCmd.AddCommand(GetQuotaCmd())
	RootCmd.AddCommand(GetSweepCmd())
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "tryon",
	Short: "Try-on CLI - A command line interface for the try-on API",
	Long: `Try-on CLI submits virtual try-on jobs, follows them to completion and
inspects quota through the try-on HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Flag > Env Var > Default
		applyEnv(cmd, flagServerAddress, envServerAddress, &serverAddress)
		applyEnv(cmd, flagUserID, envUserID, &userID)
		applyEnv(cmd, flagCronSecret, constants.EnvCronSecret, &cronSecret)

		if serverAddress == "" {
			return fmt.Errorf("server address cannot be empty")
		}
		return initClient()
	},
}

// applyEnv overrides target with the env var unless the flag was set explicitly
func applyEnv(cmd *cobra.Command, flag, env string, target *string) {
	if cmd.Flags().Changed(flag) {
		return
	}
	if v := os.Getenv(env); v != "" {
		*target = v
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}

// requireUserID fails early when no user id was configured
func requireUserID() error {
	if userID == "" {
		return fmt.Errorf("user id is required, set --%s or %s", flagUserID, envUserID)
	}
	return nil
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v interface{}) error {
	prettyJSON, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error formatting response: %w", err)
	}
	_, err = fmt.Fprintln(w, string(prettyJSON))
	return err
}
