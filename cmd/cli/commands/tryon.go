package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tryonlabs/tryon/internal/types"
	"github.com/tryonlabs/tryon/pkg/api/v1/client"
	"github.com/tryonlabs/tryon/pkg/api/v1/handlers"
)

// Try-on flag names
const (
	flagUserImage    = "user-image"
	flagItemImage    = "item-image"
	flagItemType     = "item-type"
	flagWait         = "wait"
	flagPollInterval = "poll-interval"
	flagWaitTimeout  = "wait-timeout"
	flagTaskID       = "id"
	flagPage         = "page"
	flagLimit        = "limit"
	flagStatus       = "status"
)

func init() {
	tryOnCmd.AddCommand(submitCmd)
	tryOnCmd.AddCommand(statusCmd)
	tryOnCmd.AddCommand(listCmd)

	submitCmd.Flags().StringP(flagUserImage, "p", "", "Path to the photo of the person")
	submitCmd.Flags().StringP(flagItemImage, "i", "", "Path to the item image")
	submitCmd.Flags().StringP(flagItemType, "t", "glasses", "Item type (glasses, hat, earrings, necklace, clothing)")
	submitCmd.Flags().BoolP(flagWait, "w", false, "Poll until the task finishes")
	submitCmd.Flags().Duration(flagPollInterval, 3*time.Second, "Interval between polls with --wait")
	submitCmd.Flags().Duration(flagWaitTimeout, 5*time.Minute, "Give up waiting after this long")
	_ = submitCmd.MarkFlagRequired(flagUserImage)
	_ = submitCmd.MarkFlagRequired(flagItemImage)

	statusCmd.Flags().String(flagTaskID, "", "Task id")
	_ = statusCmd.MarkFlagRequired(flagTaskID)

	listCmd.Flags().IntP(flagPage, "g", 1, "Page number for pagination")
	listCmd.Flags().Int(flagLimit, 0, "Page size")
	listCmd.Flags().String(flagStatus, "", "Filter by status (pending, processing, completed, failed)")
}

var tryOnCmd = &cobra.Command{
	Use:   "tryon",
	Short: "Submit and follow try-on tasks",
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a try-on from two local images",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := requireUserID(); err != nil {
			return err
		}

		userImagePath, _ := cmd.Flags().GetString(flagUserImage)
		itemImagePath, _ := cmd.Flags().GetString(flagItemImage)
		itemType, _ := cmd.Flags().GetString(flagItemType)

		userImage, err := os.ReadFile(userImagePath)
		if err != nil {
			return fmt.Errorf("error reading user image: %w", err)
		}
		itemImage, err := os.ReadFile(itemImagePath)
		if err != nil {
			return fmt.Errorf("error reading item image: %w", err)
		}

		resp, err := apiClient.SubmitTryOn(cmd.Context(), client.SubmitParams{
			UserImage:     userImage,
			UserImageName: filepath.Base(userImagePath),
			ItemImage:     itemImage,
			ItemImageName: filepath.Base(itemImagePath),
			ItemType:      itemType,
		})
		if err != nil {
			return fmt.Errorf("error submitting try-on: %w", err)
		}

		wait, _ := cmd.Flags().GetBool(flagWait)
		if !wait || !resp.IsAsync {
			return printJSON(cmd.OutOrStdout(), resp)
		}

		interval, _ := cmd.Flags().GetDuration(flagPollInterval)
		timeout, _ := cmd.Flags().GetDuration(flagWaitTimeout)
		view, err := waitForTask(cmd.Context(), apiClient, resp.TaskID, interval, timeout)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), view)
	},
}

// waitForTask polls until the task is terminal or the timeout expires
func waitForTask(ctx context.Context, c client.Client, taskID string, interval, timeout time.Duration) (types.TaskView, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		view, err := c.GetTryOn(ctx, taskID)
		if err != nil {
			return types.TaskView{}, fmt.Errorf("error polling task %s: %w", taskID, err)
		}
		if view.Status.IsTerminal() {
			return view, nil
		}

		select {
		case <-ctx.Done():
			return types.TaskView{}, fmt.Errorf("task %s still %s after %s", taskID, view.Status, timeout)
		case <-ticker.C:
		}
	}
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Poll a task and print its current state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := requireUserID(); err != nil {
			return err
		}
		taskID, _ := cmd.Flags().GetString(flagTaskID)
		if taskID == "" {
			return fmt.Errorf("task id cannot be empty")
		}

		view, err := apiClient.GetTryOn(cmd.Context(), taskID)
		if err != nil {
			return fmt.Errorf("error getting task: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), view)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your try-on history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := requireUserID(); err != nil {
			return err
		}
		page, _ := cmd.Flags().GetInt(flagPage)
		limit, _ := cmd.Flags().GetInt(flagLimit)
		status, _ := cmd.Flags().GetString(flagStatus)

		resp, err := apiClient.ListTryOns(cmd.Context(), handlers.TaskListParams{
			Page:   page,
			Limit:  limit,
			Status: status,
		})
		if err != nil {
			return fmt.Errorf("error listing tasks: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

// GetTryOnCmd returns the tryon command
func GetTryOnCmd() *cobra.Command {
	return tryOnCmd
}
