package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run periodic ingestion and index rebuilds",
}

var schedulerRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler in the foreground",
	Long: `Runs the scheduler until interrupted. Two tasks are scheduled:

  argo-ingest    - ingest new files from the source directory
  index-rebuild  - rebuild the float vector index

Intervals and the misfire grace period are configured under [scheduler].`,
	Args: cobra.NoArgs,
	RunE: runScheduler,
}

var schedulerRunNowCmd = &cobra.Command{
	Use:       "run-now [task-id]",
	Short:     "Run a scheduled task immediately",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{domain.TaskIDArgoIngest, domain.TaskIDIndexRebuild},
	RunE:      runSchedulerRunNow,
}

func init() {
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerRunNowCmd)
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, _ []string) error {
	if schedulerService == nil {
		return errors.New("scheduler not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Println("Scheduler running (Ctrl+C to stop)...")
	err := schedulerService.Start(ctx)
	if stopErr := schedulerService.Stop(); stopErr != nil {
		return stopErr
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scheduler stopped: %w", err)
	}
	return nil
}

func runSchedulerRunNow(cmd *cobra.Command, args []string) error {
	if schedulerService == nil {
		return errors.New("scheduler not configured")
	}

	taskID := args[0]
	cmd.Printf("Running %s...\n", taskID)
	if err := schedulerService.RunNow(cmd.Context(), taskID); err != nil {
		if errors.Is(err, domain.ErrUnknownTask) {
			return fmt.Errorf("unknown task %q (valid: %s, %s)", taskID, domain.TaskIDArgoIngest, domain.TaskIDIndexRebuild)
		}
		return fmt.Errorf("task %s failed: %w", taskID, err)
	}
	cmd.Printf("Task %s completed.\n", taskID)
	return nil
}
