package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/oceanai-cli/internal/logger"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive console",
	Long: `Launch an interactive terminal console for asking questions and
searching floats.

When the scheduler is enabled it runs in the background while the console
is open.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Submit / Select
  c        - Show the data behind an answer
  n        - New question or search
  Esc      - Back
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// tuiPorts builds the console ports from the injected services.
func tuiPorts() *tui.Ports {
	return &tui.Ports{
		Retrieval: retrievalService,
		Search:    searchService,
		Floats:    floatService,
	}
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := tui.NewApp(tuiPorts())
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if schedulerService != nil && settingsService != nil && settingsService.GetSchedulerConfig().Enabled {
		go func() {
			if err := schedulerService.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("scheduler stopped", "error", err)
			}
		}()
		defer func() {
			if err := schedulerService.Stop(); err != nil {
				logger.Warn("stopping scheduler", "error", err)
			}
		}()
	}

	if err := app.WithContext(ctx).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
