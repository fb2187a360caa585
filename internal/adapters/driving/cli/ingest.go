package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/oceanai-cli/internal/adapters/driving/watcher"
	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

var (
	ingestWatch    bool
	ingestDebounce time.Duration
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Load ARGO profile files into the store",
	Long: `Scans the source directory for profile files that have not been loaded yet,
normalises them and appends their profiles to the store. Each file is loaded at
most once; the ingestion ledger records every loaded file.

With a file argument only that file is ingested. With --watch the command keeps
running and ingests new files as they appear.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep watching the source directory")
	ingestCmd.Flags().DurationVar(&ingestDebounce, "debounce", watcher.DefaultDebounce, "quiet period before a changed file is ingested")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingestion service not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		report domain.IngestReport
		err    error
	)
	if len(args) == 1 {
		report, err = ingestService.IngestFile(ctx, args[0])
	} else {
		cmd.Printf("Ingesting from %s...\n", ingestService.SourceDir())
		report, err = ingestService.Run(ctx)
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	printIngestReport(cmd, report)

	if !ingestWatch {
		return nil
	}
	return watchSource(ctx, cmd)
}

func watchSource(ctx context.Context, cmd *cobra.Command) error {
	opts := []watcher.Option{
		watcher.WithDebounce(ingestDebounce),
		watcher.OnIngest(func(path string, report domain.IngestReport, err error) {
			if err != nil {
				cmd.Printf("%s: %v\n", path, err)
				return
			}
			cmd.Printf("%s: %d loaded, %d rows\n", path, report.Loaded, report.Rows)
		}),
	}
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			opts = append(opts, watcher.WithExtension(settings.Ingest.Extension))
		}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s (Ctrl+C to stop)...\n", ingestService.SourceDir())
	w := watcher.New(ingestService, opts...)
	defer w.Close()
	return w.Watch(ctx)
}

func printIngestReport(cmd *cobra.Command, r domain.IngestReport) {
	cmd.Printf("Files: %d discovered, %d loaded, %d skipped, %d rejected, %d failed\n",
		r.Discovered, r.Loaded, r.Skipped, r.Rejected, r.Failed)
	cmd.Printf("Rows: %d inserted", r.Rows)
	if r.EmptyProfiles > 0 {
		cmd.Printf(", %d empty profiles dropped", r.EmptyProfiles)
	}
	if r.IngestionTimeFallbacks > 0 {
		cmd.Printf(", %d stamped with ingestion time", r.IngestionTimeFallbacks)
	}
	cmd.Println()
}
