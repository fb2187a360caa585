package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the float vector index",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild the vector index from the store",
	Long: `Embeds one descriptive document per float and publishes the result as a
new index generation. Readers keep using the previous generation until the new
one is complete.`,
	Args: cobra.NoArgs,
	RunE: runIndexBuild,
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active index generation",
	Args:  cobra.NoArgs,
	RunE:  runIndexStatus,
}

func init() {
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexStatusCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexBuild(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	cmd.Println("Building index...")
	meta, err := indexService.Build(cmd.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoDocuments) {
			return errors.New("no floats in the store: run 'oceanai ingest' first")
		}
		return fmt.Errorf("index build failed: %w", err)
	}

	printIndexMeta(cmd, meta)
	return nil
}

func runIndexStatus(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	meta, err := indexService.Status(cmd.Context())
	if err != nil {
		if errors.Is(err, domain.ErrIndexNotFound) {
			cmd.Println("No index built. Run 'oceanai index build'.")
			return nil
		}
		return fmt.Errorf("reading index status: %w", err)
	}

	printIndexMeta(cmd, meta)
	return nil
}

func printIndexMeta(cmd *cobra.Command, meta domain.IndexMeta) {
	cmd.Printf("Generation: %s\n", meta.Generation)
	cmd.Printf("Model: %s (%d dimensions)\n", meta.Model, meta.Dimensions)
	cmd.Printf("Floats: %d\n", meta.Count)
	if !meta.BuiltAt.IsZero() {
		cmd.Printf("Built: %s\n", meta.BuiltAt.Local().Format(time.DateTime))
	}
}
