package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find floats similar to a query",
	Long: `Embeds the query and returns the nearest floats in the vector index.
Run 'oceanai index build' first to create the index.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "maximum number of floats")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := requireSearch(); err != nil {
		return err
	}

	matches := searchService.Nearest(cmd.Context(), args[0], searchLimit)

	if searchJSON {
		if matches == nil {
			matches = []domain.FloatMatch{}
		}
		return printJSON(cmd, matches)
	}

	if len(matches) == 0 {
		cmd.Println("No floats found.")
		return nil
	}

	cmd.Println("Nearest floats:")
	cmd.Println()
	for i, m := range matches {
		cmd.Printf("  [%d] float %d (distance %.4f)\n", i+1, m.InstrumentID, m.Distance)
	}
	return nil
}

// printJSON writes v as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// requireSearch reports why no vector index is loaded, if none is.
func requireSearch() error {
	if searchService != nil {
		return nil
	}
	if searchInitErr != nil {
		return fmt.Errorf("vector index not loaded: %w", searchInitErr)
	}
	return errors.New("vector index not loaded: run 'oceanai index build' first")
}
