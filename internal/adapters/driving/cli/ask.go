package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var (
	askJSON    bool
	askContext bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the float data",
	Long: `Classifies the question into a data query, runs it against the profile
store and phrases an answer. Without an LLM provider, or when generation fails,
a deterministic summary of the data is returned instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var classifyCmd = &cobra.Command{
	Use:   "classify [question]",
	Short: "Show which data query a question maps to",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVar(&askContext, "context", false, "print the data the answer is based on")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(classifyCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	question := strings.Join(args, " ")
	answer := retrievalService.Ask(cmd.Context(), question)

	if askJSON {
		return printJSON(cmd, answer)
	}

	cmd.Println(answer.Text)
	if len(answer.RelatedFloats) > 0 {
		ids := make([]string, len(answer.RelatedFloats))
		for i, id := range answer.RelatedFloats {
			ids[i] = formatInt(id)
		}
		cmd.Printf("\nRelated floats: %s\n", strings.Join(ids, ", "))
	}
	if askContext && answer.Context != nil {
		cmd.Println()
		cmd.Printf("Query: %s (%s)\n", answer.Intent.Description(), answer.Source)
		return printJSON(cmd, answer.Context)
	}
	return nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	if queryRouter == nil {
		return errors.New("query router not configured")
	}

	route := queryRouter.Classify(strings.Join(args, " "))

	cmd.Printf("Intent: %s (%s)\n", route.Intent, route.Intent.Description())
	if route.Template.IsEmpty() {
		cmd.Println("Query: none")
		return nil
	}
	cmd.Printf("Query: %s", route.Template.Shape)
	if route.Template.Measurement != "" {
		cmd.Printf(" of %s", route.Template.Measurement)
	}
	if route.Template.Limit > 0 {
		cmd.Printf(", limit %d", route.Template.Limit)
	}
	if route.Template.Window > 0 {
		cmd.Printf(", last %s", route.Template.Window)
	}
	cmd.Println()
	return nil
}
