// Package cli provides the oceanai command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driving"
	"github.com/custodia-labs/oceanai-cli/internal/logger"
)

// version is set at build time via -ldflags or by SetVersion.
var version = "dev"

var verbose bool

// Services injected by main. A nil service makes its commands fail with a
// "not configured" error.
var (
	settingsService  driving.SettingsService
	ingestService    driving.IngestionService
	indexService     driving.IndexService
	searchService    driving.VectorSearchService
	searchInitErr    error
	queryRouter      driving.QueryRouter
	retrievalService driving.RetrievalService
	floatService     driving.FloatService
	schedulerService driving.Scheduler
)

// Services groups the driving ports used by the commands.
type Services struct {
	Settings  driving.SettingsService
	Ingest    driving.IngestionService
	Index     driving.IndexService
	Search    driving.VectorSearchService
	SearchErr error // why Search is nil, if known
	Router    driving.QueryRouter
	Retrieval driving.RetrievalService
	Floats    driving.FloatService
	Scheduler driving.Scheduler
}

var rootCmd = &cobra.Command{
	Use:   "oceanai",
	Short: "Query ARGO ocean float data",
	Long: `OceanAI ingests ARGO float profile files into a relational store,
indexes every float for semantic search and answers questions about the data.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices injects the services used by the commands.
func SetServices(s *Services) {
	settingsService = s.Settings
	ingestService = s.Ingest
	indexService = s.Index
	searchService = s.Search
	searchInitErr = s.SearchErr
	queryRouter = s.Router
	retrievalService = s.Retrieval
	floatService = s.Floats
	schedulerService = s.Scheduler
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
