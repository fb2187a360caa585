package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/services"
)

// settingsInput is where interactive commands read from.
var settingsInput io.Reader = os.Stdin

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure storage, ingestion, AI providers and the scheduler.

Settings are stored in ~/.oceanai/config.toml. Any key can be overridden with
an OCEANAI_<KEY> environment variable, e.g. OCEANAI_STORAGE_POSTGRES_DSN.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Set a single setting by its dotted key, e.g.

  oceanai settings set storage.backend postgres
  oceanai settings set scheduler.argo_ingest.interval 3h

When the value is omitted it is read from the terminal without echo,
which is useful for API keys. Run 'oceanai settings keys' for all keys.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List every setting key",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, key := range services.SettingKeys() {
			cmd.Println(key)
		}
	},
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used to build and search the float index.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider that phrases answers. Choose Disabled to always use the built-in summaries.`,
	RunE:  runSettingsLLM,
}

var settingsTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Check that the configured AI providers are reachable",
	Args:  cobra.NoArgs,
	RunE:  runSettingsTest,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsTestCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Printf("Config file: %s\n", settingsService.ConfigPath())
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend)
	cmd.Printf("  Data dir: %s\n", settings.Storage.DataDir)
	if settings.Storage.Backend == domain.StoragePostgres {
		cmd.Printf("  Postgres DSN: %s\n", maskDSN(settings.Storage.PostgresDSN))
	}
	cmd.Println()

	cmd.Println("[Ingest]")
	cmd.Printf("  Source dir: %s\n", settings.Ingest.SourceDir)
	cmd.Printf("  Extension: %s\n", settings.Ingest.Extension)
	cmd.Printf("  Ledger: %s\n", settings.Ingest.LedgerPath)
	cmd.Printf("  Batch size: %d\n", settings.Ingest.BatchSize)
	cmd.Printf("  Require instrument ID: %t\n", settings.Ingest.RequireInstrumentID)
	cmd.Println()

	cmd.Println("[Index]")
	cmd.Printf("  Dir: %s\n", settings.Index.Dir)
	cmd.Printf("  Related floats: %d\n", settings.Index.RelatedFloats)
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.Provider == domain.AIProviderOllama {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	printAPIKey(cmd, settings.Embedding.Provider, settings.Embedding.APIKey)
	cmd.Printf("  Status: %s\n", configuredStatus(settings.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	if settings.LLM.Provider != domain.AIProviderNone {
		cmd.Printf("  Model: %s\n", settings.LLM.Model)
		if settings.LLM.Provider == domain.AIProviderOllama {
			cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
		}
		printAPIKey(cmd, settings.LLM.Provider, settings.LLM.APIKey)
		cmd.Printf("  Timeout: %s\n", settings.LLM.Timeout)
		cmd.Printf("  Status: %s\n", configuredStatus(settings.LLM.IsConfigured()))
	}
	cmd.Println()

	if settings.DemoData {
		cmd.Println("[Demo]")
		cmd.Println("  Sample data is served when the store is unavailable.")
		cmd.Println()
	}

	sched := settingsService.GetSchedulerConfig()
	cmd.Println("[Scheduler]")
	cmd.Printf("  Enabled: %t (tick %s, misfire grace %s)\n", sched.Enabled, sched.Tick, sched.MisfireGrace)
	for _, id := range []string{domain.TaskIDArgoIngest, domain.TaskIDIndexRebuild} {
		tc := sched.GetTaskConfig(id)
		cmd.Printf("  %s: every %s (enabled: %t)\n", id, tc.Interval, tc.Enabled)
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'oceanai settings set' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	var value string
	if len(args) == 2 {
		value = args[1]
	} else {
		cmd.Printf("Enter value for %s: ", key)
		value = readPassword(settingsInput)
		cmd.Println()
	}

	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	if strings.HasSuffix(key, "api_key") || strings.HasSuffix(key, "dsn") {
		cmd.Printf("%s updated.\n", key)
	} else {
		cmd.Printf("%s = %s\n", key, value)
	}
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(settingsInput)
	return configureEmbeddingProvider(cmd, reader)
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(settingsInput)
	return configureLLMProvider(cmd, reader)
}

func runSettingsTest(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	var failed bool
	cmd.Print("Embedding provider... ")
	if err := settingsService.ValidateEmbeddingConfig(cmd.Context()); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		failed = true
	} else {
		cmd.Println("OK")
	}

	cmd.Print("LLM provider... ")
	if err := settingsService.ValidateLLMConfig(cmd.Context()); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		failed = true
	} else {
		cmd.Println("OK")
	}

	if failed {
		return errors.New("provider check failed")
	}
	return nil
}

//nolint:dupl // Similar to configureLLMProvider but for embeddings - intentional for CLI flow clarity
func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	defaults := domain.DefaultEmbeddingModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readLine(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetEmbeddingProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(cmd.Context()); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n", selectedProvider.Description(), model)
	cmd.Println("Run 'oceanai index build' to rebuild the index with the new model.")
	return nil
}

//nolint:dupl // Similar to configureEmbeddingProvider but for LLM - intentional for CLI flow clarity
func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	if selectedProvider == domain.AIProviderNone {
		if err := settingsService.SetLLMProvider(selectedProvider, "", ""); err != nil {
			return fmt.Errorf("failed to configure LLM provider: %w", err)
		}
		cmd.Println("LLM disabled: answers use the built-in summaries.")
		return nil
	}

	defaults := domain.DefaultLLMModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readLine(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(cmd.Context()); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n", selectedProvider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads a line without echo when r is a terminal.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(r io.Reader) string {
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	input, _ := bufio.NewReader(r).ReadString('\n')
	return strings.TrimSpace(input)
}

func printAPIKey(cmd *cobra.Command, provider domain.AIProvider, key string) {
	if !provider.RequiresAPIKey() {
		return
	}
	if key != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(key))
	} else {
		cmd.Printf("  API Key: (not set)\n")
	}
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskDSN hides the password of a postgres connection string.
func maskDSN(dsn string) string {
	if dsn == "" {
		return "(not set)"
	}
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPassword := strings.Cut(userinfo, ":")
	if !hasPassword {
		return dsn
	}
	return scheme + "://" + user + ":****@" + host
}
