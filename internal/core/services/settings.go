package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyStorageBackend  = "storage.backend"
	keyStorageDataDir  = "storage.data_dir"
	keyStoragePostgres = "storage.postgres_dsn"

	keyIngestSourceDir = "ingest.source_dir"
	keyIngestExtension = "ingest.extension"
	keyIngestLedger    = "ingest.ledger_path"
	keyIngestBatchSize = "ingest.batch_size"
	keyIngestRequireID = "ingest.require_instrument_id"

	keyIndexDir     = "index.dir"
	keyIndexRelated = "index.related_floats"

	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedDimensions  = "embedding.dimensions"
	keyEmbedRateLimit   = "embedding.rate_limit"
	keyEmbedConcurrency = "embedding.concurrency"

	keyLLMProvider = "llm.provider"
	keyLLMModel    = "llm.model"
	keyLLMBaseURL  = "llm.base_url"
	keyLLMAPIKey   = "llm.api_key"
	keyLLMTimeout  = "llm.timeout"

	keyDemoEnabled = "demo.enabled"

	keySchedulerEnabled = "scheduler.enabled"
	keySchedulerTick    = "scheduler.tick"
	keySchedulerGrace   = "scheduler.misfire_grace"
)

// defaultOllamaURL is filled in for local providers without a base URL.
const defaultOllamaURL = "http://localhost:11434"

// valueKind is the type a settings key accepts.
type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
	kindBackend
	kindEmbedProvider
	kindLLMProvider
)

// schedulerTaskKeys maps task IDs to their TOML section names.
var schedulerTaskKeys = map[string]string{
	domain.TaskIDArgoIngest:   "argo_ingest",
	domain.TaskIDIndexRebuild: "index_rebuild",
}

// settingKinds lists every key Set accepts.
var settingKinds = func() map[string]valueKind {
	kinds := map[string]valueKind{
		keyStorageBackend:   kindBackend,
		keyStorageDataDir:   kindString,
		keyStoragePostgres:  kindString,
		keyIngestSourceDir:  kindString,
		keyIngestExtension:  kindString,
		keyIngestLedger:     kindString,
		keyIngestBatchSize:  kindInt,
		keyIngestRequireID:  kindBool,
		keyIndexDir:         kindString,
		keyIndexRelated:     kindInt,
		keyEmbedProvider:    kindEmbedProvider,
		keyEmbedModel:       kindString,
		keyEmbedBaseURL:     kindString,
		keyEmbedAPIKey:      kindString,
		keyEmbedDimensions:  kindInt,
		keyEmbedRateLimit:   kindFloat,
		keyEmbedConcurrency: kindInt,
		keyLLMProvider:      kindLLMProvider,
		keyLLMModel:         kindString,
		keyLLMBaseURL:       kindString,
		keyLLMAPIKey:        kindString,
		keyLLMTimeout:       kindDuration,
		keyDemoEnabled:      kindBool,
		keySchedulerEnabled: kindBool,
		keySchedulerTick:    kindDuration,
		keySchedulerGrace:   kindDuration,
	}
	for _, section := range schedulerTaskKeys {
		kinds["scheduler."+section+".enabled"] = kindBool
		kinds["scheduler."+section+".interval"] = kindDuration
	}
	return kinds
}()

// SettingKeys returns every key accepted by Set, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	home        string
}

// NewSettingsService creates a new settings service.
// home is the application directory that default paths are relative to.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator, home string) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		home:        home,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings(s.home)

	settings := &domain.AppSettings{
		Storage: domain.StorageSettings{
			Backend:     s.getBackend(defaults.Storage.Backend),
			DataDir:     s.getString(keyStorageDataDir, defaults.Storage.DataDir),
			PostgresDSN: s.configStore.GetString(keyStoragePostgres),
		},
		Ingest: domain.IngestSettings{
			SourceDir:           s.getString(keyIngestSourceDir, defaults.Ingest.SourceDir),
			Extension:           s.getString(keyIngestExtension, defaults.Ingest.Extension),
			LedgerPath:          s.getString(keyIngestLedger, defaults.Ingest.LedgerPath),
			BatchSize:           s.getInt(keyIngestBatchSize, defaults.Ingest.BatchSize),
			RequireInstrumentID: s.getBool(keyIngestRequireID, defaults.Ingest.RequireInstrumentID),
		},
		Index: domain.IndexSettings{
			Dir:           s.getString(keyIndexDir, defaults.Index.Dir),
			RelatedFloats: s.getInt(keyIndexRelated, defaults.Index.RelatedFloats),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:    s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			BaseURL:     s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:      s.configStore.GetString(keyEmbedAPIKey),
			Dimensions:  s.configStore.GetInt(keyEmbedDimensions),
			RateLimit:   s.getFloat(keyEmbedRateLimit, defaults.Embedding.RateLimit),
			Concurrency: s.getInt(keyEmbedConcurrency, defaults.Embedding.Concurrency),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
			Timeout:  s.getDuration(keyLLMTimeout, defaults.LLM.Timeout),
		},
		DemoData: s.getBool(keyDemoEnabled, defaults.DemoData),
	}

	settings.Embedding.Model = s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[settings.Embedding.Provider])
	settings.LLM.Model = s.getString(keyLLMModel, domain.DefaultLLMModels()[settings.LLM.Provider])

	return settings, nil
}

// Set stores a single setting by dot-notation key. String values are parsed
// into the key's type so CLI input and TOML values end up identical.
func (s *SettingsService) Set(key string, value any) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	parsed, err := parseSetting(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func parseSetting(kind valueKind, value any) (any, error) {
	str, isString := value.(string)
	if !isString {
		str = fmt.Sprint(value)
	}
	str = strings.TrimSpace(str)

	switch kind {
	case kindInt:
		n, err := strconv.Atoi(str)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", str)
		}
		if n < 0 {
			return nil, fmt.Errorf("must not be negative: %d", n)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", str)
		}
		if f < 0 {
			return nil, fmt.Errorf("must not be negative: %g", f)
		}
		return f, nil
	case kindBool:
		b, err := strconv.ParseBool(str)
		if err != nil {
			return nil, fmt.Errorf("not a boolean: %q", str)
		}
		return b, nil
	case kindDuration:
		d, err := time.ParseDuration(str)
		if err != nil {
			return nil, fmt.Errorf("not a duration: %q", str)
		}
		if d <= 0 {
			return nil, fmt.Errorf("must be positive: %s", d)
		}
		// Durations are stored as strings ("30s") so the file stays readable.
		return d.String(), nil
	case kindBackend:
		if !domain.StorageBackend(str).IsValid() {
			return nil, fmt.Errorf("unknown storage backend %q (sqlite or postgres)", str)
		}
		return str, nil
	case kindEmbedProvider:
		if !supportsEmbedding(domain.AIProvider(str)) {
			return nil, fmt.Errorf("provider %q does not support embeddings", str)
		}
		return str, nil
	case kindLLMProvider:
		if !supportsLLM(domain.AIProvider(str)) {
			return nil, fmt.Errorf("provider %q does not support text generation", str)
		}
		return str, nil
	default:
		if !isString {
			return value, nil
		}
		return str, nil
	}
}

func supportsEmbedding(p domain.AIProvider) bool {
	for _, candidate := range domain.AllEmbeddingProviders() {
		if p == candidate {
			return true
		}
	}
	return false
}

func supportsLLM(p domain.AIProvider) bool {
	for _, candidate := range domain.AllLLMProviders() {
		if p == candidate {
			return true
		}
	}
	return false
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !supportsEmbedding(provider) {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}

	baseURL := ""
	if provider == domain.AIProviderOllama {
		baseURL = s.configStore.GetString(keyEmbedBaseURL)
		if baseURL == "" {
			baseURL = defaultOllamaURL
		}
	}

	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, provider.String()},
		{keyEmbedModel, model},
		{keyEmbedBaseURL, baseURL},
		{keyEmbedAPIKey, apiKey},
		// A model change invalidates any dimension override.
		{keyEmbedDimensions, domain.EmbeddingDimensions()[model]},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// SetLLMProvider configures the LLM provider. AIProviderNone disables generation.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !supportsLLM(provider) {
		return fmt.Errorf("%w: provider %s does not support text generation", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}

	baseURL := ""
	if provider.IsLocal() {
		baseURL = s.configStore.GetString(keyLLMBaseURL)
		if baseURL == "" {
			baseURL = defaultOllamaURL
		}
	}

	values := []struct {
		key   string
		value any
	}{
		{keyLLMProvider, provider.String()},
		{keyLLMModel, model},
		{keyLLMBaseURL, baseURL},
		{keyLLMAPIKey, apiKey},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Validate checks that the current settings are usable without contacting
// any provider.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if settings.Storage.Backend == domain.StoragePostgres && settings.Storage.PostgresDSN == "" {
		return fmt.Errorf("%w: storage backend postgres requires %s", domain.ErrInvalidInput, keyStoragePostgres)
	}
	if !strings.HasPrefix(settings.Ingest.Extension, ".") {
		return fmt.Errorf("%w: %s must start with a dot, got %q",
			domain.ErrInvalidInput, keyIngestExtension, settings.Ingest.Extension)
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %q is not fully configured",
			domain.ErrInvalidInput, settings.Embedding.Provider)
	}
	if settings.LLM.Provider != domain.AIProviderNone && !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: LLM provider %q is not fully configured",
			domain.ErrInvalidInput, settings.LLM.Provider)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings(s.home)
}

// ConfigPath returns the path of the backing configuration file.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(ctx, &settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(ctx, &settings.LLM)
}

// GetSchedulerConfig returns the scheduler configuration.
// Returns default configuration if nothing is configured.
func (s *SettingsService) GetSchedulerConfig() domain.SchedulerConfig {
	cfg := domain.DefaultSchedulerConfig()

	cfg.Enabled = s.getBool(keySchedulerEnabled, cfg.Enabled)
	cfg.Tick = s.getDuration(keySchedulerTick, cfg.Tick)
	cfg.MisfireGrace = s.getDuration(keySchedulerGrace, cfg.MisfireGrace)

	for taskID, section := range schedulerTaskKeys {
		prefix := "scheduler." + section + "."
		taskCfg := cfg.TaskConfigs[taskID]
		taskCfg.Enabled = s.getBool(prefix+"enabled", taskCfg.Enabled)
		taskCfg.Interval = s.getDuration(prefix+"interval", taskCfg.Interval)
		cfg.TaskConfigs[taskID] = taskCfg
	}

	return cfg
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetDuration(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	backend := domain.StorageBackend(s.configStore.GetString(keyStorageBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if provider != domain.AIProviderNone && !provider.IsValid() {
		return defaultVal
	}
	return provider
}
