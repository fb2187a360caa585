package memory

import (
	"sync"
	"time"

	"github.com/custodia-labs/oceanai-cli/internal/adapters/driven/config/convert"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is an in-memory implementation of driven.ConfigStore for testing.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore creates a new in-memory config store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		values: make(map[string]any),
	}
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	val, ok := s.Get(key)
	if !ok {
		return ""
	}
	return convert.String(val)
}

// GetInt retrieves an integer configuration value.
func (s *ConfigStore) GetInt(key string) int {
	val, _ := s.Get(key)
	n, _ := convert.Int(val)
	return n
}

// GetFloat retrieves a floating point configuration value.
func (s *ConfigStore) GetFloat(key string) float64 {
	val, _ := s.Get(key)
	f, _ := convert.Float(val)
	return f
}

// GetBool retrieves a boolean configuration value.
func (s *ConfigStore) GetBool(key string) bool {
	val, _ := s.Get(key)
	b, _ := convert.Bool(val)
	return b
}

// GetDuration retrieves a duration configuration value.
func (s *ConfigStore) GetDuration(key string) time.Duration {
	val, _ := s.Get(key)
	d, _ := convert.Duration(val)
	return d
}

// Set stores a configuration value.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Save persists the current configuration (no-op for memory store).
func (s *ConfigStore) Save() error {
	return nil
}

// Load reads configuration from storage (no-op for memory store).
func (s *ConfigStore) Load() error {
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return ":memory:"
}
