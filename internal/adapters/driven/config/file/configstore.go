package file

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/oceanai-cli/internal/adapters/driven/config/convert"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// EnvPrefix prefixes environment variables that override file values.
// "storage.postgres_dsn" is overridden by OCEANAI_STORAGE_POSTGRES_DSN.
const EnvPrefix = "OCEANAI_"

// ConfigStore is a file-based implementation of driven.ConfigStore using TOML.
// Configuration is stored in config.toml within the oceanai home directory.
// Environment variables take precedence over the file but are never persisted.
type ConfigStore struct {
	mu        sync.RWMutex
	filePath  string
	data      map[string]any
	lookupEnv func(string) (string, bool)
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.oceanai/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".oceanai")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath:  filepath.Join(configDir, "config.toml"),
		data:      make(map[string]any),
		lookupEnv: os.LookupEnv,
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	return s, nil
}

// EnvKey returns the environment variable that overrides key.
func EnvKey(key string) string {
	return EnvPrefix + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

// Get retrieves a configuration value by key. Environment overrides win.
func (s *ConfigStore) Get(key string) (any, bool) {
	if v, ok := s.lookupEnv(EnvKey(key)); ok {
		return v, true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
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
	val, ok := s.Get(key)
	if !ok {
		return 0
	}
	n, _ := convert.Int(val)
	return n
}

// GetFloat retrieves a floating point configuration value.
func (s *ConfigStore) GetFloat(key string) float64 {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}
	f, _ := convert.Float(val)
	return f
}

// GetBool retrieves a boolean configuration value.
func (s *ConfigStore) GetBool(key string) bool {
	val, ok := s.Get(key)
	if !ok {
		return false
	}
	b, _ := convert.Bool(val)
	return b
}

// GetDuration retrieves a duration configuration value.
func (s *ConfigStore) GetDuration(key string) time.Duration {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}
	d, _ := convert.Duration(val)
	return d
}

// Set stores a configuration value and persists immediately.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := value.(time.Duration); ok {
		value = d.String()
	}
	s.data[key] = value
	return s.save()
}

// Save persists the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes configuration to the TOML file (caller must hold lock).
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(unflattenMap(s.data))
	if err != nil {
		return err
	}

	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads configuration from the TOML file.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.data = make(map[string]any)
			return nil
		}
		return err
	}

	var loaded map[string]any
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return err
	}

	s.data = flattenMap(loaded, "")
	return nil
}

// Keys returns every key stored in the file, sorted.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// flattenMap converts nested maps to dot-notation keys.
// E.g., {"a": {"b": 1}} becomes {"a.b": 1}.
func flattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)

	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			for k, v := range flattenMap(nested, fullKey) {
				result[k] = v
			}
		} else {
			result[fullKey] = value
		}
	}

	return result
}

// unflattenMap nests dot-notation keys back into TOML tables.
// A key that is both a leaf and a table prefix keeps its dotted form.
func unflattenMap(flat map[string]any) map[string]any {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	root := make(map[string]any)
	for _, key := range keys {
		parts := strings.Split(key, ".")
		node := root
		ok := true
		for _, part := range parts[:len(parts)-1] {
			child, exists := node[part]
			if !exists {
				next := make(map[string]any)
				node[part] = next
				node = next
				continue
			}
			next, isMap := child.(map[string]any)
			if !isMap {
				ok = false
				break
			}
			node = next
		}
		if !ok {
			root[key] = flat[key]
			continue
		}
		node[parts[len(parts)-1]] = flat[key]
	}
	return root
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
