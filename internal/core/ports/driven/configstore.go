package driven

import "time"

// ConfigStore provides access to application configuration.
// Keys use dot notation matching the TOML sections, e.g. "ingest.batch_size".
// Implementations handle persistence, environment overrides and type conversion.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string configuration value.
	// Returns empty string if key doesn't exist.
	GetString(key string) string

	// GetInt retrieves an integer configuration value.
	// String values are parsed. Returns 0 if the key doesn't exist or doesn't convert.
	GetInt(key string) int

	// GetFloat retrieves a floating point configuration value.
	GetFloat(key string) float64

	// GetBool retrieves a boolean configuration value.
	// Returns false if key doesn't exist or doesn't convert.
	GetBool(key string) bool

	// GetDuration retrieves a duration written as a Go duration string ("30s", "6h").
	// Returns 0 if the key doesn't exist or doesn't parse.
	GetDuration(key string) time.Duration

	// Set stores a configuration value.
	// The value is persisted immediately.
	Set(key string, value any) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
