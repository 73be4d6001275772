package habits

import (
	"os"

	"github.com/fianchetto-labs/habits/internal/store"
)

// Config configures the habits client.
type Config struct {
	// LocalPath is the path to the local SQLite database.
	// If empty and Store is set, LocalPath is derived from Store.
	LocalPath string

	// Store is the store ID to operate against.
	// If empty, resolved as explicit > HABITS_STORE env > "default".
	Store string

	// UserAgent identifies this client to the chess.com published-data
	// API when fetching game archives. The API rejects anonymous
	// clients, so a contact address is expected.
	UserAgent string

	// Debug enables verbose logging of pipeline stages and API
	// communications.
	Debug bool

	// DebugLogPath is the path to write debug logs.
	// Defaults to stderr if empty.
	DebugLogPath string
}

// DefaultConfig returns a Config with sensible defaults.
// Store defaults to "default", and LocalPath is derived from Store.
func DefaultConfig() Config {
	return Config{
		Store:     "default",
		LocalPath: store.DBPath("default"),
	}
}

// ConfigFromEnv reads configuration from environment variables.
//
//	HABITS_DB_PATH      → LocalPath
//	HABITS_STORE        → Store
//	HABITS_DEBUG        → Debug (any non-empty value enables)
//	HABITS_DEBUG_LOG    → DebugLogPath
//	CHESSCOM_USER_AGENT → UserAgent
func ConfigFromEnv() Config {
	return Config{
		LocalPath:    os.Getenv("HABITS_DB_PATH"),
		Store:        os.Getenv("HABITS_STORE"),
		UserAgent:    os.Getenv("CHESSCOM_USER_AGENT"),
		Debug:        os.Getenv("HABITS_DEBUG") != "",
		DebugLogPath: os.Getenv("HABITS_DEBUG_LOG"),
	}
}

// WithDefaults fills unset fields from defaults and derives LocalPath
// from Store when only the store ID was given.
func (c Config) WithDefaults() Config {
	if c.Store == "" {
		if env := os.Getenv("HABITS_STORE"); env != "" {
			c.Store = env
		} else {
			c.Store = "default"
		}
	}
	if c.LocalPath == "" {
		c.LocalPath = store.DBPath(c.Store)
	}
	return c
}

// Validate checks the configuration for errors.
// Returns *ValidationError for invalid fields.
func (c *Config) Validate() error {
	if c.LocalPath == "" {
		return &ValidationError{Field: "LocalPath", Message: "required: path to SQLite database"}
	}
	if c.Store != "" {
		if err := store.ValidateStoreID(c.Store); err != nil {
			return &ValidationError{Field: "Store", Message: err.Error()}
		}
	}
	return nil
}
