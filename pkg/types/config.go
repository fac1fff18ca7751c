package types

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"
)

// Config locates the database a model opens its connection against.
type Config struct {
	// Path is the database file. Ignored when Memory is set.
	Path string `json:"path" yaml:"path"`

	// Memory names a shared in-memory database. Models opened with the
	// same name see the same tables for as long as one of them is open.
	Memory string `json:"memory,omitempty" yaml:"memory,omitempty"`

	// BusyTimeoutMS is how long a statement waits on a locked database.
	// Zero selects DefaultBusyTimeoutMS.
	BusyTimeoutMS int `json:"busy_timeout_ms,omitempty" yaml:"busy_timeout_ms,omitempty"`

	// Logger receives statement and lifecycle logs. Nil selects slog.Default().
	Logger *slog.Logger `json:"-" yaml:"-"`
}

// DefaultBusyTimeoutMS is the lock wait used when Config leaves it unset.
const DefaultBusyTimeoutMS = 5000

// MemoryConfig returns a Config for a fresh, uniquely named in-memory
// database.
func MemoryConfig() Config {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return Config{Memory: "strata-" + id.String()}
}

// Validate checks that the Config names a database.
func (c Config) Validate() error {
	if c.Path == "" && c.Memory == "" {
		return fmt.Errorf("%w: path or memory name required", ErrInvalidConfig)
	}
	if c.BusyTimeoutMS < 0 {
		return fmt.Errorf("%w: negative busy timeout", ErrInvalidConfig)
	}
	return nil
}

// DSN returns the data source name for the sqlite driver.
func (c Config) DSN() string {
	timeout := c.BusyTimeoutMS
	if timeout == 0 {
		timeout = DefaultBusyTimeoutMS
	}
	pragma := fmt.Sprintf("_pragma=busy_timeout(%d)", timeout)
	if c.Memory != "" {
		return "file:" + url.PathEscape(c.Memory) + "?mode=memory&cache=shared&" + pragma
	}
	return c.Path + "?" + pragma
}

// Log returns the configured logger or slog.Default().
func (c Config) Log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
