// Package paths resolves the configuration directory, database file and
// schema file used by the strata command.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "strata"

// CWD-relative defaults.
const (
	DefaultConfigDirName = ".strata"
	DefaultDBName        = "strata.db"
	DefaultSchemaName    = "schema.yaml"
)

// Environment variable names for overrides.
const (
	EnvConfigDir = "STRATA_CONFIG_DIR"
	EnvDB        = "STRATA_DB"
	EnvSchema    = "STRATA_SCHEMA"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/strata (fallback ~/.config/strata)
// macOS:   ~/Library/Application Support/strata
// Windows: %APPDATA%/strata
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > STRATA_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDBPath returns the database file following the precedence chain:
// flag > config.yaml db > STRATA_DB env > $(CWD)/strata.db.
func ResolveDBPath(flag, configValue string) (string, error) {
	return resolve(flag, configValue, EnvDB, func() (string, error) {
		cwd, err := platformDir.getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(cwd, DefaultDBName), nil
	})
}

// ResolveSchemaPath returns the schema file following the precedence chain:
// flag > config.yaml schema > STRATA_SCHEMA env > <configDir>/schema.yaml.
func ResolveSchemaPath(flag, configValue, configDir string) (string, error) {
	return resolve(flag, configValue, EnvSchema, func() (string, error) {
		return filepath.Join(configDir, DefaultSchemaName), nil
	})
}

func resolve(flag, configValue, env string, fallback func() (string, error)) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if v := os.Getenv(env); v != "" {
		return filepath.Abs(v)
	}
	return fallback()
}
