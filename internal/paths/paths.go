// Package paths resolves the configuration, data, and media directories of
// qurancms.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appName names the per-user directories.
const appName = "qurancms"

// CWD-relative directory names.
const (
	DefaultConfigDirName = ".qurancms"
	DefaultDataDirName   = ".qurancms-db"
)

// File names inside the config directory.
const (
	ConfigFileName  = "config.yaml"
	SessionFileName = "session"
	EnvFileName     = ".env"
)

// MediaDirName is the directory under the data directory holding uploaded
// files when storage.root is unset.
const MediaDirName = "media"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "QURANCMS_CONFIG_DIR"
	EnvDataDir   = "QURANCMS_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/qurancms (fallback ~/.config/qurancms)
// macOS:   ~/Library/Application Support/qurancms
// Windows: %APPDATA%/qurancms
func DefaultConfigDir() (string, error) {
	return platformPath("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/qurancms (fallback ~/.local/share/qurancms)
// macOS and Windows share the config directory.
func DefaultDataDir() (string, error) {
	return platformPath("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func platformPath(xdgEnv, homeRel string) (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv(xdgEnv); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, homeRel, appName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > QURANCMS_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > config value > QURANCMS_DATA_DIR env > $(CWD)/.qurancms-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ResolveStorageRoot returns the media root: the configured value when set,
// otherwise dataDir/media.
func ResolveStorageRoot(configValue, dataDir string) (string, error) {
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	return filepath.Join(dataDir, MediaDirName), nil
}

// ConfigFile returns the path of config.yaml in configDir.
func ConfigFile(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}

// SessionFile returns the path of the CLI session marker in configDir.
func SessionFile(configDir string) string {
	return filepath.Join(configDir, SessionFileName)
}
