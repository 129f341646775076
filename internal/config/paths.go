package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigDirectory returns the per-user directory for persistent state
// (the stored OAuth token).
//
// Locations:
//   - Windows: %LOCALAPPDATA%\wp-backup
//   - Unix: ~/.config/wp-backup
func ConfigDirectory() string {
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), "wp-backup")
			}
			localAppData = filepath.Join(homeDir, "AppData", "Local")
		}
		return filepath.Join(localAppData, "wp-backup")
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "wp-backup")
		}
		return filepath.Join(homeDir, ".config", "wp-backup")
	}
	return filepath.Join(configDir, "wp-backup")
}

// TokenFile returns the path of the persisted storage auth token.
func TokenFile() string {
	return filepath.Join(ConfigDirectory(), "token.json")
}

// EnsureConfigDirectory creates the config directory with owner-only
// permissions.
func EnsureConfigDirectory() error {
	return os.MkdirAll(ConfigDirectory(), 0700)
}
