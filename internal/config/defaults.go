package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "inputprefs"

// DataDir returns the platform-specific data directory, or the value of
// INPUTPREFS_DATA_DIR when set.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/inputprefs/
//   - Linux:   ~/.local/share/inputprefs/
//   - Windows: %APPDATA%\inputprefs\
func DataDir() string {
	if dir := os.Getenv("INPUTPREFS_DATA_DIR"); dir != "" {
		return dir
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Application Support", appName)
	case "windows":
		return windowsAppData()
	default:
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			return filepath.Join(xdgData, appName)
		}
		return filepath.Join(homeDir(), ".local", "share", appName)
	}
}

// ConfigDir returns the platform-specific config directory, or the value of
// INPUTPREFS_CONFIG_DIR when set.
func ConfigDir() string {
	if dir := os.Getenv("INPUTPREFS_CONFIG_DIR"); dir != "" {
		return dir
	}
	switch runtime.GOOS {
	case "darwin":
		// macOS uses the same directory for config and data.
		return filepath.Join(homeDir(), "Library", "Application Support", appName)
	case "windows":
		return windowsAppData()
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, appName)
		}
		return filepath.Join(homeDir(), ".config", appName)
	}
}

func windowsAppData() string {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, appName)
	}
	return filepath.Join(homeDir(), "AppData", "Roaming", appName)
}

func homeDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return home
}

// SupportedConfigFormats returns the supported config file extensions.
func SupportedConfigFormats() []string {
	return []string{"toml", "json", "yaml", "yml"}
}

// FindConfigFile returns the first config file found in the current directory or
// the config directory, or "" if there is none.
func FindConfigFile() string {
	for _, dir := range []string{".", ConfigDir()} {
		for _, ext := range SupportedConfigFormats() {
			path := filepath.Join(dir, "config."+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}
