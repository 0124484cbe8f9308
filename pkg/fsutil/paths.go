package fsutil

import (
	"os"
	"path/filepath"
)

const (
	// AppName is the name of the application used in paths
	AppName = "assetmirror"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// GetConfigDir returns the platform-specific config directory for the application
// On Linux: ~/.config/assetmirror/
// On macOS: ~/Library/Application Support/assetmirror/
// On Windows: %AppData%\assetmirror\
func GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}

// GetDefaultConfigPath returns the path of the config file used when --config is not given.
// A project-local ./assetmirror.yaml wins over the user config directory.
func GetDefaultConfigPath() (string, error) {
	local := AppName + ".yaml"
	if _, err := os.Stat(local); err == nil {
		return filepath.Abs(local)
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}
