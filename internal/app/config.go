package app

import (
	"os"
	"path/filepath"
)

// ConfigDir returns ~/.config/paj/ on all platforms.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "paj"), nil
}

// EnsureConfigDir creates the config directory and default config.yaml if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return os.WriteFile(configFile, []byte(defaultConfig), 0600)
	}
	return nil
}

const defaultConfig = `# paj configuration
# Run: paj --help

# Base URL of the notification server.
# Can also be set via PAJ_SERVER_URL.
# server_url: http://localhost:8888

# Name the assistant announces itself with.
# da_name: Kai

# Set to false to silence spoken notifications globally.
# voice_enabled: true
`
