package app

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// LoadEnvFile reads a KEY=VALUE dotfile and sets each pair into the process
// environment, without overriding variables that are already set. Lines
// starting with '#' and lines without '=' are ignored. A missing file is
// not an error — the dotfile is optional.
func LoadEnvFile(path string) error {
	f, err := os.Open(path) //nolint:gosec // G304: fixed path under the user's home
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || os.Getenv(key) != "" {
			continue
		}
		_ = os.Setenv(key, value)
	}
	return scanner.Err()
}

// LoadHomeEnv loads ~/.env, the conventional location for the speech
// credential and voice configuration.
func LoadHomeEnv() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return LoadEnvFile(filepath.Join(home, ".env"))
}
