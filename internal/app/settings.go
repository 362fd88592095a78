package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings represents configuration loaded from config.yaml.
// Field names match snake_case YAML keys.
type Settings struct {
	ServerURL      string `yaml:"server_url"`
	DAName         string `yaml:"da_name"`
	VoiceEnabled   *bool  `yaml:"voice_enabled"`
	DefaultVoiceID string `yaml:"default_voice_id"`
}

const (
	defaultDAName = "Kai"
)

// EffectiveServerURL resolves the notification server base URL.
// Precedence: PAJ_SERVER_URL env var, then config.yaml, then the built-in
// default ("" here; callers substitute relay.DefaultBaseURL).
func EffectiveServerURL() string {
	if v := strings.TrimSpace(os.Getenv("PAJ_SERVER_URL")); v != "" {
		return v
	}
	s, err := LoadSettings()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s.ServerURL)
}

// EffectiveDAName resolves the assistant's announced name.
// Precedence: DA env var, then config.yaml, then "Kai".
func EffectiveDAName() string {
	if v := strings.TrimSpace(os.Getenv("DA")); v != "" {
		return v
	}
	if s, err := LoadSettings(); err == nil && strings.TrimSpace(s.DAName) != "" {
		return strings.TrimSpace(s.DAName)
	}
	return defaultDAName
}

// EffectiveVoiceEnabled reports whether spoken notifications are enabled.
// Unset means enabled.
func EffectiveVoiceEnabled() bool {
	s, err := LoadSettings()
	if err != nil || s.VoiceEnabled == nil {
		return true
	}
	return *s.VoiceEnabled
}

// settingsOnce, settings, settingsErr implement the sync.Once lazy-load singleton for config.
//
//nolint:gochecknoglobals // sync.Once singleton is intentional process-wide state
var (
	settingsOnce sync.Once
	settings     Settings
	settingsErr  error
)

// LoadSettings loads configuration once using the documented lookup order.
// Lookup order (first found wins):
// 1) ~/.config/paj/config.yaml
// 2) /etc/paj/config.yaml
// 3) ./config.yaml (lowest priority; allows repo-local overrides if desired)
// Environment variables are handled separately.
func LoadSettings() (Settings, error) {
	settingsOnce.Do(func() {
		settings = Settings{}

		// 1) User config (~/.config/paj/config.yaml)
		dir, err := ConfigDir()
		if err != nil {
			settingsErr = err
			return
		}
		if s, err := loadSettingsFile(filepath.Join(dir, "config.yaml")); err == nil {
			settings = s
			return
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			settingsErr = err
			return
		}

		// 2) /etc
		if s, err := loadSettingsFile(filepath.Join(string(os.PathSeparator), "etc", "paj", "config.yaml")); err == nil {
			settings = s
			return
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			settingsErr = err
			return
		}

		// 3) Local ./config.yaml (lowest priority)
		if s, err := loadSettingsFile("config.yaml"); err == nil {
			settings = s
			return
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			settingsErr = err
			return
		}
	})

	return settings, settingsErr
}

func loadSettingsFile(path string) (Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
