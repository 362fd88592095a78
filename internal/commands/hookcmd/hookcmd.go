// Package hookcmd provides hook installation and uninstallation commands.
// This package is separate from the main commands package to allow
// independent evolution of hook lifecycle management.
package hookcmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/zipaJopa/PAJ/internal/output"
)

const pajCommandFallback = "paj"

//nolint:gochecknoglobals // sync.Once singleton cache for hook definitions; required by the sync.Once pattern
var (
	pajHooksOnce  sync.Once
	pajHooksCache map[string]hookEntry
)

type hookHandler struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout"`
}

type hookEntry struct {
	Matcher string        `json:"matcher"`
	Hooks   []hookHandler `json:"hooks"`
}

func claudeSettingsPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude", "settings.json")
}

func projectClaudeSettingsPath() string {
	wd, err := os.Getwd()
	if err != nil {
		return filepath.Join(".", ".claude", "settings.json")
	}
	return filepath.Join(wd, ".claude", "settings.json")
}

func resolveClaudeSettingsPath(projectScoped bool) string {
	if projectScoped {
		return projectClaudeSettingsPath()
	}
	return claudeSettingsPath()
}

func pajExecutable() string {
	exe, err := os.Executable()
	if err != nil || strings.TrimSpace(exe) == "" {
		return pajCommandFallback
	}
	return exe
}

func buildPajHookCommand(subcommand string) string {
	exe := pajExecutable()
	if exe == pajCommandFallback {
		return fmt.Sprintf("paj hook %s", subcommand)
	}
	return fmt.Sprintf("%q hook %s", exe, subcommand)
}

func pajHooks() map[string]hookEntry {
	pajHooksOnce.Do(func() {
		pajHooksCache = buildPajHooks()
	})
	return pajHooksCache
}

func buildPajHooks() map[string]hookEntry {
	return map[string]hookEntry{
		"SessionStart": {
			Matcher: "startup|resume|clear",
			Hooks: []hookHandler{{
				Type:    "command",
				Command: buildPajHookCommand("session-start"),
				Timeout: 5000,
			}},
		},
		"UserPromptSubmit": {
			Matcher: "",
			Hooks: []hookHandler{{
				Type:    "command",
				Command: buildPajHookCommand("prompt"),
				Timeout: 2000,
			}},
		},
		"Stop": {
			Matcher: "",
			Hooks: []hookHandler{{
				Type:    "command",
				Command: buildPajHookCommand("stop"),
				Timeout: 10000,
			}},
		},
		"SubagentStop": {
			Matcher: "",
			Hooks: []hookHandler{{
				Type:    "command",
				Command: buildPajHookCommand("subagent-stop"),
				Timeout: 15000,
			}},
		},
		"PreCompact": {
			Matcher: "",
			Hooks: []hookHandler{{
				Type:    "command",
				Command: buildPajHookCommand("pre-compact"),
				Timeout: 5000,
			}},
		},
	}
}

func pajHookEventNames() []string {
	events := make([]string, 0, len(pajHooks()))
	for name := range pajHooks() {
		events = append(events, name)
	}
	sort.Strings(events)
	return events
}

func readSettings(path string) (map[string]any, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: settings path derives from home dir or cwd
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return settings, nil
}

func writeSettings(path string, settings map[string]any) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// IsPajHookCommand checks if a command string is a paj hook command.
func IsPajHookCommand(command string) bool {
	cmd := strings.TrimSpace(command)
	if cmd == "" {
		return false
	}
	parts := strings.Fields(cmd)
	if len(parts) < 3 {
		return false
	}

	execToken := strings.Trim(parts[0], "\"'")
	if filepath.Base(execToken) != "paj" {
		return false
	}
	if parts[1] != "hook" {
		return false
	}

	switch parts[2] {
	case "session-start", "prompt", "stop", "subagent-stop", "pre-compact":
		return true
	default:
		return false
	}
}

func hookEntryEqual(a, b map[string]any) bool {
	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	return string(aj) == string(bj)
}

type installOutcome int

const (
	hookInstalled installOutcome = iota
	hookUpdated
	hookSkipped
)

// upsertPajHookEntry replaces any existing paj entry for an event with the
// new one, preserving entries owned by other tools.
func upsertPajHookEntry(existing []any, newEntry map[string]any) ([]any, installOutcome) {
	var kept []any
	hadPaj := false
	matchingPaj := false

	for _, currentEntry := range existing {
		entryObj, ok := currentEntry.(map[string]any)
		if !ok {
			kept = append(kept, currentEntry)
			continue
		}
		if !entryContainsPajHook(entryObj) {
			kept = append(kept, currentEntry)
			continue
		}
		hadPaj = true
		if hookEntryEqual(entryObj, newEntry) {
			matchingPaj = true
		}
	}

	kept = append(kept, newEntry)
	if matchingPaj {
		return kept, hookSkipped
	}
	if hadPaj {
		return kept, hookUpdated
	}
	return kept, hookInstalled
}

func entryContainsPajHook(entry map[string]any) bool {
	hooks, ok := entry["hooks"].([]any)
	if !ok {
		return false
	}
	for _, h := range hooks {
		hMap, ok := h.(map[string]any)
		if !ok {
			continue
		}
		cmd, _ := hMap["command"].(string)
		if IsPajHookCommand(cmd) {
			return true
		}
	}
	return false
}

// NewInstallCmd creates the hook install command.
func NewInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install paj hooks for Claude Code",
		Long:  "Registers the paj lifecycle hook handlers in Claude Code settings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectScoped, _ := cmd.Flags().GetBool("project")
			path := resolveClaudeSettingsPath(projectScoped)

			installed, updated, skipped, err := installHooks(path)
			if err != nil {
				return err
			}

			type result struct {
				Message   string   `json:"message"`
				Path      string   `json:"path"`
				Installed []string `json:"installed"`
				Updated   []string `json:"updated,omitempty"`
				Skipped   []string `json:"skipped"`
			}
			msg := "paj hooks already installed"
			if len(installed) > 0 || len(updated) > 0 {
				msg = "paj hooks installed. Run 'paj status' to verify the notification server."
			}
			return output.PrintSuccess(result{
				Message:   msg,
				Path:      path,
				Installed: installed,
				Updated:   updated,
				Skipped:   skipped,
			})
		},
	}

	cmd.Flags().Bool("project", false, "Install hooks in ./.claude/settings.json")
	return cmd
}

func installHooks(path string) (installed, updated, skipped []string, err error) {
	settings, err := readSettings(path)
	if err != nil {
		return nil, nil, nil, err
	}

	hooksObj, _ := settings["hooks"].(map[string]any)
	if hooksObj == nil {
		hooksObj = map[string]any{}
	}

	for eventName, entry := range pajHooks() {
		existing, _ := hooksObj[eventName].([]any)

		entryJSON, _ := json.Marshal(entry)
		var entryMap map[string]any
		_ = json.Unmarshal(entryJSON, &entryMap)

		entries, outcome := upsertPajHookEntry(existing, entryMap)
		hooksObj[eventName] = entries

		switch outcome {
		case hookInstalled:
			installed = append(installed, eventName)
		case hookUpdated:
			updated = append(updated, eventName)
		case hookSkipped:
			skipped = append(skipped, eventName)
		}
	}

	settings["hooks"] = hooksObj
	if err := writeSettings(path, settings); err != nil {
		return nil, nil, nil, err
	}

	sort.Strings(installed)
	sort.Strings(updated)
	sort.Strings(skipped)
	return installed, updated, skipped, nil
}

// NewUninstallCmd creates the hook uninstall command.
func NewUninstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove paj hooks from Claude Code settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectScoped, _ := cmd.Flags().GetBool("project")
			path := resolveClaudeSettingsPath(projectScoped)

			removed, err := uninstallHooks(path)
			if err != nil {
				return err
			}

			type result struct {
				Path    string   `json:"path"`
				Removed []string `json:"removed"`
			}
			return output.PrintSuccess(result{Path: path, Removed: removed})
		},
	}

	cmd.Flags().Bool("project", false, "Uninstall hooks from ./.claude/settings.json")
	return cmd
}

func uninstallHooks(path string) ([]string, error) {
	settings, err := readSettings(path)
	if err != nil {
		return nil, err
	}

	hooksObj, _ := settings["hooks"].(map[string]any)
	if hooksObj == nil {
		return []string{}, nil
	}

	removed := []string{}
	for _, eventName := range pajHookEventNames() {
		entries, ok := hooksObj[eventName].([]any)
		if !ok {
			continue
		}

		var kept []any
		for _, entry := range entries {
			entryMap, ok := entry.(map[string]any)
			if ok && entryContainsPajHook(entryMap) {
				continue
			}
			kept = append(kept, entry)
		}

		if len(kept) != len(entries) {
			removed = append(removed, eventName)
		}

		if len(kept) == 0 {
			delete(hooksObj, eventName)
		} else {
			hooksObj[eventName] = kept
		}
	}

	settings["hooks"] = hooksObj
	if err := writeSettings(path, settings); err != nil {
		return nil, err
	}

	return removed, nil
}
