package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/zipaJopa/PAJ/internal/app"
	"github.com/zipaJopa/PAJ/internal/commands/hookcmd"
	"github.com/zipaJopa/PAJ/internal/extract"
	"github.com/zipaJopa/PAJ/internal/relay"
	"github.com/zipaJopa/PAJ/internal/title"
	"github.com/zipaJopa/PAJ/internal/transcript"
	"github.com/zipaJopa/PAJ/internal/voice"
)

const (
	// maxHookStdinBytes caps stdin reads. Hook envelopes are small JSON
	// objects; 1 MB is generous headroom that prevents unbounded allocation.
	maxHookStdinBytes = 1 << 20

	// stdinReadTimeout bounds the envelope read. If the runtime doesn't
	// close our stdin in time, the hook proceeds with whatever was buffered
	// rather than hanging the parent session.
	stdinReadTimeout = 2 * time.Second

	// hookTimeout bounds a whole hook invocation, relay call included.
	hookTimeout = 15 * time.Second
)

// NewHookCmd creates the hook parent command.
func NewHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Hook handlers and installers for Claude Code",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(hookcmd.NewInstallCmd())
	cmd.AddCommand(hookcmd.NewUninstallCmd())

	// Hook handler subcommands — called by the hook system, not users
	// directly. Hidden from help output to reduce command surface noise.
	for _, sub := range []*cobra.Command{
		newHookSessionStartCmd(),
		newHookPromptCmd(),
		newHookStopCmd(),
		newHookSubagentStopCmd(),
		newHookPreCompactCmd(),
	} {
		sub.Hidden = true
		cmd.AddCommand(sub)
	}

	return cmd
}

// hookInput is the JSON envelope Claude Code sends on stdin to hooks.
type hookInput struct {
	CWD            string `json:"cwd"`
	SessionID      string `json:"session_id"`
	HookEventName  string `json:"hook_event_name"`
	TranscriptPath string `json:"transcript_path"`
	Prompt         string `json:"prompt"`
	CompactType    string `json:"compact_type"`
}

// hookContext holds resolved common state shared by all hook handlers.
type hookContext struct {
	Input  hookInput
	DAName string
	Client *relay.Client
}

func resolveHookContext(cmd *cobra.Command) hookContext {
	return hookContext{
		Input:  readHookStdin(),
		DAName: app.EffectiveDAName(),
		Client: newRelayClient(cmd),
	}
}

func newRelayClient(cmd *cobra.Command) *relay.Client {
	baseURL, _ := cmd.Flags().GetString("server-url")
	if baseURL == "" {
		baseURL = app.EffectiveServerURL()
	}
	return relay.NewClient(baseURL)
}

func readHookStdin() hookInput {
	return readHookInput(os.Stdin, stdinReadTimeout)
}

// readHookInput reads the envelope with a deadline. The read runs in a
// goroutine appending to a shared buffer; on timeout the bytes buffered so
// far are parsed instead of blocking the parent runtime.
func readHookInput(r io.Reader, timeout time.Duration) hookInput {
	var mu sync.Mutex
	var buf bytes.Buffer

	done := make(chan struct{})
	go func() {
		defer close(done)
		chunk := make([]byte, 4096)
		total := 0
		for total < maxHookStdinBytes {
			n, err := r.Read(chunk)
			if n > 0 {
				mu.Lock()
				buf.Write(chunk[:n])
				mu.Unlock()
				total += n
			}
			if err != nil {
				return
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		slog.Default().Warn("hook stdin read timed out, using buffered input")
	}

	mu.Lock()
	data := append([]byte(nil), buf.Bytes()...)
	mu.Unlock()

	var input hookInput
	if len(data) == 0 {
		return input
	}
	if err := json.Unmarshal(data, &input); err != nil {
		slog.Default().Warn("hook stdin unmarshal failed", "error", err, "bytes", len(data))
	}
	return input
}

// newHookSessionStartCmd creates the SessionStart hook handler: announce
// the assistant and mark the terminal as ready.
func newHookSessionStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "session-start",
		Short:         "SessionStart hook — announces the assistant is ready",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
			defer cancel()

			hctx := resolveHookContext(cmd)
			title.Set(hctx.DAName + " Ready")

			if _, err := hctx.Client.Health(ctx); err != nil {
				slog.Default().Warn("notification server unreachable", "error", err)
			}

			hctx.Client.Send(ctx, relay.Payload{
				Title:        hctx.DAName + " Systems Initialized",
				Message:      fmt.Sprintf("%s here, ready to go.", hctx.DAName),
				VoiceEnabled: app.EffectiveVoiceEnabled(),
				Priority:     relay.PriorityLow,
				VoiceID:      voice.Select("assistant"),
			})
			return nil
		},
	}
}

// newHookPromptCmd creates the UserPromptSubmit hook handler: reflect the
// request in the terminal title.
func newHookPromptCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "prompt",
		Short:         "UserPromptSubmit hook — sets the terminal title from the prompt",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			hctx := resolveHookContext(cmd)
			if hctx.Input.Prompt == "" {
				return nil
			}
			title.Set(title.FromPrompt(hctx.Input.Prompt))
			return nil
		},
	}
}

// newHookStopCmd creates the Stop hook handler: extract the assistant's
// completion from the transcript and speak it.
func newHookStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "stop",
		Short:         "Stop hook — speaks the session's completion message",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
			defer cancel()

			hctx := resolveHookContext(cmd)
			completion, ok := extractCompletion(hctx, func(path string) (extract.Completion, bool, error) {
				return extract.ExtractFromFile(path)
			})
			if !ok {
				return nil
			}

			title.Set(completion.Message)
			hctx.Client.Send(ctx, relay.Payload{
				Title:        hctx.DAName,
				Message:      completion.Message,
				VoiceEnabled: app.EffectiveVoiceEnabled(),
				Priority:     relay.PriorityNormal,
				VoiceID:      voice.Select(completion.ActorType),
			})
			return nil
		},
	}
}

// newHookSubagentStopCmd creates the SubagentStop hook handler: like stop,
// but the delegated result may lag behind the hook, so extraction retries.
func newHookSubagentStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "subagent-stop",
		Short:         "SubagentStop hook — speaks a sub-task's completion in its own voice",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
			defer cancel()

			hctx := resolveHookContext(cmd)
			completion, ok := extractCompletion(hctx, func(path string) (extract.Completion, bool, error) {
				return extract.ExtractSubagentFromFile(path, extract.RetryOptions{})
			})
			if !ok {
				return nil
			}

			hctx.Client.Send(ctx, relay.Payload{
				Title:        hctx.DAName + " Agent",
				Message:      completion.Message,
				VoiceEnabled: app.EffectiveVoiceEnabled(),
				Priority:     relay.PriorityNormal,
				VoiceID:      voice.Select(completion.ActorType),
			})
			return nil
		},
	}
}

// extractCompletion runs an extraction function against the envelope's
// transcript path. Every absent-input condition is an idle outcome: log and
// report not-ok, never error.
func extractCompletion(hctx hookContext, fn func(path string) (extract.Completion, bool, error)) (extract.Completion, bool) {
	path := hctx.Input.TranscriptPath
	if path == "" {
		slog.Default().Debug("no transcript path in hook envelope")
		return extract.Completion{}, false
	}

	completion, found, err := fn(path)
	if err != nil {
		slog.Default().Debug("transcript unavailable", "path", path, "error", err)
		return extract.Completion{}, false
	}
	if !found {
		slog.Default().Debug("no completion marker in transcript", "path", path)
		return extract.Completion{}, false
	}
	return completion, true
}

// newHookPreCompactCmd creates the PreCompact hook handler: announce the
// context compression with a message sized to the transcript.
func newHookPreCompactCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "pre-compact",
		Short:         "PreCompact hook — announces context compression",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
			defer cancel()

			hctx := resolveHookContext(cmd)
			msg := compactionMessage(hctx.Input.TranscriptPath, hctx.Input.CompactType)

			hctx.Client.Send(ctx, relay.Payload{
				Title:        hctx.DAName + " Context",
				Message:      msg,
				VoiceEnabled: app.EffectiveVoiceEnabled(),
				Priority:     relay.PriorityLow,
				VoiceID:      voice.Select("assistant"),
			})
			return nil
		},
	}
}

func compactionMessage(transcriptPath, compactType string) string {
	const fallback = "Compressing context to continue"
	if transcriptPath == "" {
		return fallback
	}
	records, err := transcript.Read(transcriptPath)
	if err != nil {
		return fallback
	}
	stats := transcript.Stats(records)
	if stats.Total() == 0 {
		return fallback
	}

	if compactType == "manual" {
		return fmt.Sprintf("Manually compressing %d messages", stats.Total())
	}
	if stats.Large() {
		return fmt.Sprintf("Auto-compressing large context with %d messages", stats.Total())
	}
	return fmt.Sprintf("Compressing context with %d messages", stats.Total())
}
