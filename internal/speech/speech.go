// Package speech turns sanitized text into audible output and OS
// notifications. Cloud synthesis (ElevenLabs) is preferred when a credential
// is configured; the native say command is the fallback at every failure
// point so a notification is never silently lost to a backend outage.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	elevenLabsBaseURL = "https://api.elevenlabs.io"
	elevenLabsModel   = "eleven_turbo_v2_5"

	sayCommand       = "/usr/bin/say"
	afplayCommand    = "/usr/bin/afplay"
	osascriptCommand = "/usr/bin/osascript"

	// DefaultRate is the speech rate in words per minute; the native say
	// default is ~175.
	DefaultRate = 175
)

// Config selects the synthesis backend and voices.
type Config struct {
	// APIKey is the ElevenLabs credential; empty disables cloud synthesis.
	APIKey string
	// DefaultVoiceID is the ElevenLabs voice used when a request names none.
	DefaultVoiceID string
	// FallbackVoice is the native say voice used when cloud synthesis is
	// unavailable or fails.
	FallbackVoice string
}

// runner abstracts subprocess execution so tests can record invocations.
type runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // G204: fixed binary paths, argv-vector args
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w (output: %s)", filepath.Base(name), err, bytes.TrimSpace(out))
	}
	return nil
}

// Engine synthesizes, plays and displays notifications.
type Engine struct {
	cfg     Config
	client  *http.Client
	run     runner
	baseURL string
}

// NewEngine builds an engine from config.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:     cfg,
		client:  &http.Client{Timeout: 15 * time.Second},
		run:     execRunner{},
		baseURL: elevenLabsBaseURL,
	}
}

// CloudAvailable reports whether cloud synthesis is configured.
func (e *Engine) CloudAvailable() bool {
	return e.cfg.APIKey != ""
}

// Speak voices the text. Cloud synthesis is tried first when configured;
// any failure falls back to the native say command. rate is in words per
// minute; 0 uses the default.
func (e *Engine) Speak(ctx context.Context, text, voiceID string, rate float64) error {
	if rate <= 0 {
		rate = DefaultRate
	}
	if e.CloudAvailable() {
		err := e.speakCloud(ctx, text, voiceID)
		if err == nil {
			return nil
		}
		slog.Default().Warn("cloud synthesis failed, falling back to native speech", "error", err)
	}
	return e.speakNative(ctx, text, rate)
}

// speakCloud synthesizes remotely, plays the audio from a temp file and
// removes the file whether or not playback succeeded.
func (e *Engine) speakCloud(ctx context.Context, text, voiceID string) error {
	if voiceID == "" {
		voiceID = e.cfg.DefaultVoiceID
	}
	audio, err := e.synthesize(ctx, text, voiceID)
	if err != nil {
		return err
	}

	path := filepath.Join(os.TempDir(), "paj-voice-"+uuid.NewString()+".mp3")
	if err := os.WriteFile(path, audio, 0o600); err != nil {
		return fmt.Errorf("write audio file: %w", err)
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil {
			slog.Default().Warn("temp audio cleanup failed", "path", path, "error", rmErr)
		}
	}()

	if err := e.run.Run(ctx, afplayCommand, path); err != nil {
		return fmt.Errorf("play audio: %w", err)
	}
	return nil
}

func (e *Engine) synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	body, err := json.Marshal(map[string]any{
		"text":     text,
		"model_id": elevenLabsModel,
		"voice_settings": map[string]float64{
			"stability":        0.5,
			"similarity_boost": 0.75,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal synthesis request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", e.baseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.cfg.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("synthesis returned %d", resp.StatusCode)
	}
	audio, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return audio, nil
}

func (e *Engine) speakNative(ctx context.Context, text string, rate float64) error {
	args := []string{}
	if e.cfg.FallbackVoice != "" {
		args = append(args, "-v", e.cfg.FallbackVoice)
	}
	args = append(args, "-r", strconv.FormatFloat(rate, 'f', -1, 64), text)
	return e.run.Run(ctx, sayCommand, args...)
}

// Display raises an OS notification banner. The title and message are
// interpolated into an osascript expression, which is why callers must pass
// only sanitized text; the sanitize allow-list excludes the quote and
// backslash characters that could break out of the string literal.
func (e *Engine) Display(ctx context.Context, title, message string) error {
	script := fmt.Sprintf("display notification %q with title %q sound name \"\"", message, title)
	return e.run.Run(ctx, osascriptCommand, "-e", script)
}
