package speech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// recordingRunner captures subprocess invocations instead of executing them.
type recordingRunner struct {
	calls [][]string
	fail  map[string]bool
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) error {
	r.calls = append(r.calls, append([]string{name}, args...))
	if r.fail[name] {
		return os.ErrPermission
	}
	return nil
}

func TestSpeakNativeArgs(t *testing.T) {
	run := &recordingRunner{}
	e := NewEngine(Config{FallbackVoice: "Jamie (Premium)"})
	e.run = run

	require.NoError(t, e.Speak(context.Background(), "hello there", "", 0))
	require.Len(t, run.calls, 1)
	require.Equal(t, []string{sayCommand, "-v", "Jamie (Premium)", "-r", "175", "hello there"}, run.calls[0])
}

func TestSpeakCloudPlaysAndCleansUp(t *testing.T) {
	var gotKey, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("xi-api-key")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	run := &recordingRunner{}
	e := NewEngine(Config{APIKey: "sk-test", DefaultVoiceID: "voice-default"})
	e.run = run
	e.baseURL = srv.URL

	require.NoError(t, e.Speak(context.Background(), "hello", "voice-1", 175))
	require.Equal(t, "sk-test", gotKey)
	require.Equal(t, "/v1/text-to-speech/voice-1", gotPath)

	require.Len(t, run.calls, 1)
	require.Equal(t, afplayCommand, run.calls[0][0])
	audioPath := run.calls[0][1]
	require.True(t, strings.HasPrefix(filepath.Base(audioPath), "paj-voice-"))

	// Temp audio is removed after playback.
	_, err := os.Stat(audioPath)
	require.True(t, os.IsNotExist(err))
}

func TestSpeakCloudFailureFallsBackToNative(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	run := &recordingRunner{}
	e := NewEngine(Config{APIKey: "sk-bad", FallbackVoice: "Jamie (Premium)"})
	e.run = run
	e.baseURL = srv.URL

	require.NoError(t, e.Speak(context.Background(), "hello", "voice-1", 200))
	require.Len(t, run.calls, 1)
	require.Equal(t, sayCommand, run.calls[0][0])
	require.Contains(t, run.calls[0], "200")
}

func TestPlaybackFailureCleansUpTempFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	run := &recordingRunner{fail: map[string]bool{afplayCommand: true}}
	e := NewEngine(Config{APIKey: "sk-test", DefaultVoiceID: "v"})
	e.run = run
	e.baseURL = srv.URL

	// Playback fails, engine falls back to say; either way the temp file
	// must be gone.
	_ = e.Speak(context.Background(), "hello", "", 0)
	require.NotEmpty(t, run.calls)
	audioPath := run.calls[0][1]
	_, err := os.Stat(audioPath)
	require.True(t, os.IsNotExist(err))
}

func TestDisplayUsesArgvOsascript(t *testing.T) {
	run := &recordingRunner{}
	e := NewEngine(Config{})
	e.run = run

	require.NoError(t, e.Display(context.Background(), "PAJ", "Fixed the login bug"))
	require.Len(t, run.calls, 1)
	require.Equal(t, osascriptCommand, run.calls[0][0])
	require.Equal(t, "-e", run.calls[0][1])
	require.Contains(t, run.calls[0][2], `display notification "Fixed the login bug" with title "PAJ"`)
}

func TestCloudAvailable(t *testing.T) {
	require.False(t, NewEngine(Config{}).CloudAvailable())
	require.True(t, NewEngine(Config{APIKey: "sk"}).CloudAvailable())
}
