package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotifyPostsJSON(t *testing.T) {
	var got Payload
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/notify", r.URL.Path)
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.Notify(context.Background(), Payload{
		Title:        "PAJ",
		Message:      "Fixed the login bug",
		VoiceEnabled: true,
		Priority:     PriorityNormal,
		VoiceID:      "voice-1",
	})
	require.NoError(t, err)
	require.Equal(t, "application/json", contentType)
	require.Equal(t, "Fixed the login bug", got.Message)
	require.True(t, got.VoiceEnabled)
	require.Equal(t, "voice-1", got.VoiceID)
}

func TestNotifyNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Notify(context.Background(), Payload{Message: "hi"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestSendSwallowsFailures(t *testing.T) {
	// No server listening — Send must not panic or propagate.
	c := NewClient("http://127.0.0.1:1")
	c.Send(context.Background(), Payload{Message: "hello"})
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "healthy"})
	}))
	defer srv.Close()

	body, err := NewClient(srv.URL).Health(context.Background())
	require.NoError(t, err)
	require.Equal(t, "healthy", body["status"])
}

func TestNewClientDefaultBaseURL(t *testing.T) {
	require.Equal(t, DefaultBaseURL, NewClient("").BaseURL)
}
