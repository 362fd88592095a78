// Package server implements the local notification relay: the single
// process-wide sink that turns inbound JSON payloads into spoken and visual
// notifications on the host machine.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultPort is where the server listens unless PORT overrides it.
const DefaultPort = 8888

// Engine is the speech/notification backend the server dispatches to.
type Engine interface {
	Speak(ctx context.Context, text, voiceID string, rate float64) error
	Display(ctx context.Context, title, message string) error
	CloudAvailable() bool
}

// Config carries the server's runtime parameters.
type Config struct {
	Port int
	// ServiceName prefixes default notification titles.
	ServiceName string
	// DefaultVoiceID names the voice used when a payload carries none.
	DefaultVoiceID string
}

// Server owns the rate-limit ledger and the speech engine.
type Server struct {
	cfg     Config
	engine  Engine
	limiter *Limiter
	router  chi.Router
}

// NewServer wires the router.
func NewServer(cfg Config, engine Engine) *Server {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "PAJ"
	}

	srv := &Server{
		cfg:     cfg,
		engine:  engine,
		limiter: NewLimiter(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(corsLocalhost)

	r.Post("/notify", srv.handleNotify)
	r.Post("/pai", srv.handlePAI)
	r.Get("/health", srv.handleHealth)
	r.NotFound(srv.handleUsage)

	srv.router = r
	return srv
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds to loopback only and serves until the listener fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.cfg.Port)
	slog.Info("notification server listening", "addr", addr, "cloud_synthesis", s.engine.CloudAvailable())
	return http.ListenAndServe(addr, s.router)
}

// corsLocalhost restricts CORS to localhost and short-circuits preflight.
func corsLocalhost(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "http://localhost")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// callerID identifies the requester for rate limiting. The server binds to
// loopback, so absent a forwarded-for header every caller is local.
func callerID(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	return "localhost"
}

// notifyRequest is the inbound payload. voice_enabled defaults to true when
// absent, hence the pointer.
type notifyRequest struct {
	Title        string  `json:"title"`
	Message      string  `json:"message"`
	VoiceEnabled *bool   `json:"voice_enabled"`
	Priority     string  `json:"priority"`
	VoiceID      string  `json:"voice_id"`
	VoiceName    string  `json:"voice_name"`
	Rate         float64 `json:"rate"`
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, statusError(err))
		return
	}

	if !s.limiter.Allow(callerID(r)) {
		writeJSON(w, http.StatusTooManyRequests, statusError(errors.New("rate limit exceeded")))
		return
	}

	title := req.Title
	if title == "" {
		title = s.cfg.ServiceName + " Notification"
	}
	voiceEnabled := req.VoiceEnabled == nil || *req.VoiceEnabled
	// voice_name is the current field; voice_id is the legacy one.
	voice := req.VoiceName
	if voice == "" {
		voice = req.VoiceID
	}

	s.dispatch(r.Context(), w, title, req.Message, voiceEnabled, voice, req.Rate)
}

// handlePAI is the assistant's own endpoint: voice is always enabled and
// custom voice selection is not honored.
func (s *Server) handlePAI(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, statusError(err))
		return
	}

	if !s.limiter.Allow(callerID(r)) {
		writeJSON(w, http.StatusTooManyRequests, statusError(errors.New("rate limit exceeded")))
		return
	}

	title := req.Title
	if title == "" {
		title = s.cfg.ServiceName + " Assistant"
	}

	s.dispatch(r.Context(), w, title, req.Message, true, "", 0)
}

// decodeRequest parses and validates a notification payload. Validation
// failures come back as descriptive errors for a 400.
func (s *Server) decodeRequest(r *http.Request) (notifyRequest, error) {
	req := notifyRequest{Message: "Task completed"}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return notifyRequest{}, fmt.Errorf("invalid JSON payload: %w", err)
	}

	if err := ValidateText(req.Title); err != nil {
		return notifyRequest{}, fmt.Errorf("invalid title: %w", err)
	}
	if err := ValidateText(req.Message); err != nil {
		return notifyRequest{}, fmt.Errorf("invalid message: %w", err)
	}
	switch req.Priority {
	case "", "low", "normal", "high":
	default:
		return notifyRequest{}, fmt.Errorf("invalid priority %q", req.Priority)
	}
	if req.Rate != 0 && (req.Rate < 100 || req.Rate > 500) {
		return notifyRequest{}, errors.New("invalid rate: must be between 100-500 wpm")
	}
	return req, nil
}

// dispatch sanitizes, speaks and displays. Speech/display failures are
// logged, never surfaced: the dispatch attempt itself is the contract.
func (s *Server) dispatch(ctx context.Context, w http.ResponseWriter, title, message string, voiceEnabled bool, voiceID string, rate float64) {
	safeTitle := SanitizeForSpeech(title)
	safeMessage := SanitizeForSpeech(message)

	if voiceEnabled {
		if safeMessage == "" {
			writeJSON(w, http.StatusBadRequest, statusError(errors.New("message empty after sanitization")))
			return
		}
		if voiceID == "" {
			voiceID = s.cfg.DefaultVoiceID
		}
		if err := s.engine.Speak(ctx, safeMessage, voiceID, rate); err != nil {
			slog.Error("speech dispatch failed", "error", err)
		}
	}

	if err := s.engine.Display(ctx, safeTitle, safeMessage); err != nil {
		slog.Error("notification display failed", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Notification sent",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	voiceSystem := "macOS Native"
	if s.engine.CloudAvailable() {
		voiceSystem = "ElevenLabs"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"port":            s.cfg.Port,
		"voice_system":    voiceSystem,
		"cloud_available": s.engine.CloudAvailable(),
		"default_voice":   s.cfg.DefaultVoiceID,
	})
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "%s notification server - POST to /notify or /pai\n", s.cfg.ServiceName)
}

func statusError(err error) map[string]string {
	return map[string]string{"status": "error", "message": err.Error()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}
