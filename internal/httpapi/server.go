package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/agentworkforce/moviebot/internal/moviebot"
	"github.com/agentworkforce/moviebot/internal/telegram"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// EventDispatcher accepts one event and schedules its handling.
type EventDispatcher interface {
	Dispatch(ev moviebot.Event)
}

type ServerConfig struct {
	// WebhookPath is where Telegram posts updates, e.g. /webhooks/<token>.
	WebhookPath  string
	SecretToken  string
	MaxBodyBytes int64
	Logger       *slog.Logger
}

type Server struct {
	dispatcher EventDispatcher
	cfg        ServerConfig
	logger     *slog.Logger
}

func NewServer(dispatcher EventDispatcher, cfg ServerConfig) *Server {
	if cfg.WebhookPath == "" {
		cfg.WebhookPath = "/webhooks"
	}
	if !strings.HasPrefix(cfg.WebhookPath, "/") {
		cfg.WebhookPath = "/" + cfg.WebhookPath
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/health" && r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	if r.URL.Path == s.cfg.WebhookPath {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "webhook accepts POST only")
			return
		}
		s.handleWebhook(w, r)
		return
	}
	writeError(w, http.StatusNotFound, "not_found", "route not found")
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.cfg.SecretToken != "" {
		got := r.Header.Get(secretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.SecretToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid secret token")
			return
		}
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	var update telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", "invalid update body")
		return
	}
	ev, ok := telegram.ToEvent(update)
	if !ok {
		s.logger.Debug("ignoring update", "update_id", update.UpdateID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	s.dispatcher.Dispatch(ev)
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"code":    code,
		"message": message,
	})
}
