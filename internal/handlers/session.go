package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"caltrack/internal/auth"
	"caltrack/internal/config"
)

type SessionHandler struct {
	cfg      *config.Config
	sessions *auth.SessionManager
	log      *zap.Logger
}

func NewSessionHandler(cfg *config.Config, sessions *auth.SessionManager, log *zap.Logger) *SessionHandler {
	return &SessionHandler{cfg: cfg, sessions: sessions, log: log}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies the single allow-listed principal and issues the session
// cookie.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password required")
		return
	}

	if req.Email != h.cfg.AllowedEmail ||
		bcrypt.CompareHashAndPassword([]byte(h.cfg.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := h.sessions.Issue(w, req.Email); err != nil {
		h.log.Error("could not issue session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "email": req.Email})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
