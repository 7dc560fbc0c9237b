package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"caltrack/internal/middleware"
	"caltrack/internal/services"
)

type APIKeysHandler struct {
	svc      *services.APIKeyService
	log      *zap.Logger
	validate *validator.Validate
}

func NewAPIKeysHandler(svc *services.APIKeyService, log *zap.Logger) *APIKeysHandler {
	return &APIKeysHandler{svc: svc, log: log, validate: validator.New()}
}

type generateKeyRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// Generate mints a new key for the caller and returns the plaintext token
// the only time it will ever be visible.
func (h *APIKeysHandler) Generate(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())

	var req generateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	key, err := h.svc.Generate(r.Context(), identity.UserEmail, req.Name)
	if err != nil {
		h.log.Error("api key generation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create API key")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"api_key": key,
	})
}

func (h *APIKeysHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())

	keys, err := h.svc.List(r.Context(), identity.UserEmail)
	if err != nil {
		h.log.Error("api key list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list API keys")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"api_keys": keys,
	})
}

// Revoke soft-deletes a key. A miss for any reason (unknown id, wrong owner,
// already revoked) is a 404.
func (h *APIKeysHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	keyID := chi.URLParam(r, "id")

	ok, err := h.svc.Revoke(r.Context(), identity.UserEmail, keyID)
	if err != nil {
		h.log.Error("api key revoke failed", zap.String("key_id", keyID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to revoke API key")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "API key not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
