package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/msomdec/lensart-api/internal/domain"
	"github.com/msomdec/lensart-api/internal/service"
)

// AuthHandler handles admin login and token verification.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// HandleLogin exchanges the admin password for a token.
// POST /api/auth/login
// Request:  {"password":"..."}
// Response: {"token":"...","message":"Login successful"}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.auth.Login(r.Context(), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "Password is required")
		case errors.Is(err, domain.ErrUnauthorized):
			slog.Warn("failed admin login", "remote", r.RemoteAddr)
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
		default:
			slog.Error("login", "error", err)
			writeError(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"token":   token,
		"message": "Login successful",
	})
}

// HandleVerify reports whether the bearer token is valid.
// POST /api/auth/verify
// Response: {"valid":true} or 401 {"valid":false}
func (h *AuthHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.ValidateToken(bearerToken(r)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]bool{"valid": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}
