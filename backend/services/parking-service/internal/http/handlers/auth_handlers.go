package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"vehicleparking/backend/services/parking-service/internal/http/middleware"
	"vehicleparking/backend/services/parking-service/internal/models"
)

// Registrar creates user accounts.
type Registrar interface {
	Register(ctx context.Context, fullName, username, password string) (*models.Account, error)
}

// SessionManager opens and closes login sessions.
type SessionManager interface {
	Login(ctx context.Context, username, password string) (string, models.Principal, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandlers serves registration, login and logout.
type AuthHandlers struct {
	accounts     Registrar
	sessions     SessionManager
	secureCookie bool
	logger       *zap.Logger
}

// NewAuthHandlers returns handler.
func NewAuthHandlers(accounts Registrar, sessions SessionManager, secureCookie bool, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{accounts: accounts, sessions: sessions, secureCookie: secureCookie, logger: logger}
}

// Register handles POST /api/auth/register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"full_name"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accounts.Register(r.Context(), req.FullName, req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// Login handles POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	type response struct {
		Token     string      `json:"token"`
		TokenType string      `json:"token_type"`
		UserID    int64       `json:"user_id"`
		Username  string      `json:"username"`
		Role      models.Role `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	token, principal, err := h.sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, response{
		Token:     token,
		TokenType: "Bearer",
		UserID:    principal.AccountID,
		Username:  principal.Username,
		Role:      principal.Role,
	})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.TokenFromRequest(r); token != "" {
		if err := h.sessions.Logout(r.Context(), token); err != nil {
			writeServiceError(w, r, h.logger, err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
