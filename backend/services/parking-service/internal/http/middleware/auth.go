package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"vehicleparking/backend/services/parking-service/internal/models"
	"vehicleparking/backend/services/parking-service/internal/service"
)

// SessionCookie names the cookie carrying the session token.
const SessionCookie = "parking_session"

type contextKey string

const principalKey contextKey = "principal"

// SessionResolver maps a session token to its principal.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (models.Principal, error)
}

// AuthMiddleware resolves the session token and stores the principal in the request context.
func AuthMiddleware(resolver SessionResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "login required")
				return
			}

			principal, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrUnauthorized) {
					writeError(w, http.StatusUnauthorized, "invalid or expired session")
					return
				}
				logger.Error("failed to resolve session", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// TokenFromRequest reads the session token from the bearer header, falling back to the cookie.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext retrieves the principal stored by AuthMiddleware.
func PrincipalFromContext(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(models.Principal)
	return p, ok
}
