package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vehicleparking/backend/services/parking-service/internal/models"
	redisstore "vehicleparking/backend/services/parking-service/internal/redis"
)

// SessionStore keeps server-side sessions.
type SessionStore interface {
	Save(ctx context.Context, session models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// Authenticator checks credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*models.Account, error)
}

// SessionService maps logins to server-side sessions and resolves them back to principals.
type SessionService struct {
	accounts Authenticator
	store    SessionStore
	tokens   *TokenService
	logger   *zap.Logger
}

// NewSessionService builds service.
func NewSessionService(accounts Authenticator, store SessionStore, tokens *TokenService, logger *zap.Logger) *SessionService {
	return &SessionService{
		accounts: accounts,
		store:    store,
		tokens:   tokens,
		logger:   logger,
	}
}

// Login authenticates the credentials, opens a session and returns its token.
func (s *SessionService) Login(ctx context.Context, username, password string) (string, models.Principal, error) {
	account, err := s.accounts.Authenticate(ctx, username, password)
	if err != nil {
		return "", models.Principal{}, err
	}

	session := models.Session{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		Role:      account.Role,
		Username:  account.Username,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Save(ctx, session); err != nil {
		return "", models.Principal{}, err
	}

	token, err := s.tokens.GenerateToken(&session)
	if err != nil {
		if delErr := s.store.Delete(ctx, session.ID); delErr != nil {
			s.logger.Warn("failed to drop orphaned session", zap.String("session_id", session.ID), zap.Error(delErr))
		}
		return "", models.Principal{}, err
	}

	s.logger.Info("user logged in",
		zap.Int64("account_id", account.ID),
		zap.String("role", string(account.Role)),
	)
	return token, session.Principal(), nil
}

// Resolve returns the principal of a live session token.
func (s *SessionService) Resolve(ctx context.Context, token string) (models.Principal, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return models.Principal{}, ErrUnauthorized
	}

	session, err := s.store.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, redisstore.ErrSessionNotFound) {
			return models.Principal{}, ErrUnauthorized
		}
		return models.Principal{}, err
	}
	if session.AccountID != claims.UserID {
		return models.Principal{}, ErrUnauthorized
	}
	return session.Principal(), nil
}

// Logout deletes the session behind token. Unknown or invalid tokens are ignored.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil
	}
	if err := s.store.Delete(ctx, claims.SessionID); err != nil {
		return err
	}
	s.logger.Info("user logged out", zap.Int64("account_id", claims.UserID))
	return nil
}
