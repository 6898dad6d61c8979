package service

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"vehicleparking/backend/services/parking-service/internal/models"
)

// Claims is the JWT payload naming a server-side session.
type Claims struct {
	SessionID string      `json:"sid"`
	UserID    int64       `json:"user_id"`
	Role      models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenService handles JWT creation and validation.
type TokenService struct {
	secret    []byte
	expiresIn time.Duration
}

// NewTokenService returns configured token service. A zero expiresIn issues tokens
// without an expiry; the session then lives until logout.
func NewTokenService(secret string, expiresIn time.Duration) *TokenService {
	if expiresIn < 0 {
		expiresIn = 0
	}
	return &TokenService{secret: []byte(secret), expiresIn: expiresIn}
}

// GenerateToken issues a JWT for the given session.
func (t *TokenService) GenerateToken(session *models.Session) (string, error) {
	if session.ID == "" {
		return "", errors.New("token: session id is required")
	}
	if session.AccountID == 0 {
		return "", errors.New("token: account id is required")
	}

	now := time.Now().UTC()
	claims := Claims{
		SessionID: session.ID,
		UserID:    session.AccountID,
		Role:      session.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       session.ID,
			Subject:  strconv.FormatInt(session.AccountID, 10),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if t.expiresIn > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(t.expiresIn))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ValidateToken verifies and decodes JWT.
func (t *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("token: unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.SessionID != "" {
		return claims, nil
	}

	return nil, errors.New("token: invalid claims")
}
