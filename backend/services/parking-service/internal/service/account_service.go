package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"vehicleparking/backend/services/parking-service/internal/models"
	"vehicleparking/backend/services/parking-service/internal/password"
	"vehicleparking/backend/services/parking-service/internal/repository"
)

const maxUsernameLength = 64

// AccountRepository defines storage contract used by the account service.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
}

// AccountService contains registration and credential checks.
type AccountService struct {
	repo   AccountRepository
	hasher password.Hasher
	logger *zap.Logger
}

// NewAccountService builds AccountService.
func NewAccountService(repo AccountRepository, hasher password.Hasher, logger *zap.Logger) *AccountService {
	return &AccountService{
		repo:   repo,
		hasher: hasher,
		logger: logger,
	}
}

// Register creates a user account. The role is always user.
func (s *AccountService) Register(ctx context.Context, fullName, username, pass string) (*models.Account, error) {
	return s.create(ctx, fullName, username, pass, models.RoleUser)
}

// EnsureAdmin creates the admin account unless the username already exists.
// It reports whether an account was created.
func (s *AccountService) EnsureAdmin(ctx context.Context, fullName, username, pass string) (bool, error) {
	existing, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	switch {
	case err == nil:
		if existing.Role != models.RoleAdmin {
			return false, fmt.Errorf("account: %q exists without admin role", existing.Username)
		}
		return false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return false, err
	}

	if _, err := s.create(ctx, fullName, username, pass, models.RoleAdmin); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AccountService) create(ctx context.Context, fullName, username, pass string, role models.Role) (*models.Account, error) {
	fullName = strings.TrimSpace(fullName)
	username = strings.TrimSpace(username)
	if err := validateAccount(fullName, username, pass); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(pass)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		FullName:     fullName,
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}

	s.logger.Info("account registered",
		zap.Int64("account_id", account.ID),
		zap.String("username", account.Username),
		zap.String("role", string(account.Role)),
	)
	return account, nil
}

// Authenticate checks a username/password pair.
func (s *AccountService) Authenticate(ctx context.Context, username, pass string) (*models.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || pass == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.hasher.Compare(account.PasswordHash, pass); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return account, nil
}

func validateAccount(fullName, username, pass string) error {
	if fullName == "" {
		return invalid("full_name", "is required")
	}
	if username == "" {
		return invalid("username", "is required")
	}
	if len(username) > maxUsernameLength {
		return invalid("username", fmt.Sprintf("must be at most %d characters", maxUsernameLength))
	}
	if strings.IndexFunc(username, unicode.IsSpace) >= 0 {
		return invalid("username", "must not contain spaces")
	}
	if pass == "" {
		return invalid("password", "is required")
	}
	return nil
}
