package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"vehicleparking/backend/services/parking-service/internal/models"
)

// AccountRepository handles persistence for the users table.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository returns repository instance.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	account.Username = strings.TrimSpace(account.Username)
	const query = `
		INSERT INTO users (full_name, username, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		account.FullName,
		account.Username,
		account.PasswordHash,
		string(account.Role),
	).Scan(&account.ID, &account.CreatedAt)
	if uniqueViolation(err, usernameConstraint) {
		return ErrUsernameTaken
	}
	return err
}

// GetByUsername fetches an account by its exact username.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	const query = `
		SELECT id, full_name, username, password_hash, role, created_at
		FROM users
		WHERE username = $1
		LIMIT 1
	`
	var (
		account models.Account
		role    string
	)
	err := r.db.QueryRowContext(ctx, query, strings.TrimSpace(username)).Scan(
		&account.ID,
		&account.FullName,
		&account.Username,
		&account.PasswordHash,
		&role,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if account.Role, err = models.ParseRole(role); err != nil {
		return nil, err
	}
	return &account, nil
}
