package models

import (
	"fmt"
	"time"
)

// Role is the access level of an account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole converts a stored role string into a Role.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleAdmin, RoleUser:
		return Role(raw), nil
	default:
		return "", fmt.Errorf("models: unknown role %q", raw)
	}
}

// Account is a registered person able to log in.
type Account struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"full_name"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal is the authenticated caller of a core operation.
type Principal struct {
	AccountID int64  `json:"account_id"`
	Role      Role   `json:"role"`
	Username  string `json:"username"`
}

// PrincipalFor builds the principal of an authenticated account.
func PrincipalFor(a *Account) Principal {
	return Principal{AccountID: a.ID, Role: a.Role, Username: a.Username}
}

// Is reports whether the principal is an authenticated holder of role.
func (p Principal) Is(role Role) bool {
	return p.AccountID > 0 && p.Role == role
}
