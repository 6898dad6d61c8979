package models

import "time"

// Session is the server-side record behind a login.
type Session struct {
	ID        string    `json:"id"`
	AccountID int64     `json:"account_id"`
	Role      Role      `json:"role"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Principal returns the caller identity carried by the session.
func (s *Session) Principal() Principal {
	return Principal{AccountID: s.AccountID, Role: s.Role, Username: s.Username}
}
