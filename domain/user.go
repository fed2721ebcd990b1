package domain

import "time"

// UserRole distinguishes platform administrators from regular accounts.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// User represents an authenticated identity in the platform.
type User struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Role            UserRole  `json:"role"`
	IsBlocked       bool      `json:"is_blocked"`
	IsEmailVerified bool      `json:"is_email_verified"`

	VerificationToken       string    `json:"-"`
	VerificationTokenExpiry time.Time `json:"-"`
	ResetToken              string    `json:"-"`
	ResetTokenExpiry        time.Time `json:"-"`
	RefreshToken            string    `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}

// CanLogin reports whether the account may start a session.
func (u *User) CanLogin() bool {
	return u != nil && !u.IsBlocked
}

// Snapshot captures the denormalized actor identity embedded in ledger
// entries. The copy is taken at write time and never refreshed.
func (u *User) Snapshot() ActorSnapshot {
	if u == nil {
		return ActorSnapshot{}
	}
	return ActorSnapshot{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
