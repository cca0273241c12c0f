package models

import (
	"time"

	"github.com/google/uuid"
)

// Account represents a registered sign-in identity.
// It is owned by the identity provider; the leaderboard-facing record is Member.
type Account struct {
	// ID is the unique identifier for the account (UUID format).
	ID string `db:"id"`

	// Email is the account's email address (unique). Used for sign-in.
	Email string `db:"email"`

	// DisplayName is the name shown on leaderboards.
	DisplayName string `db:"display_name"`

	// AvatarURL is an optional profile picture URL.
	AvatarURL string `db:"avatar_url"`

	// PasswordHash is the bcrypt hash of the account password.
	PasswordHash string `db:"password_hash"`

	// CreatedAt is the Unix timestamp when the account was registered.
	CreatedAt int64 `db:"created_at"`
}

// NewAccount creates an Account with a fresh ID and creation time.
func NewAccount(email, displayName, passwordHash string) *Account {
	return &Account{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().Unix(),
	}
}
