package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. Users own sessions.
// Participants inside a session are plain names and never need an account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is unique and used for login.
	Email string

	DisplayName string

	// PasswordHash is a bcrypt hash. Never serialized to clients.
	PasswordHash string

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// NewUser builds a user with a fresh ID and timestamps.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
