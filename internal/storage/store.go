// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/tabsplit/internal/models"
)

// ErrNotFound is returned (wrapped) when a session or user does not exist.
var ErrNotFound = errors.New("not found")

// SessionStore persists bill-splitting sessions.
// This abstraction allows swapping storage backends (SQLite, in-memory, etc.)
// without changing the service layer.
type SessionStore interface {
	// CreateSession persists a new session. Missing timestamps are filled in.
	CreateSession(ctx context.Context, session *models.Session) error

	// GetSession retrieves a session with all its items, assignments and participants.
	// Returns an error wrapping ErrNotFound if the session does not exist.
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)

	// SaveSession replaces the stored state of an existing session.
	// Returns an error wrapping ErrNotFound if the session does not exist.
	SaveSession(ctx context.Context, session *models.Session) error

	// ListSessions returns the sessions owned by ownerID, newest first.
	ListSessions(ctx context.Context, ownerID string) ([]*models.Session, error)

	// DeleteSession removes a session and everything it contains.
	DeleteSession(ctx context.Context, sessionID string) error
}

// UserStore persists registered accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail and GetUserByID return an error wrapping ErrNotFound
	// when no user matches.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Store is the full persistence collaborator used by the server.
type Store interface {
	SessionStore
	UserStore

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
