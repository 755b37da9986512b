// Package memory provides an in-process implementation of storage.Store.
// Sessions are deep-copied on the way in and out, so callers never share
// state with the store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps sessions and users in maps guarded by a mutex.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	users    map[string]*models.User
	emails   map[string]string // lower-cased email -> user ID
}

// New creates an empty store.
func New() *Store {
	return &Store{
		sessions: make(map[string]*models.Session),
		users:    make(map[string]*models.User),
		emails:   make(map[string]string),
	}
}

func (s *Store) CreateSession(_ context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().Unix()
	if session.CreatedAt == 0 {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return fmt.Errorf("session already exists: %s", session.ID)
	}
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *Store) GetSession(_ context.Context, sessionID string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, storage.ErrNotFound)
	}
	return session.Clone(), nil
}

func (s *Store) SaveSession(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.sessions[session.ID]
	if !ok {
		return fmt.Errorf("session %s: %w", session.ID, storage.ErrNotFound)
	}
	session.CreatedAt = existing.CreatedAt
	session.UpdatedAt = time.Now().Unix()
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *Store) ListSessions(_ context.Context, ownerID string) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Session
	for _, session := range s.sessions {
		if session.OwnerID == ownerID {
			out = append(out, session.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return fmt.Errorf("session %s: %w", sessionID, storage.ErrNotFound)
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	key := strings.ToLower(user.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.emails[key]; taken {
		return fmt.Errorf("email already registered: %s", user.Email)
	}
	u := *user
	s.users[user.ID] = &u
	s.emails[key] = user.ID
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
	}
	u := *s.users[id]
	return &u, nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	u := *user
	return &u, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
