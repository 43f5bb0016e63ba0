// Package session keeps the signed-in user of a browser session in durable
// storage under the "@ISOW:user" key, namespaced by session id.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/isow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultStorageKey is the durable key holding the serialized user
const DefaultStorageKey = "@ISOW:user"

// HomeRoute is where the browser goes after signing out
const HomeRoute = "/"

// ErrMissingIdentity is returned when signing in without a name or email
var ErrMissingIdentity = shared.NewDomainError("VALIDATION_ERROR", "Session user requires a name and an email")

// User is the signed-in user. It is replaced wholesale, never mutated.
type User struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// IsZero reports whether no user is signed in
func (u User) IsZero() bool {
	return u == User{}
}

// Storage is the durable key-value storage behind sessions
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Manager hands out per-session stores over one storage
type Manager struct {
	storage    Storage
	storageKey string
	ttl        time.Duration
	logger     *zap.Logger
}

// NewManager creates a session manager
func NewManager(storage Storage, storageKey string, ttl time.Duration, logger *zap.Logger) *Manager {
	if storageKey == "" {
		storageKey = DefaultStorageKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{storage: storage, storageKey: storageKey, ttl: ttl, logger: logger}
}

// NewSessionID returns a fresh random session id
func NewSessionID() string {
	return uuid.NewString()
}

// Store returns the store of one session. Nothing is read until Load.
func (m *Manager) Store(sessionID string) *Store {
	return &Store{manager: m, sessionID: sessionID}
}

func (m *Manager) key(sessionID string) string {
	return m.storageKey + ":" + sessionID
}

// Store is the user of one session
type Store struct {
	manager   *Manager
	sessionID string

	mu   sync.RWMutex
	user User
}

// SessionID returns the session the store belongs to
func (s *Store) SessionID() string {
	return s.sessionID
}

// User returns the in-memory user
func (s *Store) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// SignIn persists user and makes it the current user
func (s *Store) SignIn(ctx context.Context, user User) error {
	if user.Name == "" || user.Email == "" {
		return ErrMissingIdentity
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}
	if err := s.manager.storage.Set(ctx, s.manager.key(s.sessionID), string(data), s.manager.ttl); err != nil {
		return fmt.Errorf("persist session user: %w", err)
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return nil
}

// SignOut removes the persisted user and returns the route to navigate to
func (s *Store) SignOut(ctx context.Context) (string, error) {
	s.mu.Lock()
	s.user = User{}
	s.mu.Unlock()

	if err := s.manager.storage.Delete(ctx, s.manager.key(s.sessionID)); err != nil {
		return HomeRoute, fmt.Errorf("clear session user: %w", err)
	}
	return HomeRoute, nil
}

// Load reads the persisted user once. A missing, unreadable or malformed
// value leaves the user empty; malformed values are also removed.
func (s *Store) Load(ctx context.Context) User {
	key := s.manager.key(s.sessionID)
	logger := s.manager.logger.With(zap.String("session_id", s.sessionID))

	raw, ok, err := s.manager.storage.Get(ctx, key)
	if err != nil {
		logger.Warn("failed to read session user", zap.Error(err))
		return s.reset()
	}
	if !ok {
		return s.reset()
	}

	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil || user.Name == "" || user.Email == "" {
		logger.Warn("discarding malformed session user", zap.Error(err), zap.Int("bytes", len(raw)))
		if delErr := s.manager.storage.Delete(ctx, key); delErr != nil {
			logger.Warn("failed to remove malformed session user", zap.Error(delErr))
		}
		return s.reset()
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return user
}

func (s *Store) reset() User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = User{}
	return s.user
}
