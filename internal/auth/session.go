// Package auth issues and checks back-office admin sessions. A session is
// a signed HS256 token whose id must also be present in a SessionStore, so
// logging out revokes it before expiry.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrAuthFailure covers both unknown users and wrong passwords.
	ErrAuthFailure = errors.New("auth: invalid credentials")
	// ErrSessionInvalid means the token is malformed, expired or revoked.
	ErrSessionInvalid = errors.New("auth: invalid session")
)

// FailureMessage is the single text shown for any failed login.
const FailureMessage = "Kullanıcı adı veya şifre hatalı."

// Session is an authenticated admin.
type Session struct {
	ID        string    `json:"sessionId"`
	Username  string    `json:"username"`
	Token     string    `json:"token,omitempty"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type sessionKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session placed by the admin middleware.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

// SessionStore tracks live session ids.
type SessionStore interface {
	Register(ctx context.Context, id, username string, ttl time.Duration) error
	Exists(ctx context.Context, id string) (bool, error)
	Revoke(ctx context.Context, id string) error
}

const sessionKeyPrefix = "auth:session:"

// RedisSessionStore keeps one key per session, expiring with the token.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	if client == nil {
		panic("auth: redis client required")
	}
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Register(ctx context.Context, id, username string, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKeyPrefix+id, username, ttl).Err(); err != nil {
		return fmt.Errorf("auth: register session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("auth: check session: %w", err)
	}
	return n > 0, nil
}

func (s *RedisSessionStore) Revoke(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("auth: revoke session: %w", err)
	}
	return nil
}

// MemorySessionStore is the single-process fallback when Redis is absent.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]time.Time), now: time.Now}
}

func (s *MemorySessionStore) Register(_ context.Context, id, _ string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = s.now().Add(ttl)
	return nil
}

func (s *MemorySessionStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.sessions[id]
	if !ok {
		return false, nil
	}
	if !s.now().Before(exp) {
		delete(s.sessions, id)
		return false, nil
	}
	return true, nil
}

func (s *MemorySessionStore) Revoke(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
