package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// WizardStore persists wizard sessions between requests.
type WizardStore interface {
	Load(ctx context.Context, id string) (*Wizard, error)
	Save(ctx context.Context, w *Wizard) error
	Delete(ctx context.Context, id string) error
}

// RedisWizardStore keeps sessions as JSON with a sliding TTL.
type RedisWizardStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisWizardStore(client *redis.Client, ttl time.Duration) *RedisWizardStore {
	if client == nil {
		panic("booking: redis client required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisWizardStore{redis: client, ttl: ttl}
}

func (s *RedisWizardStore) key(id string) string {
	return "booking:wizard:" + id
}

func (s *RedisWizardStore) Load(ctx context.Context, id string) (*Wizard, error) {
	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("booking: load wizard: %w", err)
	}
	var w Wizard
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("booking: decode wizard: %w", err)
	}
	return &w, nil
}

func (s *RedisWizardStore) Save(ctx context.Context, w *Wizard) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("booking: encode wizard: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(w.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("booking: save wizard: %w", err)
	}
	return nil
}

func (s *RedisWizardStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("booking: delete wizard: %w", err)
	}
	return nil
}

// MemoryWizardStore is the single-process fallback when Redis is not configured.
type MemoryWizardStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memoryWizard
}

type memoryWizard struct {
	data      []byte
	expiresAt time.Time
}

func NewMemoryWizardStore(ttl time.Duration) *MemoryWizardStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemoryWizardStore{ttl: ttl, now: time.Now, sessions: make(map[string]memoryWizard)}
}

func (s *MemoryWizardStore) Load(ctx context.Context, id string) (*Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.now().After(entry.expiresAt) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	var w Wizard
	if err := json.Unmarshal(entry.data, &w); err != nil {
		return nil, fmt.Errorf("booking: decode wizard: %w", err)
	}
	return &w, nil
}

func (s *MemoryWizardStore) Save(ctx context.Context, w *Wizard) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("booking: encode wizard: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[w.ID] = memoryWizard{data: data, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryWizardStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

var (
	_ WizardStore = (*RedisWizardStore)(nil)
	_ WizardStore = (*MemoryWizardStore)(nil)
)
