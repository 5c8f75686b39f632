package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/paydash/internal/core/domain"
)

// Persister is the backing storage of a RedisStore.
type Persister interface {
	LoadSession(ctx context.Context, name string) (domain.TokenPair, error)
	SaveSession(ctx context.Context, name string, pair domain.TokenPair) error
	ClearSession(ctx context.Context, name string) error
}

// RedisStore serves reads from memory and writes every mutation through to
// Redis so separate processes share one session. Mutations are serialized
// together with their backend write, so Redis sees them in memory order.
type RedisStore struct {
	writeMu sync.Mutex
	mem     *MemoryStore
	backend Persister
	name    string
	timeout time.Duration
	log     *slog.Logger
}

// NewRedisStore creates a write-through store for the session called name.
func NewRedisStore(backend Persister, name string) *RedisStore {
	return &RedisStore{
		mem:     NewMemoryStore(domain.TokenPair{}),
		backend: backend,
		name:    name,
		timeout: 3 * time.Second,
		log:     slog.Default().With("component", "session"),
	}
}

// Load replaces the in-memory pair with the persisted one. Seed values are
// kept when nothing is persisted yet.
func (s *RedisStore) Load(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	pair, err := s.backend.LoadSession(ctx, s.name)
	if err != nil {
		return fmt.Errorf("load session %s: %w", s.name, err)
	}
	if pair.Empty() {
		return nil
	}
	s.mem.replace(pair)
	return nil
}

// Seed sets the pair in memory and persists it.
func (s *RedisStore) Seed(pair domain.TokenPair) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mem.replace(pair)
	s.persist()
}

func (s *RedisStore) AccessToken() string  { return s.mem.AccessToken() }
func (s *RedisStore) RefreshToken() string { return s.mem.RefreshToken() }

func (s *RedisStore) SetAccessToken(token string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mem.SetAccessToken(token)
	s.persist()
}

func (s *RedisStore) SetRefreshToken(token string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mem.SetRefreshToken(token)
	s.persist()
}

func (s *RedisStore) Clear() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mem.Clear()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.backend.ClearSession(ctx, s.name); err != nil {
		s.log.Warn("Failed to clear persisted session", "session", s.name, "error", err)
	}
}

// persist must be called with writeMu held.
func (s *RedisStore) persist() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.backend.SaveSession(ctx, s.name, s.mem.snapshot()); err != nil {
		s.log.Warn("Failed to persist session", "session", s.name, "error", err)
	}
}
