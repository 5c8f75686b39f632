// Package session holds the access/refresh token pair used to authenticate
// outgoing API calls.
package session

import (
	"sync"

	"github.com/vietddude/paydash/internal/core/domain"
)

// Store is the token holder consulted by the request pipeline. Empty
// strings mean "no token". Implementations must be safe for concurrent use.
type Store interface {
	AccessToken() string
	RefreshToken() string
	SetAccessToken(token string)
	SetRefreshToken(token string)
	Clear()
}

// Pair returns both tokens held by s.
func Pair(s Store) domain.TokenPair {
	return domain.TokenPair{
		AccessToken:  s.AccessToken(),
		RefreshToken: s.RefreshToken(),
	}
}

// MemoryStore keeps tokens for the lifetime of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	pair domain.TokenPair
}

// NewMemoryStore creates a store seeded with pair.
func NewMemoryStore(pair domain.TokenPair) *MemoryStore {
	return &MemoryStore{pair: pair}
}

func (s *MemoryStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair.AccessToken
}

func (s *MemoryStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair.RefreshToken
}

func (s *MemoryStore) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair.AccessToken = token
}

func (s *MemoryStore) SetRefreshToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair.RefreshToken = token
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = domain.TokenPair{}
}

// snapshot returns the current pair under a single lock.
func (s *MemoryStore) snapshot() domain.TokenPair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair
}

func (s *MemoryStore) replace(pair domain.TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
}
