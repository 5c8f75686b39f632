package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/paydash/internal/core/domain"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore(domain.TokenPair{AccessToken: "a1"})

	if s.AccessToken() != "a1" {
		t.Errorf("expected seed a1, got %q", s.AccessToken())
	}
	if s.RefreshToken() != "" {
		t.Errorf("expected empty refresh token, got %q", s.RefreshToken())
	}

	s.SetAccessToken("a2")
	s.SetRefreshToken("r2")
	if got := Pair(s); got != (domain.TokenPair{AccessToken: "a2", RefreshToken: "r2"}) {
		t.Errorf("unexpected pair %+v", got)
	}

	s.Clear()
	if !Pair(s).Empty() {
		t.Errorf("expected empty pair after Clear, got %+v", Pair(s))
	}
}

func TestMemoryStore_Concurrency(t *testing.T) {
	s := NewMemoryStore(domain.TokenPair{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetAccessToken("token")
		}()
		go func() {
			defer wg.Done()
			_ = s.AccessToken()
		}()
	}
	wg.Wait()

	if s.AccessToken() != "token" {
		t.Errorf("expected token, got %q", s.AccessToken())
	}
}

type fakePersister struct {
	mu      sync.Mutex
	stored  map[string]domain.TokenPair
	saves   int
	clears  int
	saveErr error
}

func newFakePersister() *fakePersister {
	return &fakePersister{stored: make(map[string]domain.TokenPair)}
}

func (f *fakePersister) LoadSession(ctx context.Context, name string) (domain.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored[name], nil
}

func (f *fakePersister) SaveSession(ctx context.Context, name string, pair domain.TokenPair) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.stored[name] = pair
	return nil
}

func (f *fakePersister) ClearSession(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	delete(f.stored, name)
	return nil
}

func TestRedisStore_WriteThrough(t *testing.T) {
	backend := newFakePersister()
	s := NewRedisStore(backend, "admin")

	s.SetAccessToken("a1")
	s.SetRefreshToken("r1")

	want := domain.TokenPair{AccessToken: "a1", RefreshToken: "r1"}
	if backend.stored["admin"] != want {
		t.Errorf("persisted %+v, want %+v", backend.stored["admin"], want)
	}

	// A second store sharing the backend sees the session after Load.
	other := NewRedisStore(backend, "admin")
	if err := other.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if Pair(other) != want {
		t.Errorf("loaded %+v, want %+v", Pair(other), want)
	}

	s.Clear()
	if _, ok := backend.stored["admin"]; ok {
		t.Error("expected persisted session to be removed")
	}
	if !Pair(s).Empty() {
		t.Error("expected memory to be cleared")
	}
}

// gatedPersister holds the first SaveSession until release is closed.
type gatedPersister struct {
	*fakePersister
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedPersister) SaveSession(ctx context.Context, name string, pair domain.TokenPair) error {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return g.fakePersister.SaveSession(ctx, name, pair)
}

func TestRedisStore_ClearAfterSlowSaveStaysCleared(t *testing.T) {
	backend := &gatedPersister{
		fakePersister: newFakePersister(),
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	s := NewRedisStore(backend, "admin")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.SetAccessToken("refreshed")
	}()
	<-backend.entered

	go func() {
		defer wg.Done()
		s.Clear()
	}()
	// Give Clear a chance to run before the save lands.
	time.Sleep(20 * time.Millisecond)
	close(backend.release)
	wg.Wait()

	if !Pair(s).Empty() {
		t.Errorf("memory = %+v, want empty", Pair(s))
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if pair, ok := backend.stored["admin"]; ok {
		t.Errorf("persisted %+v after Clear, want nothing", pair)
	}
}

func TestRedisStore_PersistFailureKeepsMemory(t *testing.T) {
	backend := newFakePersister()
	backend.saveErr = errors.New("connection refused")
	s := NewRedisStore(backend, "admin")

	s.SetAccessToken("a1")
	if s.AccessToken() != "a1" {
		t.Errorf("memory value lost on persist failure: %q", s.AccessToken())
	}
	if backend.saves != 1 {
		t.Errorf("expected 1 save attempt, got %d", backend.saves)
	}
}

func TestRedisStore_LoadKeepsSeedWhenEmpty(t *testing.T) {
	backend := newFakePersister()
	s := NewRedisStore(backend, "admin")
	s.mem.replace(domain.TokenPair{AccessToken: "seed"})

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.AccessToken() != "seed" {
		t.Errorf("expected seed to survive, got %q", s.AccessToken())
	}
}
