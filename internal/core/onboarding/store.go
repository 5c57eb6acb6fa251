package onboarding

import (
	"context"
	"errors"
	"sync"
)

var ErrGateHeld = errors.New("onboarding gate already held")

// StateStore persists per-user onboarding progress between requests.
type StateStore interface {
	// Load returns ErrStateNotFound when the user has not started yet.
	Load(ctx context.Context, userID string) (State, error)
	Save(ctx context.Context, userID string, s State) error
	Delete(ctx context.Context, userID string) error
}

// Gate serializes transitions for one user across processes. Acquire
// fails with ErrGateHeld when another transition owns the key.
type Gate interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
	Held(ctx context.Context, key string) bool
}

type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

func (s *MemoryStore) Load(_ context.Context, userID string) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[userID]
	if !ok {
		return State{}, ErrStateNotFound
	}
	return st.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, userID string, st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st.Loading = false
	s.states[userID] = st.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, userID)
	return nil
}

type LocalGate struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalGate() *LocalGate {
	return &LocalGate{held: make(map[string]struct{})}
}

func (g *LocalGate) Acquire(_ context.Context, key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.held[key]; ok {
		return nil, ErrGateHeld
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}

func (g *LocalGate) Held(_ context.Context, key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.held[key]
	return ok
}
