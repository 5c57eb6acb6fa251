package services_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/comitanigiacomo/2moro-engine/internal/core/ai"
	"github.com/comitanigiacomo/2moro-engine/internal/core/domain"
)

func ptr[T any](v T) *T {
	return &v
}

type MockRepo struct {
	mu            sync.Mutex
	store         map[string]*domain.Habit
	simulateError error

	// conflicts makes the next N Update calls fail with ErrHabitConflict.
	conflicts int
	updates   int
}

func NewMockRepo() *MockRepo {
	return &MockRepo{store: make(map[string]*domain.Habit)}
}

func (m *MockRepo) Create(ctx context.Context, habit *domain.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.simulateError != nil {
		return m.simulateError
	}
	if _, exists := m.store[habit.ID]; exists {
		return errors.New("duplicate key value violates unique constraint")
	}
	if habit.Version == 0 {
		habit.Version = 1
	}
	clone := *habit
	m.store[habit.ID] = &clone
	return nil
}

func (m *MockRepo) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.simulateError != nil {
		return nil, m.simulateError
	}
	h, ok := m.store[id]
	if !ok || h.DeletedAt != nil {
		return nil, domain.ErrHabitNotFound
	}
	clone := *h
	return &clone, nil
}

func (m *MockRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.simulateError != nil {
		return nil, m.simulateError
	}
	var list []*domain.Habit
	for _, h := range m.store {
		if h.UserID == userID && h.DeletedAt == nil {
			clone := *h
			list = append(list, &clone)
		}
	}
	return list, nil
}

func (m *MockRepo) Update(ctx context.Context, habit *domain.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updates++
	if m.simulateError != nil {
		return m.simulateError
	}

	stored, ok := m.store[habit.ID]
	if !ok {
		return domain.ErrHabitNotFound
	}

	if m.conflicts > 0 {
		m.conflicts--
		stored.Version++
		return domain.ErrHabitConflict
	}

	if stored.Version != habit.Version {
		return domain.ErrHabitConflict
	}

	habit.Version++
	clone := *habit
	m.store[habit.ID] = &clone
	return nil
}

func (m *MockRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.simulateError != nil {
		return m.simulateError
	}
	h, ok := m.store[id]
	if !ok {
		return domain.ErrHabitNotFound
	}
	now := time.Now().UTC()
	h.DeletedAt = &now
	h.Version++
	h.UpdatedAt = now
	return nil
}

func (m *MockRepo) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var changes []*domain.Habit
	for _, h := range m.store {
		if h.UserID == userID && h.UpdatedAt.After(since) {
			clone := *h
			changes = append(changes, &clone)
		}
	}
	return changes, nil
}

type MockUserRepository struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	createErr error
	updateErr error
}

func NewMockUserRepository(users ...*domain.User) *MockUserRepository {
	m := &MockUserRepository{users: make(map[string]*domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

type MockMemoryRepo struct {
	mu        sync.Mutex
	memories  []*domain.Memory
	createErr error
}

func (m *MockMemoryRepo) Create(ctx context.Context, memory *domain.Memory) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	clone := *memory
	m.memories = append(m.memories, &clone)
	return nil
}

func (m *MockMemoryRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Memory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Memory
	for _, mem := range m.memories {
		if mem.UserID == userID {
			clone := *mem
			out = append(out, &clone)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Memory) int { return b.MemoryDate.Compare(a.MemoryDate) })
	return out, nil
}

func (m *MockMemoryRepo) Search(ctx context.Context, userID, query string, limit int) ([]*domain.Memory, error) {
	all, _ := m.ListByUserID(ctx, userID)

	var out []*domain.Memory
	for _, mem := range all {
		if strings.Contains(strings.ToLower(mem.Content), strings.ToLower(query)) {
			out = append(out, mem)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type MockPersonRepo struct {
	mu     sync.Mutex
	people []*domain.Person
}

func (m *MockPersonRepo) Create(ctx context.Context, person *domain.Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := *person
	m.people = append(m.people, &clone)
	return nil
}

func (m *MockPersonRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Person
	for _, p := range m.people {
		if p.UserID == userID {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *MockPersonRepo) Search(ctx context.Context, userID, query string, limit int) ([]*domain.Person, error) {
	all, _ := m.ListByUserID(ctx, userID)

	var out []*domain.Person
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			out = append(out, p)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// stubGenerator answers every prompt with the same text or error.
type stubGenerator struct {
	mu      sync.Mutex
	text    string
	err     error
	prompts []ai.Prompt
}

func (g *stubGenerator) GenerateContentWithFallback(ctx context.Context, prompt ai.Prompt) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

func (g *stubGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}
