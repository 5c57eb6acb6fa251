package repository

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/comitanigiacomo/2moro-engine/internal/core/domain"
)

// In-memory implementations back the "memory" storage driver used for
// local runs and handler tests. They copy on the way in and out so
// callers never share records with the store.

var (
	_ domain.HabitRepository  = (*InMemoryHabitRepository)(nil)
	_ domain.UserRepository   = (*InMemoryUserRepository)(nil)
	_ domain.MemoryRepository = (*InMemoryMemoryRepository)(nil)
	_ domain.PersonRepository = (*InMemoryPersonRepository)(nil)
)

type InMemoryHabitRepository struct {
	store map[string]*domain.Habit

	mu sync.RWMutex
}

func NewInMemoryHabitRepository() *InMemoryHabitRepository {
	return &InMemoryHabitRepository{
		store: make(map[string]*domain.Habit),
	}
}

func (r *InMemoryHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	habit.Version = 1
	clone := *habit
	r.store[habit.ID] = &clone
	return nil
}

func (r *InMemoryHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habit, ok := r.store[id]
	if !ok || habit.DeletedAt != nil {
		return nil, domain.ErrHabitNotFound
	}
	clone := *habit
	return &clone, nil
}

func (r *InMemoryHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habits := []*domain.Habit{}
	for _, h := range r.store {
		if h.UserID == userID && h.DeletedAt == nil {
			clone := *h
			habits = append(habits, &clone)
		}
	}

	slices.SortFunc(habits, func(a, b *domain.Habit) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return habits, nil
}

func (r *InMemoryHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.store[habit.ID]
	if !ok || existing.DeletedAt != nil {
		return domain.ErrHabitNotFound
	}
	if existing.Version != habit.Version {
		return domain.ErrHabitConflict
	}

	habit.Version++
	habit.UpdatedAt = time.Now().UTC()
	clone := *habit
	r.store[habit.ID] = &clone
	return nil
}

func (r *InMemoryHabitRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	habit, ok := r.store[id]
	if !ok || habit.DeletedAt != nil {
		return domain.ErrHabitNotFound
	}

	now := time.Now().UTC()
	habit.DeletedAt = &now
	habit.UpdatedAt = now
	habit.Version++
	return nil
}

func (r *InMemoryHabitRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	changes := []*domain.Habit{}
	for _, h := range r.store {
		if h.UserID == userID && h.UpdatedAt.After(since) {
			clone := *h
			changes = append(changes, &clone)
		}
	}

	slices.SortFunc(changes, func(a, b *domain.Habit) int { return a.UpdatedAt.Compare(b.UpdatedAt) })
	return changes, nil
}

type InMemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{users: make(map[string]*domain.User)}
}

func copyUser(u *domain.User) *domain.User {
	clone := *u
	if u.Profile != nil {
		p := u.Profile.Clone()
		clone.Profile = &p
	}
	clone.Preferences = maps.Clone(u.Preferences)
	return &clone
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (r *InMemoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[user.ID] = copyUser(user)
	return nil
}

type InMemoryMemoryRepository struct {
	mu       sync.RWMutex
	memories []domain.Memory
	people   *InMemoryPersonRepository
}

// NewInMemoryMemoryRepository links memories to people so person
// memory counts stay consistent.
func NewInMemoryMemoryRepository(people *InMemoryPersonRepository) *InMemoryMemoryRepository {
	return &InMemoryMemoryRepository{people: people}
}

func (r *InMemoryMemoryRepository) Create(ctx context.Context, memory *domain.Memory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var linked []string
	if r.people != nil {
		linked = r.people.link(memory.UserID, memory.PersonIDs)
	}
	memory.PersonIDs = linked

	clone := *memory
	clone.PersonIDs = slices.Clone(linked)
	r.memories = append(r.memories, clone)
	return nil
}

func (r *InMemoryMemoryRepository) filter(userID string, match func(domain.Memory) bool, limit int) []*domain.Memory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.Memory{}
	for _, m := range r.memories {
		if m.UserID == userID && match(m) {
			clone := m
			clone.PersonIDs = slices.Clone(m.PersonIDs)
			out = append(out, &clone)
		}
	}

	slices.SortStableFunc(out, func(a, b *domain.Memory) int { return b.MemoryDate.Compare(a.MemoryDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *InMemoryMemoryRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Memory, error) {
	return r.filter(userID, func(domain.Memory) bool { return true }, 0), nil
}

func (r *InMemoryMemoryRepository) Search(ctx context.Context, userID, query string, limit int) ([]*domain.Memory, error) {
	q := strings.ToLower(query)
	return r.filter(userID, func(m domain.Memory) bool {
		return strings.Contains(strings.ToLower(m.Content), q)
	}, limit), nil
}

type InMemoryPersonRepository struct {
	mu     sync.RWMutex
	people []domain.Person
}

func NewInMemoryPersonRepository() *InMemoryPersonRepository {
	return &InMemoryPersonRepository{}
}

// link bumps the memory count of the user's own people among personIDs
// and returns their ids.
func (r *InMemoryPersonRepository) link(userID string, personIDs []string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var linked []string
	for i := range r.people {
		if r.people[i].UserID == userID && slices.Contains(personIDs, r.people[i].ID) {
			r.people[i].MemoryCount++
			linked = append(linked, r.people[i].ID)
		}
	}
	return linked
}

func (r *InMemoryPersonRepository) Create(ctx context.Context, person *domain.Person) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.people = append(r.people, *person)
	return nil
}

func (r *InMemoryPersonRepository) filter(userID string, match func(domain.Person) bool, limit int) []*domain.Person {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.Person{}
	for _, p := range r.people {
		if p.UserID == userID && match(p) {
			clone := p
			out = append(out, &clone)
		}
	}

	slices.SortStableFunc(out, func(a, b *domain.Person) int { return strings.Compare(a.Name, b.Name) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *InMemoryPersonRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Person, error) {
	return r.filter(userID, func(domain.Person) bool { return true }, 0), nil
}

func (r *InMemoryPersonRepository) Search(ctx context.Context, userID, query string, limit int) ([]*domain.Person, error) {
	q := strings.ToLower(query)
	return r.filter(userID, func(p domain.Person) bool {
		return strings.Contains(strings.ToLower(p.Name), q)
	}, limit), nil
}
