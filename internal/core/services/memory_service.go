package services

import (
	"context"
	"strings"
	"time"

	"github.com/comitanigiacomo/2moro-engine/internal/core/domain"
)

const (
	minSearchQueryLen = 2
	searchMemoryLimit = 5
	searchPersonLimit = 3
	SearchTypeMemory  = "memory"
	SearchTypePerson  = "person"
)

// InsightProvider is implemented by workers.InsightWorker.
type InsightProvider interface {
	Enqueue(userID string)
	Cached(ctx context.Context, userID string) (string, bool)
	Refresh(ctx context.Context, userID string) (domain.Synthesis[string], error)
}

type MemoryService struct {
	memories domain.MemoryRepository
	people   domain.PersonRepository
	insights InsightProvider
}

func NewMemoryService(memories domain.MemoryRepository, people domain.PersonRepository, insights InsightProvider) *MemoryService {
	return &MemoryService{
		memories: memories,
		people:   people,
		insights: insights,
	}
}

type CreateMemoryInput struct {
	UserID     string
	Content    string
	Type       string
	MemoryDate time.Time
	PersonIDs  []string
}

type CreatePersonInput struct {
	UserID       string
	Name         string
	Relationship string
	Avatar       string
}

type SearchResult struct {
	ID      string     `json:"id"`
	Type    string     `json:"type"`
	Content string     `json:"content"`
	Date    *time.Time `json:"date,omitempty"`
}

func (s *MemoryService) CreateMemory(ctx context.Context, input CreateMemoryInput) (*domain.Memory, error) {
	memory, err := domain.NewMemory(input.UserID, input.Content, input.Type, input.MemoryDate, input.PersonIDs)
	if err != nil {
		return nil, err
	}

	if err := s.memories.Create(ctx, memory); err != nil {
		return nil, err
	}

	if len(memory.PersonIDs) > 0 {
		s.insights.Enqueue(memory.UserID)
	}

	return memory, nil
}

func (s *MemoryService) ListMemories(ctx context.Context, userID string) ([]*domain.Memory, error) {
	return s.memories.ListByUserID(ctx, userID)
}

func (s *MemoryService) CreatePerson(ctx context.Context, input CreatePersonInput) (*domain.Person, error) {
	person, err := domain.NewPerson(input.UserID, input.Name, input.Relationship, input.Avatar)
	if err != nil {
		return nil, err
	}

	if err := s.people.Create(ctx, person); err != nil {
		return nil, err
	}

	s.insights.Enqueue(person.UserID)

	return person, nil
}

func (s *MemoryService) ListPeople(ctx context.Context, userID string) ([]*domain.Person, error) {
	return s.people.ListByUserID(ctx, userID)
}

// Search runs a case-insensitive keyword match over memories and people.
// Queries shorter than two characters return nothing.
func (s *MemoryService) Search(ctx context.Context, userID, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if len(query) < minSearchQueryLen {
		return []SearchResult{}, nil
	}

	memories, err := s.memories.Search(ctx, userID, query, searchMemoryLimit)
	if err != nil {
		return nil, err
	}

	people, err := s.people.Search(ctx, userID, query, searchPersonLimit)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(memories)+len(people))
	for _, m := range memories {
		date := m.MemoryDate
		results = append(results, SearchResult{ID: m.ID, Type: SearchTypeMemory, Content: m.Content, Date: &date})
	}
	for _, p := range people {
		results = append(results, SearchResult{ID: p.ID, Type: SearchTypePerson, Content: p.Name})
	}

	return results, nil
}

// PeopleInsight serves the cached insight, generating it on a miss.
func (s *MemoryService) PeopleInsight(ctx context.Context, userID string) (string, error) {
	if insight, ok := s.insights.Cached(ctx, userID); ok {
		return insight, nil
	}

	result, err := s.insights.Refresh(ctx, userID)
	if err != nil {
		return "", err
	}

	return result.Data, nil
}
