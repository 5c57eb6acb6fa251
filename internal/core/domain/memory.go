package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMemoryNotFound     = errors.New("memory not found")
	ErrMemoryContentEmpty = errors.New("memory content cannot be empty")
	ErrInvalidMemoryType  = errors.New("invalid memory type (must be text, image, voice or event)")
	ErrPersonNameEmpty    = errors.New("person name cannot be empty")
)

const (
	MemoryTypeText  = "text"
	MemoryTypeImage = "image"
	MemoryTypeVoice = "voice"
	MemoryTypeEvent = "event"
)

type Memory struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Content    string    `json:"content" db:"content"`
	Type       string    `json:"type" db:"type"`
	MemoryDate time.Time `json:"memory_date" db:"memory_date"`
	ImageRef   string    `json:"image_ref,omitempty" db:"image_ref"`
	PersonIDs  []string  `json:"person_ids,omitempty" db:"person_ids"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type Person struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	Name         string    `json:"name" db:"name"`
	Relationship string    `json:"relationship" db:"relationship"`
	Avatar       string    `json:"avatar,omitempty" db:"avatar"`
	MemoryCount  int       `json:"memory_count" db:"memory_count"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

func NewMemory(userID, content, memoryType string, date time.Time, personIDs []string) (*Memory, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUserID
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrMemoryContentEmpty
	}

	if memoryType == "" {
		memoryType = MemoryTypeText
	}
	switch memoryType {
	case MemoryTypeText, MemoryTypeImage, MemoryTypeVoice, MemoryTypeEvent:
	default:
		return nil, ErrInvalidMemoryType
	}

	if date.IsZero() {
		date = time.Now()
	}

	return &Memory{
		ID:         uuid.NewString(),
		UserID:     userID,
		Content:    content,
		Type:       memoryType,
		MemoryDate: date.UTC(),
		PersonIDs:  personIDs,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func NewPerson(userID, name, relationship, avatar string) (*Person, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUserID
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrPersonNameEmpty
	}

	return &Person{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         name,
		Relationship: strings.TrimSpace(relationship),
		Avatar:       avatar,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

type MemoryRepository interface {
	// Create persists a memory and links it to the given people. Ids of
	// people the user does not own are dropped, and PersonIDs is left
	// holding only the linked ones.
	Create(ctx context.Context, memory *Memory) error

	// ListByUserID returns the memories of a user, newest memory date first.
	ListByUserID(ctx context.Context, userID string) ([]*Memory, error)

	// Search matches content case-insensitively, newest first, at most limit rows.
	Search(ctx context.Context, userID, query string, limit int) ([]*Memory, error)
}

type PersonRepository interface {
	Create(ctx context.Context, person *Person) error

	// ListByUserID fills MemoryCount for every person.
	ListByUserID(ctx context.Context, userID string) ([]*Person, error)

	Search(ctx context.Context, userID, query string, limit int) ([]*Person, error)
}
