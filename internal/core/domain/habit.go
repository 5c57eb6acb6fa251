package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrHabitTitleEmpty    = errors.New("habit title cannot be empty")
	ErrHabitTitleTooLong  = errors.New("habit title is too long (max 100 chars)")
	ErrHabitInvalidUserID = errors.New("invalid user id")
	ErrHabitDeleted       = errors.New("cannot update a deleted habit")
)

const (
	HabitFreqDaily = "daily"
	MaxTitleLen    = 100
)

type Habit struct {
	ID              string     `json:"id" db:"id"`
	UserID          string     `json:"user_id" db:"user_id"`
	Title           string     `json:"title" db:"title"`
	Frequency       string     `json:"frequency" db:"frequency"`
	Streak          int        `json:"streak" db:"streak"`
	LastCompletedAt *time.Time `json:"last_completed_at" db:"last_completed_at"`

	Version   int        `json:"version" db:"version"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

func validateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", ErrHabitTitleEmpty
	}
	if len(trimmed) > MaxTitleLen {
		return "", ErrHabitTitleTooLong
	}
	return trimmed, nil
}

func NewHabit(title, userID string) (*Habit, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrHabitInvalidUserID
	}

	cleanTitle, err := validateTitle(title)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	return &Habit{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     cleanTitle,
		Frequency: HabitFreqDaily,
		Streak:    0,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (h *Habit) Rename(title string) error {
	if h.DeletedAt != nil {
		return ErrHabitDeleted
	}

	cleanTitle, err := validateTitle(title)
	if err != nil {
		return err
	}

	h.Title = cleanTitle
	h.UpdatedAt = time.Now().UTC()
	return nil
}

// CompletedOn reports whether the habit was last completed on the same
// calendar day as now, evaluated in now's location.
func (h *Habit) CompletedOn(now time.Time) bool {
	if h.LastCompletedAt == nil {
		return false
	}

	last := h.LastCompletedAt.In(now.Location())
	ly, lm, ld := last.Date()
	ny, nm, nd := now.Date()

	return ly == ny && lm == nm && ld == nd
}

// Toggle is the only path that mutates the streak. It returns false when
// the requested state already matches the current one.
func (h *Habit) Toggle(completed bool, now time.Time) bool {
	doneToday := h.CompletedOn(now)

	switch {
	case completed && !doneToday:
		h.Streak++
		at := now
		h.LastCompletedAt = &at
	case !completed && doneToday:
		h.Streak = max(0, h.Streak-1)
		h.LastCompletedAt = nil
	default:
		return false
	}

	h.UpdatedAt = now.UTC()
	return true
}
