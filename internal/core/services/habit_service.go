package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/comitanigiacomo/2moro-engine/internal/core/domain"
)

const maxToggleAttempts = 3

type HabitService struct {
	repo domain.HabitRepository
	now  func() time.Time
}

func NewHabitService(repo domain.HabitRepository) *HabitService {
	return NewHabitServiceWithClock(repo, time.Now)
}

func NewHabitServiceWithClock(repo domain.HabitRepository, clock func() time.Time) *HabitService {
	return &HabitService{
		repo: repo,
		now:  clock,
	}
}

type CreateHabitInput struct {
	UserID string
	Title  string
}

type UpdateHabitInput struct {
	ID      string
	UserID  string
	Title   string
	Version int
}

type ToggleHabitInput struct {
	ID        string
	UserID    string
	Completed bool
}

func (s *HabitService) Create(ctx context.Context, input CreateHabitInput) (*domain.Habit, error) {
	habit, err := domain.NewHabit(input.Title, input.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, habit); err != nil {
		return nil, err
	}

	return habit, nil
}

func (s *HabitService) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	return s.repo.ListByUserID(ctx, userID)
}

func (s *HabitService) GetDelta(ctx context.Context, userID string, lastSync time.Time) ([]*domain.Habit, error) {
	return s.repo.GetChanges(ctx, userID, lastSync)
}

func (s *HabitService) owned(ctx context.Context, id, userID string) (*domain.Habit, error) {
	habit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if habit.UserID != userID {
		return nil, domain.ErrHabitNotFound
	}

	return habit, nil
}

func (s *HabitService) Update(ctx context.Context, input UpdateHabitInput) (*domain.Habit, error) {
	habit, err := s.owned(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Version > 0 && habit.Version != input.Version {
		return nil, fmt.Errorf("%w: client v%d vs server v%d", domain.ErrHabitConflict, input.Version, habit.Version)
	}

	if err := habit.Rename(input.Title); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, err
	}

	return habit, nil
}

// Toggle is the authoritative completion mutation. "Completed today" is
// derived from the stored record, never from the caller. A concurrent
// writer bumps the version; the toggle is then re-evaluated on fresh data.
func (s *HabitService) Toggle(ctx context.Context, input ToggleHabitInput) (*domain.Habit, error) {
	var lastErr error

	for range maxToggleAttempts {
		habit, err := s.owned(ctx, input.ID, input.UserID)
		if err != nil {
			return nil, err
		}

		if !habit.Toggle(input.Completed, s.now()) {
			habitTogglesTotal.WithLabelValues("noop").Inc()
			return habit, nil
		}

		err = s.repo.Update(ctx, habit)
		if err == nil {
			if input.Completed {
				habitTogglesTotal.WithLabelValues("completed").Inc()
			} else {
				habitTogglesTotal.WithLabelValues("uncompleted").Inc()
			}
			return habit, nil
		}

		if !errors.Is(err, domain.ErrHabitConflict) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

func (s *HabitService) Delete(ctx context.Context, id string, userID string) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}

	return s.repo.Delete(ctx, id)
}

// HabitGateway binds the service to one user so a habitboard.Board can run
// in-process against it.
type HabitGateway struct {
	svc    *HabitService
	userID string
}

func (s *HabitService) GatewayFor(userID string) *HabitGateway {
	return &HabitGateway{svc: s, userID: userID}
}

func (g *HabitGateway) List(ctx context.Context) ([]domain.Habit, error) {
	habits, err := g.svc.ListByUserID(ctx, g.userID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Habit, 0, len(habits))
	for _, h := range habits {
		out = append(out, *h)
	}
	return out, nil
}

func (g *HabitGateway) Create(ctx context.Context, title string) (*domain.Habit, error) {
	return g.svc.Create(ctx, CreateHabitInput{UserID: g.userID, Title: title})
}

func (g *HabitGateway) Toggle(ctx context.Context, id string, completed bool) (*domain.Habit, error) {
	return g.svc.Toggle(ctx, ToggleHabitInput{ID: id, UserID: g.userID, Completed: completed})
}

func (g *HabitGateway) Delete(ctx context.Context, id string) error {
	return g.svc.Delete(ctx, id, g.userID)
}
