package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/2moro-engine/internal/core/domain"
	"github.com/comitanigiacomo/2moro-engine/internal/core/habitboard"
	"github.com/comitanigiacomo/2moro-engine/internal/core/services"
)

var testNow = time.Date(2026, 5, 4, 20, 0, 0, 0, time.UTC)

func newTestService(repo domain.HabitRepository) *services.HabitService {
	return services.NewHabitServiceWithClock(repo, func() time.Time { return testNow })
}

func seedHabit(t *testing.T, repo *MockRepo, userID string) *domain.Habit {
	t.Helper()

	h, err := domain.NewHabit("Meditate", userID)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), h))
	return h
}

func TestHabitService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: Should create and persist a valid habit (Auto-ID)", func(t *testing.T) {
		repo := NewMockRepo()
		svc := newTestService(repo)

		h, err := svc.Create(ctx, services.CreateHabitInput{UserID: "u1", Title: "Read"})

		require.NoError(t, err)
		assert.NotEmpty(t, h.ID)
		assert.Contains(t, repo.store, h.ID)
	})

	t.Run("Error: Validation fails before touching storage", func(t *testing.T) {
		repo := NewMockRepo()
		svc := newTestService(repo)

		_, err := svc.Create(ctx, services.CreateHabitInput{UserID: "u1", Title: ""})

		assert.ErrorIs(t, err, domain.ErrHabitTitleEmpty)
		assert.Empty(t, repo.store)
	})

	t.Run("Error: Repository failure is surfaced", func(t *testing.T) {
		repo := NewMockRepo()
		repo.simulateError = errors.New("db down")

		_, err := newTestService(repo).Create(ctx, services.CreateHabitInput{UserID: "u1", Title: "Read"})

		assert.EqualError(t, err, "db down")
	})
}

func TestHabitService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: Rename bumps version", func(t *testing.T) {
		repo := NewMockRepo()
		h := seedHabit(t, repo, "u1")

		updated, err := newTestService(repo).Update(ctx, services.UpdateHabitInput{ID: h.ID, UserID: "u1", Title: "Breathe", Version: 1})

		require.NoError(t, err)
		assert.Equal(t, "Breathe", updated.Title)
		assert.Equal(t, 2, updated.Version)
	})

	t.Run("Error: Stale client version", func(t *testing.T) {
		repo := NewMockRepo()
		h := seedHabit(t, repo, "u1")
		repo.store[h.ID].Version = 5

		_, err := newTestService(repo).Update(ctx, services.UpdateHabitInput{ID: h.ID, UserID: "u1", Title: "Breathe", Version: 4})

		assert.ErrorIs(t, err, domain.ErrHabitConflict)
	})

	t.Run("Error: Other user's habit looks missing", func(t *testing.T) {
		repo := NewMockRepo()
		h := seedHabit(t, repo, "u1")

		_, err := newTestService(repo).Update(ctx, services.UpdateHabitInput{ID: h.ID, UserID: "intruder", Title: "X"})

		assert.ErrorIs(t, err, domain.ErrHabitNotFound)
	})
}

func TestHabitService_Toggle(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: Completing increments streak once", func(t *testing.T) {
		repo := NewMockRepo()
		h := seedHabit(t, repo, "u1")
		svc := newTestService(repo)

		got, err := svc.Toggle(ctx, services.ToggleHabitInput{ID: h.ID, UserID: "u1", Completed: true})
		require.NoError(t, err)
		assert.Equal(t, 1, got.Streak)
		assert.Equal(t, testNow, *got.LastCompletedAt)

		again, err := svc.Toggle(ctx, services.ToggleHabitInput{ID: h.ID, UserID: "u1", Completed: true})
		require.NoError(t, err)
		assert.Equal(t, 1, again.Streak)
		assert.Equal(t, 1, repo.updates)
	})

	t.Run("Success: Client claim is ignored, stored state decides", func(t *testing.T) {
		repo := NewMockRepo()
		h := seedHabit(t, repo, "u1")
		earlier := testNow.Add(-time.Hour)
		repo.store[h.ID].Streak = 3
		repo.store[h.ID].LastCompletedAt = &earlier

		got, err := newTestService(repo).Toggle(ctx, services.ToggleHabitInput{ID: h.ID, UserID: "u1", Completed: true})

		require.NoError(t, err)
		assert.Equal(t, 3, got.Streak)
		assert.Zero(t, repo.updates)
	})

	t.Run("Success: Concurrent writer triggers re-evaluation", func(t *testing.T) {
		repo := NewMockRepo()
		h := seedHabit(t, repo, "u1")
		repo.conflicts = 2

		got, err := newTestService(repo).Toggle(ctx, services.ToggleHabitInput{ID: h.ID, UserID: "u1", Completed: true})

		require.NoError(t, err)
		assert.Equal(t, 1, got.Streak)
		assert.Equal(t, 3, repo.updates)
	})

	t.Run("Error: Persistent conflict gives up", func(t *testing.T) {
		repo := NewMockRepo()
		h := seedHabit(t, repo, "u1")
		repo.conflicts = 10

		_, err := newTestService(repo).Toggle(ctx, services.ToggleHabitInput{ID: h.ID, UserID: "u1", Completed: true})

		assert.ErrorIs(t, err, domain.ErrHabitConflict)
	})

	t.Run("Error: Unknown habit", func(t *testing.T) {
		_, err := newTestService(NewMockRepo()).Toggle(ctx, services.ToggleHabitInput{ID: "nope", UserID: "u1", Completed: true})
		assert.ErrorIs(t, err, domain.ErrHabitNotFound)
	})
}

func TestHabitService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: Soft delete shows up in sync delta", func(t *testing.T) {
		repo := NewMockRepo()
		h := seedHabit(t, repo, "u1")
		svc := newTestService(repo)
		since := time.Now().UTC().Add(-time.Minute)

		require.NoError(t, svc.Delete(ctx, h.ID, "u1"))

		list, err := svc.ListByUserID(ctx, "u1")
		require.NoError(t, err)
		assert.Empty(t, list)

		delta, err := svc.GetDelta(ctx, "u1", since)
		require.NoError(t, err)
		require.Len(t, delta, 1)
		assert.NotNil(t, delta[0].DeletedAt)
	})

	t.Run("Error: Cannot delete another user's habit", func(t *testing.T) {
		repo := NewMockRepo()
		h := seedHabit(t, repo, "u1")

		err := newTestService(repo).Delete(ctx, h.ID, "u2")

		assert.ErrorIs(t, err, domain.ErrHabitNotFound)
		assert.Nil(t, repo.store[h.ID].DeletedAt)
	})
}

func TestHabitGateway_DrivesBoard(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepo()
	svc := newTestService(repo)

	board := habitboard.NewBoardWithClock("u1", svc.GatewayFor("u1"), func() time.Time { return testNow }, nil)

	require.NoError(t, board.Add(ctx, "Stretch"))
	habits := board.Habits()
	require.Len(t, habits, 1)
	id := habits[0].ID
	assert.Contains(t, repo.store, id)

	require.NoError(t, board.Toggle(ctx, id, true))
	assert.Equal(t, 1, board.Habits()[0].Streak)
	assert.Equal(t, repo.store[id].Streak, board.Habits()[0].Streak)

	require.NoError(t, board.Delete(ctx, id))
	assert.Empty(t, board.Habits())
}
