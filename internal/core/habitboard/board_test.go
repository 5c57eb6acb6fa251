package habitboard_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/2moro-engine/internal/core/domain"
	"github.com/comitanigiacomo/2moro-engine/internal/core/habitboard"
)

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeGateway struct {
	server    map[string]domain.Habit
	toggleErr error
	createErr error
	lists     int
}

func newFakeGateway(habits ...domain.Habit) *fakeGateway {
	g := &fakeGateway{server: make(map[string]domain.Habit)}
	for _, h := range habits {
		g.server[h.ID] = h
	}
	return g
}

func (g *fakeGateway) List(_ context.Context) ([]domain.Habit, error) {
	g.lists++
	out := make([]domain.Habit, 0, len(g.server))
	for _, h := range g.server {
		out = append(out, h)
	}
	return out, nil
}

func (g *fakeGateway) Create(_ context.Context, title string) (*domain.Habit, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	h := domain.Habit{ID: "server-" + title, UserID: "u1", Title: title, Version: 1}
	g.server[h.ID] = h
	return &h, nil
}

func (g *fakeGateway) Toggle(_ context.Context, id string, completed bool) (*domain.Habit, error) {
	if g.toggleErr != nil {
		return nil, g.toggleErr
	}
	h, ok := g.server[id]
	if !ok {
		return nil, domain.ErrHabitNotFound
	}
	if h.Toggle(completed, fixedNow) {
		h.Version++
	}
	g.server[id] = h
	return &h, nil
}

func (g *fakeGateway) Delete(_ context.Context, id string) error {
	delete(g.server, id)
	return nil
}

func TestReduce_Toggle(t *testing.T) {
	yesterday := fixedNow.AddDate(0, 0, -1)
	habits := []domain.Habit{
		{ID: "h1", Streak: 4, LastCompletedAt: &yesterday},
		{ID: "h2", Streak: 0},
	}

	t.Run("Success: completes once per day", func(t *testing.T) {
		next, err := habitboard.Reduce(habits, habitboard.Action{Kind: habitboard.ActionToggle, HabitID: "h1", Completed: true}, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, 5, next[0].Streak)
		assert.Equal(t, fixedNow, *next[0].LastCompletedAt)

		again, err := habitboard.Reduce(next, habitboard.Action{Kind: habitboard.ActionToggle, HabitID: "h1", Completed: true}, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, 5, again[0].Streak)
	})

	t.Run("Success: input is not mutated", func(t *testing.T) {
		_, err := habitboard.Reduce(habits, habitboard.Action{Kind: habitboard.ActionToggle, HabitID: "h1", Completed: true}, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, 4, habits[0].Streak)
		assert.Equal(t, yesterday, *habits[0].LastCompletedAt)
	})

	t.Run("Success: add and delete", func(t *testing.T) {
		added, err := habitboard.Reduce(habits, habitboard.Action{Kind: habitboard.ActionAdd, Habit: &domain.Habit{ID: "h3"}}, fixedNow)
		require.NoError(t, err)
		assert.Len(t, added, 3)

		removed, err := habitboard.Reduce(added, habitboard.Action{Kind: habitboard.ActionDelete, HabitID: "h1"}, fixedNow)
		require.NoError(t, err)
		assert.Len(t, removed, 2)
		assert.Equal(t, "h2", removed[0].ID)
	})

	t.Run("Failure: unknown action", func(t *testing.T) {
		_, err := habitboard.Reduce(habits, habitboard.Action{Kind: "archive"}, fixedNow)
		assert.ErrorIs(t, err, habitboard.ErrUnknownAction)
	})
}

func TestBoard_Toggle(t *testing.T) {
	ctx := context.Background()
	clock := func() time.Time { return fixedNow }

	t.Run("Success: server record replaces optimistic one", func(t *testing.T) {
		gw := newFakeGateway(domain.Habit{ID: "h1", Streak: 2, Version: 3})
		b := habitboard.NewBoardWithClock("u1", gw, clock, nil)
		require.NoError(t, b.Refresh(ctx))

		require.NoError(t, b.Toggle(ctx, "h1", true))

		got := b.Habits()
		require.Len(t, got, 1)
		assert.Equal(t, 3, got[0].Streak)
		assert.Equal(t, 4, got[0].Version)
	})

	t.Run("Success: optimistic and server arithmetic agree", func(t *testing.T) {
		gw := newFakeGateway(domain.Habit{ID: "h1", Streak: 7})
		b := habitboard.NewBoardWithClock("u1", gw, clock, nil)
		require.NoError(t, b.Refresh(ctx))

		require.NoError(t, b.Toggle(ctx, "h1", true))
		require.NoError(t, b.Toggle(ctx, "h1", false))

		assert.Equal(t, gw.server["h1"].Streak, b.Habits()[0].Streak)
		assert.Equal(t, 7, b.Habits()[0].Streak)
		assert.Nil(t, b.Habits()[0].LastCompletedAt)
	})

	t.Run("Failure: rejected toggle re-fetches server state", func(t *testing.T) {
		gw := newFakeGateway(domain.Habit{ID: "h1", Streak: 2})
		b := habitboard.NewBoardWithClock("u1", gw, clock, nil)
		require.NoError(t, b.Refresh(ctx))

		gw.toggleErr = errors.New("boom")
		err := b.Toggle(ctx, "h1", true)

		assert.Error(t, err)
		assert.Equal(t, 2, gw.lists)
		assert.Equal(t, 2, b.Habits()[0].Streak)
	})

	t.Run("Failure: habit deleted elsewhere disappears locally", func(t *testing.T) {
		gw := newFakeGateway(domain.Habit{ID: "h1"})
		b := habitboard.NewBoardWithClock("u1", gw, clock, nil)
		require.NoError(t, b.Refresh(ctx))
		delete(gw.server, "h1")

		err := b.Toggle(ctx, "h1", true)

		assert.ErrorIs(t, err, domain.ErrHabitNotFound)
		assert.Empty(t, b.Habits())
	})
}

func TestBoard_AddAndDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: draft replaced by server habit", func(t *testing.T) {
		gw := newFakeGateway()
		b := habitboard.NewBoard("u1", gw, nil)

		require.NoError(t, b.Add(ctx, "Read"))

		got := b.Habits()
		require.Len(t, got, 1)
		assert.Equal(t, "server-Read", got[0].ID)
	})

	t.Run("Failure: invalid title never reaches server", func(t *testing.T) {
		gw := newFakeGateway()
		b := habitboard.NewBoard("u1", gw, nil)

		err := b.Add(ctx, "   ")

		assert.ErrorIs(t, err, domain.ErrHabitTitleEmpty)
		assert.Empty(t, gw.server)
	})

	t.Run("Failure: rejected create drops the draft", func(t *testing.T) {
		gw := newFakeGateway()
		gw.createErr = errors.New("down")
		b := habitboard.NewBoard("u1", gw, nil)

		assert.Error(t, b.Add(ctx, "Run"))
		assert.Empty(t, b.Habits())
	})

	t.Run("Success: delete", func(t *testing.T) {
		gw := newFakeGateway(domain.Habit{ID: "h1"}, domain.Habit{ID: "h2"})
		b := habitboard.NewBoard("u1", gw, nil)
		require.NoError(t, b.Refresh(ctx))

		require.NoError(t, b.Delete(ctx, "h1"))

		assert.Len(t, b.Habits(), 1)
		assert.NotContains(t, gw.server, "h1")
	})
}
