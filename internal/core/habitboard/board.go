// Package habitboard keeps a client-side view of a user's habits. Changes
// are applied optimistically with the same Toggle arithmetic the server
// uses, then reconciled against the server's answer.
//
// The package is a library for Go clients of the API, such as a CLI or a
// sync agent. The server does not create boards. It exposes the Gateway
// they talk to through services.HabitService.GatewayFor.
package habitboard

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/comitanigiacomo/2moro-engine/internal/core/domain"
)

var ErrUnknownAction = errors.New("unknown habit board action")

type ActionKind string

const (
	ActionToggle ActionKind = "toggle"
	ActionAdd    ActionKind = "add"
	ActionDelete ActionKind = "delete"
)

type Action struct {
	Kind      ActionKind
	HabitID   string
	Completed bool
	Habit     *domain.Habit
}

// Reduce returns a new list with a applied. The input slice and its
// records are never modified. Unknown habit IDs leave the list as is.
func Reduce(habits []domain.Habit, a Action, now time.Time) ([]domain.Habit, error) {
	out := slices.Clone(habits)

	switch a.Kind {
	case ActionToggle:
		for i := range out {
			if out[i].ID == a.HabitID {
				out[i].Toggle(a.Completed, now)
				break
			}
		}
	case ActionAdd:
		if a.Habit != nil {
			out = append(out, *a.Habit)
		}
	case ActionDelete:
		out = slices.DeleteFunc(out, func(h domain.Habit) bool { return h.ID == a.HabitID })
	default:
		return habits, ErrUnknownAction
	}

	return out, nil
}

// Gateway is the authoritative side of the board.
type Gateway interface {
	List(ctx context.Context) ([]domain.Habit, error)
	Create(ctx context.Context, title string) (*domain.Habit, error)
	Toggle(ctx context.Context, id string, completed bool) (*domain.Habit, error)
	Delete(ctx context.Context, id string) error
}

// Board applies actions locally first, then asks the Gateway. On success
// the server's record replaces the optimistic one; on failure the whole
// list is fetched again so the server always wins.
type Board struct {
	mu     sync.Mutex
	userID string
	habits []domain.Habit
	gw     Gateway
	now    func() time.Time
	logger *zap.Logger
}

func NewBoard(userID string, gw Gateway, logger *zap.Logger) *Board {
	return NewBoardWithClock(userID, gw, time.Now, logger)
}

func NewBoardWithClock(userID string, gw Gateway, clock func() time.Time, logger *zap.Logger) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Board{userID: userID, gw: gw, now: clock, logger: logger}
}

func (b *Board) Habits() []domain.Habit {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.habits)
}

func (b *Board) Refresh(ctx context.Context) error {
	habits, err := b.gw.List(ctx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.habits = habits
	b.mu.Unlock()
	return nil
}

func (b *Board) apply(a Action) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next, err := Reduce(b.habits, a, b.now())
	if err != nil {
		return err
	}
	b.habits = next
	return nil
}

// replace swaps the record with id for the server's copy.
func (b *Board) replace(id string, server *domain.Habit) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.habits {
		if b.habits[i].ID == id {
			b.habits[i] = *server
			return
		}
	}
	b.habits = append(b.habits, *server)
}

func (b *Board) reconcile(ctx context.Context, cause error) error {
	b.logger.Warn("[SYNC] Server rejected change, re-fetching habits", zap.String("user_id", b.userID), zap.Error(cause))

	if err := b.Refresh(ctx); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (b *Board) Toggle(ctx context.Context, id string, completed bool) error {
	if err := b.apply(Action{Kind: ActionToggle, HabitID: id, Completed: completed}); err != nil {
		return err
	}

	server, err := b.gw.Toggle(ctx, id, completed)
	if err != nil {
		return b.reconcile(ctx, err)
	}

	b.replace(id, server)
	return nil
}

func (b *Board) Add(ctx context.Context, title string) error {
	draft, err := domain.NewHabit(title, b.userID)
	if err != nil {
		return err
	}

	if err := b.apply(Action{Kind: ActionAdd, Habit: draft}); err != nil {
		return err
	}

	server, err := b.gw.Create(ctx, title)
	if err != nil {
		return b.reconcile(ctx, err)
	}

	b.replace(draft.ID, server)
	return nil
}

func (b *Board) Delete(ctx context.Context, id string) error {
	if err := b.apply(Action{Kind: ActionDelete, HabitID: id}); err != nil {
		return err
	}

	if err := b.gw.Delete(ctx, id); err != nil {
		return b.reconcile(ctx, err)
	}
	return nil
}
