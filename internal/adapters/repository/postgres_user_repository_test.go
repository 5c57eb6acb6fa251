package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/2moro-engine/internal/core/domain"
)

func TestPostgresUserRepository_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cleanup(t, db)
	defer cleanup(t, db)

	repo := NewPostgresUserRepository(db)
	ctx := context.Background()

	user, err := domain.NewUser(uuid.NewString(), "ada@2moro.app", "Ada")
	require.NoError(t, err)

	t.Run("Should create a user successfully", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, user))

		fetched, err := repo.GetByEmail(ctx, "ada@2moro.app")
		require.NoError(t, err)
		assert.Equal(t, user.ID, fetched.ID)
		assert.Equal(t, domain.DefaultUserTitle, fetched.Title)
		assert.Nil(t, fetched.Profile)
		assert.Empty(t, fetched.Preferences)
	})

	t.Run("Should fail on duplicate email", func(t *testing.T) {
		dup, err := domain.NewUser(uuid.NewString(), "ada@2moro.app", "Other Ada")
		require.NoError(t, err)

		assert.Equal(t, domain.ErrEmailAlreadyExists, repo.Create(ctx, dup))
	})

	t.Run("Should round trip profile and preferences", func(t *testing.T) {
		fetched, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)

		fetched.MergePreferences(map[string]any{"theme": "dark"})
		fetched.CompleteOnboarding(domain.UserProfile{
			Zodiac:      "Leo",
			QuizAnswers: map[string]string{"q1": "a"},
			Fallbacks:   []string{"image"},
		})
		require.NoError(t, repo.Update(ctx, fetched))

		again, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, again.OnboardingCompleted)
		require.NotNil(t, again.Profile)
		assert.Equal(t, "Leo", again.Profile.Zodiac)
		assert.Equal(t, "a", again.Profile.QuizAnswers["q1"])
		assert.Equal(t, "dark", again.Preferences["theme"])
	})

	t.Run("Should return ErrUserNotFound", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.NewString())
		assert.Equal(t, domain.ErrUserNotFound, err)

		ghost, err := domain.NewUser(uuid.NewString(), "ghost@2moro.app", "Ghost")
		require.NoError(t, err)
		assert.Equal(t, domain.ErrUserNotFound, repo.Update(ctx, ghost))
	})

	t.Run("Concurrent creation yields exactly one row", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 5)

		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				u, _ := domain.NewUser(uuid.NewString(), "race@2moro.app", "Racer")
				errs <- repo.Create(ctx, u)
			}()
		}
		wg.Wait()
		close(errs)

		var created int
		for err := range errs {
			if err == nil {
				created++
				continue
			}
			assert.Equal(t, domain.ErrEmailAlreadyExists, err)
		}
		assert.Equal(t, 1, created)
	})
}
