package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/2moro-engine/internal/core/domain"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	t.Run("Success: normalizes email and sets defaults", func(t *testing.T) {
		t.Parallel()

		user, err := domain.NewUser("123", "  Test.User@Gmail.COM  ", " Ada ")

		require.NoError(t, err)
		assert.Equal(t, "test.user@gmail.com", user.Email)
		assert.Equal(t, "Ada", user.Name)
		assert.Equal(t, domain.DefaultUserTitle, user.Title)
		assert.False(t, user.OnboardingCompleted)
		assert.NotNil(t, user.Preferences)
		assert.False(t, user.CreatedAt.IsZero())
	})

	t.Run("Error: invalid email", func(t *testing.T) {
		t.Parallel()
		_, err := domain.NewUser("123", "invalid-email-format", "Ada")
		assert.Equal(t, domain.ErrInvalidEmail, err)
	})

	t.Run("Error: empty name", func(t *testing.T) {
		t.Parallel()
		_, err := domain.NewUser("123", "a@b.com", "  ")
		assert.Equal(t, domain.ErrUserNameEmpty, err)
	})
}

func TestUser_Apply(t *testing.T) {
	user, err := domain.NewUser("1", "a@b.com", "Ada")
	require.NoError(t, err)

	bio := " builder "
	require.NoError(t, user.Apply(domain.UserPatch{Bio: &bio}))
	assert.Equal(t, "builder", user.Bio)
	assert.Equal(t, "Ada", user.Name)

	empty := ""
	assert.ErrorIs(t, user.Apply(domain.UserPatch{Name: &empty}), domain.ErrUserNameEmpty)
}

func TestUser_MergePreferences(t *testing.T) {
	user, err := domain.NewUser("1", "a@b.com", "Ada")
	require.NoError(t, err)

	user.MergePreferences(map[string]any{"theme": "dark", "lang": "it"})
	user.MergePreferences(map[string]any{"theme": "light"})

	assert.Equal(t, map[string]any{"theme": "light", "lang": "it"}, user.Preferences)
}

func TestUser_CompleteOnboarding(t *testing.T) {
	user, err := domain.NewUser("1", "a@b.com", "Ada")
	require.NoError(t, err)

	profile := domain.UserProfile{Avatar: "data:image/png;base64,AA==", Zodiac: "Leo"}
	user.CompleteOnboarding(profile)

	assert.True(t, user.OnboardingCompleted)
	assert.Equal(t, profile.Avatar, user.Avatar)
	require.NotNil(t, user.Profile)
	assert.Equal(t, "Leo", user.Profile.Zodiac)
}
