package domain

import (
	"errors"
	"maps"
	"net/mail"
	"strings"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidUserID      = errors.New("invalid user id")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrUserNameEmpty      = errors.New("user name cannot be empty")
)

const DefaultUserTitle = "Traveler"

type User struct {
	ID                  string         `json:"id" db:"id"`
	Email               string         `json:"email" db:"email"`
	Name                string         `json:"name" db:"name"`
	Title               string         `json:"title" db:"title"`
	Bio                 string         `json:"bio" db:"bio"`
	Avatar              string         `json:"avatar,omitempty" db:"avatar"`
	OnboardingCompleted bool           `json:"onboarding_completed" db:"onboarding_completed"`
	Profile             *UserProfile   `json:"profile,omitempty" db:"-"`
	Preferences         map[string]any `json:"preferences" db:"-"`
	CreatedAt           time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at" db:"updated_at"`
}

// UserPatch carries the optional fields of a profile edit. Nil means untouched.
type UserPatch struct {
	Name   *string
	Title  *string
	Bio    *string
	Avatar *string
}

func NewUser(id, email, name string) (*User, error) {
	email = strings.TrimSpace(email)
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrUserNameEmpty
	}

	now := time.Now().UTC()
	return &User{
		ID:          id,
		Email:       strings.ToLower(email),
		Name:        name,
		Title:       DefaultUserTitle,
		Preferences: map[string]any{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (u *User) Apply(p UserPatch) error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return ErrUserNameEmpty
		}
		u.Name = name
	}
	if p.Title != nil {
		u.Title = strings.TrimSpace(*p.Title)
	}
	if p.Bio != nil {
		u.Bio = strings.TrimSpace(*p.Bio)
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}

	u.UpdatedAt = time.Now().UTC()
	return nil
}

// MergePreferences performs a shallow merge: top-level keys in prefs win.
func (u *User) MergePreferences(prefs map[string]any) {
	merged := make(map[string]any, len(u.Preferences)+len(prefs))
	maps.Copy(merged, u.Preferences)
	maps.Copy(merged, prefs)

	u.Preferences = merged
	u.UpdatedAt = time.Now().UTC()
}

func (u *User) CompleteOnboarding(profile UserProfile) {
	p := profile.Clone()
	u.Profile = &p
	u.OnboardingCompleted = true
	if profile.Avatar != "" {
		u.Avatar = profile.Avatar
	}
	u.UpdatedAt = time.Now().UTC()
}

func isValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
