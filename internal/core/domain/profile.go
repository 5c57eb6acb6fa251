package domain

import (
	"errors"
	"maps"
	"slices"
)

var (
	ErrNoImage           = errors.New("no image uploaded")
	ErrBirthDateRequired = errors.New("date of birth is required")
	ErrAIUnavailable     = errors.New("ai backend not configured")
)

// UserProfile accumulates what the onboarding funnel learns about a user.
// Values are merged additively: a zero field in a patch never clears data.
type UserProfile struct {
	Avatar                 string            `json:"avatar,omitempty"`
	ImageRef               string            `json:"image_ref,omitempty"`
	PredictedAge           int               `json:"predicted_age,omitempty"`
	PredictedVibe          string            `json:"predicted_vibe,omitempty"`
	DOB                    string            `json:"dob,omitempty"`
	Zodiac                 string            `json:"zodiac,omitempty"`
	QuizAnswers            map[string]string `json:"quiz_answers,omitempty"`
	PersonalityType        string            `json:"personality_type,omitempty"`
	PersonalityDescription string            `json:"personality_description,omitempty"`
	CurrentTraits          []string          `json:"current_traits,omitempty"`
	TargetTraits           []string          `json:"target_traits,omitempty"`

	// Fallbacks lists the synthesis steps that degraded to default values.
	Fallbacks []string `json:"fallbacks,omitempty"`
}

func (p UserProfile) Clone() UserProfile {
	c := p
	c.QuizAnswers = maps.Clone(p.QuizAnswers)
	c.CurrentTraits = slices.Clone(p.CurrentTraits)
	c.TargetTraits = slices.Clone(p.TargetTraits)
	c.Fallbacks = slices.Clone(p.Fallbacks)
	return c
}

// Merge returns a new profile with every non-zero field of patch applied.
// The receiver is left untouched.
func (p UserProfile) Merge(patch UserProfile) UserProfile {
	out := p.Clone()

	setString(&out.Avatar, patch.Avatar)
	setString(&out.ImageRef, patch.ImageRef)
	setString(&out.PredictedVibe, patch.PredictedVibe)
	setString(&out.DOB, patch.DOB)
	setString(&out.Zodiac, patch.Zodiac)
	setString(&out.PersonalityType, patch.PersonalityType)
	setString(&out.PersonalityDescription, patch.PersonalityDescription)

	if patch.PredictedAge > 0 {
		out.PredictedAge = patch.PredictedAge
	}

	if len(patch.QuizAnswers) > 0 {
		if out.QuizAnswers == nil {
			out.QuizAnswers = make(map[string]string, len(patch.QuizAnswers))
		}
		maps.Copy(out.QuizAnswers, patch.QuizAnswers)
	}

	if len(patch.CurrentTraits) > 0 {
		out.CurrentTraits = slices.Clone(patch.CurrentTraits)
	}
	if len(patch.TargetTraits) > 0 {
		out.TargetTraits = slices.Clone(patch.TargetTraits)
	}

	for _, f := range patch.Fallbacks {
		if !slices.Contains(out.Fallbacks, f) {
			out.Fallbacks = append(out.Fallbacks, f)
		}
	}

	return out
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ImageTraits is what the photo analysis extracts from a portrait.
type ImageTraits struct {
	PredictedAge  int    `json:"predicted_age"`
	PredictedVibe string `json:"predicted_vibe"`
	Avatar        string `json:"avatar,omitempty"`
	MemoryID      string `json:"memory_id,omitempty"`
	RawAnalysis   string `json:"raw_analysis,omitempty"`
}

// PersonalityProfile is the quiz-derived "me now" vs "me tomorrow" split.
type PersonalityProfile struct {
	PersonalityType string   `json:"personality_type"`
	Description     string   `json:"description"`
	CurrentTraits   []string `json:"current_traits"`
	FutureTraits    []string `json:"future_traits"`
}
