package onboarding

import (
	"fmt"
	"strings"

	"github.com/comitanigiacomo/2moro-engine/internal/core/domain"
)

const (
	fallbackImage       = "image"
	fallbackZodiac      = "zodiac"
	fallbackPersonality = "personality"
)

// Validate rejects events whose required local input is missing. It runs
// before any network call.
func Validate(ev Event) error {
	switch e := ev.(type) {
	case BirthDateEvent:
		if strings.TrimSpace(e.DOB) == "" {
			return domain.ErrBirthDateRequired
		}
	case QuizEvent:
		if len(e.Answers) == 0 {
			return ErrQuizAnswersRequired
		}
	}
	return nil
}

func checkStep(s State, ev Event) error {
	if s.Completed {
		return ErrOnboardingCompleted
	}
	if ev.completes() != s.Step {
		return fmt.Errorf("%w: got %q while at %q", ErrUnexpectedEvent, ev.Kind(), s.Step)
	}
	return nil
}

// Reduce applies ev to s and returns the next state. It performs no I/O.
func Reduce(s State, ev Event) (State, error) {
	if err := checkStep(s, ev); err != nil {
		return s, err
	}
	if err := Validate(ev); err != nil {
		return s, err
	}

	next := s.Clone()
	next.Profile = s.Profile.Merge(patchFor(ev))
	next.Step = s.Step.next()

	if _, ok := ev.(ConfirmEvent); ok {
		next.Completed = true
	}

	return next, nil
}

func patchFor(ev Event) domain.UserProfile {
	var p domain.UserProfile

	switch e := ev.(type) {
	case PhotoEvent:
		if e.Analysis != nil {
			p.Avatar = e.Analysis.Data.Avatar
			p.ImageRef = e.Analysis.Data.MemoryID
			p.PredictedAge = e.Analysis.Data.PredictedAge
			p.PredictedVibe = e.Analysis.Data.PredictedVibe
			if e.Analysis.IsFallback() {
				p.Fallbacks = []string{fallbackImage}
			}
		}

	case BirthDateEvent:
		p.DOB = strings.TrimSpace(e.DOB)
		if e.Zodiac != nil {
			p.Zodiac = e.Zodiac.Data
			if e.Zodiac.IsFallback() {
				p.Fallbacks = []string{fallbackZodiac}
			}
		}

	case QuizEvent:
		p.QuizAnswers = e.Answers
		if e.Personality != nil {
			p.PersonalityType = e.Personality.Data.PersonalityType
			p.PersonalityDescription = e.Personality.Data.Description
			p.CurrentTraits = e.Personality.Data.CurrentTraits
			p.TargetTraits = e.Personality.Data.FutureTraits
			if e.Personality.IsFallback() {
				p.Fallbacks = []string{fallbackPersonality}
			}
		}

	case TraitsEvent:
		p.CurrentTraits = cleanTraits(e.CurrentTraits)
		p.TargetTraits = cleanTraits(e.TargetTraits)
		p.PersonalityType = strings.TrimSpace(e.PersonalityType)
	}

	return p
}

func cleanTraits(traits []string) []string {
	out := make([]string, 0, len(traits))
	for _, t := range traits {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
