// Package onboarding drives the first-run funnel: a fixed, linear sequence
// of steps that accumulates a domain.UserProfile and calls the AI-backed
// profile synthesis at three of its transitions.
package onboarding

import (
	"errors"

	"github.com/comitanigiacomo/2moro-engine/internal/core/domain"
)

var (
	ErrUnexpectedEvent     = errors.New("event does not belong to the current onboarding step")
	ErrTransitionInFlight  = errors.New("an onboarding transition is already in progress")
	ErrOnboardingCompleted = errors.New("onboarding already completed")
	ErrQuizAnswersRequired = errors.New("quiz answers are required")
	ErrUnknownEventType    = errors.New("unknown onboarding event type")
	ErrStateNotFound       = errors.New("onboarding state not found")
)

type Step string

const (
	StepWelcome    Step = "welcome"
	StepIcebreaker Step = "icebreaker"
	StepDOB        Step = "dob"
	StepQuiz       Step = "quiz"
	StepTraits     Step = "traits"
	StepSummary    Step = "summary"
)

var stepOrder = []Step{StepWelcome, StepIcebreaker, StepDOB, StepQuiz, StepTraits, StepSummary}

// next returns the step after s. Summary is terminal and maps to itself.
func (s Step) next() Step {
	for i, step := range stepOrder {
		if step == s && i+1 < len(stepOrder) {
			return stepOrder[i+1]
		}
	}
	return s
}

// State is treated as an immutable value: Reduce returns a new one.
type State struct {
	Step      Step               `json:"step"`
	Profile   domain.UserProfile `json:"profile"`
	Loading   bool               `json:"loading"`
	Completed bool               `json:"completed"`
}

func Initial() State {
	return State{Step: StepWelcome}
}

func (s State) Clone() State {
	c := s
	c.Profile = s.Profile.Clone()
	return c
}
