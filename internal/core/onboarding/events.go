package onboarding

import (
	"encoding/json"
	"fmt"

	"github.com/comitanigiacomo/2moro-engine/internal/core/domain"
)

const (
	EventStart   = "start"
	EventPhoto   = "photo"
	EventDOB     = "dob"
	EventQuiz    = "quiz"
	EventTraits  = "traits"
	EventConfirm = "confirm"
)

// Event is the payload of one step. Each concrete type completes exactly
// one step; the synthesis results are filled in by the Machine before the
// event reaches Reduce.
type Event interface {
	Kind() string
	completes() Step
}

type StartEvent struct{}

type PhotoEvent struct {
	Image    []byte `json:"image,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`

	Analysis *domain.Synthesis[domain.ImageTraits] `json:"-"`
}

type BirthDateEvent struct {
	DOB string `json:"dob"`

	Zodiac *domain.Synthesis[string] `json:"-"`
}

type QuizEvent struct {
	Answers map[string]string `json:"answers"`

	Personality *domain.Synthesis[domain.PersonalityProfile] `json:"-"`
}

type TraitsEvent struct {
	CurrentTraits   []string `json:"current_traits"`
	TargetTraits    []string `json:"target_traits"`
	PersonalityType string   `json:"personality_type,omitempty"`
}

type ConfirmEvent struct{}

func (StartEvent) Kind() string     { return EventStart }
func (PhotoEvent) Kind() string     { return EventPhoto }
func (BirthDateEvent) Kind() string { return EventDOB }
func (QuizEvent) Kind() string      { return EventQuiz }
func (TraitsEvent) Kind() string    { return EventTraits }
func (ConfirmEvent) Kind() string   { return EventConfirm }

func (StartEvent) completes() Step     { return StepWelcome }
func (PhotoEvent) completes() Step     { return StepIcebreaker }
func (BirthDateEvent) completes() Step { return StepDOB }
func (QuizEvent) completes() Step      { return StepQuiz }
func (TraitsEvent) completes() Step    { return StepTraits }
func (ConfirmEvent) completes() Step   { return StepSummary }

type envelope struct {
	Type string `json:"type"`
}

// DecodeEvent reads a JSON event tagged by its "type" field.
func DecodeEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode onboarding event: %w", err)
	}

	var ev Event
	var err error

	switch env.Type {
	case EventStart:
		ev = StartEvent{}
	case EventPhoto:
		var e PhotoEvent
		err = json.Unmarshal(data, &e)
		ev = e
	case EventDOB:
		var e BirthDateEvent
		err = json.Unmarshal(data, &e)
		ev = e
	case EventQuiz:
		var e QuizEvent
		err = json.Unmarshal(data, &e)
		ev = e
	case EventTraits:
		var e TraitsEvent
		err = json.Unmarshal(data, &e)
		ev = e
	case EventConfirm:
		ev = ConfirmEvent{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, env.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("decode %s event: %w", env.Type, err)
	}
	return ev, nil
}
