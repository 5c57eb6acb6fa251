package onboarding

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/comitanigiacomo/2moro-engine/internal/core/domain"
)

// Synthesizer is implemented by services.ProfileService.
type Synthesizer interface {
	AnalyzePhoto(ctx context.Context, userID string, image []byte, mimeType string) (domain.Synthesis[domain.ImageTraits], error)
	DeriveZodiac(ctx context.Context, dob string) domain.Synthesis[string]
	GeneratePersonality(ctx context.Context, zodiac string, answers map[string]string) domain.Synthesis[domain.PersonalityProfile]
}

// Completer persists the finished profile. Implemented by services.UserService.
type Completer interface {
	CompleteOnboarding(ctx context.Context, userID string, profile domain.UserProfile) error
}

// Machine runs the side effects of each transition and feeds the results
// to Reduce. At most one transition is in flight; a second Dispatch while
// Loading is set fails with ErrTransitionInFlight.
type Machine struct {
	mu        sync.Mutex
	userID    string
	state     State
	synth     Synthesizer
	completer Completer
	logger    *zap.Logger
}

func NewMachine(userID string, initial State, synth Synthesizer, completer Completer, logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}

	initial.Loading = false
	return &Machine{
		userID:    userID,
		state:     initial.Clone(),
		synth:     synth,
		completer: completer,
		logger:    logger,
	}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

func (m *Machine) Dispatch(ctx context.Context, ev Event) (State, error) {
	m.mu.Lock()
	if m.state.Loading {
		m.mu.Unlock()
		return State{}, ErrTransitionInFlight
	}
	if err := checkStep(m.state, ev); err != nil {
		snapshot := m.state.Clone()
		m.mu.Unlock()
		return snapshot, err
	}
	if err := Validate(ev); err != nil {
		snapshot := m.state.Clone()
		m.mu.Unlock()
		return snapshot, err
	}

	current := m.state.Clone()
	m.state.Loading = true
	m.mu.Unlock()

	resolved, err := m.resolve(ctx, current, ev)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Loading = false

	if err != nil {
		return m.state.Clone(), err
	}

	next, err := Reduce(m.state, resolved)
	if err != nil {
		return m.state.Clone(), err
	}

	m.state = next
	return next.Clone(), nil
}

// resolve runs the external call tied to ev. AI problems never surface
// here: the synthesizer already degraded them to fallback values.
func (m *Machine) resolve(ctx context.Context, current State, ev Event) (Event, error) {
	switch e := ev.(type) {
	case PhotoEvent:
		if len(e.Image) == 0 {
			return e, nil
		}
		analysis, err := m.synth.AnalyzePhoto(ctx, m.userID, e.Image, e.MIMEType)
		if err != nil {
			m.logger.Warn("Photo analysis skipped", zap.String("user_id", m.userID), zap.Error(err))
			return e, nil
		}
		e.Analysis = &analysis
		return e, nil

	case BirthDateEvent:
		zodiac := m.synth.DeriveZodiac(ctx, e.DOB)
		e.Zodiac = &zodiac
		return e, nil

	case QuizEvent:
		personality := m.synth.GeneratePersonality(ctx, current.Profile.Zodiac, e.Answers)
		e.Personality = &personality
		return e, nil

	case ConfirmEvent:
		if err := m.completer.CompleteOnboarding(ctx, m.userID, current.Profile); err != nil {
			return nil, err
		}
		return e, nil
	}

	return ev, nil
}
