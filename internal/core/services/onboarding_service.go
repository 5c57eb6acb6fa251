package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/comitanigiacomo/2moro-engine/internal/core/onboarding"
)

const onboardingGatePrefix = "onboarding:"

// OnboardingService hosts one onboarding.Machine per request, loading and
// saving the state around it. The gate keeps two requests for the same
// user from running a transition at once.
type OnboardingService struct {
	store     onboarding.StateStore
	gate      onboarding.Gate
	synth     onboarding.Synthesizer
	completer onboarding.Completer
	logger    *zap.Logger
}

func NewOnboardingService(store onboarding.StateStore, gate onboarding.Gate, synth onboarding.Synthesizer, completer onboarding.Completer, logger *zap.Logger) *OnboardingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OnboardingService{
		store:     store,
		gate:      gate,
		synth:     synth,
		completer: completer,
		logger:    logger,
	}
}

func (s *OnboardingService) load(ctx context.Context, userID string) (onboarding.State, error) {
	st, err := s.store.Load(ctx, userID)
	if errors.Is(err, onboarding.ErrStateNotFound) {
		return onboarding.Initial(), nil
	}
	if err != nil {
		return onboarding.State{}, fmt.Errorf("onboarding service: load state: %w", err)
	}
	return st, nil
}

// Get reports the stored state. Loading is true while another request is
// inside a transition for this user.
func (s *OnboardingService) Get(ctx context.Context, userID string) (onboarding.State, error) {
	st, err := s.load(ctx, userID)
	if err != nil {
		return onboarding.State{}, err
	}
	st.Loading = s.gate.Held(ctx, onboardingGatePrefix+userID)
	return st, nil
}

func (s *OnboardingService) Submit(ctx context.Context, userID string, ev onboarding.Event) (onboarding.State, error) {
	release, err := s.gate.Acquire(ctx, onboardingGatePrefix+userID)
	if err != nil {
		if errors.Is(err, onboarding.ErrGateHeld) {
			return onboarding.State{}, onboarding.ErrTransitionInFlight
		}
		return onboarding.State{}, fmt.Errorf("onboarding service: acquire gate: %w", err)
	}
	defer release()

	current, err := s.load(ctx, userID)
	if err != nil {
		return onboarding.State{}, err
	}

	machine := onboarding.NewMachine(userID, current, s.synth, s.completer, s.logger)
	next, err := machine.Dispatch(ctx, ev)
	if err != nil {
		return next, err
	}

	if err := s.store.Save(ctx, userID, next); err != nil {
		return onboarding.State{}, fmt.Errorf("onboarding service: save state: %w", err)
	}

	s.logger.Info("Onboarding step completed",
		zap.String("user_id", userID),
		zap.String("event", ev.Kind()),
		zap.String("step", string(next.Step)),
	)

	return next, nil
}

func (s *OnboardingService) Reset(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("onboarding service: reset: %w", err)
	}
	return nil
}
