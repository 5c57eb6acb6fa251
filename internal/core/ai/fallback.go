// Package ai runs generation requests against an ordered list of model
// candidates, moving down the list when a backend is rate limited or
// overloaded.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNoCandidates    = errors.New("ai: no model candidates configured")
	ErrAllModelsFailed = errors.New("ai: all models failed")
)

const DefaultAttemptTimeout = 30 * time.Second

type InlineImage struct {
	Data     []byte
	MIMEType string
}

// Prompt is either plain text or text plus one inline image.
type Prompt struct {
	Text  string
	Image *InlineImage
}

func TextPrompt(text string) Prompt {
	return Prompt{Text: text}
}

func ImagePrompt(text string, data []byte, mimeType string) Prompt {
	return Prompt{Text: text, Image: &InlineImage{Data: data, MIMEType: mimeType}}
}

type Generator interface {
	Generate(ctx context.Context, model string, prompt Prompt) (string, error)
}

// ProviderError is the backend-neutral form of a failed generation call.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.StatusCode, e.Message)
}

// IsRetriable reports whether err means "try the next model": quota
// exhaustion (429) or an overloaded backend (503).
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}

	var pErr *ProviderError
	if errors.As(err, &pErr) {
		if pErr.StatusCode == http.StatusTooManyRequests || pErr.StatusCode == http.StatusServiceUnavailable {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "overloaded")
}

type FallbackClient struct {
	gen            Generator
	candidates     []string
	attemptTimeout time.Duration
	logger         *zap.Logger
}

func NewFallbackClient(gen Generator, candidates []string, attemptTimeout time.Duration, logger *zap.Logger) *FallbackClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}

	return &FallbackClient{
		gen:            gen,
		candidates:     slices.Clone(candidates),
		attemptTimeout: attemptTimeout,
		logger:         logger,
	}
}

func (c *FallbackClient) Candidates() []string {
	return slices.Clone(c.candidates)
}

// GenerateContentWithFallback tries every candidate in order, strictly one
// at a time. The first success wins; a non-retriable error aborts at once.
func (c *FallbackClient) GenerateContentWithFallback(ctx context.Context, prompt Prompt) (string, error) {
	if len(c.candidates) == 0 {
		return "", ErrNoCandidates
	}

	var lastErr error

	for _, model := range c.candidates {
		c.logger.Info("[AI] Attempting generation", zap.String("model", model))

		text, err := c.attempt(ctx, model, prompt)
		if err == nil {
			attemptsTotal.WithLabelValues(model, outcomeSuccess).Inc()
			return text, nil
		}

		if ctx.Err() != nil {
			attemptsTotal.WithLabelValues(model, outcomeFatal).Inc()
			return "", ctx.Err()
		}

		if IsRetriable(err) || errors.Is(err, context.DeadlineExceeded) {
			attemptsTotal.WithLabelValues(model, outcomeRetried).Inc()
			c.logger.Warn("[AI] Model failed (quota/overload), retrying with next model",
				zap.String("model", model), zap.Error(err))
			lastErr = err
			continue
		}

		attemptsTotal.WithLabelValues(model, outcomeFatal).Inc()
		c.logger.Error("[AI] Model failed with non-retriable error",
			zap.String("model", model), zap.Error(err))
		return "", err
	}

	return "", fmt.Errorf("%w: last error: %w", ErrAllModelsFailed, lastErr)
}

func (c *FallbackClient) attempt(ctx context.Context, model string, prompt Prompt) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	return c.gen.Generate(attemptCtx, model, prompt)
}
