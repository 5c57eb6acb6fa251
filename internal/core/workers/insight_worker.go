package workers

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/comitanigiacomo/2moro-engine/internal/core/domain"
)

var ErrInsightMiss = errors.New("insight not cached")

const (
	insightQueueSize   = 100
	insightTTL         = 24 * time.Hour
	insightMemoryLimit = 20
	refreshTimeout     = 5 * time.Minute
)

type PeopleSummarizer interface {
	SummarizePeople(ctx context.Context, names []string, memories []string) domain.Synthesis[string]
}

type InsightStore interface {
	// Get returns ErrInsightMiss when nothing is stored for the user.
	Get(ctx context.Context, userID string) (string, error)
	Set(ctx context.Context, userID, insight string, ttl time.Duration) error
}

type InsightJob struct {
	UserID string
}

// InsightWorker regenerates the "social circle" insight in the background
// whenever a user's people or memories change.
type InsightWorker struct {
	people     domain.PersonRepository
	memories   domain.MemoryRepository
	summarizer PeopleSummarizer
	store      InsightStore
	logger     *zap.Logger

	jobs   chan InsightJob
	done   chan struct{}
	flight singleflight.Group
}

func NewInsightWorker(people domain.PersonRepository, memories domain.MemoryRepository, summarizer PeopleSummarizer, store InsightStore, logger *zap.Logger) *InsightWorker {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &InsightWorker{
		people:     people,
		memories:   memories,
		summarizer: summarizer,
		store:      store,
		logger:     logger,
		jobs:       make(chan InsightJob, insightQueueSize),
		done:       make(chan struct{}),
	}
}

func (w *InsightWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		w.logger.Info("[WORKER] Insight worker started in background")
		for {
			select {
			case job := <-w.jobs:
				if _, err := w.Refresh(ctx, job.UserID); err != nil {
					w.logger.Error("[WORKER] Insight refresh failed", zap.String("user_id", job.UserID), zap.Error(err))
				}
			case <-ctx.Done():
				w.logger.Info("[WORKER] Insight worker shutting down")
				return
			}
		}
	}()
}

// Done is closed once the worker goroutine has exited.
func (w *InsightWorker) Done() <-chan struct{} {
	return w.done
}

func (w *InsightWorker) Enqueue(userID string) {
	select {
	case w.jobs <- InsightJob{UserID: userID}:
	default:
		w.logger.Warn("[WORKER] Insight queue full, dropping job", zap.String("user_id", userID))
	}
}

func (w *InsightWorker) Cached(ctx context.Context, userID string) (string, bool) {
	insight, err := w.store.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrInsightMiss) {
			w.logger.Warn("[CACHE] Insight read error", zap.String("user_id", userID), zap.Error(err))
		}
		return "", false
	}
	return insight, true
}

// Refresh regenerates and stores the insight. Concurrent refreshes for the
// same user share one generation, which outlives any single caller giving
// up. Fallback texts are returned but not stored.
func (w *InsightWorker) Refresh(ctx context.Context, userID string) (domain.Synthesis[string], error) {
	ch := w.flight.DoChan(userID, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		people, err := w.people.ListByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}

		memories, err := w.memories.ListByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}

		names := make([]string, 0, len(people))
		for _, p := range people {
			names = append(names, p.Name)
		}

		contents := make([]string, 0, min(len(memories), insightMemoryLimit))
		for _, m := range memories {
			if len(contents) == insightMemoryLimit {
				break
			}
			contents = append(contents, m.Content)
		}

		result := w.summarizer.SummarizePeople(ctx, names, contents)

		if !result.IsFallback() {
			if err := w.store.Set(ctx, userID, result.Data, insightTTL); err != nil {
				w.logger.Warn("[CACHE] Insight write error", zap.String("user_id", userID), zap.Error(err))
			}
		}

		return result, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return domain.Synthesis[string]{}, res.Err
		}
		return res.Val.(domain.Synthesis[string]), nil
	case <-ctx.Done():
		return domain.Synthesis[string]{}, ctx.Err()
	}
}
