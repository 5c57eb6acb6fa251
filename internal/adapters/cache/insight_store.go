package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/2moro-engine/internal/core/workers"
)

var (
	_ workers.InsightStore = (*RedisInsightStore)(nil)
	_ workers.InsightStore = (*LocalInsightStore)(nil)
)

type RedisInsightStore struct {
	client *redis.Client
}

func NewRedisInsightStore(client *redis.Client) *RedisInsightStore {
	return &RedisInsightStore{client: client}
}

func insightKey(userID string) string {
	return fmt.Sprintf("insight:people:%s", userID)
}

func (s *RedisInsightStore) Get(ctx context.Context, userID string) (string, error) {
	val, err := s.client.Get(ctx, insightKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", workers.ErrInsightMiss
	}
	if err != nil {
		return "", fmt.Errorf("failed to read insight: %w", err)
	}
	return val, nil
}

func (s *RedisInsightStore) Set(ctx context.Context, userID, insight string, ttl time.Duration) error {
	return s.client.Set(ctx, insightKey(userID), insight, ttl).Err()
}

type insightEntry struct {
	text      string
	expiresAt time.Time
}

// LocalInsightStore keeps insights in process when Redis is not configured.
type LocalInsightStore struct {
	mu    sync.Mutex
	cache *lru.Cache[string, insightEntry]
	now   func() time.Time
}

func NewLocalInsightStore(size int) (*LocalInsightStore, error) {
	c, err := lru.New[string, insightEntry](size)
	if err != nil {
		return nil, err
	}
	return &LocalInsightStore{cache: c, now: time.Now}, nil
}

func (s *LocalInsightStore) Get(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache.Get(userID)
	if !ok {
		return "", workers.ErrInsightMiss
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		s.cache.Remove(userID)
		return "", workers.ErrInsightMiss
	}
	return entry.text, nil
}

func (s *LocalInsightStore) Set(_ context.Context, userID, insight string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := insightEntry{text: insight}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.cache.Add(userID, entry)
	return nil
}
