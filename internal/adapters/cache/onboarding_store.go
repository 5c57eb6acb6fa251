package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/2moro-engine/internal/core/onboarding"
)

var (
	_ onboarding.StateStore = (*RedisStateStore)(nil)
	_ onboarding.Gate       = (*RedisGate)(nil)
)

const (
	onboardingStateTTL = 7 * 24 * time.Hour
	defaultGateTTL     = 2 * time.Minute
)

// RedisStateStore keeps in-progress onboarding state so a user can resume
// the funnel from any device. Completed funnels live on the user record.
type RedisStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client, ttl: onboardingStateTTL}
}

func stateKey(userID string) string {
	return fmt.Sprintf("onboarding:state:%s", userID)
}

func (s *RedisStateStore) Load(ctx context.Context, userID string) (onboarding.State, error) {
	data, err := s.client.Get(ctx, stateKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return onboarding.State{}, onboarding.ErrStateNotFound
	}
	if err != nil {
		return onboarding.State{}, fmt.Errorf("failed to load onboarding state: %w", err)
	}

	var st onboarding.State
	if err := json.Unmarshal(data, &st); err != nil {
		return onboarding.State{}, fmt.Errorf("corrupted onboarding state: %w", err)
	}
	return st, nil
}

func (s *RedisStateStore) Save(ctx context.Context, userID string, st onboarding.State) error {
	st.Loading = false
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, stateKey(userID), data, s.ttl).Err()
}

func (s *RedisStateStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, stateKey(userID)).Err()
}

// Deletes the key only while it still carries our token, so a release after
// expiry never frees a gate another request has taken since.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGate is a SETNX lock with a TTL. The TTL bounds how long a crashed
// request can block a user's onboarding.
type RedisGate struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisGate(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisGate {
	if ttl <= 0 {
		ttl = defaultGateTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisGate{client: client, ttl: ttl, logger: logger}
}

func gateKey(key string) string {
	return "lock:" + key
}

func (g *RedisGate) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, gateKey(key), token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire gate: %w", err)
	}
	if !ok {
		return nil, onboarding.ErrGateHeld
	}

	return func() {
		// The request context may already be cancelled here.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := releaseScript.Run(ctx, g.client, []string{gateKey(key)}, token).Err(); err != nil {
			g.logger.Warn("[CACHE] Failed to release gate", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func (g *RedisGate) Held(ctx context.Context, key string) bool {
	n, err := g.client.Exists(ctx, gateKey(key)).Result()
	if err != nil {
		g.logger.Warn("[CACHE] Gate check failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return n > 0
}
