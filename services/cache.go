package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"claim-prediction-api/models"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ScoreCache memoizes the result for an identical record. Entries are
// short-lived; this is not a prediction store.
type ScoreCache interface {
	Get(ctx context.Context, key string) (models.Prediction, bool)
	Set(ctx context.Context, key string, p models.Prediction)
	Close() error
}

const cacheKeyPrefix = "claim:score:"

type NopCache struct{}

func (NopCache) Get(context.Context, string) (models.Prediction, bool) {
	return models.Prediction{}, false
}
func (NopCache) Set(context.Context, string, models.Prediction) {}
func (NopCache) Close() error                                  { return nil }

// CacheService is a redis-backed ScoreCache. A nil client turns every call
// into a miss so an unreachable server never blocks scoring.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCacheService(redisURL string, ttl time.Duration, logger *zap.Logger) (*CacheService, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return &CacheService{ttl: ttl, logger: logger}, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	var lastErr error
	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		lastErr = client.Ping(ctx).Err()
		cancel()
		if lastErr == nil {
			return &CacheService{client: client, ttl: ttl, logger: logger}, nil
		}
		logger.Warn("redis ping failed", zap.Int("attempt", i+1), zap.Error(lastErr))
		time.Sleep(500 * time.Millisecond)
	}
	client.Close()

	return &CacheService{ttl: ttl, logger: logger}, fmt.Errorf("redis ping failed after 3 attempts: %w", lastErr)
}

func (s *CacheService) Available() bool {
	return s.client != nil
}

func (s *CacheService) Get(ctx context.Context, key string) (models.Prediction, bool) {
	var p models.Prediction
	if s.client == nil {
		return p, false
	}
	val, err := s.client.Get(ctx, cacheKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return p, false
	}
	if err != nil {
		s.logger.Warn("score cache get failed", zap.Error(err))
		return p, false
	}
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		s.logger.Warn("score cache entry unreadable", zap.String("key", key), zap.Error(err))
		return models.Prediction{}, false
	}
	return p, true
}

func (s *CacheService) Set(ctx context.Context, key string, p models.Prediction) {
	if s.client == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, cacheKeyPrefix+key, data, s.ttl).Err(); err != nil {
		s.logger.Warn("score cache set failed", zap.Error(err))
	}
}

func (s *CacheService) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// MemoryCache is an in-process ScoreCache with LRU eviction and per-entry TTL.
type MemoryCache struct {
	entries *lru.LRU[string, models.Prediction]
}

func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{entries: lru.NewLRU[string, models.Prediction](size, nil, ttl)}
}

func (m *MemoryCache) Get(_ context.Context, key string) (models.Prediction, bool) {
	return m.entries.Get(key)
}

func (m *MemoryCache) Set(_ context.Context, key string, p models.Prediction) {
	m.entries.Add(key, p)
}

func (m *MemoryCache) Close() error {
	m.entries.Purge()
	return nil
}

func (m *MemoryCache) Len() int { return m.entries.Len() }
