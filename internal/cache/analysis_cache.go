// internal/cache/analysis_cache.go
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Haffner32/hackathon-restock-ai/internal/config"
	"github.com/Haffner32/hackathon-restock-ai/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	analysisKeyPrefix = "restock:analysis"
	scanBatchSize     = 100
)

// AnalysisCache memoizes full item analyses, keyed by the item and a
// fingerprint of its observation series. A new reading changes the
// fingerprint, so stale recommendations are never served.
type AnalysisCache interface {
	Get(ctx context.Context, itemID, fingerprint string) (*domain.ItemAnalysis, bool, error)
	Set(ctx context.Context, itemID, fingerprint string, analysis *domain.ItemAnalysis) error
	InvalidateItem(ctx context.Context, itemID string) error
	InvalidateAll(ctx context.Context) error
}

type redisAnalysisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopAnalysisCache struct{}

func NewAnalysisCache(cfg config.CacheConfig) (AnalysisCache, error) {
	if !cfg.Enabled {
		return &noopAnalysisCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisAnalysisCache{client: client, ttl: ttl}, nil
}

func NewNoopAnalysisCache() AnalysisCache {
	return &noopAnalysisCache{}
}

// Fingerprint hashes an observation series into a stable cache key part.
func Fingerprint(obs []domain.StockObservation) string {
	h := sha1.New()
	for _, o := range obs {
		fmt.Fprintf(h, "%s|%d|%g\n", o.ItemID, o.Timestamp.UnixNano(), o.OnHand)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func analysisKey(itemID, fingerprint string) string {
	return fmt.Sprintf("%s:%s:%s", analysisKeyPrefix, itemID, fingerprint)
}

func (c *redisAnalysisCache) Get(ctx context.Context, itemID, fingerprint string) (*domain.ItemAnalysis, bool, error) {
	payload, err := c.client.Get(ctx, analysisKey(itemID, fingerprint)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var analysis domain.ItemAnalysis
	if err := json.Unmarshal(payload, &analysis); err != nil {
		return nil, false, fmt.Errorf("decode analysis cache: %w", err)
	}
	return &analysis, true, nil
}

func (c *redisAnalysisCache) Set(ctx context.Context, itemID, fingerprint string, analysis *domain.ItemAnalysis) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("encode analysis cache: %w", err)
	}

	if err := c.client.Set(ctx, analysisKey(itemID, fingerprint), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisAnalysisCache) InvalidateItem(ctx context.Context, itemID string) error {
	return deleteKeysWithPrefix(ctx, c.client, fmt.Sprintf("%s:%s:", analysisKeyPrefix, itemID), scanBatchSize)
}

func (c *redisAnalysisCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, analysisKeyPrefix, scanBatchSize)
}

func (n *noopAnalysisCache) Get(ctx context.Context, itemID, fingerprint string) (*domain.ItemAnalysis, bool, error) {
	return nil, false, nil
}

func (n *noopAnalysisCache) Set(ctx context.Context, itemID, fingerprint string, analysis *domain.ItemAnalysis) error {
	return nil
}

func (n *noopAnalysisCache) InvalidateItem(ctx context.Context, itemID string) error {
	return nil
}

func (n *noopAnalysisCache) InvalidateAll(ctx context.Context) error {
	return nil
}
