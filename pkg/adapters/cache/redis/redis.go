package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aescanero/pixo/pkg/domain"
)

// DetectionCache stores detection results in Redis with a TTL.
type DetectionCache struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewDetectionCache creates a Redis-backed detection cache.
func NewDetectionCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *DetectionCache {
	return &DetectionCache{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// Get retrieves cached detections for an image content hash.
func (c *DetectionCache) Get(ctx context.Context, key string) ([]domain.Detection, bool, error) {
	data, err := c.client.Get(ctx, cacheKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get detections: %w", err)
	}

	var detections []domain.Detection
	if err := json.Unmarshal(data, &detections); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal detections: %w", err)
	}
	return detections, true, nil
}

// Set stores detections for an image content hash with the configured TTL.
func (c *DetectionCache) Set(ctx context.Context, key string, detections []domain.Detection) error {
	data, err := json.Marshal(detections)
	if err != nil {
		return fmt.Errorf("failed to marshal detections: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save detections: %w", err)
	}

	c.logger.Debug("detections cached",
		zap.String("key", key),
		zap.Int("count", len(detections)))
	return nil
}

// cacheKey returns the Redis key for a detection result.
func cacheKey(hash string) string {
	return fmt.Sprintf("pixo:detect:%s", hash)
}
