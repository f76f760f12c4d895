package memory

import (
	"context"
	"sync"

	"github.com/aescanero/pixo/pkg/domain"
)

// DetectionCache implements the detection cache with an in-process map.
type DetectionCache struct {
	entries map[string][]domain.Detection
	mu      sync.RWMutex
}

// NewDetectionCache creates an empty in-memory detection cache.
func NewDetectionCache() *DetectionCache {
	return &DetectionCache{
		entries: make(map[string][]domain.Detection),
	}
}

// Get retrieves cached detections for an image content hash.
func (c *DetectionCache) Get(_ context.Context, key string) ([]domain.Detection, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	detections, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]domain.Detection, len(detections))
	copy(out, detections)
	return out, true, nil
}

// Set stores detections for an image content hash.
func (c *DetectionCache) Set(_ context.Context, key string, detections []domain.Detection) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]domain.Detection, len(detections))
	copy(stored, detections)
	c.entries[key] = stored
	return nil
}
