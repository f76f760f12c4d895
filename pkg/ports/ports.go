package ports

import (
	"context"
	"image"
	"time"

	"github.com/aescanero/pixo/pkg/domain"
)

// EventHandler processes a single lifecycle event.
type EventHandler func(ctx context.Context, event domain.Event) error

// EventBus publishes and delivers image lifecycle events.
type EventBus interface {
	Publish(ctx context.Context, topic string, event domain.Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Close() error
}

// Detector finds objects in a decoded image.
type Detector interface {
	// Name identifies the backend for logging and cache keying.
	Name() string
	Detect(ctx context.Context, img image.Image) ([]domain.Detection, error)
}

// DetectionCache stores detection results keyed by image content hash.
type DetectionCache interface {
	Get(ctx context.Context, key string) ([]domain.Detection, bool, error)
	Set(ctx context.Context, key string, detections []domain.Detection) error
}

// Metrics receives operation counters and timings from the application layer.
type Metrics interface {
	IncUploads(status string)
	IncEdits(op string, status string)
	IncDetections(backend string, status string)
	IncDeletes(folder string)
	IncMoves()
	ObserveEditDuration(op string, d time.Duration)
	ObserveDetectDuration(backend string, d time.Duration)
	SetEventClients(n int)
}
