package detection

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aescanero/pixo/pkg/adapters/storage/local"
	"github.com/aescanero/pixo/pkg/domain"
	"github.com/aescanero/pixo/pkg/imageio"
	"github.com/aescanero/pixo/pkg/ports"
)

// Manager runs object detection on stored images, caches results by content
// hash and renders annotated copies into the detected folder.
type Manager struct {
	store    *local.Store
	detector ports.Detector
	cache    ports.DetectionCache
	bus      ports.EventBus
	metrics  ports.Metrics
	logger   *zap.Logger

	// Bounds concurrent model calls; detection is the one expensive
	// operation in the service.
	sem chan struct{}
}

// NewManager creates a detection manager. maxConcurrent limits how many
// detections may run at once.
func NewManager(
	store *local.Store,
	detector ports.Detector,
	cache ports.DetectionCache,
	bus ports.EventBus,
	metrics ports.Metrics,
	logger *zap.Logger,
	maxConcurrent int,
) *Manager {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Manager{
		store:    store,
		detector: detector,
		cache:    cache,
		bus:      bus,
		metrics:  metrics,
		logger:   logger,
		sem:      make(chan struct{}, maxConcurrent),
	}
}

// Result is the outcome of a bounding-box run.
type Result struct {
	ImagePath  string
	Detections []domain.Detection
}

// BoundingBoxes detects objects in the named image, draws labeled boxes on
// a copy saved to the detected folder, and returns its path with the
// detection list.
func (m *Manager) BoundingBoxes(ctx context.Context, name string) (*Result, error) {
	path, _, err := m.store.Find(name)
	if err != nil {
		return nil, err
	}

	detections, img, err := m.detect(ctx, path)
	if err != nil {
		return nil, err
	}

	annotated := drawDetections(img, detections)

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	outName := strings.TrimSuffix(base, ext) + "_boxes" + ext
	outPath, err := m.store.SaveImage(annotated, domain.FolderDetected, outName)
	if err != nil {
		return nil, err
	}

	m.publish(ctx, outName, outPath)
	m.logger.Info("bounding boxes rendered",
		zap.String("image", name),
		zap.String("output", outName),
		zap.Int("detections", len(detections)))

	return &Result{ImagePath: outPath, Detections: detections}, nil
}

// DetectedObjects returns the detection list for the named image without
// rendering an annotated copy.
func (m *Manager) DetectedObjects(ctx context.Context, name string) ([]domain.Detection, error) {
	path, _, err := m.store.Find(name)
	if err != nil {
		return nil, err
	}
	detections, _, err := m.detect(ctx, path)
	return detections, err
}

// detect loads the file, consults the cache and falls back to the model.
// The decoded image is returned so callers can render overlays without a
// second decode.
func (m *Manager) detect(ctx context.Context, path string) ([]domain.Detection, image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read image: %w", err)
	}
	img, _, err := imageio.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}

	key := contentKey(data, m.detector.Name())
	if cached, ok, err := m.cache.Get(ctx, key); err == nil && ok {
		m.logger.Debug("detection cache hit", zap.String("path", path))
		return cached, img, nil
	} else if err != nil {
		m.logger.Warn("detection cache read failed", zap.Error(err))
	}

	select {
	case m.sem <- struct{}{}:
		defer func() { <-m.sem }()
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}

	start := time.Now()
	detections, err := m.detector.Detect(ctx, img)
	if err != nil {
		m.metrics.IncDetections(m.detector.Name(), "error")
		return nil, nil, fmt.Errorf("detection failed: %w", err)
	}
	m.metrics.IncDetections(m.detector.Name(), "success")
	m.metrics.ObserveDetectDuration(m.detector.Name(), time.Since(start))

	if err := m.cache.Set(ctx, key, detections); err != nil {
		m.logger.Warn("detection cache write failed", zap.Error(err))
	}
	return detections, img, nil
}

func (m *Manager) publish(ctx context.Context, image, path string) {
	event := domain.Event{
		ID:        uuid.NewString(),
		Type:      domain.EventDetected,
		Image:     image,
		Folder:    domain.FolderDetected,
		Path:      path,
		Timestamp: time.Now().UTC(),
	}
	if err := m.bus.Publish(ctx, domain.EventsTopic, event); err != nil {
		m.logger.Warn("failed to publish event", zap.Error(err))
	}
}

// contentKey derives the cache key from file bytes and the detector
// identity, so switching models never serves stale results.
func contentKey(data []byte, detectorName string) string {
	h := sha256.New()
	h.Write(data)
	h.Write([]byte(detectorName))
	return hex.EncodeToString(h.Sum(nil))
}
