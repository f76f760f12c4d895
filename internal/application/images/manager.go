package images

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aescanero/pixo/pkg/adapters/storage/local"
	"github.com/aescanero/pixo/pkg/domain"
	"github.com/aescanero/pixo/pkg/ports"
)

// Manager coordinates image CRUD operations: storage, metadata extraction,
// lifecycle events and metrics.
type Manager struct {
	store   *local.Store
	bus     ports.EventBus
	metrics ports.Metrics
	logger  *zap.Logger
}

// NewManager creates a new image manager.
func NewManager(store *local.Store, bus ports.EventBus, metrics ports.Metrics, logger *zap.Logger) *Manager {
	return &Manager{
		store:   store,
		bus:     bus,
		metrics: metrics,
		logger:  logger,
	}
}

// SaveUploaded stores an uploaded image and returns its metadata.
func (m *Manager) SaveUploaded(ctx context.Context, r io.Reader, filename, format string) (domain.Metadata, error) {
	path, err := m.store.Save(r, domain.FolderUploaded, filename, format)
	if err != nil {
		m.metrics.IncUploads("error")
		return domain.Metadata{}, err
	}

	meta, err := ExtractMetadata(path)
	if err != nil {
		m.metrics.IncUploads("error")
		return domain.Metadata{}, err
	}
	meta.Folder = domain.FolderUploaded

	if err := WriteSidecar(path, meta); err != nil {
		m.logger.Warn("failed to write metadata sidecar",
			zap.String("path", path),
			zap.Error(err))
	}

	m.metrics.IncUploads("success")
	m.publish(ctx, domain.EventUploaded, meta.Filename, domain.FolderUploaded, path)
	return meta, nil
}

// Get returns metadata for one image in a folder. The sidecar file is
// preferred when present; the image header is the fallback.
func (m *Manager) Get(_ context.Context, name, folder string) (domain.Metadata, error) {
	path, err := m.store.Resolve(name, folder)
	if err != nil {
		return domain.Metadata{}, err
	}
	if meta, ok := ReadSidecar(path); ok {
		meta.Folder = folder
		meta.Path = path
		return meta, nil
	}
	meta, err := ExtractMetadata(path)
	if err != nil {
		return domain.Metadata{}, err
	}
	meta.Folder = folder
	return meta, nil
}

// GetDimensions returns the width and height of an image in a folder.
func (m *Manager) GetDimensions(_ context.Context, name, folder string) (int, int, error) {
	path, err := m.store.Resolve(name, folder)
	if err != nil {
		return 0, 0, err
	}
	return Dimensions(path)
}

// List returns metadata for images in a folder (or all folders) with
// pagination. Files that fail to decode are skipped, not fatal.
func (m *Manager) List(_ context.Context, folder string, limit, offset int) ([]domain.Metadata, error) {
	paths, err := m.store.List(folder, limit, offset)
	if err != nil {
		return nil, err
	}

	results := make([]domain.Metadata, 0, len(paths))
	for _, path := range paths {
		meta, err := ExtractMetadata(path)
		if err != nil {
			m.logger.Warn("skipping unreadable image",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		meta.Folder = filepath.Base(filepath.Dir(path))
		results = append(results, meta)
	}
	return results, nil
}

// Delete removes one image and returns the metadata it had.
func (m *Manager) Delete(ctx context.Context, name, folder string) (domain.Metadata, error) {
	path, err := m.store.Resolve(name, folder)
	if err != nil {
		return domain.Metadata{}, err
	}
	meta, err := ExtractMetadata(path)
	if err != nil {
		// Still delete files that no longer decode.
		m.logger.Warn("deleting image with unreadable metadata",
			zap.String("path", path),
			zap.Error(err))
		meta = domain.Metadata{Filename: filepath.Base(path), Path: path}
	}
	meta.Folder = folder

	if err := m.store.Delete(name, folder); err != nil {
		return domain.Metadata{}, err
	}

	m.metrics.IncDeletes(folder)
	m.publish(ctx, domain.EventDeleted, meta.Filename, folder, "")
	return meta, nil
}

// DeleteAll removes every image in a folder (or all folders) and returns
// the number deleted.
func (m *Manager) DeleteAll(ctx context.Context, folder string) (int, error) {
	deleted, err := m.store.DeleteAll(folder)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		m.metrics.IncDeletes(folder)
		m.publish(ctx, domain.EventDeleted, "*", folder, "")
	}
	return deleted, nil
}

// Move relocates an image between folders and returns its new metadata.
func (m *Manager) Move(ctx context.Context, name, source, target string) (domain.Metadata, error) {
	path, err := m.store.Move(name, source, target)
	if err != nil {
		return domain.Metadata{}, err
	}
	meta, err := ExtractMetadata(path)
	if err != nil {
		return domain.Metadata{}, err
	}
	meta.Folder = target

	m.metrics.IncMoves()
	m.publish(ctx, domain.EventMoved, meta.Filename, target, path)
	return meta, nil
}

func (m *Manager) publish(ctx context.Context, typ domain.EventType, image, folder, path string) {
	event := domain.Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Image:     image,
		Folder:    folder,
		Path:      path,
		Timestamp: time.Now().UTC(),
	}
	if err := m.bus.Publish(ctx, domain.EventsTopic, event); err != nil {
		m.logger.Warn("failed to publish event",
			zap.String("type", string(typ)),
			zap.Error(err))
	}
}
