package editor

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aescanero/pixo/pkg/adapters/storage/local"
	"github.com/aescanero/pixo/pkg/domain"
	"github.com/aescanero/pixo/pkg/imageio"
	"github.com/aescanero/pixo/pkg/ports"
)

// Service applies pixel transforms to stored images. Inputs are read from
// the uploaded folder; results are written to the edited folder with an
// operation suffix in the file name.
type Service struct {
	store   *local.Store
	bus     ports.EventBus
	metrics ports.Metrics
	logger  *zap.Logger
}

// NewService creates a new edit service.
func NewService(store *local.Store, bus ports.EventBus, metrics ports.Metrics, logger *zap.Logger) *Service {
	return &Service{
		store:   store,
		bus:     bus,
		metrics: metrics,
		logger:  logger,
	}
}

// Resize scales an image to an exact width and height.
func (s *Service) Resize(ctx context.Context, name string, width, height int) (string, error) {
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("%w: width and height must be positive", domain.ErrBadRequest)
	}
	return s.apply(ctx, "resize", name, "resized", func(img image.Image) (image.Image, error) {
		return imaging.Resize(img, width, height, imaging.Lanczos), nil
	})
}

// Grayscale converts an image to grayscale.
func (s *Service) Grayscale(ctx context.Context, name string) (string, error) {
	return s.apply(ctx, "grayscale", name, "gray", func(img image.Image) (image.Image, error) {
		return imaging.Grayscale(img), nil
	})
}

// Rotate turns an image counterclockwise by the given degrees. Without
// expand the result is cropped back to the original bounds.
func (s *Service) Rotate(ctx context.Context, name string, degrees int, expand bool) (string, error) {
	suffix := fmt.Sprintf("rotated_%d", degrees)
	return s.apply(ctx, "rotate", name, suffix, func(img image.Image) (image.Image, error) {
		rotated := imaging.Rotate(img, float64(degrees), color.Black)
		if !expand {
			b := img.Bounds()
			rotated = imaging.CropCenter(rotated, b.Dx(), b.Dy())
		}
		return rotated, nil
	})
}

// Crop cuts the pixel rectangle (left, upper) to (right, lower) out of an
// image, PIL-style coordinates.
func (s *Service) Crop(ctx context.Context, name string, left, upper, right, lower int) (string, error) {
	if left >= right || upper >= lower {
		return "", fmt.Errorf("%w: empty crop rectangle", domain.ErrBadRequest)
	}
	return s.apply(ctx, "crop", name, "cropped", func(img image.Image) (image.Image, error) {
		rect := image.Rect(left, upper, right, lower).Intersect(img.Bounds())
		if rect.Empty() {
			return nil, fmt.Errorf("%w: crop rectangle outside image", domain.ErrBadRequest)
		}
		return imaging.Crop(img, rect), nil
	})
}

// Blur applies a gaussian blur with the given radius.
func (s *Service) Blur(ctx context.Context, name string, radius float64) (string, error) {
	if radius <= 0 {
		return "", fmt.Errorf("%w: radius must be positive", domain.ErrBadRequest)
	}
	suffix := fmt.Sprintf("blurred_%g", radius)
	return s.apply(ctx, "blur", name, suffix, func(img image.Image) (image.Image, error) {
		return imaging.Blur(img, radius), nil
	})
}

// Sharpen applies an unsharp mask with the given strength, radius and
// per-channel threshold.
func (s *Service) Sharpen(ctx context.Context, name string, factor, radius float64, threshold int) (string, error) {
	if factor <= 0 || radius <= 0 {
		return "", fmt.Errorf("%w: factor and radius must be positive", domain.ErrBadRequest)
	}
	return s.apply(ctx, "sharpen", name, "sharpened", func(img image.Image) (image.Image, error) {
		return unsharpMask(img, factor, radius, threshold), nil
	})
}

// Brightness scales image brightness by factor (1.0 leaves it unchanged).
func (s *Service) Brightness(ctx context.Context, name string, factor float64) (string, error) {
	if factor <= 0 {
		return "", fmt.Errorf("%w: factor must be positive", domain.ErrBadRequest)
	}
	suffix := fmt.Sprintf("brightness_%g", factor)
	return s.apply(ctx, "brightness", name, suffix, func(img image.Image) (image.Image, error) {
		return imaging.AdjustBrightness(img, (factor-1)*100), nil
	})
}

// Contrast scales image contrast by factor (1.0 leaves it unchanged).
func (s *Service) Contrast(ctx context.Context, name string, factor float64) (string, error) {
	if factor <= 0 {
		return "", fmt.Errorf("%w: factor must be positive", domain.ErrBadRequest)
	}
	suffix := fmt.Sprintf("contrast_%g", factor)
	return s.apply(ctx, "contrast", name, suffix, func(img image.Image) (image.Image, error) {
		return imaging.AdjustContrast(img, (factor-1)*100), nil
	})
}

// Watermark overlays another stored image at the given position with the
// given opacity. When centered, the position is ignored.
func (s *Service) Watermark(ctx context.Context, name, markName string, x, y int, opacity float64, center bool) (string, error) {
	if opacity <= 0 || opacity > 1 {
		return "", fmt.Errorf("%w: opacity must be in (0,1]", domain.ErrBadRequest)
	}
	markPath, _, err := s.store.Find(markName)
	if err != nil {
		return "", err
	}
	mark, _, err := imageio.Open(markPath)
	if err != nil {
		return "", err
	}
	return s.apply(ctx, "watermark", name, "watermarked", func(img image.Image) (image.Image, error) {
		if center {
			return imaging.OverlayCenter(img, mark, opacity), nil
		}
		return imaging.Overlay(img, mark, image.Pt(x, y), opacity), nil
	})
}

// apply runs one transform end to end: resolve, decode, transform, save,
// then account for it.
func (s *Service) apply(ctx context.Context, op, name, suffix string, fn func(image.Image) (image.Image, error)) (string, error) {
	start := time.Now()

	path, err := s.store.Resolve(name, domain.FolderUploaded)
	if err != nil {
		s.metrics.IncEdits(op, "error")
		return "", err
	}
	img, _, err := imageio.Open(path)
	if err != nil {
		s.metrics.IncEdits(op, "error")
		return "", err
	}

	out, err := fn(img)
	if err != nil {
		s.metrics.IncEdits(op, "error")
		return "", err
	}

	outName := suffixName(filepath.Base(path), suffix)
	outPath, err := s.store.SaveImage(out, domain.FolderEdited, outName)
	if err != nil {
		s.metrics.IncEdits(op, "error")
		return "", err
	}

	s.metrics.IncEdits(op, "success")
	s.metrics.ObserveEditDuration(op, time.Since(start))
	s.publish(ctx, outName, outPath)

	s.logger.Info("image edited",
		zap.String("op", op),
		zap.String("source", name),
		zap.String("output", outName),
		zap.Duration("duration", time.Since(start)))
	return outPath, nil
}

func (s *Service) publish(ctx context.Context, image, path string) {
	event := domain.Event{
		ID:        uuid.NewString(),
		Type:      domain.EventEdited,
		Image:     image,
		Folder:    domain.FolderEdited,
		Path:      path,
		Timestamp: time.Now().UTC(),
	}
	if err := s.bus.Publish(ctx, domain.EventsTopic, event); err != nil {
		s.logger.Warn("failed to publish event", zap.Error(err))
	}
}

// suffixName inserts an operation suffix before the file extension.
func suffixName(name, suffix string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "_" + suffix + ext
}
