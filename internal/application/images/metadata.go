package images

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aescanero/pixo/pkg/domain"
	"github.com/aescanero/pixo/pkg/imageio"
)

// ExtractMetadata reads image metadata from the file header without decoding
// the full pixel data.
func ExtractMetadata(path string) (domain.Metadata, error) {
	cfg, format, err := imageio.DecodeConfig(path)
	if err != nil {
		return domain.Metadata{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return domain.Metadata{}, fmt.Errorf("failed to stat image: %w", err)
	}

	return domain.Metadata{
		Filename:  filepath.Base(path),
		Format:    format,
		Mode:      imageio.ColorMode(cfg.ColorModel),
		Width:     cfg.Width,
		Height:    cfg.Height,
		SizeBytes: info.Size(),
		Path:      path,
	}, nil
}

// Dimensions returns only the width and height of an image file.
func Dimensions(path string) (int, int, error) {
	cfg, _, err := imageio.DecodeConfig(path)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// WriteSidecar stores metadata in a .json file next to the image. The store
// moves and deletes sidecars together with their image.
func WriteSidecar(imagePath string, meta domain.Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(sidecarPath(imagePath), data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata sidecar: %w", err)
	}
	return nil
}

// ReadSidecar loads metadata from the sidecar file, if one exists.
func ReadSidecar(imagePath string) (domain.Metadata, bool) {
	data, err := os.ReadFile(sidecarPath(imagePath))
	if err != nil {
		return domain.Metadata{}, false
	}
	var meta domain.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return domain.Metadata{}, false
	}
	return meta, true
}

func sidecarPath(imagePath string) string {
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + ".json"
}
