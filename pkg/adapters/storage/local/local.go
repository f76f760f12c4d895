package local

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aescanero/pixo/pkg/domain"
	"github.com/aescanero/pixo/pkg/imageio"
)

// Store keeps images on the local filesystem, one directory per folder.
type Store struct {
	dirs    map[string]string
	quality int
	logger  *zap.Logger
}

// New creates the folder directories under root and returns the store.
func New(root string, quality int, logger *zap.Logger) (*Store, error) {
	dirs := make(map[string]string, len(domain.Folders))
	for _, folder := range domain.Folders {
		dir := filepath.Join(root, folder)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		dirs[folder] = dir
	}
	logger.Info("local store initialized", zap.String("root", root))
	return &Store{dirs: dirs, quality: quality, logger: logger}, nil
}

// Dir returns the directory backing a folder.
func (s *Store) Dir(folder string) (string, error) {
	dir, ok := s.dirs[folder]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidFolder, folder)
	}
	return dir, nil
}

// folderDirs resolves a folder name, including "all", to directories in
// resolution order.
func (s *Store) folderDirs(folder string) ([]string, error) {
	if folder == domain.FolderAll {
		dirs := make([]string, 0, len(domain.Folders))
		for _, f := range domain.Folders {
			dirs = append(dirs, s.dirs[f])
		}
		return dirs, nil
	}
	dir, err := s.Dir(folder)
	if err != nil {
		return nil, err
	}
	return []string{dir}, nil
}

// Save decodes the uploaded payload and re-encodes it into folder using the
// requested format. A random name is generated when filename is empty.
func (s *Store) Save(r io.Reader, folder, filename, format string) (string, error) {
	dir, err := s.Dir(folder)
	if err != nil {
		return "", err
	}
	format, err = imageio.NormalizeFormat(format)
	if err != nil {
		return "", err
	}

	img, _, err := imageio.Decode(r)
	if err != nil {
		return "", err
	}

	name := s.fileName(filename, format)
	path := filepath.Join(dir, name)
	if err := imageio.Save(path, img, format, s.quality); err != nil {
		// Do not leave a partial file behind.
		os.Remove(path)
		return "", err
	}

	s.logger.Info("image saved",
		zap.String("folder", folder),
		zap.String("file", name))
	return path, nil
}

// SaveImage writes an already decoded image into folder under filename.
func (s *Store) SaveImage(img image.Image, folder, filename string) (string, error) {
	dir, err := s.Dir(folder)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, filename)
	if err := imageio.Save(path, img, "", s.quality); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// Resolve returns the path of an existing image inside a specific folder.
func (s *Store) Resolve(name, folder string) (string, error) {
	dir, err := s.Dir(folder)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, filepath.Base(name))
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s in %s", domain.ErrNotFound, name, folder)
	}
	return path, nil
}

// Find searches every folder in resolution order for an image name.
func (s *Store) Find(name string) (string, string, error) {
	base := filepath.Base(name)
	for _, folder := range domain.Folders {
		path := filepath.Join(s.dirs[folder], base)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, folder, nil
		}
	}
	return "", "", fmt.Errorf("%w: %s", domain.ErrNotFound, name)
}

// List returns paths of image files in folder (or all folders), paginated
// across the combined listing.
func (s *Store) List(folder string, limit, offset int) ([]string, error) {
	dirs, err := s.folderDirs(folder)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			s.logger.Warn("failed to read directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !imageio.IsImageFile(e.Name()) {
				continue
			}
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}

	if offset >= len(paths) {
		return nil, nil
	}
	paths = paths[offset:]
	if limit > 0 && limit < len(paths) {
		paths = paths[:limit]
	}
	return paths, nil
}

// Move renames an image from one folder to another. Sidecar metadata files
// travel with the image.
func (s *Store) Move(name, source, target string) (string, error) {
	if source == target {
		return "", fmt.Errorf("%w: source and target folders are the same", domain.ErrBadRequest)
	}
	srcDir, err := s.Dir(source)
	if err != nil {
		return "", err
	}
	dstDir, err := s.Dir(target)
	if err != nil {
		return "", err
	}

	base := filepath.Base(name)
	src := filepath.Join(srcDir, base)
	dst := filepath.Join(dstDir, base)

	if _, err := os.Stat(src); err != nil {
		return "", fmt.Errorf("%w: %s in %s", domain.ErrNotFound, name, source)
	}
	if _, err := os.Stat(dst); err == nil {
		return "", fmt.Errorf("%w: %s in %s", domain.ErrExists, name, target)
	}

	if err := os.Rename(src, dst); err != nil {
		return "", fmt.Errorf("failed to move image: %w", err)
	}
	if sidecar := sidecarPath(src); fileExists(sidecar) {
		if err := os.Rename(sidecar, sidecarPath(dst)); err != nil {
			s.logger.Warn("failed to move sidecar metadata", zap.String("file", sidecar), zap.Error(err))
		}
	}

	s.logger.Info("image moved",
		zap.String("file", base),
		zap.String("from", source),
		zap.String("to", target))
	return dst, nil
}

// Delete removes one image and its sidecar metadata from a folder.
func (s *Store) Delete(name, folder string) error {
	path, err := s.Resolve(name, folder)
	if err != nil {
		return err
	}
	if sidecar := sidecarPath(path); fileExists(sidecar) {
		os.Remove(sidecar)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	s.logger.Info("image deleted",
		zap.String("file", filepath.Base(path)),
		zap.String("folder", folder))
	return nil
}

// DeleteAll removes every image file in folder (or all folders) and returns
// the number deleted. Non-image files are left untouched.
func (s *Store) DeleteAll(folder string) (int, error) {
	dirs, err := s.folderDirs(folder)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			s.logger.Warn("failed to read directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !imageio.IsImageFile(e.Name()) {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if sidecar := sidecarPath(path); fileExists(sidecar) {
				os.Remove(sidecar)
			}
			if err := os.Remove(path); err != nil {
				s.logger.Warn("failed to delete image", zap.String("file", path), zap.Error(err))
				continue
			}
			deleted++
		}
	}

	s.logger.Info("folder cleared",
		zap.String("folder", folder),
		zap.Int("deleted", deleted))
	return deleted, nil
}

// fileName builds the stored file name, generating one when none was given.
func (s *Store) fileName(filename, format string) string {
	ext := imageio.ExtensionFor(format)
	if filename == "" {
		return uuid.NewString() + ext
	}
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}

func sidecarPath(imagePath string) string {
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + ".json"
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
