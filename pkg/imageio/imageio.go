package imageio

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	_ "golang.org/x/image/webp"

	"github.com/aescanero/pixo/pkg/domain"
)

// DefaultQuality is used for lossy encoders when no quality is configured.
const DefaultQuality = 95

// formatExtensions maps canonical format names to file extensions.
var formatExtensions = map[string]string{
	"JPEG": ".jpg",
	"PNG":  ".png",
	"GIF":  ".gif",
	"BMP":  ".bmp",
	"TIFF": ".tiff",
	"WEBP": ".webp",
}

var extensionFormats = map[string]string{
	".jpg":  "JPEG",
	".jpeg": "JPEG",
	".png":  "PNG",
	".gif":  "GIF",
	".bmp":  "BMP",
	".tif":  "TIFF",
	".tiff": "TIFF",
	".webp": "WEBP",
}

// NormalizeFormat validates a user-supplied format name and returns its
// canonical spelling.
func NormalizeFormat(format string) (string, error) {
	f := strings.ToUpper(strings.TrimSpace(format))
	if f == "JPG" {
		f = "JPEG"
	}
	if _, ok := formatExtensions[f]; !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrBadFormat, format)
	}
	return f, nil
}

// ExtensionFor returns the file extension for a canonical format name.
func ExtensionFor(format string) string {
	return formatExtensions[format]
}

// FormatForPath derives the canonical format from a file name, defaulting
// to JPEG when the extension is unknown.
func FormatForPath(path string) string {
	if f, ok := extensionFormats[strings.ToLower(filepath.Ext(path))]; ok {
		return f
	}
	return "JPEG"
}

// IsImageFile reports whether the file name carries a supported extension.
func IsImageFile(name string) bool {
	_, ok := extensionFormats[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Decode reads an image from r and returns it with its canonical format name.
// BMP, TIFF and WEBP decoders are registered via golang.org/x/image imports.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrBadImage, err)
	}
	canonical, err := NormalizeFormat(format)
	if err != nil {
		return nil, "", fmt.Errorf("%w: decoded as %s", domain.ErrBadFormat, format)
	}
	return img, canonical, nil
}

// Open decodes an image file from disk.
func Open(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// DecodeConfig reads only the image header from a file.
func DecodeConfig(path string) (image.Config, string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return image.Config{}, "", domain.ErrNotFound
		}
		return image.Config{}, "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return image.Config{}, "", fmt.Errorf("%w: %v", domain.ErrBadImage, err)
	}
	canonical, err := NormalizeFormat(format)
	if err != nil {
		return image.Config{}, "", err
	}
	return cfg, canonical, nil
}

// Encode writes img to w in the given canonical format.
func Encode(w io.Writer, img image.Image, format string, quality int) error {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	switch format {
	case "JPEG":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case "PNG":
		enc := png.Encoder{CompressionLevel: png.DefaultCompression}
		return enc.Encode(w, img)
	case "GIF":
		return gif.Encode(w, img, nil)
	case "BMP":
		return bmp.Encode(w, img)
	case "TIFF":
		return tiff.Encode(w, img, nil)
	case "WEBP":
		return webp.Encode(w, img, &webp.Options{Quality: float32(quality)})
	default:
		return fmt.Errorf("%w: %s", domain.ErrBadFormat, format)
	}
}

// Save encodes img to a file, choosing the format from the file extension
// unless an explicit format is given.
func Save(path string, img image.Image, format string, quality int) error {
	if format == "" {
		format = FormatForPath(path)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()

	if err := Encode(f, img, format, quality); err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return nil
}

// ColorMode names the color model of a decoded image, close to what the
// decoder reports for the underlying pixel layout.
func ColorMode(model color.Model) string {
	switch model {
	case color.RGBAModel:
		return "RGBA"
	case color.RGBA64Model:
		return "RGBA64"
	case color.NRGBAModel:
		return "NRGBA"
	case color.NRGBA64Model:
		return "NRGBA64"
	case color.GrayModel:
		return "L"
	case color.Gray16Model:
		return "L16"
	case color.YCbCrModel:
		return "YCbCr"
	case color.CMYKModel:
		return "CMYK"
	default:
		if _, ok := model.(color.Palette); ok {
			return "P"
		}
		return "unknown"
	}
}
