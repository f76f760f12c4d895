package saliency

import (
	"context"
	"image"
	"math"
	"sort"

	"github.com/aescanero/pixo/pkg/domain"
)

// Detector finds regions of interest with a local edge/contrast heuristic.
// It has no notion of object classes; every region is labeled "subject".
type Detector struct {
	config Config
}

// Config holds detection tuning parameters.
type Config struct {
	EdgeThreshold   float64
	ContrastWeight  float64
	ColorWeight     float64
	MinSubjectRatio float64
	MaxRegions      int
}

// DefaultConfig returns the tuning used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		EdgeThreshold:   0.01,
		ContrastWeight:  0.3,
		ColorWeight:     0.2,
		MinSubjectRatio: 0.05,
		MaxRegions:      10,
	}
}

// New creates a detector with default configuration.
func New() *Detector {
	return &Detector{config: DefaultConfig()}
}

// NewWithConfig creates a detector with custom configuration.
func NewWithConfig(config Config) *Detector {
	return &Detector{config: config}
}

// Name identifies the backend for logging and cache keying.
func (d *Detector) Name() string {
	return "saliency"
}

type region struct {
	x, y, w, h int
	score      float64
}

// Detect analyzes the image and returns salient regions as detections with
// normalized boxes. Scores are clamped to [0,1] as confidence values.
func (d *Detector) Detect(_ context.Context, img image.Image) ([]domain.Detection, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 3 || height < 3 {
		return nil, nil
	}

	saliency := d.saliencyMap(img)
	regions := d.findRegions(saliency, width, height)
	regions = d.filterRegions(regions, width, height)

	if len(regions) > d.config.MaxRegions {
		regions = regions[:d.config.MaxRegions]
	}

	detections := make([]domain.Detection, 0, len(regions))
	for _, r := range regions {
		box := domain.Box{
			X: float64(r.x) / float64(width),
			Y: float64(r.y) / float64(height),
			W: float64(r.w) / float64(width),
			H: float64(r.h) / float64(height),
		}
		detections = append(detections, domain.Detection{
			Label:      "subject",
			Confidence: math.Min(1, r.score*10),
			Box:        box.Clamp(),
		})
	}
	return detections, nil
}

// saliencyMap combines edge strength and brightness per pixel.
func (d *Detector) saliencyMap(img image.Image) [][]float64 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	out := make([][]float64, height)
	for i := range out {
		out[i] = make([]float64, width)
	}

	neighbors := [8][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			r1, g1, b1, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()

			var edge float64
			for _, off := range neighbors {
				r2, g2, b2, _ := img.At(x+off[0]+bounds.Min.X, y+off[1]+bounds.Min.Y).RGBA()
				dr := float64(r1) - float64(r2)
				dg := float64(g1) - float64(g2)
				db := float64(b1) - float64(b2)
				edge += math.Sqrt(dr*dr + dg*dg + db*db)
			}
			edge /= 8.0 * 65535.0

			brightness := (float64(r1) + float64(g1) + float64(b1)) / (3.0 * 65535.0)

			out[y][x] = d.config.ContrastWeight*edge + d.config.ColorWeight*brightness
		}
	}
	return out
}

// findRegions slides windows of several sizes over the saliency map and
// keeps those above the edge threshold.
func (d *Detector) findRegions(saliency [][]float64, width, height int) []region {
	var regions []region

	windowSizes := []int{width / 20, width / 16, width / 12, width / 8, width / 4}
	for _, size := range windowSizes {
		if size < 10 {
			continue
		}
		step := size / 8
		if step < 1 {
			step = 1
		}
		for y := 0; y <= height-size; y += step {
			for x := 0; x <= width-size; x += step {
				score := regionScore(saliency, x, y, size, size)
				if score > d.config.EdgeThreshold {
					regions = append(regions, region{x: x, y: y, w: size, h: size, score: score})
				}
			}
		}
	}
	return regions
}

func regionScore(saliency [][]float64, x, y, w, h int) float64 {
	var total float64
	count := 0
	for ry := y; ry < y+h && ry < len(saliency); ry++ {
		for rx := x; rx < x+w && rx < len(saliency[ry]); rx++ {
			total += saliency[ry][rx]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// filterRegions drops regions below the minimum area and sorts the rest by
// score, best first.
func (d *Detector) filterRegions(regions []region, width, height int) []region {
	minArea := int(float64(width*height) * d.config.MinSubjectRatio)

	filtered := regions[:0]
	for _, r := range regions {
		if r.w*r.h >= minArea {
			filtered = append(filtered, r)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].score > filtered[j].score
	})
	return filtered
}
