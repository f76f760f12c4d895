package editor

import (
	"image"

	"github.com/disintegration/imaging"
)

// unsharpMask sharpens img by adding back the difference against a blurred
// copy: out = src + factor*(src - blur). Channel differences below the
// threshold are left alone, which keeps flat areas free of amplified noise.
func unsharpMask(img image.Image, factor, radius float64, threshold int) *image.NRGBA {
	src := imaging.Clone(img)
	blurred := imaging.Blur(src, radius)
	out := imaging.Clone(src)

	for i := 0; i < len(src.Pix); i += 4 {
		// RGB channels only; alpha stays.
		for c := 0; c < 3; c++ {
			diff := int(src.Pix[i+c]) - int(blurred.Pix[i+c])
			if diff < threshold && -diff < threshold {
				continue
			}
			v := int(src.Pix[i+c]) + int(factor*float64(diff))
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			out.Pix[i+c] = uint8(v)
		}
	}
	return out
}
