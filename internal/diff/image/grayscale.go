package image

import (
	"image"
)

const (
	DefaultGrayscaleThreshold = 50
	DefaultAlpha              = 0.7
)

// GrayscaleDiff thresholds the luminance of the absolute difference and swaps
// the differing regions between the two images, dimmed toward black.
type GrayscaleDiff struct {
	threshold uint8
	alpha     float64
}

func NewGrayscaleDiff(threshold uint8, alpha float64) *GrayscaleDiff {
	if alpha < 0 || alpha > 1 {
		alpha = DefaultAlpha
	}
	return &GrayscaleDiff{
		threshold: threshold,
		alpha:     alpha,
	}
}

func (g *GrayscaleDiff) Calculate(first image.Image, second image.Image) (*DiffResult, error) {
	a := asNRGBA(first)
	b := asNRGBA(second)

	mask, err := g.Mask(a, b)
	if err != nil {
		return nil, err
	}

	dimmedA := Dim(a, g.alpha)
	dimmedB := Dim(b, g.alpha)

	return &DiffResult{
		First:  substitute(a, dimmedB, mask),
		Second: substitute(b, dimmedA, mask),
	}, nil
}

// Mask is true wherever the luminance of |first-second| exceeds the threshold.
func (g *GrayscaleDiff) Mask(first *image.NRGBA, second *image.NRGBA) (*Mask, error) {
	if err := checkDimensions(first, second); err != nil {
		return nil, err
	}

	size := first.Bounds().Size()
	mask := NewMask(size.X, size.Y)

	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			o1 := first.PixOffset(x, y)
			o2 := second.PixOffset(x, y)
			gray := luminance(
				absDiff(first.Pix[o1], second.Pix[o2]),
				absDiff(first.Pix[o1+1], second.Pix[o2+1]),
				absDiff(first.Pix[o1+2], second.Pix[o2+2]),
			)
			mask.Bits[y*size.X+x] = gray > g.threshold
		}
	}

	return mask, nil
}

// Dim blends img toward a black image, leaving alpha*px in every channel.
// This stands in for transparency over a black background.
func Dim(img *image.NRGBA, alpha float64) *image.NRGBA {
	out := image.NewNRGBA(img.Bounds())
	for i := 0; i < len(img.Pix); i += 4 {
		out.Pix[i] = blend(img.Pix[i], 0, alpha)
		out.Pix[i+1] = blend(img.Pix[i+1], 0, alpha)
		out.Pix[i+2] = blend(img.Pix[i+2], 0, alpha)
		out.Pix[i+3] = 255
	}
	return out
}

func substitute(base *image.NRGBA, replacement *image.NRGBA, mask *Mask) *image.NRGBA {
	out := image.NewNRGBA(base.Bounds())
	copy(out.Pix, base.Pix)

	for i, masked := range mask.Bits {
		offset := i * 4
		if masked {
			copy(out.Pix[offset:offset+3], replacement.Pix[offset:offset+3])
		}
		out.Pix[offset+3] = 255
	}

	return out
}

// luminance uses the BT.601 weights in 14-bit fixed point, rounding half up.
func luminance(r uint8, g uint8, b uint8) uint8 {
	const (
		rWeight = 4899
		gWeight = 9617
		bWeight = 1868
		shift   = 14
	)
	return uint8((int32(r)*rWeight + int32(g)*gWeight + int32(b)*bWeight + 1<<(shift-1)) >> shift)
}

func absDiff(a uint8, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
