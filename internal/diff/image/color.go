package image

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const DefaultHeatmapWeight = 0.3

// ColorDiff paints a Lab delta heatmap over both images.
type ColorDiff struct {
	heatmapWeight float64
}

func NewColorDiff(heatmapWeight float64) *ColorDiff {
	if heatmapWeight <= 0 || heatmapWeight >= 1 {
		heatmapWeight = DefaultHeatmapWeight
	}
	return &ColorDiff{
		heatmapWeight,
	}
}

func (c *ColorDiff) Calculate(first image.Image, second image.Image) (*DiffResult, error) {
	a := asNRGBA(first)
	b := asNRGBA(second)

	delta, err := c.DeltaField(a, b)
	if err != nil {
		return nil, err
	}

	heatmap := c.Heatmap(delta)

	return &DiffResult{
		First:  c.overlay(a, heatmap),
		Second: c.overlay(b, heatmap),
	}, nil
}

// DeltaField returns the per-pixel Euclidean distance between the two images
// in an 8-bit style Lab encoding (L scaled to 0..255, a and b unscaled).
func (c *ColorDiff) DeltaField(first *image.NRGBA, second *image.NRGBA) (*Field, error) {
	if err := checkDimensions(first, second); err != nil {
		return nil, err
	}

	size := first.Bounds().Size()
	field := NewField(size.X, size.Y)

	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			l1, a1, b1 := lab(first, x, y)
			l2, a2, b2 := lab(second, x, y)
			dl := l1 - l2
			da := a1 - a2
			db := b1 - b2
			field.Set(x, y, math.Sqrt(dl*dl+da*da+db*db))
		}
	}

	return field, nil
}

// Heatmap normalizes delta to 0..255 and colours it with the Jet ramp.
func (c *ColorDiff) Heatmap(delta *Field) *image.NRGBA {
	normalized := delta.Normalize(0, 255)
	heatmap := image.NewNRGBA(image.Rect(0, 0, delta.Width, delta.Height))

	for y := 0; y < delta.Height; y++ {
		for x := 0; x < delta.Width; x++ {
			heatmap.SetNRGBA(x, y, Jet(uint8(normalized.At(x, y))))
		}
	}

	return heatmap
}

func (c *ColorDiff) overlay(src *image.NRGBA, heatmap *image.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(src.Bounds())
	srcWeight := 1 - c.heatmapWeight

	for i := 0; i < len(src.Pix); i += 4 {
		out.Pix[i] = blend(src.Pix[i], heatmap.Pix[i], srcWeight)
		out.Pix[i+1] = blend(src.Pix[i+1], heatmap.Pix[i+1], srcWeight)
		out.Pix[i+2] = blend(src.Pix[i+2], heatmap.Pix[i+2], srcWeight)
		out.Pix[i+3] = 255
	}

	return out
}

func lab(img *image.NRGBA, x int, y int) (float64, float64, float64) {
	offset := img.PixOffset(x, y)
	l, a, b := colorful.Color{
		R: float64(img.Pix[offset]) / 255.0,
		G: float64(img.Pix[offset+1]) / 255.0,
		B: float64(img.Pix[offset+2]) / 255.0,
	}.Lab()
	// go-colorful reports L in [0, 1] and a, b scaled by 1/100.
	return l * 255.0, a * 100.0, b * 100.0
}

// asNRGBA returns img unchanged when it is already a zero-origin, tightly
// packed NRGBA grid, converting it otherwise. Alpha is never read.
func asNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) && n.Stride == 4*n.Bounds().Dx() {
		return n
	}
	return toOpaqueNRGBA(img)
}
