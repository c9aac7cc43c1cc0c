package sequence

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// Quantizer chooses the palette a frame is reduced to.
type Quantizer interface {
	Palette(img image.Image, size int) color.Palette
}

const (
	QuantizerKMeans   = "kmeans"
	QuantizerDominant = "dominant"
	QuantizerPlan9    = "plan9"
)

func NewQuantizer(name string) (Quantizer, error) {
	switch name {
	case QuantizerKMeans, "":
		return &kmeansQuantizer{maxSamples: 4096}, nil
	case QuantizerDominant:
		return &dominantQuantizer{}, nil
	case QuantizerPlan9:
		return &fixedQuantizer{palette: palette.Plan9}, nil
	default:
		return nil, fmt.Errorf("unknown quantizer: %s", name)
	}
}

type kmeansQuantizer struct {
	maxSamples int
}

func (q *kmeansQuantizer) Palette(img image.Image, size int) color.Palette {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return fallbackPalette(size)
	}

	// Few enough colours to keep them all; clustering would only blur them.
	if distinct, ok := distinctColors(img, size); ok {
		return exactPalette(distinct)
	}

	// Subsample so large frames stay tractable.
	step := 1
	if width*height > q.maxSamples {
		step = int(math.Sqrt(float64(width*height)/float64(q.maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(width*height, q.maxSamples))
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, _ := img.At(x, y).RGBA()
			dataset = append(dataset, clusters.Coordinates{
				float64(r) / 65535.0,
				float64(g) / 65535.0,
				float64(b) / 65535.0,
			})
		}
	}

	k := min(size, len(dataset))
	cc, err := kmeans.New().Partition(dataset, k)
	if err != nil || len(cc) == 0 {
		return fallbackPalette(size)
	}

	// Most populated clusters first.
	slices.SortFunc(cc, func(a, b clusters.Cluster) int {
		return len(b.Observations) - len(a.Observations)
	})

	p := make(color.Palette, 0, len(cc))
	for _, c := range cc {
		if len(c.Observations) == 0 || len(c.Center) < 3 {
			continue
		}
		p = append(p, color.RGBA{
			R: unit(c.Center[0]),
			G: unit(c.Center[1]),
			B: unit(c.Center[2]),
			A: 255,
		})
	}
	if len(p) == 0 {
		return fallbackPalette(size)
	}
	return p
}

type dominantQuantizer struct{}

func (q *dominantQuantizer) Palette(img image.Image, size int) color.Palette {
	colors := dominantcolor.FindWeight(img, size)
	if len(colors) == 0 {
		return fallbackPalette(size)
	}

	p := make(color.Palette, 0, len(colors))
	for _, c := range colors {
		rgba := c.RGBA
		rgba.A = 255
		p = append(p, rgba)
	}
	return p
}

type fixedQuantizer struct {
	palette color.Palette
}

func (q *fixedQuantizer) Palette(img image.Image, size int) color.Palette {
	if size >= len(q.palette) {
		return q.palette
	}
	return q.palette[:size]
}

// distinctColors collects every colour of img, giving up as soon as there are
// more than limit of them.
func distinctColors(img image.Image, limit int) (map[color.RGBA]struct{}, bool) {
	bounds := img.Bounds()
	distinct := make(map[color.RGBA]struct{}, limit+1)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			distinct[color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255}] = struct{}{}
			if len(distinct) > limit {
				return nil, false
			}
		}
	}
	return distinct, true
}

func exactPalette(distinct map[color.RGBA]struct{}) color.Palette {
	colors := make([]color.RGBA, 0, len(distinct))
	for c := range distinct {
		colors = append(colors, c)
	}
	slices.SortFunc(colors, func(a, b color.RGBA) int {
		return (int(a.R)<<16 | int(a.G)<<8 | int(a.B)) - (int(b.R)<<16 | int(b.G)<<8 | int(b.B))
	})

	p := make(color.Palette, 0, len(colors))
	for _, c := range colors {
		p = append(p, c)
	}
	return p
}

func fallbackPalette(size int) color.Palette {
	if size >= len(palette.Plan9) {
		return palette.Plan9
	}
	return palette.Plan9[:size]
}

func unit(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
