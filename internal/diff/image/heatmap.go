package image

import (
	"image/color"
	"math"
)

// Jet maps v onto the blue, cyan, green, yellow, red ramp.
func Jet(v uint8) color.NRGBA {
	t := float64(v) / 255.0
	return color.NRGBA{
		R: jetChannel(1.5 - math.Abs(4*t-3)),
		G: jetChannel(1.5 - math.Abs(4*t-2)),
		B: jetChannel(1.5 - math.Abs(4*t-1)),
		A: 255,
	}
}

func jetChannel(v float64) uint8 {
	return saturate(math.Max(0, math.Min(1, v)) * 255)
}

func saturate(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// blend computes weight*a + (1-weight)*b per channel, rounded and clamped.
func blend(a uint8, b uint8, weight float64) uint8 {
	return saturate(weight*float64(a) + (1-weight)*float64(b))
}
