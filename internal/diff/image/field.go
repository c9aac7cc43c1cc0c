package image

import (
	"gonum.org/v1/gonum/floats"
)

// Field is a per-pixel scalar map stored row-major.
type Field struct {
	Width  int
	Height int
	Values []float64
}

func NewField(width int, height int) *Field {
	return &Field{
		Width:  width,
		Height: height,
		Values: make([]float64, width*height),
	}
}

func (f *Field) At(x int, y int) float64 {
	return f.Values[y*f.Width+x]
}

func (f *Field) Set(x int, y int, v float64) {
	f.Values[y*f.Width+x] = v
}

// Normalize maps the field linearly so that its minimum becomes lo and its
// maximum becomes hi. A constant field maps entirely to lo.
func (f *Field) Normalize(lo float64, hi float64) *Field {
	out := NewField(f.Width, f.Height)
	if len(f.Values) == 0 {
		return out
	}

	minValue := floats.Min(f.Values)
	maxValue := floats.Max(f.Values)

	scale := 0.0
	if maxValue > minValue {
		scale = (hi - lo) / (maxValue - minValue)
	}
	for i, v := range f.Values {
		out.Values[i] = lo + (v-minValue)*scale
	}
	return out
}

// Mask is a per-pixel boolean field, true where two images differ.
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

func NewMask(width int, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Bits:   make([]bool, width*height),
	}
}

func (m *Mask) At(x int, y int) bool {
	return m.Bits[y*m.Width+x]
}

func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}
