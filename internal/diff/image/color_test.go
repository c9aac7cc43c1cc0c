package image

import (
	"errors"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestColorDiff_DeltaField(t *testing.T) {
	cd := NewColorDiff(DefaultHeatmapWeight)

	t.Run("Symmetric", func(t *testing.T) {
		img1 := createPatternImage(40, 30, 1)
		img2 := createPatternImage(40, 30, 9)

		ab, err := cd.DeltaField(img1, img2)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		ba, err := cd.DeltaField(img2, img1)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if diff := cmp.Diff(ab.Values, ba.Values); diff != "" {
			t.Errorf("Delta field is not symmetric (-ab +ba):\n%s", diff)
		}
	})

	t.Run("SolidColorsGiveConstantDelta", func(t *testing.T) {
		red := createTestImage(100, 100, color.NRGBA{R: 255, A: 255})
		blue := createTestImage(100, 100, color.NRGBA{B: 255, A: 255})

		delta, err := cd.DeltaField(red, blue)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		want := delta.Values[0]
		if want <= 0 {
			t.Fatalf("Expected a positive delta, got %f", want)
		}
		for i, v := range delta.Values {
			if v != want {
				t.Fatalf("Expected constant delta %f, got %f at %d", want, v, i)
			}
		}
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		_, err := cd.DeltaField(createTestImage(10, 10, color.White), createTestImage(10, 11, color.White))

		var mismatch *DimensionMismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("Expected DimensionMismatchError, got %v", err)
		}
	})
}

func TestColorDiff_Calculate(t *testing.T) {
	cd := NewColorDiff(DefaultHeatmapWeight)

	t.Run("IdenticalImages", func(t *testing.T) {
		src := color.NRGBA{R: 100, G: 150, B: 200, A: 255}
		img1 := createTestImage(16, 16, src)
		img2 := createTestImage(16, 16, src)

		delta, err := cd.DeltaField(img1, img2)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		for i, v := range delta.Normalize(0, 255).Values {
			if v != 0 {
				t.Fatalf("Expected normalized delta 0, got %f at %d", v, i)
			}
		}

		result, err := cd.Calculate(img1, img2)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		// 0.7*(100,150,200) + 0.3*(0,0,128)
		want := createTestImage(16, 16, color.NRGBA{R: 70, G: 105, B: 178, A: 255})
		if diff := cmp.Diff(want.Pix, result.First.Pix); diff != "" {
			t.Errorf("First overlay mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(want.Pix, result.Second.Pix); diff != "" {
			t.Errorf("Second overlay mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("KeepsDimensions", func(t *testing.T) {
		result, err := cd.Calculate(createPatternImage(33, 21, 2), createPatternImage(33, 21, 5))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if result.First.Bounds() != result.Second.Bounds() || result.First.Bounds().Dx() != 33 || result.First.Bounds().Dy() != 21 {
			t.Errorf("Expected 33x21 overlays, got %v and %v", result.First.Bounds(), result.Second.Bounds())
		}
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		_, err := cd.Calculate(createTestImage(10, 10, color.White), createTestImage(12, 10, color.White))

		var mismatch *DimensionMismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("Expected DimensionMismatchError, got %v", err)
		}
	})
}

func TestField_Normalize(t *testing.T) {
	f := NewField(3, 1)
	f.Values = []float64{2, 4, 6}

	got := f.Normalize(0, 255).Values
	if diff := cmp.Diff([]float64{0, 127.5, 255}, got); diff != "" {
		t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestJet(t *testing.T) {
	if got := Jet(0); got != (color.NRGBA{B: 128, A: 255}) {
		t.Errorf("Expected dark blue for 0, got %v", got)
	}
	if got := Jet(255); got != (color.NRGBA{R: 128, A: 255}) {
		t.Errorf("Expected dark red for 255, got %v", got)
	}
	if got := Jet(128); got.G != 255 {
		t.Errorf("Expected full green in the middle, got %v", got)
	}
}

func BenchmarkColorDiff_Calculate(b *testing.B) {
	cd := NewColorDiff(DefaultHeatmapWeight)
	img1 := createPatternImage(1920, 1080, 1)
	img2 := createPatternImage(1920, 1080, 2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = cd.Calculate(img1, img2)
	}
}
