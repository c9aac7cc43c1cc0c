package compare

import (
	"fmt"
	"path"
	"strings"
)

type Mode string

const (
	ModeBoth      Mode = "both"
	ModeColor     Mode = "color"
	ModeGrayscale Mode = "grayscale"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(s)); m {
	case ModeBoth, ModeColor, ModeGrayscale:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q: must be one of both, color, grayscale", s)
	}
}

func (m Mode) color() bool {
	return m == ModeBoth || m == ModeColor
}

func (m Mode) grayscale() bool {
	return m == ModeBoth || m == ModeGrayscale
}

// Variant is the logical name of one written output.
type Variant string

const (
	VariantColor1 Variant = "color1"
	VariantColor2 Variant = "color2"
	VariantGray1  Variant = "gray1"
	VariantGray2  Variant = "gray2"
)

type Output struct {
	Variant Variant
	Key     string
}

// OutputFor derives the storage key of a variant from an output template by
// replacing the template's extension, so "out1.jpg" becomes "out1_color1.jpg".
func OutputFor(template string, v Variant) Output {
	base := strings.TrimSuffix(template, path.Ext(template))
	return Output{
		Variant: v,
		Key:     base + "_" + string(v) + ".jpg",
	}
}
