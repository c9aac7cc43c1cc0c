package image

import (
	"errors"
	"fmt"
	"image"
)

var errUnknownFormat = errors.New("unknown image format")

type DiffResult struct {
	First  *image.NRGBA
	Second *image.NRGBA
}

type Differ interface {
	Calculate(first image.Image, second image.Image) (*DiffResult, error)
}

// DecodeError reports a source that could not be read or parsed as an image.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("failed to decode image: %v", e.Err)
	}
	return fmt.Sprintf("failed to decode image %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// DimensionMismatchError is returned when two images compared pixel by pixel
// do not share the same width and height.
type DimensionMismatchError struct {
	First  image.Point
	Second image.Point
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("image dimensions do not match: %dx%d != %dx%d", e.First.X, e.First.Y, e.Second.X, e.Second.Y)
}

type EncodeError struct {
	Format string
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("failed to encode %s image: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

func checkDimensions(first image.Image, second image.Image) error {
	a := first.Bounds().Size()
	b := second.Bounds().Size()
	if a != b {
		return &DimensionMismatchError{First: a, Second: b}
	}
	return nil
}
