package image

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
)

type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

const DefaultJPEGQuality = 90

// Encode serializes img, wrapping any failure in an EncodeError.
func Encode(img image.Image, format Format, quality int) ([]byte, error) {
	var buffer bytes.Buffer

	switch format {
	case FormatJPEG:
		if quality <= 0 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		if err := jpeg.Encode(&buffer, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, &EncodeError{Format: string(format), Err: err}
		}
	case FormatPNG:
		if err := png.Encode(&buffer, img); err != nil {
			return nil, &EncodeError{Format: string(format), Err: err}
		}
	default:
		return nil, &EncodeError{Format: string(format), Err: errUnknownFormat}
	}

	return buffer.Bytes(), nil
}
