package image

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxDimension    = 3000
	DefaultDownscaleFactor = 0.5
)

// Decoder loads images into opaque NRGBA grids. Sources whose width or height
// exceeds MaxDimension are scaled once by DownscaleFactor; they are not fitted
// to MaxDimension.
type Decoder struct {
	MaxDimension    int
	DownscaleFactor float64
}

func NewDecoder() *Decoder {
	return &Decoder{
		MaxDimension:    DefaultMaxDimension,
		DownscaleFactor: DefaultDownscaleFactor,
	}
}

func (d *Decoder) DecodeFile(path string) (*image.NRGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DecodeError{Source: path, Err: err}
	}

	return d.DecodeNamed(path, data)
}

func (d *Decoder) Decode(data []byte) (*image.NRGBA, error) {
	return d.DecodeNamed("", data)
}

// DecodeNamed decodes data, recording source in any DecodeError.
func (d *Decoder) DecodeNamed(source string, data []byte) (*image.NRGBA, error) {
	img, err := d.decode(data)
	if err != nil {
		return nil, &DecodeError{Source: source, Err: err}
	}
	return img, nil
}

func (d *Decoder) decode(data []byte) (*image.NRGBA, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	img := toOpaqueNRGBA(src)

	size := img.Bounds().Size()
	if size.X > d.maxDimension() || size.Y > d.maxDimension() {
		img = d.downscale(img)
	}

	return img, nil
}

func (d *Decoder) downscale(img *image.NRGBA) *image.NRGBA {
	size := img.Bounds().Size()
	width := int(float64(size.X) * d.downscaleFactor())
	height := int(float64(size.Y) * d.downscaleFactor())

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

func (d *Decoder) maxDimension() int {
	if d.MaxDimension <= 0 {
		return DefaultMaxDimension
	}
	return d.MaxDimension
}

func (d *Decoder) downscaleFactor() float64 {
	if d.DownscaleFactor <= 0 || d.DownscaleFactor >= 1 {
		return DefaultDownscaleFactor
	}
	return d.DownscaleFactor
}

// toOpaqueNRGBA copies src onto a zero-origin NRGBA grid and drops the alpha
// channel, keeping the stored colour of every pixel.
func toOpaqueNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(dst, dst.Bounds(), src, bounds.Min, xdraw.Src)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 255
	}
	return dst
}
