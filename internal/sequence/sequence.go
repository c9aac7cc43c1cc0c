package sequence

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/draw"
	"image/gif"
	"log/slog"
	"time"

	diffimage "image-comparator/internal/diff/image"
	"image-comparator/internal/storage"

	"github.com/nfnt/resize"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/xerrors"
)

const (
	DefaultDuration     = 1 * time.Second
	DefaultResizeFactor = 0.5
	DefaultPaletteSize  = 256

	// GIF frame delays are stored in hundredths of a second.
	delayUnit = 10 * time.Millisecond
)

var (
	ErrInvalidDuration     = errors.New("frame duration must be a positive multiple of 10ms")
	ErrInvalidResizeFactor = errors.New("resize factor must be in (0, 1]")
	ErrInvalidPaletteSize  = errors.New("palette size must be in [2, 256]")
)

type Options struct {
	Duration     time.Duration
	ResizeFactor float64
	PaletteSize  int
	Quantizer    string
	Dither       bool
}

func DefaultOptions() Options {
	return Options{
		Duration:     DefaultDuration,
		ResizeFactor: DefaultResizeFactor,
		PaletteSize:  DefaultPaletteSize,
		Quantizer:    QuantizerKMeans,
	}
}

func (o Options) Validate() error {
	if err := ValidateDuration(o.Duration); err != nil {
		return err
	}
	if o.ResizeFactor <= 0 || o.ResizeFactor > 1 {
		return ErrInvalidResizeFactor
	}
	if o.PaletteSize < 2 || o.PaletteSize > 256 {
		return ErrInvalidPaletteSize
	}
	return nil
}

// ValidateDuration reports whether d can be stored as a GIF frame delay.
func ValidateDuration(d time.Duration) error {
	if d <= 0 || d%delayUnit != 0 {
		return ErrInvalidDuration
	}
	return nil
}

// Assembler builds a looping two-frame GIF that alternates between two images.
type Assembler struct {
	storage   storage.Storage
	decoder   *diffimage.Decoder
	options   Options
	quantizer Quantizer
}

func NewAssembler(s storage.Storage, decoder *diffimage.Decoder, options Options) (*Assembler, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}

	quantizer, err := NewQuantizer(options.Quantizer)
	if err != nil {
		return nil, err
	}

	return &Assembler{
		storage:   s,
		decoder:   decoder,
		options:   options,
		quantizer: quantizer,
	}, nil
}

// Assemble reads both sources, writes the animation under outputKey and returns
// its storage URL. An empty URL with a nil error means a source could not be
// decoded and nothing was written. A zero duration uses the configured one.
func (a *Assembler) Assemble(ctx context.Context, first string, second string, outputKey string, duration time.Duration) (string, error) {
	ctx, span := otel.Tracer("sequence").Start(ctx, "Assemble")
	defer span.End()

	if duration == 0 {
		duration = a.options.Duration
	}
	if err := ValidateDuration(duration); err != nil {
		return "", err
	}
	span.SetAttributes(attribute.Int64("duration_ms", duration.Milliseconds()))

	firstImage, err := a.load(ctx, first)
	if err != nil {
		slog.WarnContext(ctx, "skipping sequence", "source", first, "error", err)
		return "", nil
	}
	secondImage, err := a.load(ctx, second)
	if err != nil {
		slog.WarnContext(ctx, "skipping sequence", "source", second, "error", err)
		return "", nil
	}

	data, err := a.Encode(firstImage, secondImage, duration)
	if err != nil {
		return "", err
	}

	url, err := a.storage.Put(ctx, outputKey, data)
	if err != nil {
		return "", xerrors.Errorf("failed to save sequence: %w", err)
	}

	return url, nil
}

// Encode renders the two frames as a GIF that loops forever, showing each
// frame for duration.
func (a *Assembler) Encode(first image.Image, second image.Image, duration time.Duration) ([]byte, error) {
	if err := ValidateDuration(duration); err != nil {
		return nil, err
	}

	size := first.Bounds().Size()
	width := max(1, int(float64(size.X)*a.options.ResizeFactor))
	height := max(1, int(float64(size.Y)*a.options.ResizeFactor))

	delay := int(duration / delayUnit)
	animation := &gif.GIF{
		Image:     []*image.Paletted{a.frame(first, width, height), a.frame(second, width, height)},
		Delay:     []int{delay, delay},
		LoopCount: 0,
	}

	var buffer bytes.Buffer
	if err := gif.EncodeAll(&buffer, animation); err != nil {
		return nil, &diffimage.EncodeError{Format: "gif", Err: err}
	}

	return buffer.Bytes(), nil
}

func (a *Assembler) frame(src image.Image, width int, height int) *image.Paletted {
	scaled := resize.Resize(uint(width), uint(height), src, resize.Lanczos3)
	bounds := image.Rect(0, 0, width, height)

	paletted := image.NewPaletted(bounds, a.quantizer.Palette(scaled, a.options.PaletteSize))
	if a.options.Dither {
		draw.FloydSteinberg.Draw(paletted, bounds, scaled, scaled.Bounds().Min)
	} else {
		draw.Draw(paletted, bounds, scaled, scaled.Bounds().Min, draw.Src)
	}

	return paletted
}

func (a *Assembler) load(ctx context.Context, url string) (*image.NRGBA, error) {
	data, err := a.storage.Get(ctx, url)
	if err != nil {
		return nil, &diffimage.DecodeError{Source: url, Err: err}
	}

	return a.decoder.DecodeNamed(url, data)
}
