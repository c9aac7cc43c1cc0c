package compare

import (
	"context"
	"errors"
	"image"
	"log/slog"

	diffimage "image-comparator/internal/diff/image"
	"image-comparator/internal/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/xerrors"
)

type Config struct {
	MaxDimension       int
	DownscaleFactor    float64
	GrayscaleThreshold uint8
	Alpha              float64
	HeatmapWeight      float64
	JPEGQuality        int
}

func DefaultConfig() Config {
	return Config{
		MaxDimension:       diffimage.DefaultMaxDimension,
		DownscaleFactor:    diffimage.DefaultDownscaleFactor,
		GrayscaleThreshold: diffimage.DefaultGrayscaleThreshold,
		Alpha:              diffimage.DefaultAlpha,
		HeatmapWeight:      diffimage.DefaultHeatmapWeight,
		JPEGQuality:        diffimage.DefaultJPEGQuality,
	}
}

// Request names two stored sources and the output templates their variants
// are derived from. A nil Alpha uses the configured one.
type Request struct {
	SourceA string
	SourceB string
	OutputA string
	OutputB string
	Mode    Mode
	Alpha   *float64
}

// Result maps a variant name to the storage URL it was written to. Variants
// that were skipped are absent.
type Result map[string]string

type Comparator struct {
	storage storage.Storage
	config  Config
	decoder *diffimage.Decoder
}

func New(s storage.Storage, config Config) *Comparator {
	return &Comparator{
		storage: s,
		config:  config,
		decoder: &diffimage.Decoder{
			MaxDimension:    config.MaxDimension,
			DownscaleFactor: config.DownscaleFactor,
		},
	}
}

type visualizer struct {
	name   string
	differ diffimage.Differ
	first  Variant
	second Variant
}

func (c *Comparator) Compare(ctx context.Context, req Request) (Result, error) {
	ctx, span := otel.Tracer("compare").Start(ctx, "Compare")
	defer span.End()

	mode := ModeBoth
	if req.Mode != "" {
		var err error
		if mode, err = ParseMode(string(req.Mode)); err != nil {
			return nil, err
		}
	}
	span.SetAttributes(attribute.String("mode", string(mode)))
	comparisonsTotal.WithLabelValues(string(mode)).Inc()

	alpha := c.config.Alpha
	if req.Alpha != nil {
		alpha = *req.Alpha
	}

	var visualizers []visualizer
	if mode.color() {
		visualizers = append(visualizers, visualizer{
			name:   "color",
			differ: diffimage.NewColorDiff(c.config.HeatmapWeight),
			first:  VariantColor1,
			second: VariantColor2,
		})
	}
	if mode.grayscale() {
		visualizers = append(visualizers, visualizer{
			name:   "grayscale",
			differ: diffimage.NewGrayscaleDiff(c.config.GrayscaleThreshold, alpha),
			first:  VariantGray1,
			second: VariantGray2,
		})
	}

	result := Result{}
	for _, v := range visualizers {
		if err := c.run(ctx, v, req, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (c *Comparator) run(ctx context.Context, v visualizer, req Request, result Result) error {
	// Every visualizer decodes its own copy of the sources.
	first, err := c.load(ctx, req.SourceA)
	if err != nil {
		c.skip(ctx, v, "decode", err)
		return nil
	}
	second, err := c.load(ctx, req.SourceB)
	if err != nil {
		c.skip(ctx, v, "decode", err)
		return nil
	}

	diff, err := v.differ.Calculate(first, second)
	if err != nil {
		var mismatch *diffimage.DimensionMismatchError
		if errors.As(err, &mismatch) {
			c.skip(ctx, v, "dimensions", err)
			return nil
		}
		return xerrors.Errorf("failed to calculate %s difference: %w", v.name, err)
	}
	if diff == nil {
		c.skip(ctx, v, "empty", nil)
		return nil
	}

	// Encode both before writing either.
	firstData, err := diffimage.Encode(diff.First, diffimage.FormatJPEG, c.config.JPEGQuality)
	if err != nil {
		return xerrors.Errorf("failed to encode %s: %w", v.first, err)
	}
	secondData, err := diffimage.Encode(diff.Second, diffimage.FormatJPEG, c.config.JPEGQuality)
	if err != nil {
		return xerrors.Errorf("failed to encode %s: %w", v.second, err)
	}

	outputs := []struct {
		output Output
		data   []byte
	}{
		{OutputFor(req.OutputA, v.first), firstData},
		{OutputFor(req.OutputB, v.second), secondData},
	}
	for _, o := range outputs {
		url, err := c.storage.Put(ctx, o.output.Key, o.data)
		if err != nil {
			return xerrors.Errorf("failed to save %s: %w", o.output.Variant, err)
		}
		result[string(o.output.Variant)] = url
	}

	return nil
}

func (c *Comparator) load(ctx context.Context, url string) (image.Image, error) {
	data, err := c.storage.Get(ctx, url)
	if err != nil {
		return nil, &diffimage.DecodeError{Source: url, Err: err}
	}

	return c.decoder.DecodeNamed(url, data)
}

func (c *Comparator) skip(ctx context.Context, v visualizer, reason string, err error) {
	skippedOutputsTotal.WithLabelValues(v.name, reason).Inc()
	slog.WarnContext(ctx, "skipping visualizer", "visualizer", v.name, "reason", reason, "error", err)
}
