package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"image-comparator/internal/compare"
	diffimage "image-comparator/internal/diff/image"
	"image-comparator/internal/retry"
	"image-comparator/internal/sequence"
	"image-comparator/internal/storage"

	"golang.org/x/xerrors"
)

type CompareOutput struct {
	Outputs  compare.Result `json:"outputs"`
	Sequence string         `json:"sequence,omitempty"`
}

func envOrDefaultValue[T any](key string, defaultValue T) T {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	switch any(defaultValue).(type) {
	case string:
		return any(value).(T)
	case int:
		if intValue, err := strconv.Atoi(value); err == nil {
			return any(intValue).(T)
		}
	case float64:
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return any(floatValue).(T)
		}
	case bool:
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return any(boolValue).(T)
		}
	case time.Duration:
		if durationValue, err := time.ParseDuration(value); err == nil {
			return any(durationValue).(T)
		}
	}

	return defaultValue
}

func main() {
	var directory string
	var mode string
	var alpha float64
	var withSequence bool
	var duration time.Duration
	var paletteSize int
	var quantizer string
	var callbackURL string
	flag.StringVar(&directory, "directory", envOrDefaultValue("DIRECTORY", "/tmp"), "Output directory")
	flag.StringVar(&mode, "mode", envOrDefaultValue("MODE", string(compare.ModeBoth)), "Visualizers to run (both or color or grayscale)")
	flag.Float64Var(&alpha, "alpha", envOrDefaultValue("ALPHA", diffimage.DefaultAlpha), "Dimming factor of the grayscale overlay")
	flag.BoolVar(&withSequence, "sequence", envOrDefaultValue("SEQUENCE", true), "Also write a two-frame GIF of the sources")
	flag.DurationVar(&duration, "duration", envOrDefaultValue("DURATION", sequence.DefaultDuration), "Frame duration of the GIF, a multiple of 10ms")
	flag.IntVar(&paletteSize, "palette-size", envOrDefaultValue("PALETTE_SIZE", sequence.DefaultPaletteSize), "Colors per GIF frame")
	flag.StringVar(&quantizer, "quantizer", envOrDefaultValue("QUANTIZER", sequence.QuantizerKMeans), "GIF palette quantizer (kmeans or dominant or plan9)")
	flag.StringVar(&callbackURL, "callback-url", envOrDefaultValue("CALLBACK_URL", ""), "Callback URL to send results to")

	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		log.Fatalf("usage: compare [flags] <imageA> <imageB>")
	}

	parsedMode, err := compare.ParseMode(mode)
	if err != nil {
		log.Fatalf("Invalid mode: %v", err)
	}

	ctx := context.Background()
	s, err := storage.NewFileStorage(ctx, storage.FileConfig{
		Directory: directory,
	})
	if err != nil {
		log.Fatalf("Failed to create storage backend: %v", err)
	}

	sourceA, err := filepath.Abs(args[0])
	if err != nil {
		log.Fatalf("Failed to resolve %s: %v", args[0], err)
	}
	sourceB, err := filepath.Abs(args[1])
	if err != nil {
		log.Fatalf("Failed to resolve %s: %v", args[1], err)
	}

	timestamp := time.Now().Format("20060102150405")

	h := sha256.New()
	h.Write([]byte(sourceA + sourceB))
	hash := fmt.Sprintf("%x", h.Sum(nil))[:16]
	prefix := fmt.Sprintf("Comparison/%s/%s", hash, timestamp)

	result, err := compare.New(s, compare.DefaultConfig()).Compare(ctx, compare.Request{
		SourceA: sourceA,
		SourceB: sourceB,
		OutputA: prefix + "/out1.jpg",
		OutputB: prefix + "/out2.jpg",
		Mode:    parsedMode,
		Alpha:   &alpha,
	})
	if err != nil {
		log.Fatalf("Failed to compare images: %v", err)
	}

	output := CompareOutput{Outputs: result}
	if withSequence {
		options := sequence.DefaultOptions()
		options.Duration = duration
		options.PaletteSize = paletteSize
		options.Quantizer = quantizer

		assembler, err := sequence.NewAssembler(s, diffimage.NewDecoder(), options)
		if err != nil {
			log.Fatalf("Invalid sequence options: %v", err)
		}
		output.Sequence, err = assembler.Assemble(ctx, sourceA, sourceB, prefix+"/output.gif", duration)
		if err != nil {
			log.Fatalf("Failed to assemble sequence: %v", err)
		}
	}

	j, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal result: %v", err)
	}

	if callbackURL == "" {
		fmt.Println(string(j))
		return
	}
	if err := callback(ctx, callbackURL, j); err != nil {
		log.Fatalf("Failed to send callback: %v", err)
	}
}

func callback(ctx context.Context, callbackURL string, data []byte) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodPatch, callbackURL, bytes.NewReader(data))
	if err != nil {
		return xerrors.Errorf("failed to create request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		Timeout: 5 * time.Second,
		Transport: &retry.Transport{
			Base:          http.DefaultTransport,
			RetryStrategy: retry.NewExponentialBackOff(10*time.Millisecond, 1*time.Second, 3, nil),
			RetryOn:       retry.NewDefaultRetryOn(),
		},
	}

	response, err := client.Do(request)
	if err != nil {
		return xerrors.Errorf("failed to send request: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 300 {
		return xerrors.Errorf("callback responded with %s", response.Status)
	}

	return nil
}
