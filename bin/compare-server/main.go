package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"image-comparator/internal/runnable"
	"image-comparator/internal/storage"

	"github.com/joho/godotenv"
)

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
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("failed to load .env: %v", err)
	}

	var storageBackend string
	var directory string
	var s3Bucket string
	var s3Prefix string
	var s3EndpointURL string
	flag.StringVar(&storageBackend, "storage-backend", envOrDefaultValue("STORAGE_BACKEND", "file"), "Storage backend (file or s3)")
	flag.StringVar(&directory, "directory", envOrDefaultValue("DIRECTORY", "/tmp/image-comparator"), "Storage directory for the file backend")
	flag.StringVar(&s3Bucket, "s3-bucket", envOrDefaultValue("S3_BUCKET", ""), "Bucket for the s3 backend")
	flag.StringVar(&s3Prefix, "s3-prefix", envOrDefaultValue("S3_PREFIX", ""), "Key prefix for the s3 backend")
	flag.StringVar(&s3EndpointURL, "s3-endpoint-url", envOrDefaultValue("S3_ENDPOINT_URL", ""), "Endpoint override for S3 compatible stores")
	flag.BoolVar(&runnable.Debug, "debug", envOrDefaultValue("DEBUG", false), "Enable text logging and pprof handlers")
	flag.Parse()

	ctx := context.Background()

	var s storage.Storage
	var err error
	switch storageBackend {
	case "file":
		s, err = storage.NewFileStorage(ctx, storage.FileConfig{
			Directory: directory,
		})
		if err != nil {
			log.Fatalf("failed to create file storage backend: %v", err)
		}
	case "s3":
		s, err = storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:      s3Bucket,
			Prefix:      s3Prefix,
			EndpointURL: s3EndpointURL,
		})
		if err != nil {
			log.Fatalf("failed to create S3 storage backend: %v", err)
		}
	default:
		log.Fatalf("unknown storage backend: %s", storageBackend)
	}

	if err := runnable.NewServer(s).Start(ctx); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
