package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestFileStorage(t *testing.T) {
	ctx := context.Background()
	directory := t.TempDir()

	s, err := NewFileStorage(ctx, FileConfig{Directory: directory})
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	t.Run("PutThenGet", func(t *testing.T) {
		url, err := s.Put(ctx, "Comparison/abc/image1.png", []byte("data"))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if want := filepath.Join(directory, "Comparison/abc/image1.png"); url != want {
			t.Errorf("Expected URL %s, got %s", want, url)
		}
		if url != s.Locate("Comparison/abc/image1.png") {
			t.Errorf("Expected Locate to agree with Put, got %s", s.Locate("Comparison/abc/image1.png"))
		}

		data, err := s.Get(ctx, url)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if diff := cmp.Diff([]byte("data"), data); diff != "" {
			t.Errorf("Data mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := s.Get(ctx, s.Locate("missing"))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		url, err := s.Put(ctx, "Comparison/abc/output.gif", []byte("gif"))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if err := s.Delete(ctx, url); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if _, err := os.Stat(url); !os.IsNotExist(err) {
			t.Errorf("Expected file to be removed, got %v", err)
		}
		if err := s.Delete(ctx, url); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second delete, got %v", err)
		}
	})
}

func TestFileStorage_Prune(t *testing.T) {
	ctx := context.Background()
	directory := t.TempDir()

	s, err := NewFileStorage(ctx, FileConfig{Directory: directory})
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	oldURL, err := s.Put(ctx, "Comparison/old/output.gif", []byte("old"))
	if err != nil {
		t.Fatal(err)
	}
	newURL, err := s.Put(ctx, "Comparison/new/output.gif", []byte("new"))
	if err != nil {
		t.Fatal(err)
	}

	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(oldURL, past, past); err != nil {
		t.Fatal(err)
	}

	removed, err := s.(Pruner).Prune(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed file, got %d", removed)
	}
	if _, err := os.Stat(oldURL); !os.IsNotExist(err) {
		t.Errorf("Expected old file to be removed, got %v", err)
	}
	if _, err := os.Stat(newURL); err != nil {
		t.Errorf("Expected new file to survive, got %v", err)
	}
}
