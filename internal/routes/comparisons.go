package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"image-comparator/internal/compare"
	"image-comparator/internal/myhttp"
	"image-comparator/internal/sequence"
	"image-comparator/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const maxUploadBytes = 64 << 20

type ComparisonResponse struct {
	ID       string            `json:"id"`
	Image1   string            `json:"image1"`
	Image2   string            `json:"image2"`
	Outputs  map[string]string `json:"outputs"`
	Sequence string            `json:"sequence,omitempty"`
}

type comparisonForm struct {
	image1   []byte
	image2   []byte
	mode     compare.Mode
	alpha    *float64
	duration time.Duration
	sequence bool
}

func CreateComparison(storageClient storage.Storage, comparator *compare.Comparator, assembler *sequence.Assembler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := myhttp.Logger(r.Context())

		form, err := parseComparisonForm(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		id := uuid.NewString()
		image1, err := storageClient.Put(r.Context(), artifactKey(id, Image1Artifact), form.image1)
		if err != nil {
			logger.Error(fmt.Sprintf("failed to save upload: %s", err))
			discardComparison(r.Context(), storageClient, id)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		image2, err := storageClient.Put(r.Context(), artifactKey(id, Image2Artifact), form.image2)
		if err != nil {
			logger.Error(fmt.Sprintf("failed to save upload: %s", err))
			discardComparison(r.Context(), storageClient, id)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		var result compare.Result
		var sequenceURL string

		eg, ctx := errgroup.WithContext(myhttp.WithLogger(r.Context(), logger.With("comparison", id)))
		eg.Go(func() error {
			var err error
			result, err = comparator.Compare(ctx, compare.Request{
				SourceA: image1,
				SourceB: image2,
				OutputA: artifactKey(id, output1Template),
				OutputB: artifactKey(id, output2Template),
				Mode:    form.mode,
				Alpha:   form.alpha,
			})
			return err
		})
		if form.sequence {
			eg.Go(func() error {
				var err error
				sequenceURL, err = assembler.Assemble(ctx, image1, image2, artifactKey(id, SequenceArtifact), form.duration)
				return err
			})
		}
		if err := eg.Wait(); err != nil {
			logger.Error(fmt.Sprintf("failed to compare images: %s", err), "comparison", id)
			discardComparison(r.Context(), storageClient, id)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		response := ComparisonResponse{
			ID:      id,
			Image1:  artifactPath(id, Image1Artifact),
			Image2:  artifactPath(id, Image2Artifact),
			Outputs: make(map[string]string, len(result)),
		}
		for variant, url := range result {
			response.Outputs[variant] = artifactPath(id, path.Base(url))
		}
		if sequenceURL != "" {
			response.Sequence = artifactPath(id, SequenceArtifact)
		}

		b, err := json.Marshal(response)
		if err != nil {
			logger.Error(fmt.Sprintf("failed to marshal json: %s", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(b)
	}
}

func GetArtifact(storageClient storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		artifact := r.PathValue("artifact")
		if _, ok := knownArtifacts[artifact]; !ok || !validID(id) {
			http.NotFound(w, r)
			return
		}

		data, err := storageClient.Get(r.Context(), storageClient.Locate(artifactKey(id, artifact)))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			myhttp.Logger(r.Context()).Error(fmt.Sprintf("failed to get artifact: %s", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", http.DetectContentType(data))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func DeleteComparison(storageClient storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !validID(id) {
			http.NotFound(w, r)
			return
		}

		if err := deleteArtifacts(r.Context(), storageClient, id); err != nil {
			myhttp.Logger(r.Context()).Error(fmt.Sprintf("failed to delete comparison: %s", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteArtifacts(ctx context.Context, storageClient storage.Storage, id string) error {
	for artifact := range knownArtifacts {
		err := storageClient.Delete(ctx, storageClient.Locate(artifactKey(id, artifact)))
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to delete %s: %w", artifact, err)
		}
	}
	return nil
}

// discardComparison removes whatever a failed request already stored,
// ignoring cancellation of ctx.
func discardComparison(ctx context.Context, storageClient storage.Storage, id string) {
	if err := deleteArtifacts(context.WithoutCancel(ctx), storageClient, id); err != nil {
		myhttp.Logger(ctx).Warn(fmt.Sprintf("failed to discard comparison: %s", err), "comparison", id)
	}
}

func parseComparisonForm(r *http.Request) (*comparisonForm, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}

	form := &comparisonForm{
		mode:     compare.ModeBoth,
		sequence: true,
	}

	var err error
	if form.image1, err = readUpload(r.MultipartForm, "image1"); err != nil {
		return nil, err
	}
	if form.image2, err = readUpload(r.MultipartForm, "image2"); err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(r.FormValue("mode")); v != "" {
		if form.mode, err = compare.ParseMode(v); err != nil {
			return nil, err
		}
	}
	if v := strings.TrimSpace(r.FormValue("alpha")); v != "" {
		alpha, err := strconv.ParseFloat(v, 64)
		if err != nil || alpha < 0 || alpha > 1 {
			return nil, fmt.Errorf("alpha must be a number in [0, 1]: %q", v)
		}
		form.alpha = &alpha
	}
	if v := strings.TrimSpace(r.FormValue("duration")); v != "" {
		if form.duration, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", v, err)
		}
		if err := sequence.ValidateDuration(form.duration); err != nil {
			return nil, err
		}
	}
	if v := strings.TrimSpace(r.FormValue("sequence")); v != "" {
		if form.sequence, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("invalid sequence flag %q: %w", v, err)
		}
	}

	return form, nil
}

func readUpload(form *multipart.Form, field string) ([]byte, error) {
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, fmt.Errorf("missing file %q", field)
	}

	f, err := headers[0].Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", field, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty file %q", field)
	}
	return data, nil
}
