package myhttp

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"
)

func newTestRouter(t *testing.T, buffer *bytes.Buffer) *myRouter {
	t.Helper()
	histogram, err := noop.NewMeterProvider().Meter("test").Int64Histogram("http_requests_duration_micro_seconds")
	if err != nil {
		t.Fatal(err)
	}
	return NewServerMux(slog.New(slog.NewJSONHandler(buffer, nil)), histogram)
}

func TestRouter_Middleware(t *testing.T) {
	t.Run("AssignsRequestID", func(t *testing.T) {
		var buffer bytes.Buffer
		mux := newTestRouter(t, &buffer)
		mux.HandleFuncWithMiddleware("GET /ping", func(w http.ResponseWriter, r *http.Request) {
			Logger(r.Context()).Info("ping")
			w.WriteHeader(http.StatusNoContent)
		})

		recorder := httptest.NewRecorder()
		mux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ping", nil))

		if recorder.Code != http.StatusNoContent {
			t.Errorf("Expected status %d, got %d", http.StatusNoContent, recorder.Code)
		}
		id := recorder.Header().Get(RequestIDHeader)
		if id == "" {
			t.Fatal("Expected a request id header")
		}
		if !strings.Contains(buffer.String(), id) {
			t.Errorf("Expected log to carry request id %s, got %s", id, buffer.String())
		}
	})

	t.Run("KeepsIncomingRequestID", func(t *testing.T) {
		var buffer bytes.Buffer
		mux := newTestRouter(t, &buffer)
		mux.HandleFuncWithMiddleware("GET /ping", func(w http.ResponseWriter, r *http.Request) {})

		request := httptest.NewRequest(http.MethodGet, "/ping", nil)
		request.Header.Set(RequestIDHeader, "abc")
		recorder := httptest.NewRecorder()
		mux.ServeHTTP(recorder, request)

		if got := recorder.Header().Get(RequestIDHeader); got != "abc" {
			t.Errorf("Expected request id abc, got %s", got)
		}
	})

	t.Run("RecoversFromPanic", func(t *testing.T) {
		var buffer bytes.Buffer
		mux := newTestRouter(t, &buffer)
		mux.HandleFuncWithMiddleware("GET /panic", func(w http.ResponseWriter, r *http.Request) {
			panic(http.ErrAbortHandler)
		})

		recorder := httptest.NewRecorder()
		mux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/panic", nil))

		if recorder.Code != http.StatusInternalServerError {
			t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, recorder.Code)
		}
	})
}
