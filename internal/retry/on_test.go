package retry_test

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"runtime"
	"syscall"
	"testing"

	"image-comparator/internal/retry"

	"github.com/google/go-cmp/cmp"
)

func mustParseOn(s string) *retry.On {
	o, err := retry.ParseOn(s)
	if err != nil {
		panic(err)
	}
	return o
}

func TestCheckResponse(t *testing.T) {
	type in struct {
		first *http.Response
	}

	type want struct {
		first bool
	}

	tests := []struct {
		name     string
		receiver *retry.On
		in       in
		want     want
	}{
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			mustParseOn("5xx"),
			in{
				&http.Response{StatusCode: 500},
			},
			want{
				true,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			mustParseOn("5xx"),
			in{
				&http.Response{StatusCode: 404},
			},
			want{
				false,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			mustParseOn("gateway-error"),
			in{
				&http.Response{StatusCode: 504},
			},
			want{
				true,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			mustParseOn("gateway-error"),
			in{
				&http.Response{StatusCode: 500},
			},
			want{
				false,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			retry.NewDefaultRetryOn(),
			in{
				&http.Response{StatusCode: 409},
			},
			want{
				true,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			mustParseOn("429, connect-failure"),
			in{
				&http.Response{StatusCode: 429},
			},
			want{
				true,
			},
		},
	}

	for _, tt := range tests {
		name := tt.name
		receiver := tt.receiver
		in := tt.in
		want := tt.want
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := receiver.CheckResponse(in.first)
			if diff := cmp.Diff(want.first, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestCheckError(t *testing.T) {
	type in struct {
		first error
	}

	type want struct {
		first bool
	}

	tests := []struct {
		name     string
		receiver *retry.On
		in       in
		want     want
	}{
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			mustParseOn("connect-failure"),
			in{
				&net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
			},
			want{
				true,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			mustParseOn("connect-failure"),
			in{
				fmt.Errorf("read: %w", io.EOF),
			},
			want{
				true,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			mustParseOn("connect-failure"),
			in{
				errors.New("certificate signed by unknown authority"),
			},
			want{
				false,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			mustParseOn("gateway-error"),
			in{
				syscall.ECONNRESET,
			},
			want{
				false,
			},
		},
	}

	for _, tt := range tests {
		name := tt.name
		receiver := tt.receiver
		in := tt.in
		want := tt.want
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := receiver.CheckError(in.first)
			if diff := cmp.Diff(want.first, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseOn(t *testing.T) {
	for _, s := range []string{"sometimes", "5xx,abc", "700"} {
		if _, err := retry.ParseOn(s); err == nil {
			t.Errorf("Expected %q to be rejected", s)
		}
	}
}
