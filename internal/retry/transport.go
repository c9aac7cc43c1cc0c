package retry

import (
	"io"
	"net/http"
	"time"

	"golang.org/x/xerrors"
)

// Transport retries requests through Base. Requests with a body must be
// rewindable through GetBody, which http.NewRequest sets for in-memory readers.
type Transport struct {
	Base          http.RoundTripper
	RetryStrategy Strategy
	RetryOn       *On
}

func (t *Transport) RoundTrip(request *http.Request) (*http.Response, error) {
	ctx := request.Context()

	for n := uint(0); ; n++ {
		attempt := request
		if n > 0 {
			var err error
			if attempt, err = rewind(request); err != nil {
				return nil, err
			}
		}

		response, err := t.base().RoundTrip(attempt)
		if !t.retriable(response, err) {
			return response, err
		}

		sleep, exhausted := t.retryStrategy().Sleep(n)
		if exhausted {
			return response, err
		}
		if response != nil {
			_, _ = io.Copy(io.Discard, response.Body)
			_ = response.Body.Close()
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (t *Transport) retriable(response *http.Response, err error) bool {
	if t.RetryOn == nil {
		return false
	}
	if err != nil {
		return t.RetryOn.CheckError(err)
	}
	return t.RetryOn.CheckResponse(response)
}

func rewind(request *http.Request) (*http.Request, error) {
	clone := request.Clone(request.Context())
	if request.Body == nil || request.Body == http.NoBody {
		return clone, nil
	}
	if request.GetBody == nil {
		return nil, xerrors.New("request body cannot be replayed for retry")
	}

	body, err := request.GetBody()
	if err != nil {
		return nil, xerrors.Errorf("failed to rewind request body: %w", err)
	}
	clone.Body = body
	return clone, nil
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) retryStrategy() Strategy {
	if t.RetryStrategy != nil {
		return t.RetryStrategy
	}
	return NewNever()
}
