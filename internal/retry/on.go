package retry

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/xerrors"
)

// Condition is a set of failure classes a request is retried on.
type Condition uint8

const (
	On5xx Condition = 1 << iota
	OnGatewayError
	OnConnectFailure
	OnConflict
)

// On decides whether a response or transport error is worth another attempt.
type On struct {
	conditions  Condition
	statusCodes []int
}

// NewDefaultRetryOn retries on gateway errors, refused or reset connections and
// 409 Conflict, which is what a callback receiver under rollout answers with.
func NewDefaultRetryOn() *On {
	return &On{conditions: OnGatewayError | OnConnectFailure | OnConflict}
}

// ParseOn parses a comma separated list such as "gateway-error,connect-failure,429".
func ParseOn(s string) (*On, error) {
	o := &On{}
	for _, token := range strings.Split(s, ",") {
		switch token = strings.TrimSpace(token); token {
		case "":
		case "5xx":
			o.conditions |= On5xx
		case "gateway-error":
			o.conditions |= OnGatewayError
		case "connect-failure":
			o.conditions |= OnConnectFailure
		case "conflict", "retriable-4xx":
			o.conditions |= OnConflict
		default:
			statusCode, err := strconv.Atoi(token)
			if err != nil || statusCode < 100 || statusCode > 599 {
				return nil, xerrors.Errorf("invalid retry condition: %s", token)
			}
			o.statusCodes = append(o.statusCodes, statusCode)
		}
	}
	return o, nil
}

func (o *On) has(c Condition) bool {
	return o.conditions&c != 0
}

func (o *On) CheckResponse(response *http.Response) bool {
	code := response.StatusCode
	switch {
	case o.has(On5xx) && code >= 500 && code < 600:
		return true
	case o.has(OnGatewayError) && (code == http.StatusBadGateway || code == http.StatusServiceUnavailable || code == http.StatusGatewayTimeout):
		return true
	case o.has(OnConflict) && code == http.StatusConflict:
		return true
	}

	for _, statusCode := range o.statusCodes {
		if statusCode == code {
			return true
		}
	}
	return false
}

func (o *On) CheckError(err error) bool {
	if !o.has(OnConnectFailure) && !o.has(On5xx) {
		return false
	}
	return connectFailure(err)
}

func connectFailure(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	type temporary interface{ Temporary() bool }
	var terr temporary
	return errors.As(err, &terr) && terr.Temporary()
}
