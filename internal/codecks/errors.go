package codecks

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies why a request produced no payload.
type Kind int

const (
	KindUnexpected Kind = iota
	KindTimeout
	KindTransport
	KindUnauthorized
	KindNotFound
	KindServerError
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindTransport:
		return "transport"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindServerError:
		return "server_error"
	default:
		return "unexpected"
	}
}

// FetchError is returned by every Client operation that did not yield a payload.
type FetchError struct {
	Op     string
	Kind   Kind
	Status int // zero when no response was received
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("codecks %s: %s (status %d): %v", e.Op, e.Kind, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("codecks %s: %s (status %d)", e.Op, e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("codecks %s: %s: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("codecks %s: %s", e.Op, e.Kind)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// KindOf reports the failure kind carried by err. Errors that are not a
// FetchError are classified as transport-level when they look like one.
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return classifyTransport(err)
}

// classifyStatus maps a non-200 HTTP status to a failure kind.
func classifyStatus(status int) Kind {
	switch {
	case status == http.StatusRequestTimeout:
		return KindTimeout
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500 && status <= 599:
		return KindServerError
	default:
		return KindUnexpected
	}
}

func classifyTransport(err error) Kind {
	if err == nil {
		return KindUnexpected
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindTransport
	}
	if errors.Is(err, context.Canceled) {
		return KindTransport
	}
	return KindUnexpected
}
