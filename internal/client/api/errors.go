package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable     = errors.New("server unavailable")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrPaymentRequired = errors.New("payment required")
	ErrNotFound        = errors.New("not found")
	ErrServer          = errors.New("server error")
)

// HTTPError is a non-2xx response. It unwraps to the sentinel matching its
// status, so both errors.Is and errors.As work on it.
type HTTPError struct {
	StatusCode int
	Detail     string
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.StatusCode == http.StatusPaymentRequired:
		return ErrPaymentRequired
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusServiceUnavailable, e.StatusCode == http.StatusBadGateway, e.StatusCode == http.StatusGatewayTimeout:
		return ErrUnavailable
	case e.StatusCode >= 500:
		return ErrServer
	default:
		return nil
	}
}

// retryable reports whether a request may succeed if sent again.
func retryable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrServer)
}
