package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// ConnectionError is a transport failure reaching the bridge (refused or reset).
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string { return "connection failed: " + e.Err.Error() }
func (e *ConnectionError) Unwrap() error { return e.Err }

// TimeoutError is an attempt that ran past its deadline or a connect timeout.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string { return "timed out: " + e.Err.Error() }
func (e *TimeoutError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response. It is never retried.
type HTTPError struct {
	Method  string
	Path    string
	Status  int
	Message string // "message" field of the JSON body, if any
	Body    []byte
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("bridge returned %d for %s %s: %s", e.Status, e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("bridge returned %d for %s %s", e.Status, e.Method, e.Path)
}

// StatusCode lets retrylimit recognise 429 and 5xx responses.
func (e *HTTPError) StatusCode() int { return e.Status }

// RequestError is the enriched error returned once a call gives up for any
// reason other than an HTTP rejection. Err holds the last underlying cause.
type RequestError struct {
	Method   string
	Path     string
	BaseURL  string
	Attempts int
	Err      error
}

func (e *RequestError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("bridge request %s %s failed after %d attempts: %v", e.Method, e.Path, e.Attempts, e.Err)
	}
	return fmt.Sprintf("bridge request %s %s failed: %v", e.Method, e.Path, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a ConnectionError or TimeoutError.
func IsTransient(err error) bool {
	var ce *ConnectionError
	var te *TimeoutError
	return errors.As(err, &ce) || errors.As(err, &te)
}

// classify maps an error returned by http.Client.Do into the transient
// taxonomy. parent is the caller's context: its own expiry is not an attempt
// timeout and is returned untouched.
func classify(parent context.Context, err error) error {
	if parent.Err() != nil {
		return err
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return &ConnectionError{Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &TimeoutError{Err: err}
	}
	return err
}
