package faceapi

import (
	"context"
	"errors"
	"net"
)

// Error is returned by AnalyzeImage for every failure: transport errors,
// timeouts, non-2xx statuses and undecodable bodies.
type Error struct {
	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int
	// Message is a human-readable description of the failure.
	Message string
	// Timeout is set when the call exceeded the client timeout.
	Timeout bool
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "analysis request failed"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is an analysis call that ran out of time.
func IsTimeout(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Timeout
}

// StatusCode returns the HTTP status carried by err, or zero.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func isTimeoutErr(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
