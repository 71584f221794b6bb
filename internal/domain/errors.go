package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential means the selected provider has no API key.
	ErrMissingCredential = errors.New("missing credential")
	// ErrRateLimited means HTTP 429 persisted through every retry.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrTransport means network-level failures persisted through every retry.
	ErrTransport = errors.New("transport failure")
	// ErrParse means the backend payload could not be turned into results.
	ErrParse = errors.New("parse failure")
)

// UpstreamError carries a structured error returned by the scoring backend.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("upstream returned status %d", e.Status)
}

// ErrorKind is the annotation-facing classification of a failure.
type ErrorKind string

const (
	ErrorNoAPIKey  ErrorKind = "NO_API_KEY"
	ErrorRateLimit ErrorKind = "RATE_LIMIT"
	ErrorOther     ErrorKind = "OTHER"
)

// Wire codes used in the message envelope.
const (
	CodeNoAPIKey  = "NO_API_KEY"
	CodeRateLimit = "RATE_LIMIT"
)

// ErrorCode converts an error into the envelope's error string.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredential):
		return CodeNoAPIKey
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimit
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Error()
	}
	return err.Error()
}

// KindFromCode maps an envelope error string to an annotation state.
func KindFromCode(code string) ErrorKind {
	switch code {
	case CodeNoAPIKey:
		return ErrorNoAPIKey
	case CodeRateLimit:
		return ErrorRateLimit
	default:
		return ErrorOther
	}
}
