package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrorKind classifies a generation failure.
type ErrorKind string

const (
	KindAuth      ErrorKind = "auth"
	KindTimeout   ErrorKind = "timeout"
	KindRateLimit ErrorKind = "rate_limit"
	KindEndpoint  ErrorKind = "endpoint"
	KindMalformed ErrorKind = "malformed"
	KindEmpty     ErrorKind = "empty"
	KindUnknown   ErrorKind = "unknown"
)

// Error is a classified failure of the generation service. Message is safe
// to show to clients; Cause keeps the raw detail for logs.
type Error struct {
	Kind       ErrorKind
	Message    string
	Retryable  bool
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Kind))
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	parts = append(parts, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

func (e *Error) Unwrap() error { return e.Cause }

// IsRetryable lets the retry package decide without importing llm.
func (e *Error) IsRetryable() bool { return e.Retryable }

// NewError creates a classified error.
func NewError(kind ErrorKind, message string, retryable bool, cause error) *Error {
	return &Error{Kind: kind, Message: message, Retryable: retryable, Cause: cause}
}

// ErrEmptyResponse is returned when the service answers without text.
var ErrEmptyResponse = NewError(KindEmpty, "generation service returned an empty response", false, nil)

// ClassifyError maps a client error onto an *Error. Structured go-openai
// errors are inspected first; anything else falls back to string matching.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(KindTimeout, "generation service timed out", true, err)
	}

	statusCode := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		statusCode = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		statusCode = reqErr.HTTPStatusCode
	}

	classified := classifyStatus(statusCode, err)
	classified.StatusCode = statusCode
	return classified
}

func classifyStatus(statusCode int, err error) *Error {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return NewError(KindAuth, "generation service rejected the credentials", false, err)
	case statusCode == http.StatusTooManyRequests:
		return NewError(KindRateLimit, "generation service is rate limiting requests", true, err)
	case statusCode == http.StatusNotFound:
		return NewError(KindEndpoint, "generation service endpoint or model not found", false, err)
	case statusCode >= 500:
		return NewError(KindEndpoint, "generation service is unavailable", true, err)
	case statusCode >= 400:
		return NewError(KindUnknown, "generation service rejected the request", false, err)
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "unauthorized") || strings.Contains(lower, "api key"):
		return NewError(KindAuth, "generation service rejected the credentials", false, err)
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return NewError(KindTimeout, "generation service timed out", true, err)
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "quota"):
		return NewError(KindRateLimit, "generation service is rate limiting requests", true, err)
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host"):
		return NewError(KindEndpoint, "generation service is unreachable", true, err)
	}
	return NewError(KindUnknown, "generation service request failed", false, err)
}

// KindOf extracts the ErrorKind from err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Kind
	}
	return KindUnknown
}
