package domain

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
)

type ErrorKind string

const (
	ErrInvalidRequest       ErrorKind = "INVALID_REQUEST"
	ErrAuthenticationFailed ErrorKind = "AUTHENTICATION_FAILED"
	ErrRateLimited          ErrorKind = "RATE_LIMITED"
	ErrPredictionFailed     ErrorKind = "PREDICTION_FAILED"
	ErrTransient            ErrorKind = "TRANSIENT"
)

// userMessages are the only error texts that ever reach a caller; raw
// provider output stays in logs.
var userMessages = map[ErrorKind]string{
	ErrInvalidRequest:       "The request was invalid. Please check the prompt and reference images and try again.",
	ErrAuthenticationFailed: "The generation service rejected our credentials. Please contact support.",
	ErrRateLimited:          "The generation service is busy right now. Please try again in a moment.",
	ErrPredictionFailed:     "The generation job failed. Please adjust the prompt and try again.",
	ErrTransient:            "A temporary problem occurred while reaching the generation service. Please try again.",
}

func (k ErrorKind) retryable() bool {
	return k == ErrTransient || k == ErrRateLimited
}

// ClassifiedError is the stable triple every failure resolves to before it
// reaches a caller: kind, safe message, retryability.
type ClassifiedError struct {
	Kind        ErrorKind
	UserMessage string
	Retryable   bool
	cause       error
}

func (e *ClassifiedError) Error() string {
	return string(e.Kind) + ": " + e.UserMessage
}

func (e *ClassifiedError) Unwrap() error {
	return e.cause
}

// HTTPStatus maps the kind to the caller-facing status code.
func (e *ClassifiedError) HTTPStatus() int {
	switch {
	case e.Kind == ErrInvalidRequest:
		return http.StatusBadRequest
	case e.Kind == ErrTransient || e.Kind == ErrRateLimited:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func NewClassifiedError(kind ErrorKind, cause error) *ClassifiedError {
	return &ClassifiedError{
		Kind:        kind,
		UserMessage: userMessages[kind],
		Retryable:   kind.retryable(),
		cause:       cause,
	}
}

// NewTimeoutError is the terminal result of a polling loop whose deadline or
// probe budget ran out before the job reached a terminal state.
func NewTimeoutError(jobID string) *ClassifiedError {
	return &ClassifiedError{
		Kind:        ErrTransient,
		UserMessage: "job did not complete in time",
		Retryable:   true,
		cause:       errors.New("job " + jobID + " did not complete in time"),
	}
}

// ValidationError marks malformed input caught before submission.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + e.Reason
}

// ProviderAPIError carries a non-2xx provider response; the detail is for
// logs only and never surfaces to callers.
type ProviderAPIError struct {
	StatusCode int
	Detail     string
}

func (e *ProviderAPIError) Error() string {
	if e.Detail == "" {
		return "provider returned status " + http.StatusText(e.StatusCode)
	}
	return "provider returned status " + http.StatusText(e.StatusCode) + ": " + e.Detail
}

// PredictionError means the provider accepted the job and the job itself
// terminated in failure.
type PredictionError struct {
	Reason string
}

func (e *PredictionError) Error() string {
	return "prediction failed: " + e.Reason
}

// Classify maps any raw failure to exactly one kind. It is total and
// idempotent: an already classified error passes through unchanged.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	var validation *ValidationError
	if errors.As(err, &validation) {
		return NewClassifiedError(ErrInvalidRequest, err)
	}

	var provider *ProviderAPIError
	if errors.As(err, &provider) {
		return NewClassifiedError(classifyProviderStatus(provider.StatusCode), err)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewClassifiedError(ErrTransient, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewClassifiedError(ErrTransient, err)
	}

	// A typed prediction failure wins over message sniffing: the raw
	// failure reason of a job the provider ran must not reclassify it.
	var prediction *PredictionError
	if errors.As(err, &prediction) {
		return NewClassifiedError(ErrPredictionFailed, err)
	}

	if kind, ok := classifyMessage(err.Error()); ok {
		return NewClassifiedError(kind, err)
	}

	// Anything unrecognized counts as a failed prediction rather than being
	// swallowed.
	return NewClassifiedError(ErrPredictionFailed, err)
}

func classifyProviderStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrAuthenticationFailed
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return ErrInvalidRequest
	case status >= 500:
		return ErrTransient
	default:
		return ErrPredictionFailed
	}
}

// classifyMessage is a fallback for errors that arrive as bare strings from
// transport layers or SDKs; detection follows the taxonomy's priority order.
func classifyMessage(msg string) (ErrorKind, bool) {
	lower := strings.ToLower(msg)
	switch {
	case containsAny(lower, "invalid input", "invalid version", "field required"):
		return ErrInvalidRequest, true
	case containsAny(lower, "unauthorized", "unauthenticated", "api token", "invalid token", "authentication"):
		return ErrAuthenticationFailed, true
	case containsAny(lower, "rate limit", "quota", "throttl", "too many requests"):
		return ErrRateLimited, true
	case containsAny(lower, "timeout", "timed out", "deadline exceeded", "connection reset", "connection refused", "no such host", "unexpected eof", "service unavailable", "bad gateway"):
		return ErrTransient, true
	default:
		return "", false
	}
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
