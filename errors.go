package genproxy

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorWithStatus is the base interface for all proxy errors.
// It carries the HTTP status the error should be surfaced with.
type ErrorWithStatus interface {
	error
	StatusCode() int
	Unwrap() error
}

// baseError is the common implementation for all errors.
type baseError struct {
	statusCode int
	message    string
	err        error
}

func (e *baseError) Error() string {
	return e.message
}

func (e *baseError) StatusCode() int {
	return e.statusCode
}

func (e *baseError) Unwrap() error {
	return e.err
}

// ValidationError represents malformed or missing input (400). It is raised
// before any upstream call is made.
type ValidationError struct {
	baseError
}

// NewValidationError creates a new validation error.
func NewValidationError(message string, err error) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			statusCode: http.StatusBadRequest,
			message:    message,
			err:        err,
		},
	}
}

// ConfigurationError represents local misconfiguration such as a missing
// credential (500, not 401: the upstream never rejected anything).
type ConfigurationError struct {
	baseError
}

// NewConfigurationError creates a new configuration error.
func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{
		baseError: baseError{
			statusCode: http.StatusInternalServerError,
			message:    message,
		},
	}
}

// UpstreamProtocolError means the upstream answered with something that is
// not usable JSON (502). Body is kept for logs only.
type UpstreamProtocolError struct {
	baseError
	UpstreamStatus int
	Body           string
}

// NewUpstreamProtocolError creates a new upstream protocol error.
func NewUpstreamProtocolError(upstreamStatus int, message, body string, err error) *UpstreamProtocolError {
	if message == "" {
		message = fmt.Sprintf("Upstream service error (HTTP %d)", upstreamStatus)
	}
	return &UpstreamProtocolError{
		baseError: baseError{
			statusCode: http.StatusBadGateway,
			message:    message,
			err:        err,
		},
		UpstreamStatus: upstreamStatus,
		Body:           body,
	}
}

// UpstreamApplicationError is a structured JSON error from the upstream. Its
// status code is the upstream's own.
type UpstreamApplicationError struct {
	baseError
}

// NewUpstreamApplicationError creates a new upstream application error. An
// empty message becomes "API Error <status>".
func NewUpstreamApplicationError(statusCode int, message string, err error) *UpstreamApplicationError {
	if message == "" {
		message = fmt.Sprintf("API Error %d", statusCode)
	}
	return &UpstreamApplicationError{
		baseError: baseError{
			statusCode: statusCode,
			message:    message,
			err:        err,
		},
	}
}

// InternalError wraps any unexpected failure, network errors included (500).
type InternalError struct {
	baseError
}

// NewInternalError creates a new internal error. The message includes the
// innermost cause when the wrapping chain does not already show it.
func NewInternalError(err error) *InternalError {
	message := "internal error"
	if err != nil {
		message = err.Error()
		cause := err
		for errors.Unwrap(cause) != nil {
			cause = errors.Unwrap(cause)
		}
		if cause != err && !strings.Contains(message, cause.Error()) {
			message = fmt.Sprintf("%s (cause: %s)", message, cause.Error())
		}
	}
	return &InternalError{
		baseError: baseError{
			statusCode: http.StatusInternalServerError,
			message:    message,
			err:        err,
		},
	}
}

// StatusCode returns the HTTP status an error should be reported with.
func StatusCode(err error) int {
	var withStatus ErrorWithStatus
	if errors.As(err, &withStatus) && withStatus.StatusCode() > 0 {
		return withStatus.StatusCode()
	}
	return http.StatusInternalServerError
}

// ErrorType maps errors to a short label for metrics and logs.
func ErrorType(err error) string {
	switch err.(type) {
	case nil:
		return "none"
	case *ValidationError:
		return "validation"
	case *ConfigurationError:
		return "configuration"
	case *UpstreamProtocolError:
		return "upstream_protocol"
	case *UpstreamApplicationError:
		return "upstream_application"
	case *InternalError:
		return "internal"
	default:
		return "unknown"
	}
}
