package genproxy_test

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/liuzl/genproxy"
)

// TestValidationError tests ValidationError creation and properties.
func TestValidationError(t *testing.T) {
	cause := fmt.Errorf("unexpected EOF")
	err := genproxy.NewValidationError("empty or invalid body", cause)

	if err.Error() != "empty or invalid body" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
	if err.StatusCode() != http.StatusBadRequest {
		t.Errorf("Expected status code 400, got %d", err.StatusCode())
	}
	if !errors.Is(err, cause) {
		t.Error("Expected error to wrap cause")
	}
	if genproxy.ErrorType(err) != "validation" {
		t.Errorf("Unexpected error type: %s", genproxy.ErrorType(err))
	}
}

// TestConfigurationError checks that a missing key is a 500, not a 401.
func TestConfigurationError(t *testing.T) {
	err := genproxy.NewConfigurationError("API key missing")

	if err.StatusCode() != http.StatusInternalServerError {
		t.Errorf("Expected status code 500, got %d", err.StatusCode())
	}
	if genproxy.StatusCode(err) != http.StatusInternalServerError {
		t.Errorf("StatusCode helper disagrees: %d", genproxy.StatusCode(err))
	}
}

// TestUpstreamProtocolError tests the generic service error.
func TestUpstreamProtocolError(t *testing.T) {
	err := genproxy.NewUpstreamProtocolError(503, "", "<html>oops</html>", nil)

	if err.StatusCode() != http.StatusBadGateway {
		t.Errorf("Expected status code 502, got %d", err.StatusCode())
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("Expected upstream status in message, got: %s", err.Error())
	}
	if strings.Contains(err.Error(), "oops") {
		t.Errorf("Raw body must not be exposed, got: %s", err.Error())
	}
	if err.Body != "<html>oops</html>" {
		t.Errorf("Expected body kept for logs, got %q", err.Body)
	}
}

// TestUpstreamApplicationError tests message forwarding and synthesis.
func TestUpstreamApplicationError(t *testing.T) {
	err := genproxy.NewUpstreamApplicationError(403, "API key not valid", nil)
	if err.Error() != "API key not valid" || err.StatusCode() != 403 {
		t.Errorf("Unexpected error: %s (%d)", err.Error(), err.StatusCode())
	}

	err = genproxy.NewUpstreamApplicationError(429, "", nil)
	if err.Error() != "API Error 429" {
		t.Errorf("Expected synthesized message, got: %s", err.Error())
	}
}

// TestInternalErrorIncludesCause tests that the nested cause is surfaced.
func TestInternalErrorIncludesCause(t *testing.T) {
	root := errors.New("connection refused")
	err := genproxy.NewInternalError(&wrapped{msg: "fetch failed", err: root})

	if !strings.Contains(err.Error(), "fetch failed") || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Expected message and cause, got: %s", err.Error())
	}
	if !errors.Is(err, root) {
		t.Error("Expected error chain to reach the root cause")
	}

	// fmt wrapping already shows the cause once.
	err = genproxy.NewInternalError(fmt.Errorf("fetch failed: %w", root))
	if strings.Count(err.Error(), "connection refused") != 1 {
		t.Errorf("Cause repeated: %s", err.Error())
	}
}

// TestStatusCodeDefaults tests the fallback for untyped errors.
func TestStatusCodeDefaults(t *testing.T) {
	if got := genproxy.StatusCode(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("Expected 500 for plain error, got %d", got)
	}
	wrappedErr := fmt.Errorf("context: %w", genproxy.NewValidationError("prompt required", nil))
	if got := genproxy.StatusCode(wrappedErr); got != http.StatusBadRequest {
		t.Errorf("Expected 400 through wrapping, got %d", got)
	}
}

type wrapped struct {
	msg string
	err error
}

func (w *wrapped) Error() string { return w.msg }
func (w *wrapped) Unwrap() error { return w.err }
