package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{"validation", NewValidationError("bad", nil), ErrorTypeValidation, http.StatusBadRequest},
		{"network", NewNetworkError("net", nil), ErrorTypeNetwork, http.StatusBadGateway},
		{"upstream", NewUpstreamError("up", nil), ErrorTypeUpstream, http.StatusBadGateway},
		{"processing", NewProcessingError("proc", nil), ErrorTypeProcessing, http.StatusUnprocessableEntity},
		{"timeout", NewTimeoutError("slow", nil), ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"too large", NewTooLargeError("big", nil), ErrorTypeTooLarge, http.StatusRequestEntityTooLarge},
		{"internal", NewInternalError("boom", nil), ErrorTypeInternal, http.StatusInternalServerError},
		{"not found", NewNotFoundError("gone", nil), ErrorTypeNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.wantType {
				t.Errorf("Expected type %s, got %s", tt.wantType, tt.err.Type)
			}
			if tt.err.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, tt.err.StatusCode)
			}
		})
	}
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewUpstreamError("Analysis unavailable", cause)

	if got := err.Error(); got != "upstream: Analysis unavailable (caused by: connection reset)" {
		t.Errorf("Unexpected error string: %s", got)
	}
	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to find the cause")
	}

	plain := NewValidationError("Invalid file type", nil)
	if got := plain.Error(); got != "validation: Invalid file type" {
		t.Errorf("Unexpected error string: %s", got)
	}
}

func TestIsTypeAndStatus_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewTimeoutError("Analysis timed out", nil))

	if !IsType(wrapped, ErrorTypeTimeout) {
		t.Error("Expected wrapped timeout error to be detected")
	}
	if IsType(wrapped, ErrorTypeValidation) {
		t.Error("Did not expect validation type")
	}
	if GetStatusCode(wrapped) != http.StatusGatewayTimeout {
		t.Errorf("Expected 504, got %d", GetStatusCode(wrapped))
	}
	if GetStatusCode(errors.New("plain")) != http.StatusInternalServerError {
		t.Error("Expected 500 for non-AppError")
	}
}

func TestGetMessage(t *testing.T) {
	if got := GetMessage(NewValidationError("No file selected", nil), "fallback"); got != "No file selected" {
		t.Errorf("Expected AppError message, got %q", got)
	}
	if got := GetMessage(errors.New("raw"), "fallback"); got != "fallback" {
		t.Errorf("Expected fallback, got %q", got)
	}
}

func TestWithDetails_DoesNotMutateOriginal(t *testing.T) {
	orig := NewValidationError("Invalid file type", nil)
	detailed := orig.WithDetails("corrupt")

	if orig.Details != "" {
		t.Error("Expected original to stay untouched")
	}
	if detailed.Details != "corrupt" {
		t.Errorf("Expected details 'corrupt', got %q", detailed.Details)
	}
}
