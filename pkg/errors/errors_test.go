package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := NewApplicationError(1002, "room does not exist")
	expected := "APPLICATION: room does not exist"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestAppError_WithCause(t *testing.T) {
	originalErr := errors.New("connection refused")
	err := NewTransportError("request failed", originalErr)

	if err.Cause != originalErr {
		t.Errorf("Cause = %v, want %v", err.Cause, originalErr)
	}

	if !errors.Is(err, originalErr) {
		t.Errorf("errors.Is should match the cause, got: %v", err)
	}
}

func TestAppError_Display(t *testing.T) {
	appErr := NewApplicationError(1002, "room does not exist")
	if appErr.Display() != "[1002] room does not exist" {
		t.Errorf("Display() = %v, want [1002] room does not exist", appErr.Display())
	}

	transportErr := NewTransportError("request timed out", nil)
	if transportErr.Display() != "request timed out" {
		t.Errorf("Display() = %v, want 'request timed out'", transportErr.Display())
	}
}

func TestIsKind(t *testing.T) {
	err := NewStorageError("cannot write settings", errors.New("disk full"))
	if !IsKind(err, KindStorage) {
		t.Errorf("IsKind(KindStorage) = false, want true")
	}
	if IsKind(err, KindTransport) {
		t.Errorf("IsKind(KindTransport) = true, want false")
	}
	if IsKind(errors.New("plain"), KindStorage) {
		t.Errorf("IsKind on a plain error = true, want false")
	}
}

func TestGetAppError_Wrapped(t *testing.T) {
	inner := NewParseError("invalid config document", nil)
	wrapped := fmt.Errorf("loading config: %w", inner)

	got := GetAppError(wrapped)
	if got == nil {
		t.Fatalf("GetAppError returned nil for wrapped AppError")
	}
	if got.Kind != KindParse {
		t.Errorf("Kind = %v, want %v", got.Kind, KindParse)
	}
}

func TestGetAppError_Nil(t *testing.T) {
	if GetAppError(nil) != nil {
		t.Errorf("GetAppError(nil) should be nil")
	}
}
