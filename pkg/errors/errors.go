package errors

import (
	"fmt"
)

// Kind classifies an error by where it originated.
type Kind string

const (
	// KindTransport covers DNS, connect, and timeout failures where no
	// application payload was received.
	KindTransport Kind = "TRANSPORT"
	// KindApplication covers error code + message pairs embedded in a
	// response payload, independent of the HTTP status line.
	KindApplication Kind = "APPLICATION"
	// KindParse covers malformed JSON from the cloud API or a local document.
	KindParse Kind = "PARSE"
	// KindStorage covers local file I/O failures.
	KindStorage Kind = "STORAGE"
	// KindBind covers the proxy server failing to acquire its port or
	// asset root.
	KindBind Kind = "BIND"
)

// AppError is an error with a kind, an optional application error code,
// and a human-readable message suitable for display.
type AppError struct {
	Kind    Kind
	Code    int
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Display returns the string shown to the end user. Application errors
// combine the upstream code and message; other kinds use the message alone.
func (e *AppError) Display() string {
	if e.Kind == KindApplication && e.Code != 0 {
		return fmt.Sprintf("[%d] %s", e.Code, e.Message)
	}
	return e.Message
}

// NewTransportError reports a failure below the application layer.
func NewTransportError(reason string, cause error) *AppError {
	return &AppError{Kind: KindTransport, Message: reason, Cause: cause}
}

// NewApplicationError reports an error code and message embedded in a
// response payload.
func NewApplicationError(code int, message string) *AppError {
	return &AppError{Kind: KindApplication, Code: code, Message: message}
}

// NewParseError reports malformed JSON.
func NewParseError(message string, cause error) *AppError {
	return &AppError{Kind: KindParse, Message: message, Cause: cause}
}

// NewStorageError reports a local file I/O failure.
func NewStorageError(message string, cause error) *AppError {
	return &AppError{Kind: KindStorage, Message: message, Cause: cause}
}

// NewBindError reports a proxy server startup failure.
func NewBindError(message string, cause error) *AppError {
	return &AppError{Kind: KindBind, Message: message, Cause: cause}
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Kind == kind
}

// GetAppError extracts an AppError from the error chain, or nil.
func GetAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := err.(*AppError); ok {
		return appErr
	}

	type unwrapper interface {
		Unwrap() error
	}

	if u, ok := err.(unwrapper); ok {
		return GetAppError(u.Unwrap())
	}

	return nil
}
