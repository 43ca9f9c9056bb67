// Package errors provides the structured error type shared by paysign packages.
//
// Every failure produced by signing or verification is an *AppError whose Type
// names exactly one kind from the signing taxonomy. Callers branch on the type
// with IsType or GetType; the HTTP layer maps types to status codes.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeMissingHeader is a required signing header that is absent or malformed
	ErrTypeMissingHeader ErrorType = "missing_header"
	// ErrTypeTimestampOutOfRange is an X-Timestamp outside the tolerance window
	ErrTypeTimestampOutOfRange ErrorType = "timestamp_out_of_range"
	// ErrTypeInvalidSignature is an X-Signature that does not match the request
	ErrTypeInvalidSignature ErrorType = "invalid_signature"
	// ErrTypeUnknownAPIKey is an api key with no provisioned secret
	ErrTypeUnknownAPIKey ErrorType = "unknown_api_key"
	// ErrTypeEncoding is input that cannot be encoded as UTF-8
	ErrTypeEncoding ErrorType = "encoding"
	// ErrTypeValidation represents validation errors
	ErrTypeValidation ErrorType = "validation"
	// ErrTypeConfig represents configuration errors
	ErrTypeConfig ErrorType = "config"
	// ErrTypeNotFound represents resource not found errors
	ErrTypeNotFound ErrorType = "not_found"
	// ErrTypeConnection represents connection-related errors
	ErrTypeConnection ErrorType = "connection"
	// ErrTypeInternal represents internal system errors
	ErrTypeInternal ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface. Context keys are sorted so the
// message is stable across calls.
func (e *AppError) Error() string {
	parts := []string{string(e.Type), e.Message}

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("code=%s", e.Code))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		contextParts := make([]string, 0, len(keys))
		for _, k := range keys {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		parts = append(parts, fmt.Sprintf("context={%s}", strings.Join(contextParts, ", ")))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// Terminal reports whether the error must not be retried. All signing and
// verification kinds are terminal.
func (e *AppError) Terminal() bool {
	switch e.Type {
	case ErrTypeConnection, ErrTypeInternal:
		return false
	default:
		return true
	}
}

// MissingHeaderError reports an absent or malformed signing header
func MissingHeaderError(header, msg string) *AppError {
	return (&AppError{
		Type:    ErrTypeMissingHeader,
		Message: msg,
	}).WithContext("header", header)
}

// TimestampOutOfRangeError reports a timestamp outside the accepted window
func TimestampOutOfRangeError(deltaSeconds, toleranceSeconds int64) *AppError {
	return (&AppError{
		Type:    ErrTypeTimestampOutOfRange,
		Message: "request timestamp outside tolerance window",
	}).WithContext("delta_seconds", deltaSeconds).WithContext("tolerance_seconds", toleranceSeconds)
}

// InvalidSignatureError reports a signature mismatch
func InvalidSignatureError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeInvalidSignature,
		Message: msg,
	}
}

// UnknownAPIKeyError reports an api key with no provisioned secret
func UnknownAPIKeyError(apiKey string) *AppError {
	return (&AppError{
		Type:    ErrTypeUnknownAPIKey,
		Message: "api key is not provisioned",
	}).WithContext("api_key", apiKey)
}

// EncodingError reports a field that cannot be encoded for signing
func EncodingError(field string) *AppError {
	return (&AppError{
		Type:    ErrTypeEncoding,
		Message: fmt.Sprintf("%s is not valid UTF-8", field),
	}).WithContext("field", field)
}

// ValidationError creates a new validation error
func ValidationError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeValidation,
		Message: msg,
	}
}

// ConfigError creates a new configuration error
func ConfigError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeConfig,
		Message: msg,
	}
}

// NotFoundError creates a new not found error
func NotFoundError(resource string) *AppError {
	return &AppError{
		Type:    ErrTypeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// ConnectionError creates a new connection error
func ConnectionError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeConnection,
		Message: msg,
		Cause:   cause,
	}
}

// InternalError creates a new internal error
func InternalError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeInternal,
		Message: msg,
		Cause:   cause,
	}
}

// IsType checks if an error, or any error it wraps, is an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Type == errType
}

// GetType returns the error type if it's an AppError, otherwise returns ErrTypeInternal
func GetType(err error) ErrorType {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return ErrTypeInternal
	}

	return appErr.Type
}
