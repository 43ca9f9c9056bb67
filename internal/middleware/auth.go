// Package middleware provides the HTTP middleware that authenticates signed
// requests, plus request id and access log middleware.
package middleware

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"paysign/internal/common/errors"
	"paysign/internal/common/logging"
	"paysign/internal/verifier"
)

// DefaultMaxBodyBytes bounds the body read before verification.
const DefaultMaxBodyBytes int64 = 1 << 20

type contextKey string

const apiKeyContextKey contextKey = "authenticated_api_key"

// APIKeyFromContext returns the api key stored by Authenticate.
func APIKeyFromContext(ctx context.Context) (string, bool) {
	apiKey, ok := ctx.Value(apiKeyContextKey).(string)
	return apiKey, ok && apiKey != ""
}

// ContextWithAPIKey stores an authenticated api key.
func ContextWithAPIKey(ctx context.Context, apiKey string) context.Context {
	return context.WithValue(ctx, apiKeyContextKey, apiKey)
}

// ErrorResponse is the JSON body written for rejected requests.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail names the failure kind. Messages never include key material.
type ErrorDetail struct {
	Code    string `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ErrorCode returns the documented API error code for err.
func ErrorCode(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}
	switch errors.GetType(err) {
	case errors.ErrTypeMissingHeader:
		return "MISSING_HEADER"
	case errors.ErrTypeTimestampOutOfRange:
		return "TIMESTAMP_OUT_OF_RANGE"
	case errors.ErrTypeInvalidSignature:
		return "INVALID_SIGNATURE"
	case errors.ErrTypeUnknownAPIKey:
		return "UNKNOWN_API_KEY"
	case errors.ErrTypeEncoding:
		return "ENCODING_ERROR"
	case errors.ErrTypeValidation:
		return "VALIDATION_ERROR"
	case errors.ErrTypeNotFound:
		return "NOT_FOUND"
	case errors.ErrTypeConnection:
		return "SERVICE_UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}

// StatusCode maps an error kind to its HTTP status.
func StatusCode(err error) int {
	switch errors.GetType(err) {
	case errors.ErrTypeMissingHeader, errors.ErrTypeEncoding:
		return http.StatusBadRequest
	case errors.ErrTypeTimestampOutOfRange, errors.ErrTypeUnknownAPIKey, errors.ErrTypeInvalidSignature:
		return http.StatusUnauthorized
	case errors.ErrTypeValidation:
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) && appErr.Code == verifier.CodeBodyTooLarge {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	case errors.ErrTypeNotFound:
		return http.StatusNotFound
	case errors.ErrTypeConnection:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as an ErrorResponse with the status from StatusCode.
// Internal errors are reported without their cause.
func WriteError(w http.ResponseWriter, err error) {
	WriteErrorStatus(w, StatusCode(err), err)
}

// WriteErrorStatus writes err as an ErrorResponse with an explicit status.
func WriteErrorStatus(w http.ResponseWriter, status int, err error) {
	detail := ErrorDetail{
		Code:    ErrorCode(err),
		Type:    string(errors.GetType(err)),
		Message: http.StatusText(status),
	}
	var appErr *errors.AppError
	if status < http.StatusInternalServerError && stderrors.As(err, &appErr) {
		detail.Message = appErr.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: detail})
}

// VerificationRecorder counts verification results. The result is
// "accepted" or the rejecting error type.
type VerificationRecorder interface {
	RecordVerification(result string)
}

// AuthConfig configures Authenticate.
type AuthConfig struct {
	// MaxBodyBytes defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64
	Logger       logging.Logger
	// Metrics is optional.
	Metrics VerificationRecorder
}

// Authenticate verifies every request with v before calling next. The body is
// read once, verified byte for byte and handed to next unchanged.
func Authenticate(v *verifier.Verifier, config AuthConfig) func(http.Handler) http.Handler {
	limit := config.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := verifier.ReadBody(r, limit)
			if err != nil {
				logger.WithContext(r.Context()).Warn("Rejected request body",
					logging.String("path", r.URL.Path),
					logging.Err(err),
				)
				WriteError(w, err)
				return
			}

			result, err := v.Verify(r.Context(), verifier.FromHTTP(r, body))
			if config.Metrics != nil {
				outcome := "accepted"
				if err != nil {
					outcome = string(errors.GetType(err))
				}
				config.Metrics.RecordVerification(outcome)
			}
			if err != nil {
				WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithAPIKey(r.Context(), result.APIKey)))
		})
	}
}
