package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paysign/internal/common/errors"
	"paysign/internal/common/logging"
	"paysign/internal/credentials"
	"paysign/internal/signing"
	"paysign/internal/verifier"
)

const (
	testPath      = "/api/v4/payments/raisboy/deposit/create"
	testBody      = `{"user_id":"2564568","amount":5000}`
	testTimestamp = int64(1706620800)
	testSignature = "a5f80d4b802752f15820c0d46f17d16eb78a0805b57c54dec543069631dfd884"
)

var testCreds = signing.Credentials{APIKey: "your_api_key_here", SecretKey: "s3cr3t"}

func newTestLogger(t *testing.T, buf *bytes.Buffer) logging.Logger {
	t.Helper()
	logger, err := logging.NewZapLogger(logging.LogConfig{Level: logging.DebugLevel, Output: buf, Format: "json"})
	require.NoError(t, err)
	return logger
}

func newSignedRequest(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, testPath, strings.NewReader(body))
	r.Header.Set(signing.HeaderAPIKey, testCreds.APIKey)
	r.Header.Set(signing.HeaderTimestamp, strconv.FormatInt(testTimestamp, 10))
	r.Header.Set(signing.HeaderSignature, testSignature)
	r.Header.Set(signing.HeaderContentType, signing.ContentTypeJSON)
	return r
}

func newAuthHandler(t *testing.T, logger logging.Logger, maxBody int64, next http.Handler) http.Handler {
	t.Helper()
	v := verifier.New(
		credentials.NewMemoryStore(testCreds),
		verifier.WithClock(func() time.Time { return time.Unix(testTimestamp, 0) }),
		verifier.WithLogger(logger),
	)
	return Authenticate(v, AuthConfig{MaxBodyBytes: maxBody, Logger: logger})(next)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestAuthenticate_PassesVerifiedRequest(t *testing.T) {
	var gotBody string
	var gotKey string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotKey, _ = APIKeyFromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
	})

	rec := httptest.NewRecorder()
	newAuthHandler(t, nil, 0, next).ServeHTTP(rec, newSignedRequest(testBody))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, testBody, gotBody)
	assert.Equal(t, testCreds.APIKey, gotKey)
}

func TestAuthenticate_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *http.Request)
		status  int
		errType errors.ErrorType
	}{
		{"missing api key", func(r *http.Request) { r.Header.Del(signing.HeaderAPIKey) }, http.StatusBadRequest, errors.ErrTypeMissingHeader},
		{"missing signature", func(r *http.Request) { r.Header.Del(signing.HeaderSignature) }, http.StatusBadRequest, errors.ErrTypeMissingHeader},
		{"wrong content type", func(r *http.Request) { r.Header.Set(signing.HeaderContentType, "text/plain") }, http.StatusBadRequest, errors.ErrTypeMissingHeader},
		{"stale timestamp", func(r *http.Request) { r.Header.Set(signing.HeaderTimestamp, "1706620499") }, http.StatusUnauthorized, errors.ErrTypeTimestampOutOfRange},
		{"unknown api key", func(r *http.Request) { r.Header.Set(signing.HeaderAPIKey, "pk_unknown") }, http.StatusUnauthorized, errors.ErrTypeUnknownAPIKey},
		{"bad signature", func(r *http.Request) { r.Header.Set(signing.HeaderSignature, strings.Repeat("0", 64)) }, http.StatusUnauthorized, errors.ErrTypeInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

			r := newSignedRequest(testBody)
			tt.mutate(r)
			rec := httptest.NewRecorder()
			newAuthHandler(t, nil, 0, next).ServeHTTP(rec, r)

			assert.False(t, called)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, string(tt.errType), decodeError(t, rec).Type)
		})
	}
}

func TestAuthenticate_EncodedPathSegment(t *testing.T) {
	const path = "/api/v4/users/john%20doe"
	sig, err := signing.SignInput(testCreds.SecretKey, signing.SignatureInput{
		Method:    signing.MethodPost,
		Path:      path,
		Body:      testBody,
		Timestamp: testTimestamp,
		APIKey:    testCreds.APIKey,
	})
	require.NoError(t, err)

	r := newSignedRequest(testBody)
	r2 := httptest.NewRequest(http.MethodPost, path, strings.NewReader(testBody))
	r2.Header = r.Header.Clone()
	r2.Header.Set(signing.HeaderSignature, string(sig))

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	rec := httptest.NewRecorder()
	newAuthHandler(t, nil, 0, next).ServeHTTP(rec, r2)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAuthenticate_InvalidUTF8Body(t *testing.T) {
	rec := httptest.NewRecorder()
	newAuthHandler(t, nil, 0, http.NotFoundHandler()).ServeHTTP(rec, newSignedRequest("\xff\xfe"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(errors.ErrTypeEncoding), decodeError(t, rec).Type)
}

func TestAuthenticate_BodyTooLarge(t *testing.T) {
	rec := httptest.NewRecorder()
	newAuthHandler(t, nil, 8, http.NotFoundHandler()).ServeHTTP(rec, newSignedRequest(testBody))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	detail := decodeError(t, rec)
	assert.Equal(t, string(errors.ErrTypeValidation), detail.Type)
	assert.Equal(t, verifier.CodeBodyTooLarge, detail.Code)
}

func TestAuthenticate_NeverLogsSecret(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, &buf)
	handler := newAuthHandler(t, logger, 0, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	for _, body := range []string{testBody, `{"amount":1}`} {
		handler.ServeHTTP(httptest.NewRecorder(), newSignedRequest(body))
	}

	assert.Contains(t, buf.String(), "Request verification failed")
	assert.Contains(t, buf.String(), testCreds.APIKey)
	assert.NotContains(t, buf.String(), testCreds.SecretKey)
	assert.NotContains(t, buf.String(), testSignature)
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusCode(errors.InternalError("boom", nil)))
	assert.Equal(t, http.StatusServiceUnavailable, StatusCode(errors.ConnectionError("down", nil)))
	assert.Equal(t, http.StatusNotFound, StatusCode(errors.NotFoundError("route")))
	assert.Equal(t, http.StatusBadRequest, StatusCode(errors.ValidationError("bad")))
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "INVALID_SIGNATURE", ErrorCode(errors.InvalidSignatureError("signature mismatch")))
	assert.Equal(t, "MISSING_HEADER", ErrorCode(errors.MissingHeaderError("X-API-Key", "missing")))
	assert.Equal(t, "UNKNOWN_API_KEY", ErrorCode(errors.UnknownAPIKeyError("pk")))
	assert.Equal(t, "VALIDATION_ERROR", ErrorCode(errors.ValidationError("bad")))
	assert.Equal(t, "INTERNAL_ERROR", ErrorCode(io.EOF))
}

func TestWriteError_HidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.InternalError("credential lookup failed", io.ErrUnexpectedEOF))

	detail := decodeError(t, rec)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal", detail.Type)
	assert.Equal(t, "INTERNAL_ERROR", detail.Code)
	assert.Equal(t, "Internal Server Error", detail.Message)
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	}))

	t.Run("generates uuid", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
		assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))
	})

	t.Run("propagates incoming id", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		r.Header.Set(HeaderRequestID, "req-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)

		assert.Equal(t, "req-123", seen)
		assert.Equal(t, "req-123", rec.Header().Get(HeaderRequestID))
	})

	t.Run("replaces oversized id", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		r.Header.Set(HeaderRequestID, strings.Repeat("x", 200))
		handler.ServeHTTP(httptest.NewRecorder(), r)

		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
	})
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, &buf)

	handler := RequestID(Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})))

	r := newSignedRequest(testBody)
	r.Header.Set(HeaderRequestID, "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), r)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "HTTP request completed", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, float64(http.StatusUnauthorized), entry["status"])
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, testCreds.APIKey, entry["api_key"])
	assert.NotContains(t, buf.String(), testSignature)
}
