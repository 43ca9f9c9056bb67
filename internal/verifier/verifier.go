// Package verifier enforces the server-side verification policy for signed
// requests and webhook callbacks.
//
// Checks run in a fixed order and the first failure wins:
//
//  1. presence of X-API-Key, X-Timestamp, X-Signature and a JSON Content-Type
//  2. |now - X-Timestamp| within the tolerance (300 seconds by default)
//  3. a provisioned secret for the api key
//  4. a constant-time match of X-Signature against the rebuilt canonical string
//
// There is no nonce store: a captured request replays successfully until its
// timestamp leaves the tolerance window.
package verifier

import (
	"context"
	stderrors "errors"
	"mime"
	"net/http"
	"strconv"
	"time"

	"paysign/internal/common/errors"
	"paysign/internal/common/logging"
	"paysign/internal/credentials"
	"paysign/internal/signing"
)

// DefaultTolerance is the documented ±5 minute window.
const DefaultTolerance = 300 * time.Second

// SecretLookup resolves an api key to its secret. Implementations return
// credentials.ErrNotFound for unknown keys and must be safe for concurrent use.
type SecretLookup interface {
	Lookup(ctx context.Context, apiKey string) (string, error)
}

// Request is the part of an HTTP request covered by verification. Body is the
// raw payload exactly as received.
type Request struct {
	Method string
	Path   string
	Body   []byte
	Header http.Header
}

// FromHTTP captures r with an already-read body. The path is the escaped
// path as sent on the wire, never decoded, and the query string is never part
// of the signed input.
func FromHTTP(r *http.Request, body []byte) Request {
	return Request{
		Method: r.Method,
		Path:   r.URL.EscapedPath(),
		Body:   body,
		Header: r.Header,
	}
}

// Result describes a verified request.
type Result struct {
	APIKey    string
	Timestamp int64
	// Skew is now minus the request timestamp, in seconds.
	Skew int64
}

// Verifier checks signed requests. It holds no key material between calls;
// the secret is looked up per call and not retained by the Verifier. Safe for
// concurrent use.
type Verifier struct {
	store     SecretLookup
	now       func() time.Time
	tolerance time.Duration
	logger    logging.Logger
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		v.now = now
	}
}

// WithTolerance replaces DefaultTolerance. Non-positive values are ignored.
func WithTolerance(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.tolerance = d
		}
	}
}

// WithLogger sets the logger used for verification outcomes.
func WithLogger(logger logging.Logger) Option {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// New creates a Verifier backed by store.
func New(store SecretLookup, opts ...Option) *Verifier {
	v := &Verifier{
		store:     store,
		now:       time.Now,
		tolerance: DefaultTolerance,
		logger:    logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Tolerance returns the accepted timestamp skew.
func (v *Verifier) Tolerance() time.Duration {
	return v.tolerance
}

// Verify runs the policy against req. Every failure is an *errors.AppError of
// exactly one signing kind, except store failures which are internal.
func (v *Verifier) Verify(ctx context.Context, req Request) (Result, error) {
	result, err := v.verify(ctx, req)
	log := v.logger.WithContext(ctx)
	if err != nil {
		log.Warn("Request verification failed",
			logging.String("error_type", string(errors.GetType(err))),
			logging.String("api_key", result.APIKey),
			logging.Int64("timestamp_skew", result.Skew),
			logging.String("method", req.Method),
			logging.String("path", req.Path),
		)
		return result, err
	}

	log.Debug("Request verified",
		logging.String("api_key", result.APIKey),
		logging.Int64("timestamp_skew", result.Skew),
	)
	return result, nil
}

func (v *Verifier) verify(ctx context.Context, req Request) (Result, error) {
	var result Result

	apiKey := req.Header.Get(signing.HeaderAPIKey)
	if apiKey == "" {
		return result, errors.MissingHeaderError(signing.HeaderAPIKey, "missing X-API-Key header")
	}
	result.APIKey = apiKey

	rawTimestamp := req.Header.Get(signing.HeaderTimestamp)
	if rawTimestamp == "" {
		return result, errors.MissingHeaderError(signing.HeaderTimestamp, "missing X-Timestamp header")
	}
	timestamp, ok := parseTimestamp(rawTimestamp)
	if !ok {
		return result, errors.MissingHeaderError(signing.HeaderTimestamp, "X-Timestamp must be unix seconds as a decimal integer")
	}
	result.Timestamp = timestamp

	candidate := req.Header.Get(signing.HeaderSignature)
	if candidate == "" {
		return result, errors.MissingHeaderError(signing.HeaderSignature, "missing X-Signature header")
	}

	if err := checkContentType(req.Header.Get(signing.HeaderContentType)); err != nil {
		return result, err
	}

	result.Skew = v.now().Unix() - timestamp
	toleranceSeconds := int64(v.tolerance / time.Second)
	if result.Skew > toleranceSeconds || result.Skew < -toleranceSeconds {
		return result, errors.TimestampOutOfRangeError(result.Skew, toleranceSeconds)
	}

	secret, err := v.store.Lookup(ctx, apiKey)
	if stderrors.Is(err, credentials.ErrNotFound) {
		return result, errors.UnknownAPIKeyError(apiKey)
	}
	if err != nil {
		return result, errors.InternalError("credential lookup failed", err)
	}

	in := signing.SignatureInput{
		Method:    signing.Method(req.Method),
		Path:      req.Path,
		Body:      string(req.Body),
		Timestamp: timestamp,
		APIKey:    apiKey,
	}
	if !in.Method.Valid() {
		return result, errors.InvalidSignatureError("method cannot be signed").WithContext("method", req.Method)
	}
	if err := in.Validate(); err != nil {
		return result, err
	}

	if !signing.Verify([]byte(secret), signing.Build(in), signing.Signature(candidate)) {
		return result, errors.InvalidSignatureError("signature mismatch")
	}

	return result, nil
}

// parseTimestamp accepts only the canonical decimal rendering, so the value
// signed is byte-identical to the header.
func parseTimestamp(raw string) (int64, bool) {
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	if strconv.FormatInt(ts, 10) != raw {
		return 0, false
	}
	return ts, true
}

func checkContentType(value string) error {
	if value == "" {
		return errors.MissingHeaderError(signing.HeaderContentType, "missing Content-Type header")
	}
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil || mediaType != signing.ContentTypeJSON {
		return errors.MissingHeaderError(signing.HeaderContentType, "Content-Type must be application/json")
	}
	return nil
}
