package signing

import (
	"unicode/utf8"

	"paysign/internal/common/errors"
)

// Method is an HTTP verb accepted by the signing scheme.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
	MethodPatch  Method = "PATCH"
)

// Methods lists the accepted verbs in documentation order.
var Methods = []Method{MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch}

// Valid reports whether m is one of the accepted verbs. Matching is
// case-sensitive: "post" is not POST.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch:
		return true
	default:
		return false
	}
}

// SignatureInput holds the five fields covered by a signature.
type SignatureInput struct {
	Method Method
	// Path excludes scheme, host and query string.
	Path string
	// Body is the raw payload exactly as sent. Empty for requests with no body.
	Body string
	// Timestamp is unix seconds, the same value as X-Timestamp.
	Timestamp int64
	APIKey    string
}

// Validate checks the method and that every field is valid UTF-8. The path is
// deliberately not checked for a query string.
func (in SignatureInput) Validate() error {
	if !in.Method.Valid() {
		return errors.ValidationError("unsupported method: " + string(in.Method)).WithContext("method", string(in.Method))
	}

	fields := []struct {
		name  string
		value string
	}{
		{"path", in.Path},
		{"body", in.Body},
		{"api_key", in.APIKey},
	}
	for _, f := range fields {
		if !utf8.ValidString(f.value) {
			return errors.EncodingError(f.name)
		}
	}

	return nil
}

// Credentials pair the public api key with the secret used as the HMAC key.
// The secret is never transmitted.
type Credentials struct {
	APIKey    string
	SecretKey string
}

// String omits the secret so credentials can't leak through %v.
func (c Credentials) String() string {
	return "Credentials{APIKey: " + c.APIKey + ", SecretKey: [REDACTED]}"
}

// GoString omits the secret from %#v.
func (c Credentials) GoString() string {
	return `signing.Credentials{APIKey:"` + c.APIKey + `", SecretKey:"[REDACTED]"}`
}
