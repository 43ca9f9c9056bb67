// Package signing implements the HMAC-SHA256 request-signing scheme used by
// API callers and webhook receivers.
//
// A request is reduced to a canonical string of five fields joined by a
// single newline byte, in fixed order:
//
//	METHOD\nPATH\nBODY\nTIMESTAMP\nAPI_KEY
//
// and the signature is the lowercase hex encoding of
// HMAC-SHA256(secret_key, canonical_string). There is no trailing newline.
//
// The body is the exact raw payload sent on the wire. It is never parsed or
// re-serialized, so two JSON objects with the same keys in a different order
// sign differently. Fields are not escaped: a newline inside the body or path
// is signed as-is.
//
// # Usage
//
//	in := signing.SignatureInput{
//	    Method:    signing.MethodPost,
//	    Path:      "/api/v4/payments/raisboy/deposit/create",
//	    Body:      `{"user_id":"2564568","amount":5000}`,
//	    Timestamp: time.Now().Unix(),
//	    APIKey:    apiKey,
//	}
//	sig, err := signing.SignInput(secretKey, in)
//
// Everything in this package is a pure function of its arguments and safe for
// concurrent use. Nothing retains key material after a call returns.
package signing
