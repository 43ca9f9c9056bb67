package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"unicode/utf8"

	"paysign/internal/common/errors"
)

// SignatureLength is the length of a hex-encoded HMAC-SHA256 digest.
const SignatureLength = sha256.Size * 2

// Signature is a lowercase hex HMAC-SHA256 digest.
type Signature string

// Sign computes hex(HMAC-SHA256(secretKey, message)).
func Sign(secretKey, message []byte) Signature {
	mac := hmac.New(sha256.New, secretKey)
	mac.Write(message)
	return Signature(hex.EncodeToString(mac.Sum(nil)))
}

// Verify recomputes the signature of message and compares it with candidate
// in constant time. Only a length mismatch returns early.
func Verify(secretKey, message []byte, candidate Signature) bool {
	expected := Sign(secretKey, message)
	return hmac.Equal([]byte(expected), []byte(candidate))
}

// SignInput validates in, builds its canonical string and signs it.
func SignInput(secretKey string, in SignatureInput) (Signature, error) {
	if !utf8.ValidString(secretKey) {
		return "", errors.EncodingError("secret_key")
	}
	if err := in.Validate(); err != nil {
		return "", err
	}
	return Sign([]byte(secretKey), Build(in)), nil
}

// VerifyInput reports whether candidate is the signature of in under secretKey.
func VerifyInput(secretKey string, in SignatureInput, candidate Signature) (bool, error) {
	if !utf8.ValidString(secretKey) {
		return false, errors.EncodingError("secret_key")
	}
	if err := in.Validate(); err != nil {
		return false, err
	}
	return Verify([]byte(secretKey), Build(in), candidate), nil
}

// ParseSignature accepts exactly 64 lowercase hex characters.
func ParseSignature(s string) (Signature, error) {
	if len(s) != SignatureLength {
		return "", errors.InvalidSignatureError("signature must be 64 hex characters").WithContext("length", len(s))
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", errors.InvalidSignatureError("signature must be lowercase hex")
		}
	}
	return Signature(s), nil
}
