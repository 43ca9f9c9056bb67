// Package crypto seals provisioned secret keys at rest.
//
// Secret keys are the HMAC keys of the signing scheme; a store that holds
// them in plaintext leaks every caller's ability to sign. SecretSealer
// encrypts them with AES-256-GCM under a key derived with PBKDF2, and
// prefixes the stored form so plaintext rows written before encryption was
// enabled can still be read.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"paysign/internal/common/errors"
)

const (
	sealedPrefix     = "enc:v1:"
	pbkdf2Iterations = 10000
	keyLength        = 32
)

var derivationSalt = []byte("paysign-credential-seal")

// Sealer encrypts and decrypts secret keys for storage.
type Sealer interface {
	Seal(secret string) (string, error)
	Open(stored string) (string, error)
}

// SecretSealer is an AES-256-GCM Sealer. Safe for concurrent use.
type SecretSealer struct {
	aead cipher.AEAD
}

// NewSecretSealer derives a 32-byte key from passphrase.
func NewSecretSealer(passphrase string) (*SecretSealer, error) {
	if passphrase == "" {
		return nil, errors.ValidationError("encryption key cannot be empty")
	}

	key := pbkdf2.Key([]byte(passphrase), derivationSalt, pbkdf2Iterations, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.InternalError("failed to create cipher", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.InternalError("failed to create GCM", err)
	}

	return &SecretSealer{aead: aead}, nil
}

// Seal encrypts secret with a fresh random nonce.
func (s *SecretSealer) Seal(secret string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.InternalError("failed to create nonce", err)
	}

	ciphertext := s.aead.Seal(nonce, nonce, []byte(secret), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Open decrypts a value produced by Seal. Values without the sealed prefix
// are returned unchanged.
func (s *SecretSealer) Open(stored string) (string, error) {
	if !strings.HasPrefix(stored, sealedPrefix) {
		return stored, nil
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil {
		return "", errors.InternalError("failed to decode sealed secret", err)
	}

	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize {
		return "", errors.ValidationError("sealed secret too short")
	}

	plaintext, err := s.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", errors.InternalError("failed to decrypt sealed secret", err)
	}

	return string(plaintext), nil
}

// PlainSealer stores secrets unchanged. It refuses to open sealed values
// rather than hand back ciphertext as a key.
type PlainSealer struct{}

// Seal returns secret unchanged.
func (PlainSealer) Seal(secret string) (string, error) {
	return secret, nil
}

// Open returns stored unchanged unless it is sealed.
func (PlainSealer) Open(stored string) (string, error) {
	if strings.HasPrefix(stored, sealedPrefix) {
		return "", errors.ConfigError("secret is sealed but no encryption key is configured")
	}
	return stored, nil
}
