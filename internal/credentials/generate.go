package credentials

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"paysign/internal/signing"
)

const (
	apiKeyPrefix = "pk_"
	secretBytes  = 32
)

// Generate creates a fresh credential pair: a "pk_" api key built from a
// random UUID and a 32-byte hex secret from crypto/rand.
func Generate() (signing.Credentials, error) {
	raw := make([]byte, secretBytes)
	if _, err := rand.Read(raw); err != nil {
		return signing.Credentials{}, fmt.Errorf("credentials: generate secret: %w", err)
	}

	return signing.Credentials{
		APIKey:    apiKeyPrefix + strings.ReplaceAll(uuid.NewString(), "-", ""),
		SecretKey: hex.EncodeToString(raw),
	}, nil
}
