// Package credentials stores provisioned api key / secret key pairs and
// serves the secret lookup the verifier performs on every request.
//
// Secrets are sealed at rest when a crypto.Sealer is configured. Every Store
// is safe for concurrent use.
package credentials

import (
	"context"
	stderrors "errors"

	"paysign/internal/signing"
)

// ErrNotFound is returned by Lookup and Delete for an unprovisioned api key.
var ErrNotFound = stderrors.New("credentials: api key not found")

// Store is a credentials backend.
type Store interface {
	// Lookup returns the secret key for apiKey or ErrNotFound.
	Lookup(ctx context.Context, apiKey string) (string, error)
	// Put provisions or replaces a credential pair.
	Put(ctx context.Context, creds signing.Credentials) error
	// Delete removes apiKey or returns ErrNotFound.
	Delete(ctx context.Context, apiKey string) error
	Close() error
}

// HealthChecker is implemented by stores backed by a remote service.
type HealthChecker interface {
	Health(ctx context.Context) error
}

func validate(creds signing.Credentials) error {
	if creds.APIKey == "" {
		return stderrors.New("credentials: api key is required")
	}
	if creds.SecretKey == "" {
		return stderrors.New("credentials: secret key is required")
	}
	return nil
}
