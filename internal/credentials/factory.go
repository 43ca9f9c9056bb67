package credentials

import (
	"context"
	"fmt"

	"paysign/internal/config"
	"paysign/internal/crypto"
)

// Open builds the store selected by CREDENTIAL_STORE. When
// CONFIG_ENCRYPTION_KEY is set, secrets are sealed at rest.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	var sealer crypto.Sealer = crypto.PlainSealer{}
	if cfg.EncryptionKey != "" {
		s, err := crypto.NewSecretSealer(cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		sealer = s
	}

	switch cfg.CredentialStore {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return OpenSQLite(ctx, cfg.DatabasePath, sealer)
	case "postgres", "postgresql":
		return OpenPostgres(ctx, cfg.PostgresDSN(), sealer)
	case "redis":
		return NewRedisStore(ctx, RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDBNumber(),
			PoolSize: cfg.RedisPoolSizeNumber(),
		}, sealer)
	default:
		return nil, fmt.Errorf("credentials: unsupported store %q", cfg.CredentialStore)
	}
}
