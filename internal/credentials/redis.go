package credentials

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"paysign/internal/crypto"
	"paysign/internal/signing"
)

const defaultRedisPrefix = "paysign:credentials:"

// RedisConfig configures RedisStore.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	PoolSize int
	// Prefix namespaces keys. Defaults to "paysign:credentials:".
	Prefix string
}

// RedisStore keeps one string key per api key.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	sealer crypto.Sealer
}

// NewRedisStore connects and pings the server. A nil sealer stores plaintext.
func NewRedisStore(ctx context.Context, config RedisConfig, sealer crypto.Sealer) (*RedisStore, error) {
	if config.Address == "" {
		config.Address = "localhost:6379"
	}
	if config.PoolSize == 0 {
		config.PoolSize = 10
	}
	if config.Prefix == "" {
		config.Prefix = defaultRedisPrefix
	}
	if sealer == nil {
		sealer = crypto.PlainSealer{}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("credentials: connect to redis: %w", err)
	}

	return &RedisStore{rdb: rdb, prefix: config.Prefix, sealer: sealer}, nil
}

func (s *RedisStore) key(apiKey string) string {
	return s.prefix + apiKey
}

func (s *RedisStore) Lookup(ctx context.Context, apiKey string) (string, error) {
	stored, err := s.rdb.Get(ctx, s.key(apiKey)).Result()
	if stderrors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("credentials: lookup: %w", err)
	}
	return s.sealer.Open(stored)
}

func (s *RedisStore) Put(ctx context.Context, creds signing.Credentials) error {
	if err := validate(creds); err != nil {
		return err
	}

	sealed, err := s.sealer.Seal(creds.SecretKey)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.key(creds.APIKey), sealed, 0).Err(); err != nil {
		return fmt.Errorf("credentials: put: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, apiKey string) error {
	n, err := s.rdb.Del(ctx, s.key(apiKey)).Result()
	if err != nil {
		return fmt.Errorf("credentials: delete: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Health pings the server.
func (s *RedisStore) Health(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
