package credentials

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"paysign/internal/crypto"
	"paysign/internal/signing"
)

// Dialect selects driver name and placeholder style for SQLStore.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "pgx"
)

const createTable = `CREATE TABLE IF NOT EXISTS api_credentials (
	api_key    TEXT PRIMARY KEY,
	secret_key TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
)`

// SQLStore keeps credentials in an api_credentials table.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	sealer  crypto.Sealer
}

// NewSQLStore wraps an open database. A nil sealer stores plaintext.
func NewSQLStore(db *sql.DB, dialect Dialect, sealer crypto.Sealer) *SQLStore {
	if sealer == nil {
		sealer = crypto.PlainSealer{}
	}
	return &SQLStore{db: db, dialect: dialect, sealer: sealer}
}

// OpenSQLite opens (creating if needed) a SQLite database at path and
// migrates it.
func OpenSQLite(ctx context.Context, path string, sealer crypto.Sealer) (*SQLStore, error) {
	if path == "" {
		return nil, fmt.Errorf("credentials: sqlite path is required")
	}

	db, err := sql.Open(string(DialectSQLite), path)
	if err != nil {
		return nil, fmt.Errorf("credentials: open sqlite: %w", err)
	}
	if path == ":memory:" {
		// each connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	return open(ctx, db, DialectSQLite, sealer)
}

// OpenPostgres connects through the pgx stdlib driver and migrates.
func OpenPostgres(ctx context.Context, dsn string, sealer crypto.Sealer) (*SQLStore, error) {
	db, err := sql.Open(string(DialectPostgres), dsn)
	if err != nil {
		return nil, fmt.Errorf("credentials: open postgres: %w", err)
	}
	return open(ctx, db, DialectPostgres, sealer)
}

func open(ctx context.Context, db *sql.DB, dialect Dialect, sealer crypto.Sealer) (*SQLStore, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("credentials: ping %s: %w", dialect, err)
	}

	store := NewSQLStore(db, dialect, sealer)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Migrate creates the credentials table if it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("credentials: migrate: %w", err)
	}
	return nil
}

func (s *SQLStore) Lookup(ctx context.Context, apiKey string) (string, error) {
	var stored string
	err := s.db.QueryRowContext(ctx, s.bind("SELECT secret_key FROM api_credentials WHERE api_key = ?"), apiKey).Scan(&stored)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("credentials: lookup: %w", err)
	}
	return s.sealer.Open(stored)
}

func (s *SQLStore) Put(ctx context.Context, creds signing.Credentials) error {
	if err := validate(creds); err != nil {
		return err
	}

	sealed, err := s.sealer.Seal(creds.SecretKey)
	if err != nil {
		return err
	}

	query := s.bind(`INSERT INTO api_credentials (api_key, secret_key, created_at) VALUES (?, ?, ?)
ON CONFLICT (api_key) DO UPDATE SET secret_key = excluded.secret_key`)
	if _, err := s.db.ExecContext(ctx, query, creds.APIKey, sealed, time.Now().UTC()); err != nil {
		return fmt.Errorf("credentials: put: %w", err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, apiKey string) error {
	res, err := s.db.ExecContext(ctx, s.bind("DELETE FROM api_credentials WHERE api_key = ?"), apiKey)
	if err != nil {
		return fmt.Errorf("credentials: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("credentials: delete: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Health pings the database.
func (s *SQLStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// bind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) bind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
