package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/hammamikhairi/ottointake/internal/domain"
	"github.com/hammamikhairi/ottointake/internal/logger"
)

var _ domain.KVStore = (*SQLStore)(nil)

// Dialect holds the SQL differences between the supported databases.
type Dialect struct {
	Name     string
	Driver   string
	BlobType string
	TimeType string
	Numbered bool // $1 placeholders instead of ?
}

// Supported dialects.
var (
	SQLite   = Dialect{Name: "sqlite", Driver: "sqlite", BlobType: "BLOB", TimeType: "DATETIME"}
	Postgres = Dialect{Name: "postgres", Driver: "postgres", BlobType: "BYTEA", TimeType: "TIMESTAMPTZ", Numbered: true}
)

// bind rewrites ? placeholders for dialects that number them.
func (d Dialect) bind(query string) string {
	if !d.Numbered {
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

// SQLStore keeps values in a single intake_kv table.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	log     *logger.Logger
	now     func() time.Time
}

// NewSQLStore wraps an open database and creates the table if needed.
func NewSQLStore(ctx context.Context, db *sql.DB, dialect Dialect, log *logger.Logger) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: dialect, log: log, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("storage: migrating %s: %w", dialect.Name, err)
	}
	return s, nil
}

// OpenSQLite opens (or creates) a SQLite database file. ":memory:" gives
// a private in-memory database.
func OpenSQLite(ctx context.Context, path string, log *logger.Logger) (*SQLStore, error) {
	db, err := sql.Open(SQLite.Driver, path)
	if err != nil {
		return nil, fmt.Errorf("storage: opening sqlite %s: %w", path, err)
	}
	// SQLite serialises writers; one connection also keeps :memory: alive.
	db.SetMaxOpenConns(1)
	s, err := NewSQLStore(ctx, db, SQLite, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// OpenPostgres connects to Postgres with a lib/pq DSN.
func OpenPostgres(ctx context.Context, dsn string, log *logger.Logger) (*SQLStore, error) {
	db, err := sql.Open(Postgres.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: connecting to postgres: %w", err)
	}
	s, err := NewSQLStore(ctx, db, Postgres, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS intake_kv (
		key TEXT PRIMARY KEY,
		value %s NOT NULL,
		updated_at %s NOT NULL
	)`, s.dialect.BlobType, s.dialect.TimeType)
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Get returns the value stored under key.
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, s.dialect.bind(`SELECT value FROM intake_kv WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: reading %s: %w", key, err)
	}
	return value, nil
}

// Set upserts value under key.
func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	query := s.dialect.bind(`INSERT INTO intake_kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, query, key, value, s.now().UTC()); err != nil {
		return fmt.Errorf("storage: writing %s: %w", key, err)
	}
	s.log.Debug("%s: set %s (%d bytes)", s.dialect.Name, key, len(value))
	return nil
}

// Remove deletes key. Returns domain.ErrNotFound if it was not there.
func (s *SQLStore) Remove(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, s.dialect.bind(`DELETE FROM intake_kv WHERE key = ?`), key)
	if err != nil {
		return fmt.Errorf("storage: removing %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: removing %s: %w", key, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	s.log.Debug("%s: removed %s", s.dialect.Name, key)
	return nil
}

// Close closes the database.
func (s *SQLStore) Close() error { return s.db.Close() }
