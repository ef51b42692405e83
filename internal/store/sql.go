package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect names a supported SQL backend. The value doubles as the
// database/sql driver name.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore implements the Store interface on top of sqlx.
type SQLStore struct {
	db      *sqlx.DB
	dialect Dialect
}

// Open connects to the database described by driver and dsn and runs any
// pending schema migrations. For SQLite it enables WAL mode and foreign keys
// and pins the pool to one connection, which also keeps ":memory:"
// databases alive across calls.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	dialect := Dialect(driver)
	switch dialect {
	case DialectSQLite, DialectPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s db: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)

		// Enable WAL mode for better concurrent read performance.
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling WAL mode: %w", err)
		}

		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling foreign keys: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s db: %w", dialect, err)
	}

	s := &SQLStore{db: db, dialect: dialect}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// NewWithDB wraps an existing connection without running migrations.
func NewWithDB(db *sqlx.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Dialect reports the backend in use.
func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

// Migrate checks the current schema version and applies any outstanding
// migrations in order.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaVersionDDL); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration version.
func (s *SQLStore) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.GetContext(ctx, &version, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// builder returns a squirrel statement builder using the dialect's
// placeholder format.
func (s *SQLStore) builder() sq.StatementBuilderType {
	if s.dialect == DialectPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// withTx runs fn in a transaction, committing on success.
func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// notFound maps sql.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// classify maps driver constraint errors to package sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// boolToInt converts a boolean to 0 or 1 for storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
