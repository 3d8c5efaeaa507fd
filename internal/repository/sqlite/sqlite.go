// Package sqlite implements the repository interfaces on top of SQLite.
//
// modernc.org/sqlite is a pure Go build of SQLite, so the binary needs no C
// toolchain. Queries go through sqlx, which scans rows straight into the
// `db:"..."` tagged model structs. The schema lives in migrations/ and is
// applied with goose when the database is opened.
//
// WHY MIGRATIONS INSTEAD OF CREATING TABLES AT STARTUP?
// A startup "CREATE TABLE IF NOT EXISTS" only covers the first version of a
// table. Once a column is added, an old database silently keeps the old shape. goose records the
// applied version in goose_db_version and runs only the missing files, so
// every database ends up at the same schema no matter how old it was.
//
// One DB owns the connection pool; Users, Posts and Sessions hand out the
// per-table stores that share it.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	sqlitedrv "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB wraps the connection pool.
type DB struct {
	conn *sqlx.DB
}

// New opens the database at dbPath and brings the schema up to date.
//
// dbPath examples:
//   - "data/blog.db" → file-based database
//   - ":memory:"     → in-memory database, used by the tests
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite serialises writers anyway, and an in-memory database only exists
	// on the connection that created it.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	if err := Migrate(context.Background(), conn); err != nil {
		conn.Close()
		return nil, err
	}

	// sqlx only uses the driver name to pick the bind style; "sqlite3" means "?".
	return &DB{conn: sqlx.NewDb(conn, "sqlite3")}, nil
}

// Migrate applies every pending migration from the embedded migrations/ directory.
func Migrate(ctx context.Context, conn *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("sqlite: selecting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, conn, "migrations"); err != nil {
		return fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return nil
}

// SchemaVersion returns the version of the newest applied migration.
func (db *DB) SchemaVersion(ctx context.Context) (int64, error) {
	v, err := goose.GetDBVersionContext(ctx, db.conn.DB)
	if err != nil {
		return 0, fmt.Errorf("sqlite: reading schema version: %w", err)
	}
	return v, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Users returns the credential store.
func (db *DB) Users() *UserStore {
	return &UserStore{db: db.conn}
}

// Posts returns the post store.
func (db *DB) Posts() *PostStore {
	return &PostStore{db: db.conn}
}

// Sessions returns the server-side session store.
func (db *DB) Sessions() *SessionStore {
	return &SessionStore{db: db.conn}
}

// isUniqueViolation reports whether err is SQLite refusing a duplicate value
// in a UNIQUE column.
func isUniqueViolation(err error) bool {
	var se *sqlitedrv.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlitelib.SQLITE_CONSTRAINT_UNIQUE
}
