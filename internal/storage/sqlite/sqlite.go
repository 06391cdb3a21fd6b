// Package sqlite implements the structured storage backend over embedded
// SQLite.
//
// The database runs fully embedded via ncruces/go-sqlite3 with WAL mode for
// concurrent readers. One table exists per record kind, created from the
// schema registry's definitions; the on-disk schema version lives in
// PRAGMA user_version and is upgraded in place when older than
// schema.Version.
//
// Opening walks a small state machine:
//
//	Closed -> Opening -> SchemaCheck -> (Upgrading) -> Ready
//
// Any failure along the way leaves the backend in the terminal Failed state.
// The Facade treats a Failed open as "engine unavailable" and falls back to
// the flat backend for the rest of the session.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/caketrack/caketrack/internal/schema"
	"github.com/caketrack/caketrack/internal/storage"
)

// State tracks the backend's position in the initialization state machine.
type State int

const (
	// StateClosed means no connection has been opened yet.
	StateClosed State = iota
	// StateOpening means the engine connection is being established.
	StateOpening
	// StateSchemaCheck means the on-disk version is being compared against
	// schema.Version.
	StateSchemaCheck
	// StateUpgrading means missing tables/indexes are being created for the
	// current version.
	StateUpgrading
	// StateReady means the backend accepts operations.
	StateReady
	// StateFailed is terminal: the engine refused to open or the schema
	// could not be brought to the current version.
	StateFailed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateSchemaCheck:
		return "schema-check"
	case StateUpgrading:
		return "upgrading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DB is the structured backend. It implements storage.Store.
type DB struct {
	conn   *sql.DB
	path   string
	state  State
	logger *log.Logger
}

// Open creates the database connection, checks the on-disk schema version,
// and upgrades the schema if it is older than schema.Version.
//
// The caller MUST call Close() when done. A non-nil error means the backend
// is permanently unavailable for this process; a fresh attempt is made only
// on the next application load.
//
// If logger is nil, a default logger writing to stderr is used.
func Open(path string, logger *log.Logger) (*DB, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[sqlite] ", log.LstdFlags)
	}

	db := &DB{path: path, state: StateClosed, logger: logger}

	db.state = StateOpening
	if err := db.connect(); err != nil {
		db.state = StateFailed
		return nil, err
	}

	db.state = StateSchemaCheck
	if err := db.checkSchema(context.Background()); err != nil {
		db.state = StateFailed
		_ = db.conn.Close()
		db.conn = nil
		return nil, err
	}

	db.state = StateReady
	return db, nil
}

// connect opens the underlying engine connection and applies pragmas.
func (db *DB) connect() error {
	dir := filepath.Dir(db.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", db.path))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db.conn = conn

	// WAL for concurrent readers during writes
	if _, err := db.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.conn.Close()
		db.conn = nil
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.conn.Close()
		db.conn = nil
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return nil
}

// checkSchema compares the on-disk version against schema.Version and runs
// the upgrade when the on-disk copy is older. A newer on-disk version means
// another context already upgraded past this binary; opening would risk data
// loss, so it fails.
func (db *DB) checkSchema(ctx context.Context) error {
	var onDisk int
	if err := db.conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&onDisk); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	switch {
	case onDisk == schema.Version:
		return nil
	case onDisk > schema.Version:
		return fmt.Errorf("on-disk schema version %d is newer than supported version %d", onDisk, schema.Version)
	}

	db.state = StateUpgrading
	if onDisk > 0 {
		db.logger.Printf("Upgrading schema from version %d to %d", onDisk, schema.Version)
	}

	if err := db.ensureSchema(ctx); err != nil {
		return err
	}

	// PRAGMA does not accept bind parameters.
	if _, err := db.conn.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schema.Version)); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return nil
}

// ensureSchema creates any tables and indexes missing for the current
// version. Safe against a store that already has some but not all kinds:
// every statement is an IF NOT EXISTS.
//
// Index creation failures are logged and ignored. Indexes only speed up the
// two order lookups; the unindexed read path stays correct without them.
func (db *DB) ensureSchema(ctx context.Context) error {
	for _, def := range schema.Definitions() {
		ddl, ok := tableDDL[def.Kind]
		if !ok {
			return fmt.Errorf("no table definition for kind %q", def.Kind)
		}
		if _, err := db.conn.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", def.Kind, err)
		}

		for _, idx := range def.Indexes {
			stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)",
				def.Kind, idx.Field, def.Kind, idx.Field)
			if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
				db.logger.Printf("WARNING: failed to create index on %s(%s), continuing without it: %v",
					def.Kind, idx.Field, err)
			}
		}
	}

	return nil
}

// tableDDL maps each record kind to its table definition. delivery_date is
// the one nullable column: NULL keeps unscheduled orders out of date
// lookups.
var tableDDL = map[schema.Kind]string{
	schema.KindFlavors: `
	CREATE TABLE IF NOT EXISTS flavors (
		name TEXT PRIMARY KEY,
		price_per_kg REAL NOT NULL
	)`,
	schema.KindClients: `
	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT ''
	)`,
	schema.KindOrders: `
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL DEFAULT '',
		weight_kg REAL NOT NULL DEFAULT 0,
		flavor TEXT NOT NULL DEFAULT '',
		filling TEXT NOT NULL DEFAULT '',
		price REAL NOT NULL DEFAULT 0,
		client_id TEXT NOT NULL DEFAULT '',
		client_name TEXT NOT NULL DEFAULT '',
		client_phone TEXT NOT NULL DEFAULT '',
		delivery_date TEXT,
		status TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		decorated INTEGER NOT NULL DEFAULT 0,
		decor_price REAL NOT NULL DEFAULT 0
	)`,
}

// State returns the backend's current lifecycle state.
func (db *DB) State() State {
	return db.state
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// RawDB returns the underlying sql.DB connection, for integration with
// tooling that expects one.
func (db *DB) RawDB() *sql.DB {
	return db.conn
}

// Close closes the database connection after a WAL checkpoint.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		db.logger.Printf("WARNING: failed to checkpoint WAL: %v", err)
	}

	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	db.conn = nil
	db.state = StateClosed
	return nil
}

// engineErr wraps an engine-level fault as a domain transaction failure.
func engineErr(op string, kind schema.Kind, err error) error {
	return fmt.Errorf("%s %s: %w: %w", op, kind, storage.ErrTransactionFailed, err)
}
