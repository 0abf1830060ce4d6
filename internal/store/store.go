package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/autopar/internal/ir"
)

//go:embed schema.sql
var schemaSQL string

// metaProgramName is the meta key holding the profiled program's name.
const metaProgramName = "program_name"

// SchemaVersionError reports a profile database written by an incompatible
// collector.
type SchemaVersionError struct {
	Found, Want int
}

// Error implements the error interface.
func (e *SchemaVersionError) Error() string {
	return fmt.Sprintf("profile database schema version %d, this build reads %d", e.Found, e.Want)
}

// IsSchemaVersion reports whether err is a SchemaVersionError.
func IsSchemaVersion(err error) bool {
	var se *SchemaVersionError
	return errors.As(err, &se)
}

// Store provides access to one collector profile database.
type Store struct {
	db *sql.DB
}

// Open opens an existing profile database and verifies its schema version.
// The file must already exist; the advisor never creates profile databases
// implicitly.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("profile database: %w", err)
	}

	db, err := open(path)
	if err != nil {
		return nil, err
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		db.Close()
		return nil, fmt.Errorf("read schema version: %w", err)
	}
	if version != ir.ProfileSchemaVersion {
		db.Close()
		return nil, &SchemaVersionError{Found: version, Want: ir.ProfileSchemaVersion}
	}

	return &Store{db: db}, nil
}

// Init creates a new profile database with the current schema, for the
// collector toolchain and test fixtures. Fails if reapplied to a database
// from a different schema version.
func Init(path string) (*Store, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		db.Close()
		return nil, fmt.Errorf("read schema version: %w", err)
	}
	if version != 0 && version != ir.ProfileSchemaVersion {
		db.Close()
		return nil, &SchemaVersionError{Found: version, Want: ir.ProfileSchemaVersion}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", ir.ProfileSchemaVersion)); err != nil {
		db.Close()
		return nil, fmt.Errorf("set schema version: %w", err)
	}

	return &Store{db: db}, nil
}

func open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open profile database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect profile database: %w", err)
	}

	// SQLite supports one writer at a time; a single pooled connection
	// avoids SQLITE_BUSY surprises.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("apply pragma %q: %w", p, err)
		}
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
