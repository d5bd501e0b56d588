// Package directory provides the gateway's view of the external user and
// device directory: who may log in, and which devices each user owns.
//
// The store itself is SQLite; the rest of the gateway consumes it only
// through the Adapter facade (VerifyCredentials, ListDevicesForUser), so the
// backing store can change without touching the router.
package directory

import (
	"errors"
	"fmt"
	"log"
	"sync"

	// SQLite driver - imported for side effects (registers the driver).
	// Using modernc.org/sqlite which is a pure-Go implementation that
	// doesn't require CGO, making cross-compilation and testing easier.
	"database/sql"

	_ "modernc.org/sqlite"
)

// ErrUserNotFound is returned when a username lookup fails.
var ErrUserNotFound = errors.New("user not found")

// ErrUserExists is returned when creating a user that already exists.
var ErrUserExists = errors.New("user already exists")

// Store persists users and device ownership records in SQLite.
// It creates the database and tables on first use and supports concurrent
// access through internal locking.
type Store struct {
	db *sql.DB      // Database connection handle.
	mu sync.RWMutex // Guards all database operations for thread safety.
}

// Open opens or creates a SQLite database at the given path.
// It initializes the schema if the tables don't exist.
// Use ":memory:" for an in-memory database (useful for testing).
func Open(path string) (*Store, error) {
	log.Printf("directory: opening database at %s", path)

	// Foreign keys for referential integrity between devices and users.
	// busy_timeout handles concurrent access from the CLI and a running
	// gateway (e.g. adding a device while serving).
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify the connection is working.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	log.Printf("directory: database ready (schema version %d)", currentSchemaVersion)
	return store, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	log.Printf("directory: closing database")
	return s.db.Close()
}
