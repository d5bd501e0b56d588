package directory

import (
	"fmt"
	"log"
	"time"
)

// currentSchemaVersion is the current database schema version.
// Increment this when making schema changes and add migration logic.
const currentSchemaVersion = 1

// initSchema creates the required tables if they don't exist.
// Uses IF NOT EXISTS to make the operation idempotent.
func (s *Store) initSchema() error {
	// Schema version table tracks database migrations.
	// This allows future schema changes to be applied incrementally.
	const schemaVersionTable = `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		);
	`

	if _, err := s.db.Exec(schemaVersionTable); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	// Check current version
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("check schema version: %w", err)
	}

	if version < 1 {
		if err := s.migrateToV1(); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}

	return nil
}

// migrateToV1 creates the initial schema: users and devices.
func (s *Store) migrateToV1() error {
	log.Printf("directory: applying migration to schema version 1")

	// Passwords are stored as bcrypt hashes, never plaintext.
	// Timestamps are stored as RFC3339 strings for readability and portability.
	const tables = `
		CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS devices (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL REFERENCES users(username),
			name TEXT NOT NULL,
			external_id TEXT NOT NULL,
			pin INTEGER NOT NULL,
			cached_state TEXT NOT NULL DEFAULT '0'
		);

		-- Devices are almost always queried by owner.
		CREATE INDEX IF NOT EXISTS idx_devices_owner ON devices(owner);
	`

	if _, err := s.db.Exec(tables); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	// Record the migration
	_, err := s.db.Exec(
		"INSERT INTO schema_version (version, applied_at) VALUES (?, ?)",
		1,
		time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record migration: %w", err)
	}

	return nil
}
