package db

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the schema version written by RunMigrations
const SchemaVersion = 1

// RunMigrations creates the schema on a fresh database and checks the
// version of an existing one
func RunMigrations(db *DB) error {
	var tableExists bool
	err := db.QueryRow(`
		SELECT COUNT(*) > 0
		FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("failed to check schema_version table: %w", err)
	}

	if !tableExists {
		if err := initializeSchema(db); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
		return nil
	}

	var currentVersion int
	err = db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	if currentVersion < 1 || currentVersion > SchemaVersion {
		return fmt.Errorf("unsupported schema version: %d", currentVersion)
	}

	return nil
}

// initializeSchema creates all tables for a new database
func initializeSchema(db *DB) error {
	tx, err := db.BeginTx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		schemaVersionTable,
		certificatesTable,
		certificatesIndexes,
		auditLogsTable,
		auditLogsIndexes,
	} {
		if err := execSQL(tx, stmt); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, SchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}

// execSQL executes a SQL statement
func execSQL(tx *sql.Tx, query string) error {
	_, err := tx.Exec(query)
	return err
}

// Schema definitions
const (
	schemaVersionTable = `
CREATE TABLE schema_version (
    version INTEGER NOT NULL,
    applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

	certificatesTable = `
CREATE TABLE certificates (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    credential_id   TEXT NOT NULL UNIQUE,
    name            TEXT NOT NULL,
    series          TEXT NOT NULL,
    date            TEXT NOT NULL,
    timestamp       INTEGER NOT NULL,
    parts_completed INTEGER NOT NULL,
    badge_url       TEXT,
    client_ip       TEXT,
    saved_at        DATETIME NOT NULL
)`

	certificatesIndexes = `
CREATE INDEX idx_certs_name ON certificates(name);
CREATE INDEX idx_certs_series ON certificates(series);
CREATE INDEX idx_certs_saved_at ON certificates(saved_at)`

	auditLogsTable = `
CREATE TABLE audit_logs (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp     DATETIME NOT NULL,
    action        TEXT NOT NULL,
    credential_id TEXT,
    client_ip     TEXT NOT NULL,
    user_agent    TEXT,
    success       INTEGER NOT NULL,
    error_msg     TEXT,
    details       TEXT
)`

	auditLogsIndexes = `
CREATE INDEX idx_audit_timestamp ON audit_logs(timestamp);
CREATE INDEX idx_audit_action ON audit_logs(action);
CREATE INDEX idx_audit_success ON audit_logs(success)`
)
