package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations_FreshAndRerun(t *testing.T) {
	database, err := New(filepath.Join(t.TempDir(), "nested", "certs.db"))
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, RunMigrations(database))
	require.NoError(t, RunMigrations(database))

	var tables int
	err = database.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name IN ('certificates', 'audit_logs', 'schema_version')
	`).Scan(&tables)
	require.NoError(t, err)
	assert.Equal(t, 3, tables)
}

func TestRunMigrations_UnsupportedVersion(t *testing.T) {
	database, err := New(filepath.Join(t.TempDir(), "certs.db"))
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, RunMigrations(database))
	_, err = database.Exec(`INSERT INTO schema_version (version) VALUES (?)`, SchemaVersion+1)
	require.NoError(t, err)

	err = RunMigrations(database)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported schema version")
}
