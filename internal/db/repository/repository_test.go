package repository

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tharunaditya/certserver/internal/db"
	"github.com/tharunaditya/certserver/internal/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "certs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.RunMigrations(database))
	return database.DB
}

func TestCertRepository_CreateAndGet(t *testing.T) {
	repo := NewCertRepository(openTestDB(t))

	cert := &models.Certificate{
		CredentialID:   "1-abc-0000ABCD",
		Name:           "Jane Doe",
		Series:         "Intro to Cryptography",
		Date:           "2024-05-01",
		Timestamp:      1714521600000,
		PartsCompleted: 7,
		BadgeURL:       "https://example.com/badge.png",
		ClientIP:       "10.0.0.1",
	}
	require.NoError(t, repo.Create(cert))
	assert.NotZero(t, cert.ID)
	assert.False(t, cert.SavedAt.IsZero())

	got, err := repo.GetByCredentialID("1-abc-0000ABCD")
	require.NoError(t, err)
	assert.Equal(t, cert.Name, got.Name)
	assert.Equal(t, cert.Series, got.Series)
	assert.Equal(t, cert.Timestamp, got.Timestamp)
	assert.Equal(t, 7, got.PartsCompleted)
	assert.Equal(t, cert.BadgeURL, got.BadgeURL)
	assert.True(t, cert.SavedAt.Equal(got.SavedAt))
}

func TestCertRepository_DuplicateCredential(t *testing.T) {
	repo := NewCertRepository(openTestDB(t))

	first := &models.Certificate{CredentialID: "1-dup-00000000", Name: "A", Series: "S", Date: "2024-01-01", Timestamp: 1, PartsCompleted: 5}
	require.NoError(t, repo.Create(first))

	second := &models.Certificate{CredentialID: "1-dup-00000000", Name: "B", Series: "S", Date: "2024-01-01", Timestamp: 2, PartsCompleted: 5}
	assert.ErrorIs(t, repo.Create(second), ErrCertificateExists)

	got, err := repo.GetByCredentialID("1-dup-00000000")
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)
}

func TestCertRepository_NotFound(t *testing.T) {
	repo := NewCertRepository(openTestDB(t))

	_, err := repo.GetByCredentialID("missing")
	assert.ErrorIs(t, err, ErrCertificateNotFound)
}

func TestCertRepository_ListAndCount(t *testing.T) {
	repo := NewCertRepository(openTestDB(t))
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, c := range []struct {
		name, series string
		at           time.Time
	}{
		{"Jane", "Crypto", base.Add(-48 * time.Hour)},
		{"Jane", "Crypto", base},
		{"Jane", "Networks", base.Add(time.Hour)},
		{"John", "Crypto", base.Add(2 * time.Hour)},
	} {
		require.NoError(t, repo.Create(&models.Certificate{
			CredentialID:   "1-x-" + string(rune('A'+i)),
			Name:           c.name,
			Series:         c.series,
			Date:           "2024-05-01",
			Timestamp:      c.at.UnixMilli(),
			PartsCompleted: 5,
		}))
	}

	all, err := repo.List("", 10)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "John", all[0].Name)

	crypto, err := repo.List("Crypto", 10)
	require.NoError(t, err)
	assert.Len(t, crypto, 3)

	limited, err := repo.List("", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	count, err := repo.CountIssuedSince("Jane", base.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = repo.CountIssuedSince("Nobody", base)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAuditRepository(t *testing.T) {
	repo := NewAuditRepository(openTestDB(t))

	require.NoError(t, repo.Create(&models.AuditLog{Action: models.ActionCertIssue, CredentialID: "1-a-b", ClientIP: "1.1.1.1", Success: true}))
	require.NoError(t, repo.Create(&models.AuditLog{Action: models.ActionCertVerify, ClientIP: "1.1.1.1", Success: false, ErrorMsg: "Invalid credential hash"}))

	logs, err := repo.List("", 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.ActionCertVerify, logs[0].Action)
	assert.False(t, logs[0].Success)
	assert.Equal(t, "Invalid credential hash", logs[0].ErrorMsg)

	issued, err := repo.List(models.ActionCertIssue, 10)
	require.NoError(t, err)
	require.Len(t, issued, 1)
	assert.Equal(t, "1-a-b", issued[0].CredentialID)

	count, err := repo.CountByAction(models.ActionCertIssue, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	deleted, err := repo.DeleteOld(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, deleted)

	deleted, err = repo.DeleteOld(time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}
