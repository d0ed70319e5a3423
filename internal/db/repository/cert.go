package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/tharunaditya/certserver/internal/models"
)

var (
	// ErrCertificateNotFound is returned when no certificate has the credential id
	ErrCertificateNotFound = errors.New("certificate not found")
	// ErrCertificateExists is returned when a credential id was already saved
	ErrCertificateExists = errors.New("certificate already saved")
)

// CertRepository is the append-only store of issued certificates
type CertRepository struct {
	db *sql.DB
}

// NewCertRepository creates a new certificate repository
func NewCertRepository(db *sql.DB) *CertRepository {
	return &CertRepository{db: db}
}

// Create saves a certificate under its credential id
func (r *CertRepository) Create(cert *models.Certificate) error {
	query := `
		INSERT INTO certificates (
			credential_id, name, series, date, timestamp,
			parts_completed, badge_url, client_ip, saved_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	savedAt := time.Now().UTC().Truncate(time.Second)

	result, err := r.db.Exec(query,
		cert.CredentialID,
		cert.Name,
		cert.Series,
		cert.Date,
		cert.Timestamp,
		cert.PartsCompleted,
		cert.BadgeURL,
		cert.ClientIP,
		savedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrCertificateExists
		}
		return fmt.Errorf("failed to create certificate: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	cert.ID = id
	cert.SavedAt = savedAt

	return nil
}

const certColumns = `id, credential_id, name, series, date, timestamp,
		       parts_completed, badge_url, client_ip, saved_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row rowScanner) (*models.Certificate, error) {
	cert := &models.Certificate{}
	var badgeURL, clientIP sql.NullString

	err := row.Scan(
		&cert.ID,
		&cert.CredentialID,
		&cert.Name,
		&cert.Series,
		&cert.Date,
		&cert.Timestamp,
		&cert.PartsCompleted,
		&badgeURL,
		&clientIP,
		&cert.SavedAt,
	)
	if err != nil {
		return nil, err
	}

	cert.BadgeURL = badgeURL.String
	cert.ClientIP = clientIP.String
	return cert, nil
}

// GetByCredentialID retrieves a saved certificate by its credential id
func (r *CertRepository) GetByCredentialID(credentialID string) (*models.Certificate, error) {
	query := `SELECT ` + certColumns + ` FROM certificates WHERE credential_id = ?`

	cert, err := scanCertificate(r.db.QueryRow(query, credentialID))
	if err == sql.ErrNoRows {
		return nil, ErrCertificateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}

	return cert, nil
}

// List lists saved certificates, newest first, optionally filtered by series
func (r *CertRepository) List(series string, limit int) ([]*models.Certificate, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + certColumns + ` FROM certificates WHERE 1=1`)
	args := []any{}

	if series != "" {
		b.WriteString(" AND series = ?")
		args = append(args, series)
	}

	b.WriteString(" ORDER BY id DESC LIMIT ?")
	args = append(args, limit)

	rows, err := r.db.Query(b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	defer rows.Close()

	var certs []*models.Certificate
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan certificate: %w", err)
		}
		certs = append(certs, cert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}

	return certs, nil
}

// CountIssuedSince counts certificates issued to name at or after since
func (r *CertRepository) CountIssuedSince(name string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM certificates
		WHERE name = ? AND timestamp >= ?
	`

	var count int
	if err := r.db.QueryRow(query, name, since.UnixMilli()).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count certificates: %w", err)
	}

	return count, nil
}
