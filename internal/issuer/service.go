package issuer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tharunaditya/certserver/internal/config"
	"github.com/tharunaditya/certserver/internal/credential"
	"github.com/tharunaditya/certserver/internal/db/repository"
	"github.com/tharunaditya/certserver/internal/metrics"
	"github.com/tharunaditya/certserver/internal/models"
	"github.com/tharunaditya/certserver/internal/policy"
	"github.com/tharunaditya/certserver/internal/render"
)

// maxAuditedTokenLength caps how much of a rejected token lands in the audit log
const maxAuditedTokenLength = 200

// CertificateStore is the saved certificate cache
type CertificateStore interface {
	Create(cert *models.Certificate) error
	GetByCredentialID(credentialID string) (*models.Certificate, error)
}

// AuditStore records audit entries
type AuditStore interface {
	Create(log *models.AuditLog) error
}

// Request is an issuance request as received from a form or the CLI
type Request struct {
	Name           string
	Series         string
	Date           string
	PartsCompleted int
	ClientIP       string
	UserAgent      string
}

// Client identifies the caller of a verification for the audit log
type Client struct {
	IP        string
	UserAgent string
}

// Service issues, verifies and describes certificates
type Service struct {
	config    *config.Config
	validator *policy.Validator
	certs     CertificateStore
	audit     AuditStore
	logger    zerolog.Logger
}

// NewService creates a new issuance service
func NewService(cfg *config.Config, validator *policy.Validator, certs CertificateStore, audit AuditStore, logger zerolog.Logger) *Service {
	return &Service{
		config:    cfg,
		validator: validator,
		certs:     certs,
		audit:     audit,
		logger:    logger,
	}
}

// Issue validates the request, creates its credential token and saves it
func (s *Service) Issue(req Request) (*models.Certificate, error) {
	valid, err := s.validator.ValidateIssueRequest(req.Name, req.Series, req.Date, req.PartsCompleted)
	if err != nil {
		return nil, err
	}

	token, err := credential.GenerateCredentialID(valid.Name, valid.Series, valid.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to generate credential: %w", err)
	}

	// A freshly issued token must verify before it is handed out
	record, err := credential.Decode(token)
	if err != nil {
		return nil, fmt.Errorf("issued credential does not verify: %w", err)
	}

	cert := &models.Certificate{
		CredentialID:   token,
		Name:           record.Name,
		Series:         record.Series,
		Date:           record.Date,
		Timestamp:      record.Timestamp,
		PartsCompleted: valid.PartsCompleted,
		BadgeURL:       valid.BadgeURL,
		ClientIP:       req.ClientIP,
	}

	if err := s.certs.Create(cert); err != nil {
		if !errors.Is(err, repository.ErrCertificateExists) {
			return nil, fmt.Errorf("failed to save certificate: %w", err)
		}
		// Same name, series, date and millisecond: the token is identical
		existing, getErr := s.certs.GetByCredentialID(token)
		if getErr != nil {
			return nil, fmt.Errorf("failed to load saved certificate: %w", getErr)
		}
		return existing, nil
	}

	metrics.CredentialsIssued.Inc()
	s.record(&models.AuditLog{
		Action:       models.ActionCertIssue,
		CredentialID: token,
		ClientIP:     req.ClientIP,
		UserAgent:    req.UserAgent,
		Success:      true,
		Details: details(map[string]any{
			"name":   cert.Name,
			"series": cert.Series,
			"parts":  cert.PartsCompleted,
		}),
	})

	s.logger.Info().
		Str("series", cert.Series).
		Int64("certificate_id", cert.ID).
		Msg("Certificate issued")

	return cert, nil
}

// Verify checks a token and records the outcome
func (s *Service) Verify(token string, client Client) credential.Verification {
	result := credential.VerifyCredential(token)

	entry := &models.AuditLog{
		Action:       models.ActionCertVerify,
		CredentialID: truncate(token, maxAuditedTokenLength),
		ClientIP:     client.IP,
		UserAgent:    client.UserAgent,
		Success:      result.Valid,
		ErrorMsg:     result.Error,
	}

	switch {
	case result.Valid:
		metrics.CredentialsVerified.WithLabelValues(metrics.ResultValid).Inc()
	case result.Error == credential.MessageInvalidHash:
		metrics.CredentialsVerified.WithLabelValues(metrics.ResultInvalidHash).Inc()
	default:
		metrics.CredentialsVerified.WithLabelValues(metrics.ResultInvalidFormat).Inc()
	}

	s.record(entry)
	return result
}

// Describe verifies a token and returns what to draw for it. Saved
// metadata is used when the certificate is cached; otherwise parts and
// badge come from the series catalog.
func (s *Service) Describe(token string) (render.Certificate, error) {
	record, err := credential.Decode(token)
	if err != nil {
		return render.Certificate{}, err
	}

	cert := render.Certificate{
		Name:           record.Name,
		Series:         record.Series,
		Date:           record.Date,
		CredentialID:   token,
		PartsCompleted: s.config.Policy.DefaultParts,
	}

	saved, err := s.certs.GetByCredentialID(token)
	switch {
	case err == nil:
		cert.PartsCompleted = saved.PartsCompleted
		cert.BadgeURL = saved.BadgeURL
	case errors.Is(err, repository.ErrCertificateNotFound):
		if entry, ok := s.config.FindSeries(record.Series); ok {
			if entry.Parts > 0 {
				cert.PartsCompleted = entry.Parts
			}
			cert.BadgeURL = entry.BadgeURL
		}
	default:
		return render.Certificate{}, fmt.Errorf("failed to load saved certificate: %w", err)
	}

	return cert, nil
}

// RecordRender audits a certificate image request
func (s *Service) RecordRender(token string, client Client, renderErr error) {
	entry := &models.AuditLog{
		Action:       models.ActionCertRender,
		CredentialID: truncate(token, maxAuditedTokenLength),
		ClientIP:     client.IP,
		UserAgent:    client.UserAgent,
		Success:      renderErr == nil,
	}
	if renderErr != nil {
		entry.ErrorMsg = renderErr.Error()
	}
	s.record(entry)
}

func (s *Service) record(entry *models.AuditLog) {
	if err := s.audit.Create(entry); err != nil {
		s.logger.Error().Err(err).Str("action", entry.Action).Msg("Failed to write audit log")
	}
}

func details(v map[string]any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
