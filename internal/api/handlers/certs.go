package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tharunaditya/certserver/internal/credential"
	"github.com/tharunaditya/certserver/internal/issuer"
	"github.com/tharunaditya/certserver/internal/metrics"
	"github.com/tharunaditya/certserver/internal/policy"
	"github.com/tharunaditya/certserver/internal/render"
)

// CertHandler handles certificate issuance, verification and images
type CertHandler struct {
	service  *issuer.Service
	renderer *render.Renderer
	logger   zerolog.Logger
}

// NewCertHandler creates a new certificate handler
func NewCertHandler(service *issuer.Service, renderer *render.Renderer, logger zerolog.Logger) *CertHandler {
	return &CertHandler{
		service:  service,
		renderer: renderer,
		logger:   logger,
	}
}

// IssueRequest represents a certificate issue request
type IssueRequest struct {
	Name           string `json:"name" binding:"required"`
	Series         string `json:"series" binding:"required"`
	Date           string `json:"date"`
	PartsCompleted int    `json:"parts_completed"`
}

// IssueResponse represents a certificate issue response
type IssueResponse struct {
	CredentialID   string `json:"credential_id"`
	Name           string `json:"name"`
	Series         string `json:"series"`
	Date           string `json:"date"`
	Timestamp      int64  `json:"timestamp"`
	PartsCompleted int    `json:"parts_completed"`
	VerifyURL      string `json:"verify_url"`
	ImageURL       string `json:"image_url"`
}

// IssueCertificate handles certificate issuance
// POST /v1/certs/issue
func (h *CertHandler) IssueCertificate(c *gin.Context) {
	var req IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	cert, err := h.service.Issue(issuer.Request{
		Name:           req.Name,
		Series:         req.Series,
		Date:           req.Date,
		PartsCompleted: req.PartsCompleted,
		ClientIP:       c.ClientIP(),
		UserAgent:      c.GetHeader("User-Agent"),
	})
	switch {
	case err == nil:
	case errors.Is(err, policy.ErrDailyLimit):
		RespondError(c, http.StatusTooManyRequests, "rate_limited", err.Error())
		return
	case errors.Is(err, policy.ErrInvalidRequest):
		RespondError(c, http.StatusUnprocessableEntity, "policy_violation", err.Error())
		return
	default:
		h.logger.Error().Err(err).Msg("Error issuing certificate")
		RespondError(c, http.StatusInternalServerError, "internal_error", "Failed to issue certificate")
		return
	}

	query := "?id=" + url.QueryEscape(cert.CredentialID)
	c.JSON(http.StatusOK, IssueResponse{
		CredentialID:   cert.CredentialID,
		Name:           cert.Name,
		Series:         cert.Series,
		Date:           cert.Date,
		Timestamp:      cert.Timestamp,
		PartsCompleted: cert.PartsCompleted,
		VerifyURL:      h.renderer.VerificationLink(cert.CredentialID),
		ImageURL:       "/v1/certs/image.png" + query,
	})
}

// VerifyRequest represents a verification request
type VerifyRequest struct {
	CredentialID string `json:"credential_id" binding:"required"`
}

// VerifyCertificate verifies a posted credential id. Invalid credentials are
// a normal 200 response with valid=false.
// POST /v1/certs/verify
func (h *CertHandler) VerifyCertificate(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	c.JSON(http.StatusOK, h.service.Verify(req.CredentialID, clientOf(c)))
}

// VerifyCertificateQuery verifies the credential id in the "id" query parameter
// GET /v1/certs/verify?id=...
func (h *CertHandler) VerifyCertificateQuery(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", "Query parameter 'id' is required")
		return
	}

	c.JSON(http.StatusOK, h.service.Verify(id, clientOf(c)))
}

// CertificateImage renders the certificate for a valid credential id as PNG
// GET /v1/certs/image.png?id=...
func (h *CertHandler) CertificateImage(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", "Query parameter 'id' is required")
		return
	}

	client := clientOf(c)

	cert, err := h.service.Describe(id)
	if err != nil {
		if credential.IsInvalid(err) {
			msg := credential.ErrorMessage(err)
			h.service.RecordRender(id, client, errors.New(msg))
			metrics.CertificatesRendered.WithLabelValues("invalid").Inc()
			RespondError(c, http.StatusBadRequest, "invalid_credential", msg)
			return
		}
		h.logger.Error().Err(err).Msg("Error loading certificate")
		RespondError(c, http.StatusInternalServerError, "internal_error", "Failed to load certificate")
		return
	}

	img, err := h.renderer.Render(c.Request.Context(), cert)
	if err != nil {
		h.logger.Error().Err(err).Msg("Error rendering certificate")
		metrics.CertificatesRendered.WithLabelValues("error").Inc()
		RespondError(c, http.StatusInternalServerError, "render_error", "Failed to render certificate")
		return
	}

	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, img); err != nil {
		h.logger.Error().Err(err).Msg("Error encoding certificate")
		metrics.CertificatesRendered.WithLabelValues("error").Inc()
		RespondError(c, http.StatusInternalServerError, "render_error", "Failed to render certificate")
		return
	}

	h.service.RecordRender(id, client, nil)
	metrics.CertificatesRendered.WithLabelValues("ok").Inc()
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func clientOf(c *gin.Context) issuer.Client {
	return issuer.Client{
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
}
