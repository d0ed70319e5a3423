package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tharunaditya/certserver/internal/db/repository"
	"github.com/tharunaditya/certserver/internal/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// AdminHandler handles administrative operations
type AdminHandler struct {
	certRepo  *repository.CertRepository
	auditRepo *repository.AuditRepository
	logger    zerolog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(certRepo *repository.CertRepository, auditRepo *repository.AuditRepository, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		certRepo:  certRepo,
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// ListCertificates lists saved certificates
// GET /v1/admin/certs?series=...&limit=...
func (h *AdminHandler) ListCertificates(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	certs, err := h.certRepo.List(c.Query("series"), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Error listing certificates")
		RespondError(c, http.StatusInternalServerError, "database_error", "Failed to list certificates")
		return
	}
	if certs == nil {
		certs = []*models.Certificate{}
	}

	RespondSuccess(c, gin.H{"certificates": certs})
}

// ListAuditLogs lists audit log entries
// GET /v1/admin/audit?action=...&limit=...
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	logs, err := h.auditRepo.List(c.Query("action"), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Error listing audit logs")
		RespondError(c, http.StatusInternalServerError, "database_error", "Failed to list audit logs")
		return
	}
	if logs == nil {
		logs = []*models.AuditLog{}
	}

	RespondSuccess(c, gin.H{"audit_logs": logs})
}

func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultListLimit, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
		return 0, false
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	return limit, true
}
