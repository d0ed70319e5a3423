package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tharunaditya/certserver/internal/api/handlers"
	"github.com/tharunaditya/certserver/internal/api/middleware"
	"github.com/tharunaditya/certserver/internal/config"
	"github.com/tharunaditya/certserver/internal/db/repository"
	"github.com/tharunaditya/certserver/internal/issuer"
	"github.com/tharunaditya/certserver/internal/models"
	"github.com/tharunaditya/certserver/internal/render"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	config *config.Config
	http   *http.Server
}

// NewServer creates a new API server
func NewServer(
	cfg *config.Config,
	service *issuer.Service,
	renderer *render.Renderer,
	certRepo *repository.CertRepository,
	auditRepo *repository.AuditRepository,
	logger zerolog.Logger,
) *Server {
	// Set Gin mode
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// X-Forwarded-For is only honoured from configured proxies
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.Error().Err(err).Msg("Invalid trusted proxies; trusting none")
		router.SetTrustedProxies(nil)
	}

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	if cfg.Metrics.Enabled {
		router.Use(middleware.Metrics())
	}

	// Create handlers
	certHandler := handlers.NewCertHandler(service, renderer, logger)
	seriesHandler := handlers.NewSeriesHandler(cfg)
	adminHandler := handlers.NewAdminHandler(certRepo, auditRepo, logger)

	onAuthFailure := func(c *gin.Context, reason string) {
		err := auditRepo.Create(&models.AuditLog{
			Action:    models.ActionAdminAuthFailed,
			ClientIP:  c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
			Success:   false,
			ErrorMsg:  reason,
			Details:   c.Request.URL.Path,
		})
		if err != nil {
			logger.Error().Err(err).Msg("Failed to write audit log")
		}
	}

	// API v1 routes
	v1 := router.Group("/v1")
	{
		v1.GET("/series", seriesHandler.ListSeries)

		// Certificate endpoints
		certs := v1.Group("/certs")
		{
			certs.POST("/issue", certHandler.IssueCertificate)
			certs.POST("/verify", certHandler.VerifyCertificate)
			certs.GET("/verify", certHandler.VerifyCertificateQuery)
			certs.GET("/image.png", certHandler.CertificateImage)
		}

		// Admin endpoints (require admin token)
		admin := v1.Group("/admin")
		admin.Use(middleware.AdminAuth(cfg.Admin.TokenHash, cfg.Admin.TOTPSecret, onAuthFailure))
		{
			admin.GET("/certs", adminHandler.ListCertificates)
			admin.GET("/audit", adminHandler.ListAuditLogs)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	if cfg.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	return &Server{
		router: router,
		config: cfg,
		http: &http.Server{
			Addr:              cfg.Server.ListenAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run starts the HTTP server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Run() error {
	return s.http.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Router returns the underlying Gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}
