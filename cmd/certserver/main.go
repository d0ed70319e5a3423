package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tharunaditya/certserver/internal/api"
	"github.com/tharunaditya/certserver/internal/config"
	"github.com/tharunaditya/certserver/internal/db"
	"github.com/tharunaditya/certserver/internal/db/repository"
	"github.com/tharunaditya/certserver/internal/issuer"
	"github.com/tharunaditya/certserver/internal/logging"
	"github.com/tharunaditya/certserver/internal/policy"
	"github.com/tharunaditya/certserver/internal/render"
)

var (
	// Version information (set via ldflags)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Parse command line flags
	configPath := flag.String("config", "/etc/certserver/config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Certificate Server\n")
		fmt.Printf("Version:    %s\n", Version)
		fmt.Printf("Commit:     %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logging, "certserver")
	logger.Info().
		Str("version", Version).
		Str("commit", Commit).
		Str("config", *configPath).
		Msg("Starting certificate server")
	for _, w := range cfg.Warnings() {
		logger.Warn().Msg(w)
	}

	// Initialize database
	database, err := db.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("Failed to connect to database")
	}
	defer database.Close()

	if err := db.RunMigrations(database); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Initialize repositories
	certRepo := repository.NewCertRepository(database.DB)
	auditRepo := repository.NewAuditRepository(database.DB)

	validator := policy.NewValidator(cfg, certRepo)
	service := issuer.NewService(cfg, validator, certRepo, auditRepo, logger)
	renderer := render.NewRenderer(render.Options{
		Issuer:       cfg.Certificate.Issuer,
		SignerName:   cfg.Certificate.SignerName,
		SignerTitle:  cfg.Certificate.SignerTitle,
		VerifyURL:    cfg.Certificate.VerifyURL,
		BadgeTimeout: cfg.GetBadgeTimeoutDuration(),
	}, &render.HTTPBadgeFetcher{Client: &http.Client{}}, logger)

	// Create HTTP server
	server := api.NewServer(cfg, service, renderer, certRepo, auditRepo, logger)

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.ListenAddr).Msg("Starting HTTP server")
		if err := server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-quit:
		logger.Info().Msg("Shutting down server")
	case err := <-errCh:
		logger.Error().Err(err).Msg("HTTP server failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}

	logger.Info().Msg("Server stopped")
}
