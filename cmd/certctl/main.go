package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tharunaditya/certserver/internal/config"
	"github.com/tharunaditya/certserver/internal/db"
	"github.com/tharunaditya/certserver/internal/db/repository"
	"github.com/tharunaditya/certserver/internal/issuer"
	"github.com/tharunaditya/certserver/internal/logging"
	"github.com/tharunaditya/certserver/internal/policy"
)

var (
	configPath string
	cfg        *config.Config
	database   *db.DB
	logger     zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:          "certctl",
	Short:        "Certificate server administration tool",
	Long:         "Issue, verify and render completion certificates and manage the certificate server",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/certserver/config.yaml", "Config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initDB() error {
	// Load configuration
	var err error
	cfg, err = config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = logging.New(os.Stderr, cfg.Logging, "certctl")
	for _, w := range cfg.Warnings() {
		logger.Warn().Msg(w)
	}

	// Connect to database
	database, err = db.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.RunMigrations(database); err != nil {
		database.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func newService() (*issuer.Service, *repository.CertRepository, *repository.AuditRepository) {
	certRepo := repository.NewCertRepository(database.DB)
	auditRepo := repository.NewAuditRepository(database.DB)
	validator := policy.NewValidator(cfg, certRepo)
	return issuer.NewService(cfg, validator, certRepo, auditRepo, logger), certRepo, auditRepo
}
