package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tharunaditya/certserver/internal/auth"
	"github.com/tharunaditya/certserver/internal/models"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Manage audit logs",
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete audit logs older than the configured retention",
	RunE:  pruneAuditLogs,
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin credentials",
}

var hashTokenCmd = &cobra.Command{
	Use:   "hash-token",
	Short: "Hash an admin token for admin.token_hash",
	RunE:  hashToken,
}

var totpSecretCmd = &cobra.Command{
	Use:   "totp-secret",
	Short: "Generate a TOTP secret for admin.totp_secret",
	RunE:  totpSecret,
}

var (
	adminToken  string
	account     string
	pruneDryRun bool
)

func init() {
	auditPruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "Only report what would be deleted")

	hashTokenCmd.Flags().StringVarP(&adminToken, "token", "t", "", "Admin token to hash (generated when empty)")
	totpSecretCmd.Flags().StringVarP(&account, "account", "a", "admin", "Account name shown in the authenticator app")

	auditCmd.AddCommand(auditPruneCmd)
	adminCmd.AddCommand(hashTokenCmd)
	adminCmd.AddCommand(totpSecretCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(adminCmd)
}

func pruneAuditLogs(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	_, _, auditRepo := newService()
	retention := cfg.GetAuditRetentionDuration()
	before := time.Now().Add(-retention)

	if pruneDryRun {
		fmt.Printf("Would delete audit logs older than %s\n", before.UTC().Format(time.RFC3339))
		return nil
	}

	deleted, err := auditRepo.DeleteOld(before)
	if err != nil {
		return fmt.Errorf("failed to prune audit logs: %w", err)
	}

	if err := auditRepo.Create(&models.AuditLog{
		Action:    models.ActionAuditPrune,
		ClientIP:  "local",
		UserAgent: "certctl",
		Success:   true,
		Details:   fmt.Sprintf(`{"deleted":%d,"retention":%q}`, deleted, cfg.Audit.Retention),
	}); err != nil {
		logger.Error().Err(err).Msg("Failed to write audit log")
	}

	fmt.Printf("Deleted %d audit log entries older than %s\n", deleted, cfg.Audit.Retention)
	return nil
}

func hashToken(cmd *cobra.Command, args []string) error {
	token := adminToken
	if token == "" {
		var err error
		token, err = auth.GenerateAdminToken()
		if err != nil {
			return fmt.Errorf("failed to generate admin token: %w", err)
		}
		fmt.Printf("Generated admin token: %s\n", token)
		fmt.Printf("Store it now; only the hash goes into the config.\n\n")
	}

	hash, err := auth.HashAdminToken(token)
	if err != nil {
		return fmt.Errorf("failed to hash admin token: %w", err)
	}

	fmt.Printf("admin:\n  token_hash: %q\n", hash)
	return nil
}

func totpSecret(cmd *cobra.Command, args []string) error {
	secret, url, err := auth.GenerateTOTPSecret(account)
	if err != nil {
		return fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	fmt.Printf("TOTP Secret: %s\n", secret)
	fmt.Printf("TOTP QR URL: %s\n", url)
	fmt.Printf("\nAdd to the config as admin.totp_secret and scan the URL with a TOTP app.\n")
	return nil
}
