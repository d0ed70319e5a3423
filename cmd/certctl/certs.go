package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/tharunaditya/certserver/internal/credential"
	"github.com/tharunaditya/certserver/internal/issuer"
	"github.com/tharunaditya/certserver/internal/render"
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a certificate and print its credential ID",
	RunE:  issueCertificate,
}

var verifyCmd = &cobra.Command{
	Use:   "verify <credential-id>",
	Short: "Verify a credential ID",
	Args:  cobra.ExactArgs(1),
	RunE:  verifyCertificate,
}

var renderCmd = &cobra.Command{
	Use:   "render <credential-id>",
	Short: "Render a certificate to a PNG file",
	Args:  cobra.ExactArgs(1),
	RunE:  renderCertificate,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved certificates",
	RunE:  listCertificates,
}

var (
	name       string
	series     string
	date       string
	parts      int
	outputPath string
	listLimit  int
)

func init() {
	issueCmd.Flags().StringVarP(&name, "name", "n", "", "Recipient name (required)")
	issueCmd.Flags().StringVarP(&series, "series", "s", "", "Series title (required)")
	issueCmd.Flags().StringVarP(&date, "date", "d", "", "Completion date, YYYY-MM-DD (default today)")
	issueCmd.Flags().IntVar(&parts, "parts", 0, "Parts completed (default from series catalog)")
	issueCmd.MarkFlagRequired("name")
	issueCmd.MarkFlagRequired("series")

	renderCmd.Flags().StringVarP(&outputPath, "output", "o", "certificate.png", "Output PNG path")

	listCmd.Flags().StringVarP(&series, "series", "s", "", "Only list this series")
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "Maximum number of certificates")

	rootCmd.AddCommand(issueCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(listCmd)
}

func issueCertificate(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	service, _, _ := newService()
	cert, err := service.Issue(issuer.Request{
		Name:           name,
		Series:         series,
		Date:           date,
		PartsCompleted: parts,
		UserAgent:      "certctl",
	})
	if err != nil {
		return fmt.Errorf("failed to issue certificate: %w", err)
	}

	fmt.Printf("\nCertificate issued successfully!\n")
	fmt.Printf("Name:   %s\n", cert.Name)
	fmt.Printf("Series: %s\n", cert.Series)
	fmt.Printf("Date:   %s\n", cert.Date)
	fmt.Printf("Parts:  %d\n", cert.PartsCompleted)
	fmt.Printf("\nCredential ID: %s\n", cert.CredentialID)

	return nil
}

// verifyCertificate needs no configuration; the check is self-contained
func verifyCertificate(cmd *cobra.Command, args []string) error {
	result := credential.VerifyCredential(args[0])
	if !result.Valid {
		return fmt.Errorf("%s", result.Error)
	}

	fmt.Printf("Valid credential\n")
	fmt.Printf("Name:   %s\n", result.Name)
	fmt.Printf("Series: %s\n", result.Series)
	fmt.Printf("Date:   %s\n", result.Date)
	fmt.Printf("Issued: %d\n", result.Timestamp)

	return nil
}

func renderCertificate(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	service, _, _ := newService()
	cert, err := service.Describe(args[0])
	if err != nil {
		return describeError(err)
	}

	renderer := render.NewRenderer(render.Options{
		Issuer:       cfg.Certificate.Issuer,
		SignerName:   cfg.Certificate.SignerName,
		SignerTitle:  cfg.Certificate.SignerTitle,
		VerifyURL:    cfg.Certificate.VerifyURL,
		BadgeTimeout: cfg.GetBadgeTimeoutDuration(),
	}, &render.HTTPBadgeFetcher{Client: &http.Client{}}, logger)

	img, err := renderer.Render(cmd.Context(), cert)
	if err != nil {
		return fmt.Errorf("failed to render certificate: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := render.EncodePNG(f, img); err != nil {
		return err
	}

	fmt.Printf("Certificate written to %s\n", outputPath)
	return nil
}

// describeError labels token rejections with the message a verifier would see
func describeError(err error) error {
	if credential.IsInvalid(err) {
		return fmt.Errorf("%s: %w", credential.ErrorMessage(err), err)
	}
	return fmt.Errorf("failed to load certificate: %w", err)
}

func listCertificates(cmd *cobra.Command, args []string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.Close()

	_, certRepo, _ := newService()
	certs, err := certRepo.List(series, listLimit)
	if err != nil {
		return fmt.Errorf("failed to list certificates: %w", err)
	}

	if len(certs) == 0 {
		fmt.Println("No certificates found")
		return nil
	}

	fmt.Printf("\nTotal certificates: %d\n\n", len(certs))
	fmt.Printf("%-5s %-24s %-30s %-12s %s\n", "ID", "Name", "Series", "Date", "Saved")
	fmt.Println("--------------------------------------------------------------------------------------------")

	for _, cert := range certs {
		fmt.Printf("%-5d %-24s %-30s %-12s %s\n",
			cert.ID,
			cert.Name,
			cert.Series,
			cert.Date,
			cert.SavedAt.Format("2006-01-02 15:04:05"),
		)
	}

	return nil
}
