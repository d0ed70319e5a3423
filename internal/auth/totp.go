package auth

import (
	"fmt"

	"github.com/pquerna/otp/totp"
)

const (
	totpIssuer = "certserver"
)

// GenerateTOTPSecret generates a TOTP secret for the admin account and
// returns it with its otpauth:// provisioning URL
func GenerateTOTPSecret(account string) (secret, url string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: account,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	return key.Secret(), key.URL(), nil
}

// ValidateTOTP validates a TOTP code against a secret.
// totp.Validate allows one period of clock skew either side.
func ValidateTOTP(secret, code string) bool {
	if secret == "" || code == "" {
		return false
	}
	return totp.Validate(code, secret)
}
