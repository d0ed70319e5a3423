package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Certificate CertificateConfig `yaml:"certificate"`
	Policy      PolicyConfig      `yaml:"policy"`
	Admin       AdminConfig       `yaml:"admin"`
	Audit       AuditConfig       `yaml:"audit"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// ServerConfig contains server configuration
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	// TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For is believed.
	// Empty means client addresses come from the connection only.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// CertificateConfig contains certificate rendering configuration
type CertificateConfig struct {
	Issuer       string `yaml:"issuer"`
	SignerName   string `yaml:"signer_name"`
	SignerTitle  string `yaml:"signer_title"`
	VerifyURL    string `yaml:"verify_url"`
	BadgeTimeout string `yaml:"badge_timeout"`
}

// SeriesConfig describes one content series a certificate can be issued for
type SeriesConfig struct {
	Name     string `yaml:"name" json:"name"`
	Parts    int    `yaml:"parts" json:"parts"`
	BadgeURL string `yaml:"badge_url" json:"badge_url,omitempty"`
}

// PolicyConfig contains certificate issuance policy
type PolicyConfig struct {
	MaxNameLength   int            `yaml:"max_name_length"`
	MaxSeriesLength int            `yaml:"max_series_length"`
	MaxCertsPerDay  int            `yaml:"max_certs_per_day"`
	DefaultParts    int            `yaml:"default_parts"`
	Series          []SeriesConfig `yaml:"series"`
}

// AdminConfig contains admin configuration
type AdminConfig struct {
	TokenHash  string `yaml:"token_hash"`
	TOTPSecret string `yaml:"totp_secret"`
}

// AuditConfig contains audit log configuration
type AuditConfig struct {
	Retention string `yaml:"retention"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig contains metrics configuration
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	for i, p := range c.Server.TrustedProxies {
		if net.ParseIP(p) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(p); err != nil {
			return fmt.Errorf("server.trusted_proxies[%d] must be an IP or CIDR: %q", i, p)
		}
	}

	// Database validation
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	// Certificate validation
	if c.Certificate.Issuer == "" {
		return fmt.Errorf("certificate.issuer is required")
	}
	if c.Certificate.VerifyURL == "" {
		return fmt.Errorf("certificate.verify_url is required")
	}
	if d, err := time.ParseDuration(c.Certificate.BadgeTimeout); err != nil {
		return fmt.Errorf("certificate.badge_timeout is invalid: %w", err)
	} else if d <= 0 {
		return fmt.Errorf("certificate.badge_timeout must be positive")
	}

	// Policy validation
	if c.Policy.MaxNameLength <= 0 {
		return fmt.Errorf("policy.max_name_length must be positive")
	}
	if c.Policy.MaxSeriesLength <= 0 {
		return fmt.Errorf("policy.max_series_length must be positive")
	}
	if c.Policy.MaxCertsPerDay <= 0 {
		return fmt.Errorf("policy.max_certs_per_day must be positive")
	}
	if c.Policy.DefaultParts <= 0 {
		return fmt.Errorf("policy.default_parts must be positive")
	}
	seen := make(map[string]bool, len(c.Policy.Series))
	for i, s := range c.Policy.Series {
		if s.Name == "" {
			return fmt.Errorf("policy.series[%d].name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("policy.series[%d]: duplicate series %q", i, s.Name)
		}
		seen[s.Name] = true
		if s.Parts < 0 {
			return fmt.Errorf("policy.series[%d].parts must not be negative", i)
		}
	}

	// Admin validation
	if c.Admin.TokenHash == "" {
		return fmt.Errorf("admin.token_hash is required")
	}

	// Audit validation
	if d, err := parseDuration(c.Audit.Retention); err != nil {
		return fmt.Errorf("audit.retention is invalid: %w", err)
	} else if d <= 0 {
		return fmt.Errorf("audit.retention must be positive")
	}

	// Logging validation
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("logging.format must be 'json' or 'text'")
	}

	return nil
}

// Warnings reports settings that load but are probably mistakes
func (c *Config) Warnings() []string {
	var warnings []string
	if !strings.HasPrefix(c.Admin.TokenHash, "$2") {
		warnings = append(warnings, "admin.token_hash does not look like a bcrypt hash; generate one with 'certctl admin hash-token'")
	}
	return warnings
}

// FindSeries returns the configured series with the given name
func (c *Config) FindSeries(name string) (SeriesConfig, bool) {
	for _, s := range c.Policy.Series {
		if s.Name == name {
			return s, true
		}
	}
	return SeriesConfig{}, false
}

// GetBadgeTimeoutDuration returns the badge fetch timeout as time.Duration
func (c *Config) GetBadgeTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Certificate.BadgeTimeout)
	return d
}

// GetAuditRetentionDuration returns the audit retention as time.Duration
func (c *Config) GetAuditRetentionDuration() time.Duration {
	d, _ := parseDuration(c.Audit.Retention)
	return d
}

// parseDuration parses duration with support for days (e.g., "90d")
func parseDuration(s string) (time.Duration, error) {
	// Handle "d" suffix for days
	if len(s) > 1 && s[len(s)-1] == 'd' {
		days, err := strconv.Atoi(s[:len(s)-1])
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
