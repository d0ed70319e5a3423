package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Default returns a configuration with every optional field filled in
func Default() *Config {
	return &Config{
		Server:   ServerConfig{ListenAddr: ":8080"},
		Database: DatabaseConfig{Path: "/var/lib/certserver/certserver.db"},
		Certificate: CertificateConfig{
			Issuer:       "THARUNADITYA.DEV",
			SignerName:   "Tharunaditya Anuganti",
			SignerTitle:  "Content Creator & Security Researcher",
			VerifyURL:    "tharunaditya.dev/verify",
			BadgeTimeout: "5s",
		},
		Policy: PolicyConfig{
			MaxNameLength:   100,
			MaxSeriesLength: 200,
			MaxCertsPerDay:  10,
			DefaultParts:    5,
		},
		Audit:   AuditConfig{Retention: "90d"},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load loads configuration from a YAML file on top of Default
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadWithEnv loads configuration from a file and applies environment variable overrides
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	// Apply environment variable overrides
	if dbPath := os.Getenv("CERTSERVER_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	if listenAddr := os.Getenv("CERTSERVER_LISTEN_ADDR"); listenAddr != "" {
		cfg.Server.ListenAddr = listenAddr
	}

	if tokenHash := os.Getenv("CERTSERVER_ADMIN_TOKEN_HASH"); tokenHash != "" {
		cfg.Admin.TokenHash = tokenHash
	}

	if totpSecret := os.Getenv("CERTSERVER_ADMIN_TOTP_SECRET"); totpSecret != "" {
		cfg.Admin.TOTPSecret = totpSecret
	}

	if level := os.Getenv("CERTSERVER_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	if maxCerts := os.Getenv("CERTSERVER_MAX_CERTS_PER_DAY"); maxCerts != "" {
		n, err := strconv.Atoi(maxCerts)
		if err != nil {
			return nil, fmt.Errorf("CERTSERVER_MAX_CERTS_PER_DAY is invalid: %w", err)
		}
		cfg.Policy.MaxCertsPerDay = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
