package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the homestay service.
type Config struct {
	HTTPPort         int
	SQLiteDSN        string
	JWTSecret        string
	TokenTTL         time.Duration
	CodeTTL          time.Duration
	MailerSendAPIKey string
	MailFromAddress  string
	MailFromName     string
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults; the JWT secret is required so tokens
// never get signed with an accidental empty key. The MailerSend key may be
// empty, in which case sent codes are only written to the log.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:        8080,
		SQLiteDSN:       "file:homestay.db?_foreign_keys=on",
		TokenTTL:        24 * time.Hour,
		CodeTTL:         10 * time.Minute,
		MailFromAddress: "no-reply@homestay.example.com",
		MailFromName:    "Homestay",
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("HOMESTAY_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "HOMESTAY_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("HOMESTAY_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := strings.TrimSpace(os.Getenv("HOMESTAY_JWT_SECRET")); secret == "" {
		missing = append(missing, "HOMESTAY_JWT_SECRET")
	} else {
		cfg.JWTSecret = secret
	}

	if ttlValue := strings.TrimSpace(os.Getenv("HOMESTAY_TOKEN_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "HOMESTAY_TOKEN_TTL")
		} else {
			cfg.TokenTTL = ttl
		}
	}

	if ttlValue := strings.TrimSpace(os.Getenv("HOMESTAY_CODE_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "HOMESTAY_CODE_TTL")
		} else {
			cfg.CodeTTL = ttl
		}
	}

	if apiKey := strings.TrimSpace(os.Getenv("HOMESTAY_MAILERSEND_API_KEY")); apiKey != "" {
		cfg.MailerSendAPIKey = apiKey
	}

	if from := strings.TrimSpace(os.Getenv("HOMESTAY_MAIL_FROM")); from != "" {
		cfg.MailFromAddress = from
	}

	if name := strings.TrimSpace(os.Getenv("HOMESTAY_MAIL_FROM_NAME")); name != "" {
		cfg.MailFromName = name
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
