package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unset := []string{
			"HOMESTAY_HTTP_PORT",
			"HOMESTAY_SQLITE_DSN",
			"HOMESTAY_TOKEN_TTL",
			"HOMESTAY_CODE_TTL",
			"HOMESTAY_MAILERSEND_API_KEY",
			"HOMESTAY_MAIL_FROM",
			"HOMESTAY_MAIL_FROM_NAME",
		}
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		const secret = "super-secret"
		t.Setenv("HOMESTAY_JWT_SECRET", secret)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:homestay.db?_foreign_keys=on" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.JWTSecret != secret {
			t.Fatalf("expected JWT secret to be %q, got %q", secret, cfg.JWTSecret)
		}
		if cfg.TokenTTL != 24*time.Hour {
			t.Fatalf("expected default token TTL of 24h, got %v", cfg.TokenTTL)
		}
		if cfg.CodeTTL != 10*time.Minute {
			t.Fatalf("expected default code TTL of 10m, got %v", cfg.CodeTTL)
		}
	})

	t.Run("reads overrides from the environment", func(t *testing.T) {
		t.Setenv("HOMESTAY_JWT_SECRET", "secret")
		t.Setenv("HOMESTAY_HTTP_PORT", "9090")
		t.Setenv("HOMESTAY_SQLITE_DSN", "file:other.db")
		t.Setenv("HOMESTAY_TOKEN_TTL", "2h")
		t.Setenv("HOMESTAY_CODE_TTL", "5m")
		t.Setenv("HOMESTAY_MAILERSEND_API_KEY", "msk-123")
		t.Setenv("HOMESTAY_MAIL_FROM", "codes@stay.example.com")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:other.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.TokenTTL != 2*time.Hour {
			t.Fatalf("expected token TTL of 2h, got %v", cfg.TokenTTL)
		}
		if cfg.CodeTTL != 5*time.Minute {
			t.Fatalf("expected code TTL of 5m, got %v", cfg.CodeTTL)
		}
		if cfg.MailerSendAPIKey != "msk-123" {
			t.Fatalf("unexpected API key: %q", cfg.MailerSendAPIKey)
		}
		if cfg.MailFromAddress != "codes@stay.example.com" {
			t.Fatalf("unexpected from address: %q", cfg.MailFromAddress)
		}
	})

	t.Run("fails when the JWT secret is absent", func(t *testing.T) {
		if err := os.Unsetenv("HOMESTAY_JWT_SECRET"); err != nil {
			t.Fatalf("failed to unset secret: %v", err)
		}

		_, err := Load()
		if err == nil {
			t.Fatal("expected an error for the missing secret")
		}
		if !strings.Contains(err.Error(), "HOMESTAY_JWT_SECRET") {
			t.Fatalf("expected the error to name the variable, got %v", err)
		}
	})

	t.Run("rejects malformed durations and ports", func(t *testing.T) {
		t.Setenv("HOMESTAY_JWT_SECRET", "secret")
		t.Setenv("HOMESTAY_HTTP_PORT", "not-a-port")
		t.Setenv("HOMESTAY_TOKEN_TTL", "soon")

		_, err := Load()
		if err == nil {
			t.Fatal("expected an error for invalid values")
		}
		if !strings.Contains(err.Error(), "HOMESTAY_HTTP_PORT") || !strings.Contains(err.Error(), "HOMESTAY_TOKEN_TTL") {
			t.Fatalf("expected the error to name both variables, got %v", err)
		}
	})
}
