package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("REPORT_TIMEZONE", "")
	t.Setenv("TICKET_STRICT_TRANSITIONS", "")
	t.Setenv("AUTH_EXPOSE_RESET_TOKEN", "")
	t.Setenv("APP_ENV", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Postgres.DSN != "" {
		t.Fatalf("expected empty DSN, got %q", cfg.Postgres.DSN)
	}
	if cfg.Tickets.StrictTransitions {
		t.Fatal("strict transitions should default to false")
	}
	if cfg.Report.Location().String() != "UTC" {
		t.Fatalf("expected UTC, got %s", cfg.Report.Location())
	}
	if cfg.Auth.CookieName != "token" {
		t.Fatalf("unexpected cookie name %q", cfg.Auth.CookieName)
	}
	if cfg.App.Env != "development" || cfg.Auth.ExposeResetToken {
		t.Fatal("reset tokens must stay hidden unless AUTH_EXPOSE_RESET_TOKEN is set, even in development")
	}
}

func TestExposeResetTokenIsOptIn(t *testing.T) {
	t.Setenv("AUTH_EXPOSE_RESET_TOKEN", "true")
	t.Setenv("APP_ENV", "development")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Auth.ExposeResetToken {
		t.Fatal("expected reset token exposure when enabled")
	}

	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "a-real-secret")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error when exposing reset tokens in production")
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "TICKET_STRICT_TRANSITIONS=true\nREPORT_TIMEZONE=America/Sao_Paulo\nTICKET_PROTOCOL_START=500\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv does not override variables that are already set.
	for _, key := range []string{"TICKET_STRICT_TRANSITIONS", "REPORT_TIMEZONE", "TICKET_PROTOCOL_START"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Tickets.StrictTransitions {
		t.Fatal("expected strict transitions")
	}
	if cfg.Tickets.ProtocolStart != 500 {
		t.Fatalf("expected protocol start 500, got %d", cfg.Tickets.ProtocolStart)
	}
	if cfg.Report.Location().String() != "America/Sao_Paulo" {
		t.Fatalf("unexpected location %s", cfg.Report.Location())
	}
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("REPORT_TIMEZONE", "Mars/Olympus")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unknown time zone")
	}
}

func TestLoadMissingEnvFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err == nil {
		t.Fatal("expected error for missing env file")
	}
}
