package infra

import "testing"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/app")
	t.Setenv("GEMINI_API_KEY", "test-key")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port default: got %q", cfg.Port)
	}
	if cfg.QuotaMode != QuotaFailOpen {
		t.Errorf("quota mode default: got %q", cfg.QuotaMode)
	}
	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Errorf("model default: got %q", cfg.GeminiModel)
	}
	if cfg.DefaultLocale != "en" {
		t.Errorf("locale default: got %q", cfg.DefaultLocale)
	}
	if cfg.DBMaxConns != 16 {
		t.Errorf("db max conns default: got %d", cfg.DBMaxConns)
	}
}

func TestLoadConfigRequiredVars(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GEMINI_API_KEY", "k")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("missing DATABASE_URL should fail")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/app")
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("missing GEMINI_API_KEY should fail")
	}
}

func TestLoadConfigQuotaMode(t *testing.T) {
	setRequiredEnv(t)

	t.Setenv("QUOTA_ENFORCEMENT_MODE", "strict")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.QuotaMode != QuotaStrict {
		t.Errorf("got %q", cfg.QuotaMode)
	}

	t.Setenv("QUOTA_ENFORCEMENT_MODE", "sometimes")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("invalid quota mode should fail")
	}
}

func TestLoadConfigOrigins(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
}
