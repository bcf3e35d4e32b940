package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/meditrack")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.TaxRate != 0.12 {
		t.Errorf("expected default tax rate 0.12, got %v", cfg.TaxRate)
	}
	if !cfg.IsDev() {
		t.Error("expected development mode by default")
	}
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Error("expected error when DATABASE_URL is missing")
	}
}

func TestValidate_TaxRateBounds(t *testing.T) {
	cfg := &Config{Env: "development", TaxRate: 1.5}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for tax rate >= 1")
	}
	cfg.TaxRate = 0.12
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_ProductionNeedsSecret(t *testing.T) {
	cfg := &Config{Env: "production", TaxRate: 0.12}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for production without AUTH_SECRET")
	}
	cfg.AuthSecret = "s3cret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
