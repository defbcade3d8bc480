package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.StoreBackend != "memory" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DefaultDurationMinutes != 30 || cfg.RateLimitPerMin != 120 {
		t.Fatalf("unexpected numeric defaults: %+v", cfg)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "10")
	t.Setenv("CSRF_ENFORCED", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" || cfg.StoreBackend != "postgres" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.RateLimitPerMin != 10 || !cfg.CSRFEnforced {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "http_addr: \":7070\"\ndefault_duration_minutes: 45\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("AITESTLMS_CONFIG_FILE", path)
	t.Setenv("HTTP_ADDR", ":6060")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// File beats defaults, env beats file.
	if cfg.DefaultDurationMinutes != 45 {
		t.Fatalf("file value not applied: %+v", cfg)
	}
	if cfg.HTTPAddr != ":6060" {
		t.Fatalf("env must override the file: %+v", cfg)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("AITESTLMS_CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}

func TestLoadConfigBadNumbersIgnored(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")
	t.Setenv("DEFAULT_DURATION_MINUTES", "-5")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RateLimitPerMin != 120 || cfg.DefaultDurationMinutes != 30 {
		t.Fatalf("invalid numeric env values must keep defaults: %+v", cfg)
	}
}
