package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("POLL_INTERVAL_MS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.BackendBaseURL != "http://localhost:8000" {
		t.Fatalf("BackendBaseURL mismatch: got %q", cfg.BackendBaseURL)
	}
	if cfg.Port != "8090" {
		t.Fatalf("Port mismatch: got %q", cfg.Port)
	}
	if cfg.PollInterval != time.Second {
		t.Fatalf("PollInterval mismatch: got %v", cfg.PollInterval)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("CORSOrigins mismatch: %#v", cfg.CORSOrigins)
	}
}

func TestLoadConfigHonorsPollInterval(t *testing.T) {
	t.Setenv("POLL_INTERVAL_MS", "250")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Fatalf("PollInterval mismatch: got %v", cfg.PollInterval)
	}
}

func TestLoadConfigRejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("POLL_INTERVAL_MS", "-5")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for negative poll interval")
	}
}
