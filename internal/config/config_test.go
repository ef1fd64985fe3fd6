package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.Env != "dev" {
		t.Errorf("expected default env dev, got %q", cfg.Env)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("expected default request timeout 30s, got %s", cfg.RequestTimeout)
	}
	if cfg.MaxUploadSizeMB != 20 {
		t.Errorf("expected default max upload 20MB, got %d", cfg.MaxUploadSizeMB)
	}
}
