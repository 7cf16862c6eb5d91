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

	if cfg.Cache.DegradationPolicy != "lenient" {
		t.Fatalf("expected lenient degradation by default, got %q", cfg.Cache.DegradationPolicy)
	}
	if cfg.Cache.RoleMapTTL != 5*time.Minute {
		t.Fatalf("expected 5m role map TTL, got %v", cfg.Cache.RoleMapTTL)
	}
	if cfg.Cache.RestrictionTTL != 10*time.Second {
		t.Fatalf("expected 10s restriction TTL, got %v", cfg.Cache.RestrictionTTL)
	}
	if cfg.Cache.RefreshTimeout != 2*time.Second {
		t.Fatalf("expected 2s refresh timeout, got %v", cfg.Cache.RefreshTimeout)
	}
	if cfg.Telemetry.ServiceName != "admin-access" {
		t.Fatalf("expected default service name, got %q", cfg.Telemetry.ServiceName)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RBAC_CACHE_DEGRADATION_POLICY", "strict")
	t.Setenv("RBAC_CACHE_REFRESH_TIMEOUT", "500ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Cache.DegradationPolicy != "strict" {
		t.Fatalf("expected the env override to apply, got %q", cfg.Cache.DegradationPolicy)
	}
	if cfg.Cache.RefreshTimeout != 500*time.Millisecond {
		t.Fatalf("expected 500ms refresh timeout, got %v", cfg.Cache.RefreshTimeout)
	}
}
