package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func loadWithRequiredEnv(t *testing.T) *Config {
	t.Helper()
	viper.Reset()
	t.Setenv("BEEPORTAL_ACCOUNT_API__BASE_URL", "https://account.strct.org")
	t.Setenv("BEEPORTAL_KEYCLOAK__URL", "https://auth.strct.org")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return cfg
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg := loadWithRequiredEnv(t)

	if cfg.Server.Port != 8080 {
		t.Fatalf("unexpected default port: %d", cfg.Server.Port)
	}
	if cfg.Devices.Domain != "strct.org" {
		t.Fatalf("unexpected default device domain: %s", cfg.Devices.Domain)
	}
	if cfg.Devices.StatusTimeout != 3*time.Second {
		t.Fatalf("unexpected status timeout: %v", cfg.Devices.StatusTimeout)
	}
	if cfg.NetMonitor.PollInterval != 5*time.Second {
		t.Fatalf("unexpected network poll interval: %v", cfg.NetMonitor.PollInterval)
	}
	if cfg.NetMonitor.WindowSize != 50 {
		t.Fatalf("unexpected history window: %d", cfg.NetMonitor.WindowSize)
	}
	if cfg.NetMonitor.SimulateOnFailure {
		t.Fatalf("simulation fallback must default to off")
	}
	if cfg.Redis.Enabled {
		t.Fatalf("redis cache must default to off")
	}
}

func TestLoadRejectsMissingAccountURL(t *testing.T) {
	viper.Reset()
	t.Setenv("BEEPORTAL_KEYCLOAK__URL", "https://auth.strct.org")

	if _, err := Load(); err == nil {
		t.Fatalf("expected validation error without account base URL")
	}
}

func TestLoadRejectsMissingKeycloakURL(t *testing.T) {
	viper.Reset()
	t.Setenv("BEEPORTAL_ACCOUNT_API__BASE_URL", "https://account.strct.org")

	if _, err := Load(); err == nil {
		t.Fatalf("expected validation error without keycloak URL")
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	viper.Reset()
	t.Setenv("BEEPORTAL_ACCOUNT_API__BASE_URL", "https://account.strct.org")
	t.Setenv("BEEPORTAL_KEYCLOAK__URL", "https://auth.strct.org")
	t.Setenv("BEEPORTAL_DEVICES__DOMAIN", "bees.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Devices.Domain != "bees.example.com" {
		t.Fatalf("expected env override to win, got %s", cfg.Devices.Domain)
	}
}
