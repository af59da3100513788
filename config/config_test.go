package config

import (
	"os"
	"testing"
	"time"
)

func TestEnvOverridesApplyDefaults(t *testing.T) {
	os.Unsetenv("WEB_PORT")
	os.Unsetenv("AUTH_ACCESS_TOKEN_DURATION")

	cfg := &Config{}
	applyEnvOverrides(cfg)

	if cfg.ServerConfig.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.ServerConfig.Port)
	}
	if cfg.AuthConfig.AccessTokenDuration != 12*time.Hour {
		t.Errorf("AccessTokenDuration = %v, want 12h", cfg.AuthConfig.AccessTokenDuration)
	}
	if cfg.DatabaseConfig.Host != "localhost" {
		t.Errorf("DB host = %q, want localhost", cfg.DatabaseConfig.Host)
	}
}

func TestEnvOverridesKeepFileValues(t *testing.T) {
	os.Unsetenv("WEB_PORT")
	os.Unsetenv("AUTH_ACCESS_TOKEN_DURATION")

	cfg := &Config{}
	cfg.ServerConfig.Port = 9090
	cfg.AuthConfig.AccessTokenDuration = 2 * time.Hour
	applyEnvOverrides(cfg)

	if cfg.ServerConfig.Port != 9090 {
		t.Errorf("Port = %d, want file value 9090", cfg.ServerConfig.Port)
	}
	if cfg.AuthConfig.AccessTokenDuration != 2*time.Hour {
		t.Errorf("AccessTokenDuration = %v, want file value 2h", cfg.AuthConfig.AccessTokenDuration)
	}
}

func TestEnvOverridesWin(t *testing.T) {
	t.Setenv("WEB_PORT", "7070")
	t.Setenv("AUTH_ACCESS_TOKEN_DURATION", "45m")

	cfg := &Config{}
	cfg.ServerConfig.Port = 9090
	cfg.AuthConfig.AccessTokenDuration = 2 * time.Hour
	applyEnvOverrides(cfg)

	if cfg.ServerConfig.Port != 7070 {
		t.Errorf("Port = %d, want env value 7070", cfg.ServerConfig.Port)
	}
	if cfg.AuthConfig.AccessTokenDuration != 45*time.Minute {
		t.Errorf("AccessTokenDuration = %v, want env value 45m", cfg.AuthConfig.AccessTokenDuration)
	}
}
