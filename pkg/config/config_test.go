package config

import (
	"os"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.Workers != 8 {
		t.Errorf("Expected workers 8, got %d", cfg.Server.Workers)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Expected shutdown timeout 10s, got %v", cfg.Server.ShutdownTimeout)
	}

	if cfg.Admin.Port != 9091 {
		t.Errorf("Expected admin port 9091, got %d", cfg.Admin.Port)
	}
	if cfg.Admin.RateLimitRPS != 50 {
		t.Errorf("Expected rate limit 50, got %d", cfg.Admin.RateLimitRPS)
	}

	if !cfg.Cache.Enabled {
		t.Error("Expected cache enabled by default")
	}
	if cfg.Cache.Capacity != 1000 {
		t.Errorf("Expected cache capacity 1000, got %d", cfg.Cache.Capacity)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Expected cache TTL 5m, got %v", cfg.Cache.TTL)
	}

	if len(cfg.Sources) != 0 {
		t.Errorf("Expected no sources by default, got %d", len(cfg.Sources))
	}
}

func withEnv(t *testing.T, vars map[string]string, fn func()) {
	t.Helper()
	original := make(map[string]string)
	for k := range vars {
		original[k] = os.Getenv(k)
	}
	for k, v := range vars {
		os.Setenv(k, v)
	}
	defer func() {
		for k, v := range original {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()
	fn()
}

func TestLoadFromEnv(t *testing.T) {
	withEnv(t, map[string]string{
		"GEOKNN_HOST":             "127.0.0.1",
		"GEOKNN_PORT":             "8080",
		"GEOKNN_WORKERS":          "16",
		"GEOKNN_READ_TIMEOUT":     "60s",
		"GEOKNN_ADMIN_HOST":       "127.0.0.1",
		"GEOKNN_ADMIN_PORT":       "8081",
		"GEOKNN_JWT_SECRET":       "s3cr3t",
		"GEOKNN_ADMIN_RATE_LIMIT": "100",
		"GEOKNN_CACHE_ENABLED":    "false",
		"GEOKNN_CACHE_CAPACITY":   "5000",
		"GEOKNN_CACHE_TTL":        "10m",
	}, func() {
		cfg := LoadFromEnv()

		if cfg.Server.Host != "127.0.0.1" {
			t.Errorf("Expected host 127.0.0.1, got %s", cfg.Server.Host)
		}
		if cfg.Server.Port != 8080 {
			t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
		}
		if cfg.Server.Workers != 16 {
			t.Errorf("Expected workers 16, got %d", cfg.Server.Workers)
		}
		if cfg.Server.ReadTimeout != 60*time.Second {
			t.Errorf("Expected read timeout 60s, got %v", cfg.Server.ReadTimeout)
		}

		if cfg.Admin.Port != 8081 {
			t.Errorf("Expected admin port 8081, got %d", cfg.Admin.Port)
		}
		if cfg.Admin.JWTSecret != "s3cr3t" {
			t.Errorf("Expected JWT secret to be set, got %q", cfg.Admin.JWTSecret)
		}
		if cfg.Admin.RateLimitRPS != 100 {
			t.Errorf("Expected rate limit 100, got %d", cfg.Admin.RateLimitRPS)
		}

		if cfg.Cache.Enabled {
			t.Error("Expected cache disabled")
		}
		if cfg.Cache.Capacity != 5000 {
			t.Errorf("Expected cache capacity 5000, got %d", cfg.Cache.Capacity)
		}
		if cfg.Cache.TTL != 10*time.Minute {
			t.Errorf("Expected cache TTL 10m, got %v", cfg.Cache.TTL)
		}
	})
}

func TestLoadFromEnvInvalidValues(t *testing.T) {
	withEnv(t, map[string]string{"GEOKNN_PORT": "invalid"}, func() {
		cfg := LoadFromEnv()
		if cfg.Server.Port != 9090 {
			t.Errorf("Expected default port 9090 for invalid value, got %d", cfg.Server.Port)
		}
	})
}

func TestLoadFromEnvDefaultsWhenNotSet(t *testing.T) {
	cfg := LoadFromEnv()
	defaults := Default()

	if cfg.Server.Host != defaults.Server.Host {
		t.Errorf("Expected default host, got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != defaults.Server.Port {
		t.Errorf("Expected default port, got %d", cfg.Server.Port)
	}
	if cfg.Cache.Enabled != defaults.Cache.Enabled {
		t.Errorf("Expected default cache enabled, got %v", cfg.Cache.Enabled)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "valid default config", config: Default(), wantErr: false},
		{
			name:    "invalid port too low",
			config:  &Config{Server: ServerConfig{Port: 0, Workers: 1}, Admin: AdminConfig{Port: 9091}},
			wantErr: true,
		},
		{
			name:    "invalid port too high",
			config:  &Config{Server: ServerConfig{Port: 70000, Workers: 1}, Admin: AdminConfig{Port: 9091}},
			wantErr: true,
		},
		{
			name:    "zero workers",
			config:  &Config{Server: ServerConfig{Port: 9090, Workers: 0}, Admin: AdminConfig{Port: 9091}},
			wantErr: true,
		},
		{
			name: "admin and server share address",
			config: &Config{
				Server: ServerConfig{Host: "0.0.0.0", Port: 9090, Workers: 1},
				Admin:  AdminConfig{Host: "0.0.0.0", Port: 9090},
			},
			wantErr: true,
		},
		{
			name: "duplicate source name",
			config: &Config{
				Server:  ServerConfig{Port: 9090, Workers: 1},
				Admin:   AdminConfig{Port: 9091},
				Sources: []SourceConfig{{Name: "a", CSV: "a.csv"}, {Name: "a", CSV: "b.csv"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestServerConfigAddress(t *testing.T) {
	cfg := ServerConfig{Host: "localhost", Port: 8080}
	if addr := cfg.Address(); addr != "localhost:8080" {
		t.Errorf("expected localhost:8080, got %s", addr)
	}

	defaultCfg := Default()
	if addr := defaultCfg.Server.Address(); addr != "0.0.0.0:9090" {
		t.Errorf("expected 0.0.0.0:9090, got %s", addr)
	}
}
