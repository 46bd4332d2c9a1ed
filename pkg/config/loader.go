package config

import (
	"fmt"
	"os"
	"time"

	yaml "go.yaml.in/yaml/v2"
)

// Loader reads a Config from an external representation. The teacher's
// config story is env-var only; this service adds a file-backed Loader
// for the one thing env vars can't express cleanly — the Sources list.
// A file-loaded Config starts from Default(), not from LoadFromEnv: the
// GEOKNN_* environment variables are not applied on top of it.
type Loader interface {
	Load(path string) (*Config, error)
}

// YAMLLoader reads Config from a YAML file with server, admin, cache and
// sources sections.
type YAMLLoader struct{}

type yamlConfig struct {
	Server struct {
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
		Workers int    `yaml:"workers"`
	} `yaml:"server"`
	Admin struct {
		Host         string `yaml:"host"`
		Port         int    `yaml:"port"`
		JWTSecret    string `yaml:"jwt_secret"`
		RateLimitRPS int    `yaml:"rate_limit_rps"`
	} `yaml:"admin"`
	Cache struct {
		Enabled  *bool  `yaml:"enabled"`
		Capacity int    `yaml:"capacity"`
		TTL      string `yaml:"ttl"`
	} `yaml:"cache"`
	Sources []struct {
		Name  string   `yaml:"name"`
		Is3D  bool     `yaml:"is3d"`
		Extra []string `yaml:"extra"`
		CSV   string   `yaml:"csv"`
		Delim string   `yaml:"delim"`
	} `yaml:"sources"`
}

// Load parses the YAML file at path, layering its values over Default().
func (YAMLLoader) Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	var doc yamlConfig
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}

	cfg := Default()

	if doc.Server.Host != "" {
		cfg.Server.Host = doc.Server.Host
	}
	if doc.Server.Port != 0 {
		cfg.Server.Port = doc.Server.Port
	}
	if doc.Server.Workers != 0 {
		cfg.Server.Workers = doc.Server.Workers
	}

	if doc.Admin.Host != "" {
		cfg.Admin.Host = doc.Admin.Host
	}
	if doc.Admin.Port != 0 {
		cfg.Admin.Port = doc.Admin.Port
	}
	if doc.Admin.JWTSecret != "" {
		cfg.Admin.JWTSecret = doc.Admin.JWTSecret
	}
	if doc.Admin.RateLimitRPS != 0 {
		cfg.Admin.RateLimitRPS = doc.Admin.RateLimitRPS
	}

	if doc.Cache.Enabled != nil {
		cfg.Cache.Enabled = *doc.Cache.Enabled
	}
	if doc.Cache.Capacity != 0 {
		cfg.Cache.Capacity = doc.Cache.Capacity
	}
	if doc.Cache.TTL != "" {
		d, err := time.ParseDuration(doc.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("config: cache.ttl: %w", err)
		}
		cfg.Cache.TTL = d
	}

	for _, s := range doc.Sources {
		cfg.Sources = append(cfg.Sources, SourceConfig{
			Name:  s.Name,
			Is3D:  s.Is3D,
			Extra: s.Extra,
			CSV:   s.CSV,
			Delim: s.Delim,
		})
	}

	return cfg, nil
}
