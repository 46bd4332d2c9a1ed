// Package config holds the kNN server's configuration: the query server
// address and worker pool, the admin API, declared ingestion sources,
// and the query cache. Adapted from the teacher's pkg/config, keeping its
// env-var convention and Validate shape but replacing the HNSW/database
// sections with the index-source and admin sections this service needs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all server configuration.
type Config struct {
	Server  ServerConfig
	Admin   AdminConfig
	Cache   CacheConfig
	Sources []SourceConfig
}

// ServerConfig holds the kNN query server's listener and worker pool.
type ServerConfig struct {
	Host            string        // Server host (default: "0.0.0.0")
	Port            int           // Server port (default: 9090)
	Workers         int           // Size of the connection worker pool
	MaxHeaderBytes  int           // Max header bytes; not read by connserver, which uses a fixed 1 MiB limit
	ReadTimeout     time.Duration // Read deadline; not read by connserver, which uses a fixed 30s deadline
	ShutdownTimeout time.Duration // Graceful shutdown timeout
}

// AdminConfig holds the admin HTTP API's listener and auth settings.
type AdminConfig struct {
	Host         string // Admin API host (default: "0.0.0.0")
	Port         int    // Admin API port (default: 9091)
	JWTSecret    string // HMAC secret for admin JWT verification
	RateLimitRPS int    // Requests per second allowed per client
}

// CacheConfig holds query cache configuration.
type CacheConfig struct {
	Enabled  bool          // Enable query caching
	Capacity int           // Max cache entries
	TTL      time.Duration // Time to live for cache entries (0 = no expiry)
}

// SourceConfig declares one named index to populate at startup.
type SourceConfig struct {
	Name  string   // Index name, as queried via ?index=
	Is3D  bool     // Whether points in this index carry a z coordinate
	Extra []string // Extra attribute fields beyond gid,x,y[,z]
	CSV   string   // Path to a CSV file sourcing this index
	Delim string   // CSV delimiter, single character (default ",")
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            9090,
			Workers:         8,
			MaxHeaderBytes:  1 << 20,
			ReadTimeout:     30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Admin: AdminConfig{
			Host:         "0.0.0.0",
			Port:         9091,
			RateLimitRPS: 50,
		},
		Cache: CacheConfig{
			Enabled:  true,
			Capacity: 1000,
			TTL:      5 * time.Minute,
		},
	}
}

// LoadFromEnv returns Default() overridden by any recognized GEOKNN_*
// environment variables. Sources are not env-loadable — they are
// declared via a Loader-backed config file, since a flat list of
// structs doesn't fit the KEY=VALUE env-var shape.
func LoadFromEnv() *Config {
	cfg := Default()

	if host := os.Getenv("GEOKNN_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("GEOKNN_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if workers := os.Getenv("GEOKNN_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			cfg.Server.Workers = w
		}
	}
	if timeout := os.Getenv("GEOKNN_READ_TIMEOUT"); timeout != "" {
		if t, err := time.ParseDuration(timeout); err == nil {
			cfg.Server.ReadTimeout = t
		}
	}

	if adminHost := os.Getenv("GEOKNN_ADMIN_HOST"); adminHost != "" {
		cfg.Admin.Host = adminHost
	}
	if adminPort := os.Getenv("GEOKNN_ADMIN_PORT"); adminPort != "" {
		if p, err := strconv.Atoi(adminPort); err == nil {
			cfg.Admin.Port = p
		}
	}
	if secret := os.Getenv("GEOKNN_JWT_SECRET"); secret != "" {
		cfg.Admin.JWTSecret = secret
	}
	if rps := os.Getenv("GEOKNN_ADMIN_RATE_LIMIT"); rps != "" {
		if r, err := strconv.Atoi(rps); err == nil {
			cfg.Admin.RateLimitRPS = r
		}
	}

	if cacheEnabled := os.Getenv("GEOKNN_CACHE_ENABLED"); cacheEnabled == "false" {
		cfg.Cache.Enabled = false
	}
	if capacity := os.Getenv("GEOKNN_CACHE_CAPACITY"); capacity != "" {
		if c, err := strconv.Atoi(capacity); err == nil {
			cfg.Cache.Capacity = c
		}
	}
	if ttl := os.Getenv("GEOKNN_CACHE_TTL"); ttl != "" {
		if t, err := time.ParseDuration(ttl); err == nil {
			cfg.Cache.TTL = t
		}
	}

	return cfg
}

// Validate checks whether the configuration is servable.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.Workers < 1 {
		return fmt.Errorf("invalid worker count: %d (must be > 0)", c.Server.Workers)
	}
	if c.Admin.Port < 1 || c.Admin.Port > 65535 {
		return fmt.Errorf("invalid admin port: %d (must be 1-65535)", c.Admin.Port)
	}
	if c.Admin.Port == c.Server.Port && c.Admin.Host == c.Server.Host {
		return fmt.Errorf("admin and query server cannot share host:port")
	}
	if c.Cache.Enabled && c.Cache.Capacity < 1 {
		return fmt.Errorf("invalid cache capacity: %d (must be > 0)", c.Cache.Capacity)
	}
	seen := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		if s.Name == "" {
			return fmt.Errorf("source declared with empty name")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		seen[s.Name] = true
		if s.CSV == "" {
			return fmt.Errorf("source %q: no CSV path given", s.Name)
		}
	}
	return nil
}

// Address returns "host:port" for the query server.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Address returns "host:port" for the admin API.
func (c *AdminConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
