package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/therealutkarshpriyadarshi/geoknn/pkg/api/admin"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/api/admin/middleware"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/config"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/connserver"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/dispatch"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/indexstats"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/ingest"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/observability"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/querycache"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/registry"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version and exit")
		showHelp    = flag.Bool("help", false, "show help and exit")
		configFile  = flag.String("config", "", "path to YAML configuration file (optional)")
		host        = flag.String("host", "", "query server host (overrides config/env)")
		port        = flag.Int("port", 0, "query server port (overrides config/env)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("geoknn server v%s (commit: %s)\n", version, commit)
		os.Exit(0)
	}
	if *showHelp {
		showUsage()
		os.Exit(0)
	}

	printBanner()

	logger := observability.NewDefaultLogger()

	cfg := loadConfig(*configFile, logger)
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}

	metrics := observability.NewMetrics()
	reg := registry.New()
	stats := indexstats.New()

	log.Println("loading configured sources...")
	if err := loadSources(cfg, reg); err != nil {
		logger.Fatalf("ingestion failed: %v", err)
	}
	if err := reg.Freeze(); err != nil {
		logger.Fatalf("failed to freeze registry: %v", err)
	}
	recordIndexSizes(cfg, reg, stats)
	log.Println("registry sealed, ready to serve queries")

	var cache *querycache.LRUCache
	if cfg.Cache.Enabled {
		cache = querycache.New(cfg.Cache.Capacity, cfg.Cache.TTL)
	}

	disp := dispatch.New(reg, cache, stats, metrics, logger)
	queryServer := connserver.New(cfg.Server.Address(), cfg.Server.Workers, disp.Handle, logger)

	adminServer := admin.NewServer(admin.Config{
		Host: cfg.Admin.Host,
		Port: cfg.Admin.Port,
		Auth: middleware.AuthConfig{
			Enabled:     cfg.Admin.JWTSecret != "",
			JWTSecret:   cfg.Admin.JWTSecret,
			PublicPaths: []string{"/admin/health"},
		},
		RateLimit: middleware.RateLimitConfig{
			Enabled:        cfg.Admin.RateLimitRPS > 0,
			RequestsPerSec: float64(cfg.Admin.RateLimitRPS),
			Burst:          cfg.Admin.RateLimitRPS,
		},
	}, reg, stats)

	printStartupInfo(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Println("starting kNN query server...")
		if err := queryServer.Serve(ctx); err != nil {
			errChan <- fmt.Errorf("query server error: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Println("starting admin API...")
		if err := adminServer.Start(); err != nil {
			errChan <- fmt.Errorf("admin server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	log.Println("servers are ready. Press Ctrl+C to stop.")
	select {
	case sig := <-sigChan:
		log.Printf("received signal: %v", sig)
	case err := <-errChan:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := adminServer.Stop(shutdownCtx); err != nil {
		log.Printf("error stopping admin server: %v", err)
	}

	wg.Wait()
	log.Println("servers stopped. Goodbye!")
}

func loadSources(cfg *config.Config, reg *registry.Registry) error {
	if len(cfg.Sources) == 0 {
		return nil
	}
	specs := make([]ingest.IndexSpec, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		delim := ','
		if s.Delim != "" {
			delim = rune(s.Delim[0])
		}
		spec := ingest.IndexSpec{Name: s.Name, Is3D: s.Is3D, Extra: s.Extra}
		spec.Source = ingest.NewCSVSource(s.CSV, delim, spec.FieldOrder())
		specs = append(specs, spec)
	}
	return ingest.Load(context.Background(), reg, specs)
}

// recordIndexSizes seeds the usage tracker's point counts once the
// registry is frozen and every index is queryable.
func recordIndexSizes(cfg *config.Config, reg *registry.Registry, stats *indexstats.Tracker) {
	for _, s := range cfg.Sources {
		if s.Is3D {
			if pd, err := reg.Get3D(s.Name); err == nil {
				stats.SetPoints(s.Name, pd.Len())
			}
			continue
		}
		if pd, err := reg.Get2D(s.Name); err == nil {
			stats.SetPoints(s.Name, pd.Len())
		}
	}
}

func loadConfig(configFile string, logger *observability.Logger) *config.Config {
	if configFile == "" {
		return config.LoadFromEnv()
	}
	cfg, err := (config.YAMLLoader{}).Load(configFile)
	if err != nil {
		logger.Fatalf("failed to load config file %q: %v", configFile, err)
	}
	return cfg
}

func printBanner() {
	banner := `
╔═══════════════════════════════════════════════════════════╗
║                                                           ║
║    ____            _  ___   _ _   _                      ║
║   / ___| ___  ___ | |/ / \ | | \ | |                      ║
║  | |  _ / _ \/ _ \| ' /|  \| |  \| |                      ║
║  | |_| |  __/ (_) | . \| |\  | |\  |                      ║
║   \____|\___|\___/|_|\_\_| \_|_| \_|                      ║
║                                                           ║
║   Spatial k-Nearest-Neighbor Query Server                ║
║                                                           ║
╚═══════════════════════════════════════════════════════════╝
`
	fmt.Println(banner)
	fmt.Printf("Version: %s (commit: %s)\n\n", version, commit)
}

func printStartupInfo(cfg *config.Config) {
	fmt.Println("\n╔════════════════════════════════════════════════════════╗")
	fmt.Println("║            Query Server Configuration                  ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Address:          %-35s ║\n", cfg.Server.Address())
	fmt.Printf("║ Workers:          %-35d ║\n", cfg.Server.Workers)
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Println("║            Admin API Configuration                     ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Address:          %-35s ║\n", cfg.Admin.Address())
	fmt.Printf("║ Auth Enabled:     %-35v ║\n", cfg.Admin.JWTSecret != "")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Println("║               Cache Configuration                      ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Enabled:          %-35v ║\n", cfg.Cache.Enabled)
	fmt.Printf("║ Capacity:         %-35d ║\n", cfg.Cache.Capacity)
	fmt.Printf("║ TTL:              %-35s ║\n", cfg.Cache.TTL)
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Println("║               Declared Sources                         ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	if len(cfg.Sources) == 0 {
		fmt.Println("║ (none — server will have no indexes to query)          ║")
	}
	for _, s := range cfg.Sources {
		fmt.Printf("║ %-56s ║\n", fmt.Sprintf("%s (3D=%v) <- %s", s.Name, s.Is3D, s.CSV))
	}
	fmt.Println("╚════════════════════════════════════════════════════════╝")
	fmt.Println()
}

func showUsage() {
	fmt.Println("geoknn server - spatial k-nearest-neighbor query service")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  geoknn-server [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -help             Show this help message")
	fmt.Println("  -version          Show version information")
	fmt.Println("  -config PATH      Path to YAML configuration file")
	fmt.Println("  -host HOST        Query server host (default: 0.0.0.0)")
	fmt.Println("  -port PORT        Query server port (default: 9090)")
	fmt.Println()
	fmt.Println("Environment Variables (read only when -config is not given):")
	fmt.Println("  GEOKNN_HOST                Query server host")
	fmt.Println("  GEOKNN_PORT                Query server port")
	fmt.Println("  GEOKNN_WORKERS             Connection worker pool size")
	fmt.Println("  GEOKNN_READ_TIMEOUT        Read timeout setting (not applied; connections use a fixed 30s deadline)")
	fmt.Println("  GEOKNN_ADMIN_HOST          Admin API host")
	fmt.Println("  GEOKNN_ADMIN_PORT          Admin API port")
	fmt.Println("  GEOKNN_JWT_SECRET          Admin API JWT signing secret")
	fmt.Println("  GEOKNN_ADMIN_RATE_LIMIT    Admin API requests/sec allowed per client")
	fmt.Println("  GEOKNN_CACHE_ENABLED       Enable query cache (true/false)")
	fmt.Println("  GEOKNN_CACHE_CAPACITY      Cache capacity")
	fmt.Println("  GEOKNN_CACHE_TTL           Cache TTL (e.g., 5m)")
	fmt.Println()
	fmt.Println("Sources (indexes to ingest at startup) can only be declared via")
	fmt.Println("a YAML config file's `sources:` list — see -config.")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  geoknn-server -config config.yaml")
	fmt.Println("  GEOKNN_PORT=8080 geoknn-server")
	fmt.Println()
}
