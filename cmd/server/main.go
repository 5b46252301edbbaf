package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	"github.com/linkflyer/venued/pkg/api"
	"github.com/linkflyer/venued/pkg/catalog"
	"github.com/linkflyer/venued/pkg/chassis"
	"github.com/linkflyer/venued/pkg/enrich"
	"github.com/linkflyer/venued/pkg/geoip"
	"github.com/linkflyer/venued/pkg/pipeline"
	"github.com/linkflyer/venued/pkg/places"
	"github.com/linkflyer/venued/pkg/venue"
)

const version = "1.0.0"

type config struct {
	Addr            string        `yaml:"addr"`
	DBPath          string        `yaml:"db_path"`
	CertFile        string        `yaml:"cert_file"`
	KeyFile         string        `yaml:"key_file"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`

	DefaultLocality string `yaml:"default_locality"`
	GeoIPLocality   bool   `yaml:"geoip_locality"`

	LookupTTL         time.Duration `yaml:"lookup_ttl"`
	LookupNegativeTTL time.Duration `yaml:"lookup_negative_ttl"`

	Places   places.Config `yaml:"places"`
	GeoIP    geoip.Config  `yaml:"geoip"`
	Resolver venue.Options `yaml:"resolver"`
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "import":
		cmdImport(os.Args[2:])
	case "resolve":
		cmdResolve(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: venued <command>

Commands:
  serve    Start the API server (HTTP + MCP over QUIC)
  import   Seed the venue catalog from a CSV file
  resolve  Resolve a single venue name
`)
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg := loadConfig(*cfgPath, logger)

	store, err := catalog.Open(cfg.DBPath)
	if err != nil {
		logger.Error("open venue store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	cache := catalog.NewCache(store, logger)
	if err := cache.Refresh(context.Background()); err != nil {
		// Fail-open: serve 503s until a later refresh succeeds.
		logger.Warn("initial catalog refresh failed, starting not ready", "error", err)
	} else {
		logger.Info("catalog loaded", "venues", cache.Size())
	}

	resolver := venue.NewResolver(cache, cfg.Resolver)
	enricher := buildEnricher(cfg, store, cache, logger)
	locality := defaultLocality(cfg, logger)

	p := pipeline.New(resolver, enricher, locality, logger)
	deps := api.Deps{Pipeline: p, Cache: cache, Resolver: resolver}

	mcpSrv := server.NewMCPServer("venued", version)
	api.RegisterMCPTools(mcpSrv, deps)

	srv, err := chassis.New(chassis.Config{
		Addr:      cfg.Addr,
		CertFile:  cfg.CertFile,
		KeyFile:   cfg.KeyFile,
		Handler:   api.NewRouter(deps),
		MCPServer: mcpSrv,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	// SIGHUP: refresh the catalog snapshot.
	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for range sighup {
			logger.Info("SIGHUP received, refreshing catalog")
			if err := cache.Refresh(ctx); err != nil {
				logger.Error("refresh failed", "error", err)
			} else {
				logger.Info("catalog refreshed", "venues", cache.Size())
			}
		}
	}()

	go catalog.NewRefresher(cache, logger, cfg.RefreshInterval).Start(ctx)

	go func() {
		logger.Info("venued listening", "addr", cfg.Addr)
		if err := srv.Start(ctx); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Stop(shutdownCtx)
}

// buildEnricher wires the place-lookup fallback, or returns nil when no
// API key is configured so the server runs catalog-only.
func buildEnricher(cfg config, store *catalog.Store, cache *catalog.Cache, logger *slog.Logger) *enrich.Enricher {
	if cfg.Places.APIKey == "" {
		logger.Info("no places API key, enrichment disabled")
		return nil
	}
	lc, err := catalog.NewLookupCache(store, cfg.LookupTTL, cfg.LookupNegativeTTL)
	if err != nil {
		logger.Warn("lookup cache unavailable, continuing without it", "error", err)
		lc = nil
	}
	return enrich.New(places.NewClient(cfg.Places), store, cache, lc, logger)
}

// defaultLocality returns the locality applied to queries that carry
// none: the configured one, or the server's own geoip city.
func defaultLocality(cfg config, logger *slog.Logger) string {
	if cfg.DefaultLocality != "" || !cfg.GeoIPLocality {
		return cfg.DefaultLocality
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	loc, err := geoip.NewClient(cfg.GeoIP).Lookup(ctx, "")
	if err != nil {
		logger.Warn("geoip locality lookup failed", "error", err)
		return ""
	}
	logger.Info("default locality from geoip", "city", loc.City, "country", loc.Country)
	return loc.City
}

func loadConfig(path string, logger *slog.Logger) config {
	cfg := config{
		Addr:              ":8430",
		DBPath:            "venues.db",
		RefreshInterval:   5 * time.Minute,
		LookupTTL:         time.Hour,
		LookupNegativeTTL: 5 * time.Minute,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("no config file, using defaults", "path", path)
			return cfg
		}
		logger.Error("read config", "error", err)
		os.Exit(1)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Error("parse config", "error", err)
		os.Exit(1)
	}
	return cfg
}
