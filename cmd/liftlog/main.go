package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"tailscale.com/tsnet"

	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/ingest/alpha"
	"github.com/claude/liftlog/internal/logging"
	liftmcp "github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/program"
	"github.com/claude/liftlog/internal/progression"
	"github.com/claude/liftlog/internal/server"
	"github.com/claude/liftlog/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	seedPath := flag.String("seed", "", "program catalog to sync on startup (overrides program.seed_file)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, logFile := logging.New(cfg.Log)
	defer logFile.Close()
	log.Info("LiftLog starting", "version", Version)

	// Run migrations
	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, cfg.Database.MigrationsDir()); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Connect database
	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	seed := cfg.Program.SeedFile
	if *seedPath != "" {
		seed = *seedPath
	}
	if seed != "" {
		if err := syncSeed(ctx, db, seed, log); err != nil {
			log.Error("program seed failed", "path", seed, "error", err)
			os.Exit(1)
		}
	}

	units, err := progression.ParseUnit(cfg.Units)
	if err != nil {
		log.Error("invalid units", "error", err)
		os.Exit(1)
	}

	opts := server.Options{APIKey: cfg.Auth.APIKey, Units: units}
	if cfg.Metrics.Enabled {
		reg := metrics.NewRegistry(db.Pool)
		opts.Metrics = metrics.NewManager(reg)
		opts.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
		log.Info("metrics enabled", "path", "/metrics")
	}
	mcpSrv := liftmcp.New(db, units, Version, log)
	opts.MCPHandler = mcpserver.NewStreamableHTTPServer(mcpSrv)

	alphaProvider := alpha.NewProvider(db, log)
	srv := server.New(db, alphaProvider, opts, log)

	// Start server: tsnet or plain HTTP
	var listener net.Listener

	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
			Logf:     func(format string, args ...any) { log.Debug(fmt.Sprintf(format, args...), "component", "tsnet") },
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

func syncSeed(ctx context.Context, db *storage.DB, path string, log *slog.Logger) error {
	catalog, err := program.Load(path)
	if err != nil {
		return err
	}
	programs := catalog.Programs()
	if err := db.SyncPrograms(ctx, programs); err != nil {
		return err
	}
	log.Info("program catalog synced", "path", path, "programs", len(programs))
	return nil
}
