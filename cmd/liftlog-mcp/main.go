package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/logging"
	liftmcp "github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/progression"
	"github.com/claude/liftlog/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (local database mode)")
	remote := flag.String("remote", "", "LiftLog server URL; when set, data is read over the REST API instead of the database")
	unitFlag := flag.String("units", "", "default weight unit for tool results (kg or lb)")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	// stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logging.ParseLevel(*level)}))

	var (
		ds    liftmcp.DataSource
		units = *unitFlag
	)

	if *remote != "" {
		ds = liftmcp.NewHTTPClient(*remote)
		log.Info("remote mode", "server", *remote)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		if units == "" {
			units = cfg.Units
		}
		db, err := storage.New(context.Background(), cfg.Database.DSN())
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		ds = db
	}

	unit, err := progression.ParseUnit(units)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid units: %v\n", err)
		os.Exit(1)
	}

	s := liftmcp.New(ds, unit, Version, log)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
