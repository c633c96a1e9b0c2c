package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/claude/liftlog/internal/backup"
	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/logging"
	"github.com/claude/liftlog/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	exportPath := flag.String("export", "", "write a snapshot of the database to this SQLite file")
	restorePath := flag.String("restore", "", "restore the snapshot stored in this SQLite file")
	flag.Parse()

	if (*exportPath == "") == (*restorePath == "") {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-backup -config config.yaml (-export out.db | -restore in.db)\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, logFile := logging.New(cfg.Log)
	defer logFile.Close()

	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, cfg.Database.MigrationsDir()); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if *exportPath != "" {
		snap, err := db.ExportSnapshot(ctx)
		if err != nil {
			log.Error("export failed", "error", err)
			os.Exit(1)
		}
		if err := backup.Write(ctx, *exportPath, snap); err != nil {
			log.Error("writing backup failed", "path", *exportPath, "error", err)
			os.Exit(1)
		}
		log.Info("backup written",
			"path", *exportPath,
			"programs", len(snap.Programs),
			"sessions", len(snap.Sessions),
			"baselines", len(snap.Baselines),
		)
		return
	}

	snap, err := backup.Read(ctx, *restorePath)
	if err != nil {
		log.Error("reading backup failed", "path", *restorePath, "error", err)
		os.Exit(1)
	}
	stats, err := db.RestoreSnapshot(ctx, snap)
	if err != nil {
		log.Error("restore failed", "error", err)
		os.Exit(1)
	}
	log.Info("backup restored",
		"path", *restorePath,
		"exported_at", snap.ExportedAt,
		"sessions_restored", stats.SessionsRestored,
		"sessions_skipped", stats.SessionsSkipped,
		"sets", stats.Sets,
		"baselines", stats.Baselines,
	)
}
