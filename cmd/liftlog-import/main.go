package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/ingest/alpha"
	"github.com/claude/liftlog/internal/logging"
	"github.com/claude/liftlog/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	filePath := flag.String("file", "", "path to Alpha Progression CSV export (required)")
	dryRun := flag.Bool("dry-run", false, "map sessions and report counts without writing to the database")
	flag.Parse()

	if *filePath == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-import -config config.yaml -file export.csv [-dry-run]\n")
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

	f, err := os.Open(*filePath)
	if err != nil {
		log.Error("opening export", "path", *filePath, "error", err)
		os.Exit(1)
	}
	defer f.Close()

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

	provider := alpha.NewProvider(db, log)

	if *dryRun {
		log.Info("DRY RUN mode, no data will be written to the database")
		sessions, result, err := provider.Plan(ctx, f)
		if err != nil {
			log.Error("import failed", "error", err)
			os.Exit(1)
		}
		for _, s := range sessions {
			log.Info("would import session", "name", s.Name, "started_at", s.StartedAt, "sets", len(s.Sets))
		}
		printResult(log, result)
		return
	}

	start := time.Now()
	entry := storage.ImportLog{Source: "alpha-cli", Status: "running"}
	logID, err := db.InsertImportLog(ctx, entry)
	if err != nil {
		log.Warn("creating import log", "error", err)
	}

	result, ingestErr := provider.Ingest(ctx, f)
	ms := int(time.Since(start).Milliseconds())
	entry.DurationMs = &ms
	if ingestErr != nil {
		msg := ingestErr.Error()
		entry.Status = "error"
		entry.ErrorMessage = &msg
	} else {
		entry.Status = "success"
		entry.RowsReceived = result.SetsReceived
		entry.SessionsCreated = result.SessionsInserted
		entry.SetsInserted = result.SetsInserted
		entry.Unmatched = result.Unmatched
	}
	if logID != 0 {
		if err := db.UpdateImportLog(ctx, logID, entry); err != nil {
			log.Warn("updating import log", "id", logID, "error", err)
		}
	}

	if ingestErr != nil {
		log.Error("import failed", "error", ingestErr)
		os.Exit(1)
	}

	printResult(log, result)
	log.Info("import complete")
}

func printResult(log *slog.Logger, r *ingest.Result) {
	log.Info("import summary",
		"sessions_received", r.SessionsReceived,
		"sessions_inserted", r.SessionsInserted,
		"sessions_skipped", r.SessionsSkipped,
		"sets_received", r.SetsReceived,
		"sets_inserted", r.SetsInserted,
	)
	if len(r.Unmatched) > 0 {
		log.Warn("exercises without a matching prescription", "names", strings.Join(r.Unmatched, ", "))
	}
}
