package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"holiday-pipeline/src/config"
	"holiday-pipeline/src/helpers"
	"holiday-pipeline/src/logger"
	"holiday-pipeline/src/metrics"
	"holiday-pipeline/src/migration"
	"holiday-pipeline/src/models"
	"holiday-pipeline/src/storage"
	"holiday-pipeline/src/utils"
)

// Exit codes
const (
	exitOK          = 0
	exitConfig      = 1
	exitUnreachable = 2
	exitSource      = 3
	exitRolledBack  = 4
	exitFailures    = 5
)

// -----------------------------------------------------------------------------

func main() {
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	envFile := flag.String("env", ".env", "path to .env file")
	source := flag.String("source", "", "source description cache (JSON map)")
	dbType := flag.String("db-type", "", "target type (sqlite|postgres)")
	dbPath := flag.String("db-path", "", "sqlite database file")
	dbURL := flag.String("database-url", "", "postgres connection string")
	batchSize := flag.Int("batch-size", 0, "entries per batch")
	dryRun := flag.Bool("dry-run", false, "transform and report without writing")
	skipExisting := flag.Bool("skip-existing", false, "skip entries already in the target")
	rollback := flag.Bool("rollback-on-error", false, "delete migrated rows and stop when a batch fails")
	verbose := flag.Bool("verbose", false, "log every entry")
	flag.Parse()

	cfg, err := config.NewConfig(*configPath, *envFile)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(exitConfig)
	}

	// Flags override config and environment, but only when given.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Migration.SourcePath = *source
		case "db-type":
			cfg.Migration.DBType = *dbType
		case "db-path":
			cfg.Migration.DBPath = *dbPath
		case "database-url":
			cfg.Migration.DBConnectionString = *dbURL
		case "batch-size":
			cfg.Migration.BatchSize = *batchSize
		case "dry-run":
			cfg.Migration.DryRun = *dryRun
		case "skip-existing":
			cfg.Migration.SkipExisting = *skipExisting
		case "rollback-on-error":
			cfg.Migration.RollbackOnError = *rollback
		case "verbose":
			cfg.Migration.Verbose = *verbose
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Error in config: %v\n", err)
		os.Exit(exitConfig)
	}

	os.Exit(run(cfg.MConfig))
}

// -----------------------------------------------------------------------------

func run(cfg *models.MConfig) int {
	runLog, logFile, err := migration.OpenRunLog(cfg.Migration.LogPath, os.Stdout)
	if err != nil {
		fmt.Printf("Error opening migration log %s: %v\n", cfg.Migration.LogPath, err)
		return exitConfig
	}
	defer logFile.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sourceStore, err := storage.NewFileStorage(filepath.Dir(cfg.Migration.SourcePath))
	if err != nil {
		runLog.Error("Source directory: %v", err)
		return exitSource
	}
	backupStore, err := storage.NewStorage(ctx, cfg.Storage, cfg.Migration.BackupDir)
	if err != nil {
		runLog.Error("Backup storage: %v", err)
		return exitConfig
	}

	target, err := storage.NewMigrationTarget(cfg, logger.NewLogger(cfg, "MigrationTarget"))
	if err != nil {
		runLog.Error("Target: %v", err)
		return exitConfig
	}
	defer target.Close()

	// A dry run only connects; the schema is left alone.
	open := target.Initialize
	if cfg.Migration.DryRun {
		open = target.Open
	}
	if err := open(ctx); err != nil {
		runLog.Error("Target unreachable: %v", err)
		return exitUnreachable
	}

	opts := models.MMigrationOptions{
		SourceKey:       filepath.Base(cfg.Migration.SourcePath),
		BatchSize:       cfg.Migration.BatchSize,
		BatchDelay:      utils.DurationMs(cfg.Migration.BatchDelayMs, utils.DefaultBatchDelay),
		DryRun:          cfg.Migration.DryRun,
		SkipExisting:    cfg.Migration.SkipExisting,
		RollbackOnError: cfg.Migration.RollbackOnError,
		Verbose:         cfg.Migration.Verbose,
		AIModel:         cfg.Migration.AIModel,
	}

	engine := migration.NewEngine(sourceStore, backupStore, target, opts, runLog)
	engine.Metrics = metrics.NewMetrics()

	result, err := engine.Run(ctx)
	switch {
	case err == nil && result.Failed == 0:
		return exitOK
	case err == nil:
		return exitFailures
	case errors.Is(err, helpers.ErrTargetUnreachable):
		return exitUnreachable
	case errors.Is(err, helpers.ErrSourceNotFound), errors.Is(err, helpers.ErrInvalidSourceJSON):
		return exitSource
	case errors.Is(err, helpers.ErrRolledBack):
		return exitRolledBack
	default:
		runLog.Error("Migration aborted: %v", err)
		return exitFailures
	}
}
