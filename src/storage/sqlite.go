package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"holiday-pipeline/src/logger"
	"holiday-pipeline/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

// SQLiteTarget is the local migration target. With ReadOnly the file must
// already exist and is opened mode=ro, so nothing on disk changes.
type SQLiteTarget struct {
	sqlTarget
	Path     string
	ReadOnly bool
}

// -----------------------------------------------------------------------------

func NewSQLiteTarget(cfg *models.MConfig, log *logger.Logger) (*SQLiteTarget, error) {
	if cfg.Migration.DBPath == "" {
		return nil, fmt.Errorf("database path cannot be empty for sqlite")
	}
	return &SQLiteTarget{
		sqlTarget: sqlTarget{
			Logger:      log,
			table:       TargetTable,
			placeholder: func(int) string { return "?" },
		},
		Path:     cfg.Migration.DBPath,
		ReadOnly: cfg.Migration.DryRun,
	}, nil
}

// -----------------------------------------------------------------------------

// Open connects and pings without touching the schema.
func (d *SQLiteTarget) Open(ctx context.Context) error {
	if d.DB != nil {
		return nil
	}

	dsn := d.Path
	if d.ReadOnly {
		if _, err := os.Stat(d.Path); err != nil {
			return fmt.Errorf("sqlite database %s: %w", d.Path, err)
		}
		dsn = "file:" + d.Path + "?mode=ro"
	}

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}

	d.DB = db
	if d.ReadOnly {
		return nil
	}

	// PRAGMA optimizations
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		d.Logger.Warning("Failed to set busy timeout: %v", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Initialize opens the database and creates the table when missing.
func (d *SQLiteTarget) Initialize(ctx context.Context) error {
	if err := d.Open(ctx); err != nil {
		return err
	}
	return d.createTables(ctx)
}

// -----------------------------------------------------------------------------

func (d *SQLiteTarget) createTables(ctx context.Context) error {
	// SQLite types: TEXT for strings, REAL for float64, INTEGER for bool, DATETIME for timestamps
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			holiday_id TEXT,
			holiday_name TEXT NOT NULL,
			country_name TEXT NOT NULL,
			locale TEXT,
			description TEXT NOT NULL,
			confidence REAL,
			generated_at DATETIME,
			last_used DATETIME,
			modified_at DATETIME,
			modified_by TEXT,
			is_manual INTEGER NOT NULL DEFAULT 0,
			ai_model TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);
	`, d.table)
	if _, err := d.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create %s: %w", d.table, err)
	}

	index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_lookup ON %s (holiday_name, country_name, locale)`, d.table, d.table)
	if _, err := d.DB.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("failed to create lookup index: %w", err)
	}
	return nil
}
