package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"holiday-pipeline/src/logger"
	"holiday-pipeline/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

// PostgresTarget is the hosted migration target.
type PostgresTarget struct {
	sqlTarget
	DSN string
}

// -----------------------------------------------------------------------------

func NewPostgresTarget(cfg *models.MConfig, log *logger.Logger) (*PostgresTarget, error) {
	if cfg.Migration.DBConnectionString == "" {
		return nil, fmt.Errorf("database connection string cannot be empty for postgres")
	}
	return &PostgresTarget{
		sqlTarget: sqlTarget{
			Logger:      log,
			table:       TargetTable,
			placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		},
		DSN: cfg.Migration.DBConnectionString,
	}, nil
}

// -----------------------------------------------------------------------------

// Open connects and pings without touching the schema.
func (d *PostgresTarget) Open(ctx context.Context) error {
	if d.DB != nil {
		return nil
	}

	db, err := sql.Open("postgres", d.DSN)
	if err != nil {
		return err
	}
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}

	d.DB = db
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresTarget) Initialize(ctx context.Context) error {
	if err := d.Open(ctx); err != nil {
		return err
	}
	if err := d.createTables(ctx); err != nil {
		return err
	}

	d.Logger.Info("PostgresTarget initialized successfully (table: %s)", d.table)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresTarget) createTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			holiday_id TEXT,
			holiday_name TEXT NOT NULL,
			country_name TEXT NOT NULL,
			locale TEXT,
			description TEXT NOT NULL,
			confidence DOUBLE PRECISION,
			generated_at TIMESTAMPTZ,
			last_used TIMESTAMPTZ,
			modified_at TIMESTAMPTZ,
			modified_by TEXT,
			is_manual BOOLEAN NOT NULL DEFAULT FALSE,
			ai_model TEXT,
			created_at TIMESTAMPTZ DEFAULT now(),
			updated_at TIMESTAMPTZ DEFAULT now()
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
