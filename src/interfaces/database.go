package interfaces

import (
	"context"

	"holiday-pipeline/src/models"
)

// -----------------------------------------------------------------------------
// IMigrationTarget defines the durable store the migration engine loads into.
// -----------------------------------------------------------------------------

type IMigrationTarget interface {

	// -----------------------------------------------------------------------------

	// Open connects without changing the schema.
	Open(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// Initialize opens the target and creates its table when missing. Existing rows are kept.
	Initialize(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// FindExisting reports whether a row with the same (holiday_name, country_name, locale) exists.
	FindExisting(ctx context.Context, holidayName, countryName, locale string) (bool, error)

	// -----------------------------------------------------------------------------

	// Insert writes one record.
	Insert(ctx context.Context, rec models.MMigrationTargetRecord) error

	// -----------------------------------------------------------------------------

	// DeleteByModifiedBy removes every row tagged with modifiedBy and returns the count.
	DeleteByModifiedBy(ctx context.Context, modifiedBy string) (int64, error)

	// -----------------------------------------------------------------------------

	// CountByModifiedBy counts rows tagged with modifiedBy.
	CountByModifiedBy(ctx context.Context, modifiedBy string) (int64, error)

	// -----------------------------------------------------------------------------

	// Sample returns up to limit rows for read-back verification.
	Sample(ctx context.Context, limit int) ([]models.MMigrationTargetRecord, error)

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
