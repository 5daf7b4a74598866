package models

import (
	"encoding/json"
	"time"
)

// MigrationMarker tags every row written by the migration engine.
const MigrationMarker = "migration_script"

// MMigrationSourceEntry is one description in the local cache map.
type MMigrationSourceEntry struct {
	HolidayID   string  `json:"holidayId"`
	HolidayName string  `json:"holidayName" validate:"required"`
	CountryName string  `json:"countryName" validate:"required"`
	Locale      string  `json:"locale"`
	Description string  `json:"description" validate:"required"`
	Confidence  float64 `json:"confidence"`
	GeneratedAt string  `json:"generatedAt"`
	LastUsed    string  `json:"lastUsed"`
}

// MMigrationTargetRecord is the row inserted into the durable store.
type MMigrationTargetRecord struct {
	HolidayID   string    `json:"holiday_id"`
	HolidayName string    `json:"holiday_name"`
	CountryName string    `json:"country_name"`
	Locale      string    `json:"locale"`
	Description string    `json:"description"`
	Confidence  float64   `json:"confidence"`
	GeneratedAt time.Time `json:"generated_at"`
	LastUsed    time.Time `json:"last_used"`
	ModifiedAt  time.Time `json:"modified_at"`
	ModifiedBy  string    `json:"modified_by"`
	IsManual    bool      `json:"is_manual"`
	AIModel     string    `json:"ai_model"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MMigrationOptions controls one migration run.
type MMigrationOptions struct {
	SourceKey       string
	BatchSize       int
	BatchDelay      time.Duration
	DryRun          bool
	SkipExisting    bool
	RollbackOnError bool
	Verbose         bool
	AIModel         string
}

// MMigrationResult is the structured summary of a run.
// Invalid counts entries rejected before transformation; Skipped counts
// entries already present in the target.
type MMigrationResult struct {
	RunID        string        `json:"runId"`
	DryRun       bool          `json:"dryRun"`
	Success      int           `json:"success"`
	Failed       int           `json:"failed"`
	Skipped      int           `json:"skipped"`
	Invalid      int           `json:"invalid"`
	WouldMigrate int           `json:"wouldMigrate"`
	Errors       []string      `json:"errors"`
	Duration     time.Duration `json:"duration"`
}

// MMigrationBackup is the pre-mutation copy of the source map.
type MMigrationBackup struct {
	Timestamp    time.Time                `json:"timestamp"`
	OriginalData json.RawMessage          `json:"originalData"`
	Metadata     MMigrationBackupMetadata `json:"metadata"`
}

type MMigrationBackupMetadata struct {
	TotalEntries     int    `json:"totalEntries"`
	MigrationVersion string `json:"migrationVersion"`
}
