package migration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"holiday-pipeline/src/cache"
	"holiday-pipeline/src/helpers"
	"holiday-pipeline/src/interfaces"
	"holiday-pipeline/src/logger"
	"holiday-pipeline/src/metrics"
	"holiday-pipeline/src/models"
	"holiday-pipeline/src/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Engine loads the local description cache into a durable target.
//
// It is sequential within and across batches and assumes it is the only
// writer for the duration of a run. SkipExisting is a check followed by an
// insert with no uniqueness constraint behind it, so concurrent runs can
// double-insert.
type Engine struct {
	Source  interfaces.IStorage // holds Options.SourceKey
	Backups interfaces.IStorage
	Target  interfaces.IMigrationTarget
	Options models.MMigrationOptions
	Clock   interfaces.IClock
	Metrics *metrics.Metrics
	Logger  *logger.Logger
	Sleep   func(ctx context.Context, d time.Duration) error

	validate *validator.Validate
}

// -----------------------------------------------------------------------------

func NewEngine(source, backups interfaces.IStorage, target interfaces.IMigrationTarget, opts models.MMigrationOptions, log *logger.Logger) *Engine {
	if opts.BatchSize <= 0 {
		opts.BatchSize = utils.DefaultBatchSize
	}
	if opts.BatchDelay < 0 {
		opts.BatchDelay = 0
	}
	if opts.AIModel == "" {
		opts.AIModel = "unknown"
	}
	return &Engine{
		Source:   source,
		Backups:  backups,
		Target:   target,
		Options:  opts,
		Clock:    cache.SystemClock{},
		Logger:   log,
		Sleep:    helpers.SleepContext,
		validate: validator.New(),
	}
}

// -----------------------------------------------------------------------------

type sourceRecord struct {
	key    string
	record models.MMigrationTargetRecord
}

// -----------------------------------------------------------------------------

// Run executes one migration. Fatal conditions (unreachable target, missing
// or unparseable source, backup failure, rollback) return an error matched by
// errors.Is against the helpers sentinels; the partial result is returned
// alongside.
func (e *Engine) Run(ctx context.Context) (models.MMigrationResult, error) {
	start := time.Now()
	result := models.MMigrationResult{
		RunID:  uuid.New().String(),
		DryRun: e.Options.DryRun,
		Errors: []string{},
	}
	e.Logger.Info("Migration %s starting (dryRun=%v, batchSize=%d, skipExisting=%v, rollbackOnError=%v)",
		result.RunID, e.Options.DryRun, e.Options.BatchSize, e.Options.SkipExisting, e.Options.RollbackOnError)

	// 1. Connectivity
	if err := e.Target.Ping(ctx); err != nil {
		e.Logger.Error("Target unreachable: %v", err)
		return e.finish(result, start), fmt.Errorf("%w: %v", helpers.ErrTargetUnreachable, err)
	}

	// 2. Source
	raw, entries, err := e.loadSource(ctx)
	if err != nil {
		e.Logger.Error("%v", err)
		return e.finish(result, start), err
	}
	e.Logger.Info("Loaded %d source entries from %s", len(entries), e.Options.SourceKey)

	// 3. Transform
	now := e.Clock.Now().UTC()
	records := e.transformAll(entries, now, &result)
	e.Logger.Info("Transformed %d entries, %d invalid", len(records), result.Invalid)

	if e.Options.DryRun {
		result.WouldMigrate = len(records)
		e.Logger.Info("Dry run: would migrate %d entries, nothing written", result.WouldMigrate)
		return e.finish(result, start), nil
	}

	// 4. Backup
	backupKey, err := e.writeBackup(ctx, raw, len(entries), now)
	if err != nil {
		e.Logger.Error("Backup failed: %v", err)
		return e.finish(result, start), err
	}
	e.Logger.Info("Backup written: %s", backupKey)

	// 5-8. Batches
	if err := e.migrateBatches(ctx, records, &result); err != nil {
		return e.finish(result, start), err
	}

	// 9. Verification
	e.verify(ctx, len(records))

	return e.finish(result, start), nil
}

// -----------------------------------------------------------------------------

// loadSource returns the raw source bytes and the entries keyed by their
// opaque source keys.
func (e *Engine) loadSource(ctx context.Context) ([]byte, map[string]json.RawMessage, error) {
	data, found, err := e.Source.Get(ctx, e.Options.SourceKey)
	if err != nil {
		return nil, nil, helpers.NewMigrationError(fmt.Sprintf("read %s", e.Options.SourceKey), err)
	}
	if !found {
		return nil, nil, fmt.Errorf("%w: %s", helpers.ErrSourceNotFound, e.Options.SourceKey)
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", helpers.ErrInvalidSourceJSON, e.Options.SourceKey, err)
	}
	return data, entries, nil
}

// -----------------------------------------------------------------------------

func (e *Engine) transformAll(entries map[string]json.RawMessage, now time.Time, result *models.MMigrationResult) []sourceRecord {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([]sourceRecord, 0, len(keys))
	for _, k := range keys {
		var entry models.MMigrationSourceEntry
		if err := json.Unmarshal(entries[k], &entry); err != nil {
			result.Invalid++
			e.Logger.Warning("Invalid entry %q: %v", k, err)
			continue
		}
		if err := e.checkEntry(entry); err != nil {
			result.Invalid++
			e.Logger.Warning("Invalid entry %q: %v", k, err)
			continue
		}
		records = append(records, sourceRecord{key: k, record: e.transform(entry, now)})
	}
	e.Metrics.ObserveMigration("invalid", result.Invalid)
	return records
}

// -----------------------------------------------------------------------------

func (e *Engine) migrateBatches(ctx context.Context, records []sourceRecord, result *models.MMigrationResult) error {
	size := e.Options.BatchSize
	total := (len(records) + size - 1) / size

	for b := 0; b < total; b++ {
		if b > 0 {
			if err := e.sleep(ctx, e.Options.BatchDelay); err != nil {
				return err
			}
		}

		lo, hi := b*size, (b+1)*size
		if hi > len(records) {
			hi = len(records)
		}

		success, failed, skipped := 0, 0, 0
		for _, sr := range records[lo:hi] {
			switch e.migrateOne(ctx, sr.record, result) {
			case outcomeSuccess:
				success++
			case outcomeSkipped:
				skipped++
			case outcomeFailed:
				failed++
			}
		}
		e.Metrics.ObserveMigration("success", success)
		e.Metrics.ObserveMigration("skipped", skipped)
		e.Metrics.ObserveMigration("failed", failed)
		e.Logger.Info("Batch %d/%d: %d migrated, %d skipped, %d failed", b+1, total, success, skipped, failed)

		if failed > 0 && e.Options.RollbackOnError {
			return e.rollback(ctx, b+1, failed)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (e *Engine) migrateOne(ctx context.Context, rec models.MMigrationTargetRecord, result *models.MMigrationResult) outcome {
	label := fmt.Sprintf("%s (%s)", rec.HolidayName, rec.CountryName)

	if e.Options.SkipExisting {
		exists, err := e.Target.FindExisting(ctx, rec.HolidayName, rec.CountryName, rec.Locale)
		if err != nil {
			result.Failed++
			msg := fmt.Sprintf("%s: %v", label, err)
			result.Errors = append(result.Errors, msg)
			e.Logger.Error("%s", msg)
			return outcomeFailed
		}
		if exists {
			result.Skipped++
			if e.Options.Verbose {
				e.Logger.Info("Skipped existing %s [%s]", label, rec.Locale)
			}
			return outcomeSkipped
		}
	}

	if err := e.Target.Insert(ctx, rec); err != nil {
		result.Failed++
		msg := fmt.Sprintf("%s: %v", label, err)
		result.Errors = append(result.Errors, msg)
		e.Logger.Error("%s", msg)
		return outcomeFailed
	}

	result.Success++
	if e.Options.Verbose {
		e.Logger.Info("Migrated %s [%s]", label, rec.Locale)
	}
	return outcomeSuccess
}

// -----------------------------------------------------------------------------

// rollback deletes every row carrying the migration marker and ends the run.
func (e *Engine) rollback(ctx context.Context, batch, failed int) error {
	e.Logger.Warning("Batch %d had %d failures, rolling back", batch, failed)

	deleted, err := e.Target.DeleteByModifiedBy(ctx, models.MigrationMarker)
	if err != nil {
		e.Logger.Error("Rollback failed: %v", err)
		return errors.Join(
			fmt.Errorf("%w: batch %d had %d failures", helpers.ErrRolledBack, batch, failed),
			helpers.NewMigrationError("rollback delete", err),
		)
	}
	e.Logger.Warning("Rollback removed %d records tagged %s", deleted, models.MigrationMarker)
	return fmt.Errorf("%w: batch %d had %d failures", helpers.ErrRolledBack, batch, failed)
}

// -----------------------------------------------------------------------------

// verify compares the tagged row count with the transformed entry count and
// reads back a few rows. Mismatches are logged, never fatal.
func (e *Engine) verify(ctx context.Context, expected int) {
	count, err := e.Target.CountByModifiedBy(ctx, models.MigrationMarker)
	if err != nil {
		e.Logger.Warning("Verification count failed: %v", err)
	} else if int(count) != expected {
		e.Logger.Warning("Verification: %d records tagged %s, expected %d", count, models.MigrationMarker, expected)
	} else {
		e.Logger.Info("Verification: %d records tagged %s", count, models.MigrationMarker)
	}

	sample, err := e.Target.Sample(ctx, utils.DefaultSampleSize)
	if err != nil {
		e.Logger.Warning("Verification sample failed: %v", err)
		return
	}
	for _, rec := range sample {
		e.Logger.Info("Sample: %s (%s) [%s] %d chars", rec.HolidayName, rec.CountryName, rec.Locale, len(rec.Description))
	}
}

// -----------------------------------------------------------------------------

func (e *Engine) finish(result models.MMigrationResult, start time.Time) models.MMigrationResult {
	result.Duration = time.Since(start)
	e.Logger.Info("Summary: success=%d failed=%d skipped=%d invalid=%d wouldMigrate=%d errors=%d duration=%v",
		result.Success, result.Failed, result.Skipped, result.Invalid, result.WouldMigrate, len(result.Errors), result.Duration.Round(time.Millisecond))
	for _, msg := range result.Errors {
		e.Logger.Info("  error: %s", msg)
	}
	return result
}

// -----------------------------------------------------------------------------

func (e *Engine) sleep(ctx context.Context, d time.Duration) error {
	if e.Sleep == nil {
		return helpers.SleepContext(ctx, d)
	}
	return e.Sleep(ctx, d)
}
