package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"holiday-pipeline/src/logger"
	"holiday-pipeline/src/models"
)

// TargetTable holds migrated holiday descriptions.
const TargetTable = "holiday_descriptions"

const targetColumns = `holiday_id, holiday_name, country_name, locale, description, confidence,
	generated_at, last_used, modified_at, modified_by, is_manual, ai_model, created_at, updated_at`

// sqlTarget carries the SQL shared by the SQLite and Postgres targets.
// There is deliberately no unique constraint on (holiday_name, country_name,
// locale): skip-existing is advisory.
type sqlTarget struct {
	DB     *sql.DB
	Logger *logger.Logger
	table  string
	// placeholder returns the n-th (1-based) bind marker for the dialect.
	placeholder func(n int) string
}

// -----------------------------------------------------------------------------

func (t *sqlTarget) binds(from, count int) string {
	parts := make([]string, count)
	for i := 0; i < count; i++ {
		parts[i] = t.placeholder(from + i)
	}
	return strings.Join(parts, ", ")
}

// -----------------------------------------------------------------------------

func (t *sqlTarget) Ping(ctx context.Context) error {
	if t.DB == nil {
		return fmt.Errorf("database not initialized")
	}
	return t.DB.PingContext(ctx)
}

// -----------------------------------------------------------------------------

func (t *sqlTarget) FindExisting(ctx context.Context, holidayName, countryName, locale string) (bool, error) {
	query := fmt.Sprintf(`SELECT 1 FROM %s WHERE holiday_name = %s AND country_name = %s AND locale = %s LIMIT 1`,
		t.table, t.placeholder(1), t.placeholder(2), t.placeholder(3))

	var one int
	err := t.DB.QueryRowContext(ctx, query, holidayName, countryName, locale).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// -----------------------------------------------------------------------------

func (t *sqlTarget) Insert(ctx context.Context, rec models.MMigrationTargetRecord) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, t.table, targetColumns, t.binds(1, 14))
	_, err := t.DB.ExecContext(ctx, query,
		rec.HolidayID, rec.HolidayName, rec.CountryName, rec.Locale, rec.Description, rec.Confidence,
		rec.GeneratedAt.UTC(), rec.LastUsed.UTC(), rec.ModifiedAt.UTC(), rec.ModifiedBy, rec.IsManual, rec.AIModel,
		rec.CreatedAt.UTC(), rec.UpdatedAt.UTC(),
	)
	return err
}

// -----------------------------------------------------------------------------

func (t *sqlTarget) DeleteByModifiedBy(ctx context.Context, modifiedBy string) (int64, error) {
	res, err := t.DB.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE modified_by = %s`, t.table, t.placeholder(1)), modifiedBy)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// -----------------------------------------------------------------------------

func (t *sqlTarget) CountByModifiedBy(ctx context.Context, modifiedBy string) (int64, error) {
	var n int64
	err := t.DB.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE modified_by = %s`, t.table, t.placeholder(1)), modifiedBy).Scan(&n)
	return n, err
}

// -----------------------------------------------------------------------------

func (t *sqlTarget) Sample(ctx context.Context, limit int) ([]models.MMigrationTargetRecord, error) {
	if limit <= 0 {
		limit = 5
	}
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at DESC LIMIT %s`, targetColumns, t.table, t.placeholder(1))
	rows, err := t.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MMigrationTargetRecord
	for rows.Next() {
		var rec models.MMigrationTargetRecord
		var generatedAt, lastUsed, modifiedAt, createdAt, updatedAt any
		if err := rows.Scan(
			&rec.HolidayID, &rec.HolidayName, &rec.CountryName, &rec.Locale, &rec.Description, &rec.Confidence,
			&generatedAt, &lastUsed, &modifiedAt, &rec.ModifiedBy, &rec.IsManual, &rec.AIModel,
			&createdAt, &updatedAt,
		); err != nil {
			return nil, err
		}
		rec.GeneratedAt = scanTime(generatedAt)
		rec.LastUsed = scanTime(lastUsed)
		rec.ModifiedAt = scanTime(modifiedAt)
		rec.CreatedAt = scanTime(createdAt)
		rec.UpdatedAt = scanTime(updatedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------

func (t *sqlTarget) Close() error {
	if t.DB != nil {
		return t.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------

// scanTime accepts what either driver hands back for a timestamp column.
func scanTime(v any) time.Time {
	var s string
	switch x := v.(type) {
	case time.Time:
		return x.UTC()
	case string:
		s = x
	case []byte:
		s = string(x)
	default:
		return time.Time{}
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999 -0700 MST",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
