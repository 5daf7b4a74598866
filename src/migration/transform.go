package migration

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"holiday-pipeline/src/models"

	"github.com/go-playground/validator/v10"
)

// -----------------------------------------------------------------------------

// checkEntry rejects entries missing holidayName or countryName or with a
// blank description.
func (e *Engine) checkEntry(entry models.MMigrationSourceEntry) error {
	entry.HolidayName = strings.TrimSpace(entry.HolidayName)
	entry.CountryName = strings.TrimSpace(entry.CountryName)
	entry.Description = strings.TrimSpace(entry.Description)

	if err := e.validate.Struct(entry); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return fmt.Errorf("missing %s", strings.Join(fields, ", "))
		}
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// transform maps a valid source entry to its target row, tagged with the
// rollback marker.
func (e *Engine) transform(entry models.MMigrationSourceEntry, now time.Time) models.MMigrationTargetRecord {
	return models.MMigrationTargetRecord{
		HolidayID:   entry.HolidayID,
		HolidayName: strings.TrimSpace(entry.HolidayName),
		CountryName: strings.TrimSpace(entry.CountryName),
		Locale:      entry.Locale,
		Description: strings.TrimSpace(entry.Description),
		Confidence:  entry.Confidence,
		GeneratedAt: e.parseTime(entry.GeneratedAt, "generatedAt", entry, now),
		LastUsed:    e.parseTime(entry.LastUsed, "lastUsed", entry, now),
		ModifiedAt:  now,
		ModifiedBy:  models.MigrationMarker,
		IsManual:    false,
		AIModel:     e.Options.AIModel,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// -----------------------------------------------------------------------------

func (e *Engine) parseTime(value, field string, entry models.MMigrationSourceEntry, now time.Time) time.Time {
	if strings.TrimSpace(value) == "" {
		return now
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		e.Logger.Warning("%s (%s): bad %s %q, using now", entry.HolidayName, entry.CountryName, field, value)
		return now
	}
	return t.UTC()
}
