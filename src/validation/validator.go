package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"holiday-pipeline/src/interfaces"
	"holiday-pipeline/src/logger"
	"holiday-pipeline/src/models"
)

const dateLayout = "2006-01-02"

// Validator filters, deduplicates and stamps one (country, year) batch. Its
// output is authoritative; nothing downstream validates again.
type Validator struct {
	Clock  interfaces.IClock
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewValidator(clock interfaces.IClock, log *logger.Logger) *Validator {
	return &Validator{Clock: clock, Logger: log}
}

// -----------------------------------------------------------------------------

// Validate runs, in order: drop records missing name or date, drop records
// whose date does not parse or falls outside year, drop (date, name)
// duplicates keeping the first, then assign ids, uppercase the country,
// trim text, stamp timestamps and sort by date. Every drop is logged.
func (v *Validator) Validate(batch []models.MHoliday, countryCode string, year int) []models.MHoliday {
	cc := strings.ToUpper(strings.TrimSpace(countryCode))
	now := v.now()

	seen := make(map[string]struct{}, len(batch))
	out := make([]models.MHoliday, 0, len(batch))

	for _, h := range batch {
		name := strings.TrimSpace(h.Name)
		date := strings.TrimSpace(h.Date)

		if name == "" || date == "" {
			v.Logger.Warning("Dropping %s/%d record without name or date: %+v", cc, year, h)
			continue
		}

		parsed, err := time.Parse(dateLayout, date)
		if err != nil {
			v.Logger.Warning("Dropping %s/%d record with unparseable date %q: %+v", cc, year, date, h)
			continue
		}
		if parsed.Year() != year {
			v.Logger.Warning("Dropping %s/%d record dated %s (year %d): %+v", cc, year, date, parsed.Year(), h)
			continue
		}

		dedup := date + "|" + name
		if _, dup := seen[dedup]; dup {
			v.Logger.Warning("Dropping duplicate %s/%d record %q on %s: %+v", cc, year, name, date, h)
			continue
		}
		seen[dedup] = struct{}{}

		h.Name = name
		h.Date = date
		h.Description = strings.TrimSpace(h.Description)
		if code := strings.ToUpper(strings.TrimSpace(h.CountryCode)); code != "" {
			h.CountryCode = code
		} else {
			h.CountryCode = cc
		}
		if h.ID == "" {
			h.ID = fmt.Sprintf("%s-%s-%d", h.CountryCode, date, len(out))
		}
		if h.Type == "" {
			h.Type = models.HolidayTypeOptional
		}
		h.CreatedAt = now
		h.UpdatedAt = now
		out = append(out, h)
	}

	// ISO dates sort lexically
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })

	if dropped := len(batch) - len(out); dropped > 0 {
		v.Logger.Info("Validated %s/%d: kept %d, dropped %d", cc, year, len(out), dropped)
	}
	return out
}

// -----------------------------------------------------------------------------

func (v *Validator) now() time.Time {
	if v.Clock == nil {
		return time.Now().UTC()
	}
	return v.Clock.Now().UTC()
}
