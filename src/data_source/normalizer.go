package datasource

import (
	"encoding/json"
	"strings"

	"holiday-pipeline/src/logger"
	"holiday-pipeline/src/models"
)

// -----------------------------------------------------------------------------
// Type classification
// -----------------------------------------------------------------------------

// holidayTypeRules is checked top to bottom; the first keyword found in any
// provider tag decides the type. Anything unmatched is optional.
var holidayTypeRules = []struct {
	Keyword string
	Type    models.MHolidayType
}{
	{"public", models.HolidayTypePublic},
	{"national", models.HolidayTypePublic},
	{"bank", models.HolidayTypeBank},
	{"school", models.HolidayTypeSchool},
}

// ClassifyHolidayType maps free-text provider tags to the internal enum.
func ClassifyHolidayType(tags []string) models.MHolidayType {
	lowered := make([]string, 0, len(tags))
	for _, t := range tags {
		lowered = append(lowered, strings.ToLower(t))
	}
	for _, rule := range holidayTypeRules {
		for _, t := range lowered {
			if strings.Contains(t, rule.Keyword) {
				return rule.Type
			}
		}
	}
	return models.HolidayTypeOptional
}

// -----------------------------------------------------------------------------
// Wire formats
// -----------------------------------------------------------------------------

type calendarificResponse struct {
	Response *struct {
		Holidays []calendarificHoliday `json:"holidays"`
	} `json:"response"`
}

type calendarificHoliday struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Country     struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"country"`
	Date struct {
		ISO string `json:"iso"`
	} `json:"date"`
	Type        []string        `json:"type"`
	PrimaryType string          `json:"primary_type"`
	States      json.RawMessage `json:"states"`
}

type nagerHoliday struct {
	Date      string   `json:"date"`
	LocalName string   `json:"localName"`
	Name      string   `json:"name"`
	Global    bool     `json:"global"`
	Counties  []string `json:"counties"`
}

// -----------------------------------------------------------------------------

// Normalize maps a provider's raw response into Holiday records. A malformed
// payload yields an empty slice and a warning; it never returns an error.
func Normalize(raw []byte, countryCode string, provider string, log *logger.Logger) []models.MHoliday {
	switch provider {
	case models.ProviderCalendarific:
		return normalizeCalendarific(raw, countryCode, log)
	case models.ProviderNager:
		return normalizeNager(raw, countryCode, log)
	default:
		warn(log, "Unknown provider %q for %s, nothing normalized", provider, countryCode)
		return []models.MHoliday{}
	}
}

// -----------------------------------------------------------------------------

func normalizeCalendarific(raw []byte, countryCode string, log *logger.Logger) []models.MHoliday {
	var resp calendarificResponse
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Response == nil {
		warn(log, "Malformed calendarific response for %s: %v", countryCode, err)
		return []models.MHoliday{}
	}

	out := make([]models.MHoliday, 0, len(resp.Response.Holidays))
	for _, h := range resp.Response.Holidays {
		tags := h.Type
		if len(tags) == 0 && h.PrimaryType != "" {
			tags = []string{h.PrimaryType}
		}
		out = append(out, models.MHoliday{
			Name:        h.Name,
			Date:        datePart(h.Date.ISO),
			CountryCode: countryCode,
			Country:     h.Country.Name,
			Description: h.Description,
			Type:        ClassifyHolidayType(tags),
			Global:      h.PrimaryType == "Public Holiday",
			Counties:    parseStates(h.States),
		})
	}
	return out
}

// -----------------------------------------------------------------------------

func normalizeNager(raw []byte, countryCode string, log *logger.Logger) []models.MHoliday {
	var list []nagerHoliday
	if err := json.Unmarshal(raw, &list); err != nil {
		warn(log, "Malformed nager response for %s: %v", countryCode, err)
		return []models.MHoliday{}
	}

	out := make([]models.MHoliday, 0, len(list))
	for _, h := range list {
		name := h.Name
		if strings.TrimSpace(name) == "" {
			name = h.LocalName
		}
		hType := models.HolidayTypeOptional
		if h.Global {
			hType = models.HolidayTypePublic
		}
		out = append(out, models.MHoliday{
			Name:        name,
			Date:        h.Date,
			CountryCode: countryCode,
			Type:        hType,
			Global:      h.Global,
			Counties:    h.Counties,
		})
	}
	return out
}

// -----------------------------------------------------------------------------

// parseStates accepts "All", a comma-separated string, or a list of
// {"name": …} objects.
func parseStates(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.EqualFold(strings.TrimSpace(s), "all") {
			return nil
		}
		return splitNonEmpty(s)
	}

	var objs []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &objs); err == nil {
		var names []string
		for _, o := range objs {
			if n := strings.TrimSpace(o.Name); n != "" {
				names = append(names, n)
			}
		}
		return names
	}
	return nil
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// datePart trims an ISO datetime ("2024-03-10T02:00:00-05:00") to its date.
func datePart(iso string) string {
	iso = strings.TrimSpace(iso)
	if len(iso) > 10 && iso[10] == 'T' {
		return iso[:10]
	}
	return iso
}

func warn(log *logger.Logger, format string, args ...interface{}) {
	if log != nil {
		log.Warning(format, args...)
	}
}
