package models

import "time"

// MHolidayType is the internal classification of a holiday.
type MHolidayType string

const (
	HolidayTypePublic   MHolidayType = "public"
	HolidayTypeBank     MHolidayType = "bank"
	HolidayTypeSchool   MHolidayType = "school"
	HolidayTypeOptional MHolidayType = "optional"
)

// Provider identifiers
const (
	ProviderCalendarific = "calendarific"
	ProviderNager        = "nager"
)

// MHoliday is one calendar event for one country/year.
type MHoliday struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Date        string       `json:"date"` // YYYY-MM-DD
	CountryCode string       `json:"countryCode"`
	Country     string       `json:"country,omitempty"`
	Description string       `json:"description,omitempty"`
	Type        MHolidayType `json:"type"`
	Global      bool         `json:"global"`
	Counties    []string     `json:"counties,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// MHolidayDataFile is the persisted artifact for one (country, year).
type MHolidayDataFile struct {
	CountryCode   string     `json:"countryCode"`
	Year          int        `json:"year"`
	TotalHolidays int        `json:"totalHolidays"`
	LastUpdated   time.Time  `json:"lastUpdated"`
	Holidays      []MHoliday `json:"holidays"`
}
