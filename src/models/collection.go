package models

import "time"

// MCollectionResult summarizes one multi-country collection pass.
type MCollectionResult struct {
	Year              int           `json:"year"`
	Success           bool          `json:"success"`
	HolidaysCollected int           `json:"holidaysCollected"`
	Errors            []string      `json:"errors"`
	Duration          time.Duration `json:"duration"`
}

// MDataStatistics aggregates every persisted holiday file.
type MDataStatistics struct {
	TotalFiles    int       `json:"totalFiles"`
	TotalHolidays int       `json:"totalHolidays"`
	Countries     []string  `json:"countries"`
	Years         []int     `json:"years"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// Collection event types pushed to live listeners
const (
	EventCollected = "COLLECTED"
	EventFailed    = "FAILED"
	EventBatchDone = "BATCH_DONE"
)

// Where the holidays of a successful collection came from
const (
	OriginCache    = "cache"
	OriginProvider = "provider"
	OriginRawCache = "raw_cache"
	OriginStale    = "stale"
)

// MCollectionEvent is broadcast after each (country, year) attempt and batch.
type MCollectionEvent struct {
	Type        string `json:"type"`
	CountryCode string `json:"countryCode,omitempty"`
	Year        int    `json:"year"`
	Holidays    int    `json:"holidays"`
	Origin      string `json:"origin,omitempty"`
	Error       string `json:"error,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

// MSubscribeCommand is sent by websocket clients to filter events.
type MSubscribeCommand struct {
	Command   string   `json:"command"`
	Countries []string `json:"countries"`
}
