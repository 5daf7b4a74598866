package models

import "time"

// MCacheEntry is the dual cache record, in memory and on disk.
// Timestamp and TTL are milliseconds.
type MCacheEntry[T any] struct {
	Data      T      `json:"data"`
	Timestamp int64  `json:"timestamp"`
	TTL       int64  `json:"ttl"`
	Key       string `json:"key"`
}

// Valid reports whether the entry is still fresh at nowMs.
func (e MCacheEntry[T]) Valid(nowMs int64) bool {
	return nowMs-e.Timestamp < e.TTL
}

// MRawCacheFile is the provider fallback cache record for one (country, year).
type MRawCacheFile struct {
	CountryCode string     `json:"countryCode"`
	Year        int        `json:"year"`
	CachedAt    time.Time  `json:"cachedAt"`
	Data        []MHoliday `json:"data"`
}
