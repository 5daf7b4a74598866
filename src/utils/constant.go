package utils

import "time"

// -----------------------------------------------------------------------------

// Pipeline defaults. Config values of zero fall back to these.
const (
	DefaultRequestDelay = 500 * time.Millisecond
	DefaultYearDelay    = 5 * time.Second

	DefaultRawCacheTTL  = 30 * 24 * time.Hour
	DefaultDualCacheTTL = 24 * time.Hour

	DefaultBatchSize  = 50
	DefaultBatchDelay = 100 * time.Millisecond

	DefaultSampleSize = 5
)

// -----------------------------------------------------------------------------

// DurationMs converts a millisecond config value, using def when ms <= 0.
func DurationMs(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// -----------------------------------------------------------------------------

// DurationHours converts an hour config value, using def when h <= 0.
func DurationHours(h int, def time.Duration) time.Duration {
	if h <= 0 {
		return def
	}
	return time.Duration(h) * time.Hour
}
