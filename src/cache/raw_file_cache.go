package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"holiday-pipeline/src/helpers"
	"holiday-pipeline/src/interfaces"
	"holiday-pipeline/src/logger"
	"holiday-pipeline/src/models"
	"holiday-pipeline/src/utils"
)

// RawFileCache is the provider fallback cache: the last successful
// normalized fetch per (country, year). It is read only when the provider
// is unreachable.
type RawFileCache struct {
	Storage interfaces.IStorage
	Clock   interfaces.IClock
	MaxAge  time.Duration
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewRawFileCache(store interfaces.IStorage, clock interfaces.IClock, maxAge time.Duration, log *logger.Logger) *RawFileCache {
	if maxAge <= 0 {
		maxAge = utils.DefaultRawCacheTTL
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &RawFileCache{Storage: store, Clock: clock, MaxAge: maxAge, Logger: log}
}

// -----------------------------------------------------------------------------

// RawCacheKey is "{cc}-{year}.json" with the country lowercased.
func RawCacheKey(countryCode string, year int) string {
	return fmt.Sprintf("%s-%d.json", strings.ToLower(countryCode), year)
}

// -----------------------------------------------------------------------------

// Put records a successful fetch.
func (c *RawFileCache) Put(ctx context.Context, countryCode string, year int, data []models.MHoliday) error {
	rec := models.MRawCacheFile{
		CountryCode: strings.ToUpper(countryCode),
		Year:        year,
		CachedAt:    c.Clock.Now().UTC(),
		Data:        data,
	}
	payload, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return helpers.NewStorageError("encode raw cache", err)
	}
	if err := c.Storage.Put(ctx, RawCacheKey(countryCode, year), payload); err != nil {
		return helpers.NewStorageError("write raw cache", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Get returns the cached holidays when an entry exists and is at most MaxAge
// old. Unreadable or expired entries are reported as absent.
func (c *RawFileCache) Get(ctx context.Context, countryCode string, year int) ([]models.MHoliday, bool) {
	key := RawCacheKey(countryCode, year)
	data, found, err := c.Storage.Get(ctx, key)
	if err != nil {
		c.Logger.Warning("Raw cache read %s failed: %v", key, err)
		return nil, false
	}
	if !found {
		return nil, false
	}

	var rec models.MRawCacheFile
	if err := json.Unmarshal(data, &rec); err != nil {
		c.Logger.Warning("Raw cache %s is corrupt: %v", key, err)
		return nil, false
	}

	age := c.Clock.Now().Sub(rec.CachedAt)
	if age > c.MaxAge {
		c.Logger.Debug("Raw cache %s expired (age %v)", key, age.Round(time.Second))
		return nil, false
	}
	return rec.Data, true
}
