package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"holiday-pipeline/src/cache"
	datasource "holiday-pipeline/src/data_source"
	"holiday-pipeline/src/helpers"
	"holiday-pipeline/src/interfaces"
	"holiday-pipeline/src/logger"
	"holiday-pipeline/src/metrics"
	"holiday-pipeline/src/models"
	"holiday-pipeline/src/utils"
	"holiday-pipeline/src/validation"
)

var _ interfaces.ICollector = (*HolidayCollector)(nil)

// HolidayCollector drives acquisition for (country, year) pairs and owns the
// persisted holiday files. It is sequential: one pair at a time, with fixed
// delays between requests to stay under provider rate limits.
type HolidayCollector struct {
	Source    *datasource.HolidaySource
	Validator *validation.Validator
	Cache     *cache.DualCache[[]models.MHoliday]
	DataStore interfaces.IStorage
	Exchanger interfaces.IDataExchanger
	Metrics   *metrics.Metrics
	Clock     interfaces.IClock
	Logger    *logger.Logger

	RequestDelay  time.Duration
	YearDelay     time.Duration
	ExchangeAudit bool
	Sleep         func(ctx context.Context, d time.Duration) error
}

// -----------------------------------------------------------------------------

func NewHolidayCollector(
	source *datasource.HolidaySource,
	validator *validation.Validator,
	dualCache *cache.DualCache[[]models.MHoliday],
	dataStore interfaces.IStorage,
	log *logger.Logger,
) *HolidayCollector {
	return &HolidayCollector{
		Source:       source,
		Validator:    validator,
		Cache:        dualCache,
		DataStore:    dataStore,
		Clock:        cache.SystemClock{},
		Logger:       log,
		RequestDelay: utils.DefaultRequestDelay,
		YearDelay:    utils.DefaultYearDelay,
		Sleep:        helpers.SleepContext,
	}
}

// -----------------------------------------------------------------------------

// DataKey is the persisted file for a pair, e.g. "us-2024.json".
func DataKey(countryCode string, year int) string {
	return fmt.Sprintf("%s-%d.json", strings.ToLower(countryCode), year)
}

// -----------------------------------------------------------------------------

// HasData reports whether a persisted file exists. Content is not checked.
func (c *HolidayCollector) HasData(ctx context.Context, countryCode string, year int) bool {
	_, found, err := c.DataStore.Get(ctx, DataKey(countryCode, year))
	if err != nil {
		c.Logger.Warning("Existence check for %s/%d failed: %v", countryCode, year, err)
		return false
	}
	return found
}

// -----------------------------------------------------------------------------

// CollectHolidayData returns the authoritative holidays for one pair.
//
// With useCache the dual cache is consulted first. On a miss the source is
// fetched (retries and raw cache fallback included), validated, persisted and
// cached. If the fetch still fails, a non-empty persisted file is returned
// as stale data; otherwise the fetch error propagates.
func (c *HolidayCollector) CollectHolidayData(ctx context.Context, countryCode string, year int, useCache bool) ([]models.MHoliday, error) {
	cc := strings.ToUpper(strings.TrimSpace(countryCode))
	key := cache.HolidayKey(cc, year)
	start := time.Now()

	if useCache {
		if cached, ok := c.Cache.Get(ctx, key); ok {
			c.Logger.Debug("Cache hit for %s", key)
			c.done(cc, year, cached, models.OriginCache, start)
			return cached, nil
		}
	}

	res, err := c.Source.Fetch(ctx, cc, year)
	if err != nil {
		stale, loadErr := c.LoadHolidayData(ctx, cc, year)
		if loadErr == nil && len(stale.Holidays) > 0 {
			c.Logger.Warning("Fetch for %s/%d failed, returning %d persisted holidays: %v", cc, year, len(stale.Holidays), err)
			c.Metrics.ObserveFallback(models.OriginStale)
			c.done(cc, year, stale.Holidays, models.OriginStale, start)
			return stale.Holidays, nil
		}
		c.failed(cc, year, err, start)
		return nil, err
	}

	holidays := c.Validator.Validate(res.Holidays, cc, year)
	c.Metrics.ObserveDropped(len(res.Holidays) - len(holidays))

	if err := c.persist(ctx, cc, year, holidays); err != nil {
		c.failed(cc, year, err, start)
		return nil, err
	}

	if err := c.Cache.Set(ctx, key, holidays); err != nil {
		c.Logger.Warning("Could not write cache for %s: %v", key, err)
	}

	if c.ExchangeAudit {
		c.auditExchange(cc, holidays)
	}

	c.done(cc, year, holidays, res.Origin, start)
	return holidays, nil
}

// -----------------------------------------------------------------------------

func (c *HolidayCollector) persist(ctx context.Context, countryCode string, year int, holidays []models.MHoliday) error {
	file := models.MHolidayDataFile{
		CountryCode:   countryCode,
		Year:          year,
		TotalHolidays: len(holidays),
		LastUpdated:   c.Clock.Now().UTC(),
		Holidays:      holidays,
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return helpers.NewStorageError("encode holiday file", err)
	}
	if err := c.DataStore.Put(ctx, DataKey(countryCode, year), data); err != nil {
		return helpers.NewStorageError(fmt.Sprintf("write holiday file %s", DataKey(countryCode, year)), err)
	}
	c.Logger.Info("Saved %d holidays for %s/%d", len(holidays), countryCode, year)
	return nil
}

// -----------------------------------------------------------------------------

// LoadHolidayData reads a persisted file. A totalHolidays field that disagrees
// with the holiday count is logged and left as is.
func (c *HolidayCollector) LoadHolidayData(ctx context.Context, countryCode string, year int) (*models.MHolidayDataFile, error) {
	key := DataKey(countryCode, year)
	data, found, err := c.DataStore.Get(ctx, key)
	if err != nil {
		return nil, helpers.NewStorageError(fmt.Sprintf("read %s", key), err)
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", key, helpers.ErrHolidayDataNotFound)
	}
	return c.decode(key, data)
}

// -----------------------------------------------------------------------------

func (c *HolidayCollector) decode(key string, data []byte) (*models.MHolidayDataFile, error) {
	var file models.MHolidayDataFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, helpers.NewStorageError(fmt.Sprintf("decode %s", key), err)
	}
	if file.TotalHolidays != len(file.Holidays) {
		c.Logger.Warning("%s: totalHolidays is %d but file holds %d holidays", key, file.TotalHolidays, len(file.Holidays))
	}
	return &file, nil
}

// -----------------------------------------------------------------------------

// CollectMultipleCountries collects each country for year in order, sleeping
// RequestDelay between countries. One country's failure is recorded and the
// batch continues.
func (c *HolidayCollector) CollectMultipleCountries(ctx context.Context, countries []string, year int) models.MCollectionResult {
	start := time.Now()
	result := models.MCollectionResult{Year: year, Errors: []string{}}

	for i, country := range countries {
		if i > 0 {
			if err := c.sleep(ctx, c.RequestDelay); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("batch %d interrupted: %v", year, err))
				break
			}
		}

		holidays, err := c.CollectHolidayData(ctx, country, year, true)
		if err != nil {
			msg := fmt.Sprintf("%s-%d: %v", strings.ToUpper(country), year, err)
			c.Logger.Error("Collection failed: %s", msg)
			result.Errors = append(result.Errors, msg)
			continue
		}
		result.HolidaysCollected += len(holidays)
	}

	result.Success = len(result.Errors) == 0
	result.Duration = time.Since(start)

	c.Logger.Info("Batch %d done: %d countries, %d holidays, %d errors in %v",
		year, len(countries), result.HolidaysCollected, len(result.Errors), result.Duration.Round(time.Millisecond))
	c.broadcast(models.MCollectionEvent{
		Type:     models.EventBatchDone,
		Year:     year,
		Holidays: result.HolidaysCollected,
		Error:    strings.Join(result.Errors, "; "),
	})
	return result
}

// -----------------------------------------------------------------------------

// CollectAllCountries runs CollectMultipleCountries for each year in order,
// sleeping YearDelay between years.
func (c *HolidayCollector) CollectAllCountries(ctx context.Context, countries []string, years []int) []models.MCollectionResult {
	results := make([]models.MCollectionResult, 0, len(years))
	for i, year := range years {
		if i > 0 {
			if err := c.sleep(ctx, c.YearDelay); err != nil {
				c.Logger.Warning("Full collection stopped before %d: %v", year, err)
				break
			}
		}
		c.Logger.Info("Collecting %d countries for %d (%d/%d)", len(countries), year, i+1, len(years))
		results = append(results, c.CollectMultipleCountries(ctx, countries, year))
	}
	return results
}

// -----------------------------------------------------------------------------

func (c *HolidayCollector) sleep(ctx context.Context, d time.Duration) error {
	if c.Sleep == nil {
		return helpers.SleepContext(ctx, d)
	}
	return c.Sleep(ctx, d)
}

// -----------------------------------------------------------------------------

func (c *HolidayCollector) done(cc string, year int, holidays []models.MHoliday, origin string, start time.Time) {
	c.Metrics.ObserveCollect(cc, origin, len(holidays), time.Since(start))
	c.broadcast(models.MCollectionEvent{
		Type:        models.EventCollected,
		CountryCode: cc,
		Year:        year,
		Holidays:    len(holidays),
		Origin:      origin,
	})
}

func (c *HolidayCollector) failed(cc string, year int, err error, start time.Time) {
	c.Metrics.ObserveCollect(cc, "", 0, time.Since(start))
	c.broadcast(models.MCollectionEvent{
		Type:        models.EventFailed,
		CountryCode: cc,
		Year:        year,
		Error:       err.Error(),
	})
}

func (c *HolidayCollector) broadcast(event models.MCollectionEvent) {
	if c.Exchanger == nil {
		return
	}
	event.Timestamp = c.Clock.Now().UnixMilli()
	c.Exchanger.Broadcast(event)
}
