package datasource

import (
	"context"
	"fmt"
	"strings"

	"holiday-pipeline/src/cache"
	"holiday-pipeline/src/helpers"
	"holiday-pipeline/src/interfaces"
	"holiday-pipeline/src/logger"
	"holiday-pipeline/src/metrics"
	"holiday-pipeline/src/models"
)

// FetchResult is a normalized batch and where it came from.
type FetchResult struct {
	Holidays []models.MHoliday
	Origin   string // models.OriginProvider or models.OriginRawCache
}

// HolidaySource fetches through the retry executor, normalizes, and keeps
// the raw fallback cache current.
type HolidaySource struct {
	Provider interfaces.IHolidayProvider
	RawCache *cache.RawFileCache
	Policy   helpers.RetryPolicy
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
}

// -----------------------------------------------------------------------------

func NewHolidaySource(provider interfaces.IHolidayProvider, rawCache *cache.RawFileCache, policy helpers.RetryPolicy, m *metrics.Metrics, log *logger.Logger) *HolidaySource {
	return &HolidaySource{
		Provider: provider,
		RawCache: rawCache,
		Policy:   policy,
		Metrics:  m,
		Logger:   log,
	}
}

// -----------------------------------------------------------------------------

// FetchHolidaysByCountryYear returns the normalized holidays for one pair.
// When every attempt fails, a raw cache entry no older than its max age is
// returned instead; otherwise the last fetch error propagates unchanged.
func (s *HolidaySource) FetchHolidaysByCountryYear(ctx context.Context, countryCode string, year int) ([]models.MHoliday, error) {
	res, err := s.Fetch(ctx, countryCode, year)
	if err != nil {
		return nil, err
	}
	return res.Holidays, nil
}

// -----------------------------------------------------------------------------

// Fetch is FetchHolidaysByCountryYear reporting the origin of the data.
func (s *HolidaySource) Fetch(ctx context.Context, countryCode string, year int) (FetchResult, error) {
	cc := strings.ToUpper(countryCode)
	op := fmt.Sprintf("%s fetch %s/%d", s.Provider.Name(), cc, year)

	raw, err := helpers.Retry(ctx, s.Policy, op, s.Logger, func() ([]byte, error) {
		body, err := s.Provider.FetchRaw(ctx, cc, year)
		s.Metrics.ObserveFetch(s.Provider.Name(), err)
		return body, err
	})
	if err != nil {
		if s.RawCache != nil {
			if cached, ok := s.RawCache.Get(ctx, cc, year); ok {
				s.Logger.Warning("Provider unavailable for %s/%d, serving %d holidays from raw cache: %v", cc, year, len(cached), err)
				s.Metrics.ObserveFallback(models.OriginRawCache)
				return FetchResult{Holidays: cached, Origin: models.OriginRawCache}, nil
			}
		}
		return FetchResult{}, err
	}

	holidays := Normalize(raw, cc, s.Provider.Name(), s.Logger)
	if len(holidays) == 0 {
		s.Logger.Info("Provider returned no holidays for %s/%d", cc, year)
	}

	if s.RawCache != nil {
		if err := s.RawCache.Put(ctx, cc, year, holidays); err != nil {
			s.Logger.Warning("Could not update raw cache for %s/%d: %v", cc, year, err)
		}
	}
	return FetchResult{Holidays: holidays, Origin: models.OriginProvider}, nil
}
