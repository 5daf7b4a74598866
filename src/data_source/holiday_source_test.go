package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"holiday-pipeline/src/cache"
	"holiday-pipeline/src/helpers"
	"holiday-pipeline/src/models"
	"holiday-pipeline/src/storage"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

type fakeProvider struct {
	body  []byte
	err   error
	calls int
}

func (p *fakeProvider) Name() string { return models.ProviderNager }

func (p *fakeProvider) FetchRaw(ctx context.Context, countryCode string, year int) ([]byte, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.body, nil
}

func noWait() helpers.RetryPolicy {
	return helpers.RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Sleep:       func(context.Context, time.Duration) error { return nil },
	}
}

func newSource(p *fakeProvider, clock *fakeClock) (*HolidaySource, *storage.MemoryStorage) {
	store := storage.NewMemoryStorage()
	raw := cache.NewRawFileCache(store, clock, 30*24*time.Hour, nil)
	return NewHolidaySource(p, raw, noWait(), nil, nil), store
}

const nagerUS = `[{"date":"2024-07-04","localName":"Independence Day","name":"Independence Day","global":true}]`

func TestFetchWritesRawCache(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	p := &fakeProvider{body: []byte(nagerUS)}
	src, store := newSource(p, clock)

	got, err := src.FetchHolidaysByCountryYear(ctx, "us", 2024)
	if err != nil || len(got) != 1 {
		t.Fatalf("fetch = %v, %v", got, err)
	}

	data, found, _ := store.Get(ctx, "us-2024.json")
	if !found {
		t.Fatal("raw cache not written")
	}
	var rec models.MRawCacheFile
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatal(err)
	}
	if rec.CountryCode != "US" || rec.Year != 2024 || !rec.CachedAt.Equal(clock.now) || len(rec.Data) != 1 {
		t.Errorf("raw cache record = %+v", rec)
	}
}

func TestFetchFallsBackToRawCache(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	p := &fakeProvider{body: []byte(nagerUS)}
	src, _ := newSource(p, clock)

	if _, err := src.FetchHolidaysByCountryYear(ctx, "US", 2024); err != nil {
		t.Fatal(err)
	}

	p.err = errors.New("connection reset")
	p.calls = 0
	clock.now = clock.now.Add(29 * 24 * time.Hour)

	res, err := src.Fetch(ctx, "US", 2024)
	if err != nil {
		t.Fatalf("expected fallback, got %v", err)
	}
	if res.Origin != models.OriginRawCache || len(res.Holidays) != 1 || res.Holidays[0].Name != "Independence Day" {
		t.Errorf("fallback result = %+v", res)
	}
	if p.calls != 3 {
		t.Errorf("provider called %d times, want 3 attempts", p.calls)
	}
}

func TestFetchIgnoresExpiredRawCache(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	p := &fakeProvider{body: []byte(nagerUS)}
	src, _ := newSource(p, clock)

	if _, err := src.FetchHolidaysByCountryYear(ctx, "US", 2024); err != nil {
		t.Fatal(err)
	}

	fetchErr := errors.New("provider down")
	p.err = fetchErr
	clock.now = clock.now.Add(31 * 24 * time.Hour)

	_, err := src.FetchHolidaysByCountryYear(ctx, "US", 2024)
	if err != fetchErr {
		t.Errorf("err = %v, want the original fetch error", err)
	}
}

func TestFetchMalformedIsEmptyNotError(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	p := &fakeProvider{body: []byte(`{"unexpected":true}`)}
	src, _ := newSource(p, clock)

	got, err := src.FetchHolidaysByCountryYear(context.Background(), "US", 2024)
	if err != nil {
		t.Fatalf("malformed response must not be an error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d holidays", len(got))
	}
}
