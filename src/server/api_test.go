package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"holiday-pipeline/src/helpers"
	"holiday-pipeline/src/metrics"
	"holiday-pipeline/src/models"

	"github.com/gorilla/websocket"
)

type fakeCollector struct {
	files      map[string]*models.MHolidayDataFile
	collectErr error
	useCache   []bool
}

func (f *fakeCollector) HasData(_ context.Context, cc string, year int) bool {
	_, ok := f.files[fmt.Sprintf("%s-%d", cc, year)]
	return ok
}

func (f *fakeCollector) CollectHolidayData(_ context.Context, cc string, year int, useCache bool) ([]models.MHoliday, error) {
	f.useCache = append(f.useCache, useCache)
	if f.collectErr != nil {
		return nil, f.collectErr
	}
	return []models.MHoliday{{ID: "x", Name: "Holiday", Date: fmt.Sprintf("%d-01-01", year), CountryCode: cc}}, nil
}

func (f *fakeCollector) LoadHolidayData(_ context.Context, cc string, year int) (*models.MHolidayDataFile, error) {
	file, ok := f.files[fmt.Sprintf("%s-%d", cc, year)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", cc, helpers.ErrHolidayDataNotFound)
	}
	return file, nil
}

func (f *fakeCollector) GetDataStatistics(context.Context) (models.MDataStatistics, error) {
	return models.MDataStatistics{TotalFiles: len(f.files), Countries: []string{"US"}, Years: []int{2024}}, nil
}

func newTestServer(fc *fakeCollector) *APIServer {
	cfg := &models.MConfig{Host: "127.0.0.1", Port: 0, Provider: models.MProviderConfig{Name: models.ProviderNager}}
	return NewAPIServer(cfg, fc, metrics.NewMetrics(), nil)
}

func do(t *testing.T, s *APIServer, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	s.Handler().ServeHTTP(rec, req)
	return rec
}

// -----------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(&fakeCollector{}), http.MethodGet, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["status"] != "ok" || body["provider"] != "nager" {
		t.Errorf("body = %v", body)
	}
}

func TestGetHolidays(t *testing.T) {
	fc := &fakeCollector{files: map[string]*models.MHolidayDataFile{
		"US-2024": {CountryCode: "US", Year: 2024, TotalHolidays: 1, Holidays: []models.MHoliday{{Name: "Independence Day", Date: "2024-07-04"}}},
	}}
	s := newTestServer(fc)

	tests := []struct {
		path string
		code int
	}{
		{"/api/holidays/us/2024", http.StatusOK},
		{"/api/holidays/US/2025", http.StatusNotFound},
		{"/api/holidays/USA/2024", http.StatusBadRequest},
		{"/api/holidays/U1/2024", http.StatusBadRequest},
		{"/api/holidays/US/abcd", http.StatusBadRequest},
		{"/api/holidays/US/1800", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if rec := do(t, s, http.MethodGet, tt.path); rec.Code != tt.code {
			t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.code)
		}
	}

	rec := do(t, s, http.MethodGet, "/api/holidays/US/2024")
	var file models.MHolidayDataFile
	if err := json.Unmarshal(rec.Body.Bytes(), &file); err != nil {
		t.Fatal(err)
	}
	if file.TotalHolidays != 1 || file.Holidays[0].Name != "Independence Day" {
		t.Errorf("file = %+v", file)
	}
}

func TestPostCollect(t *testing.T) {
	fc := &fakeCollector{}
	s := newTestServer(fc)

	rec := do(t, s, http.MethodPost, "/api/collect/de/2024?useCache=false")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		CountryCode   string `json:"countryCode"`
		TotalHolidays int    `json:"totalHolidays"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.CountryCode != "DE" || body.TotalHolidays != 1 {
		t.Errorf("body = %+v", body)
	}

	do(t, s, http.MethodPost, "/api/collect/DE/2024")
	if len(fc.useCache) != 2 || fc.useCache[0] || !fc.useCache[1] {
		t.Errorf("useCache = %v", fc.useCache)
	}

	fc.collectErr = helpers.NewNetworkError("GET", 503, errors.New("unavailable"))
	if rec := do(t, s, http.MethodPost, "/api/collect/DE/2024"); rec.Code != http.StatusBadGateway {
		t.Errorf("failed collect status = %d", rec.Code)
	}
}

func TestStatisticsAndMetrics(t *testing.T) {
	s := newTestServer(&fakeCollector{})

	if rec := do(t, s, http.MethodGet, "/api/statistics"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"countries":["US"]`) {
		t.Errorf("statistics = %d %s", rec.Code, rec.Body.String())
	}

	s.Metrics.ObserveDropped(2)
	rec := do(t, s, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "holiday_pipeline_validation_dropped_total 2") {
		t.Errorf("metrics = %d %s", rec.Code, rec.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(&fakeCollector{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("preflight = %d %v", rec.Code, rec.Header())
	}
}

// -----------------------------------------------------------------------------

func TestWebSocketReceivesEvents(t *testing.T) {
	s := newTestServer(&fakeCollector{})
	go s.handleWebsockets()
	defer close(s.done)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	s.Broadcast(models.MCollectionEvent{Type: models.EventCollected, CountryCode: "US", Year: 2024, Holidays: 11, Origin: models.OriginProvider})

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var event models.MCollectionEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatal(err)
	}
	if event.CountryCode != "US" || event.Holidays != 11 || event.Origin != models.OriginProvider {
		t.Errorf("event = %+v", event)
	}
	if got := s.RecentEvents(); len(got) != 1 {
		t.Errorf("recent = %v", got)
	}
}

func TestClientFilter(t *testing.T) {
	c := &Client{send: make(chan models.MCollectionEvent, 8)}
	c.setFilter([]string{" fr ", "de"})

	events := []models.MCollectionEvent{
		{Type: models.EventCollected, CountryCode: "US"},
		{Type: models.EventCollected, CountryCode: "FR"},
		{Type: models.EventBatchDone},
		{Type: models.EventFailed, CountryCode: "DE"},
	}
	c.deliver(events)
	close(c.send)

	var got []string
	for e := range c.send {
		got = append(got, e.Type+":"+e.CountryCode)
	}
	if want := "COLLECTED:FR,BATCH_DONE:,FAILED:DE"; strings.Join(got, ",") != want {
		t.Errorf("delivered %v, want %s", got, want)
	}

	c.setFilter(nil)
	if !c.wants(events[0]) {
		t.Error("empty filter should pass everything")
	}
}
