package metrics

import (
	"errors"
	"testing"
	"time"
)

// value returns the sample of name whose labels include every given pair,
// and the number of series found for name.
func value(t *testing.T, m *Metrics, name string, labels map[string]string) (float64, int) {
	t.Helper()
	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		var found float64
		for _, metric := range mf.GetMetric() {
			matched := 0
			for _, lp := range metric.GetLabel() {
				if v, ok := labels[lp.GetName()]; ok && v == lp.GetValue() {
					matched++
				}
			}
			if matched != len(labels) {
				continue
			}
			switch {
			case metric.GetCounter() != nil:
				found = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				found = metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				found = float64(metric.GetHistogram().GetSampleCount())
			}
		}
		return found, len(mf.GetMetric())
	}
	return 0, 0
}

func TestObserveCollect(t *testing.T) {
	m := NewMetrics()
	m.ObserveCollect("US", "provider", 11, 20*time.Millisecond)
	m.ObserveCollect("US", "cache", 11, time.Millisecond)
	m.ObserveCollect("ZZ", "", 0, time.Millisecond)

	if got, _ := value(t, m, "holiday_pipeline_collect_total", map[string]string{"origin": "provider"}); got != 1 {
		t.Errorf("provider collections = %v", got)
	}
	if got, _ := value(t, m, "holiday_pipeline_collect_total", map[string]string{"origin": "failed"}); got != 1 {
		t.Errorf("failed collections = %v", got)
	}
	if got, _ := value(t, m, "holiday_pipeline_holidays_collected_total", map[string]string{"country": "US"}); got != 22 {
		t.Errorf("US holidays = %v", got)
	}
	if got, _ := value(t, m, "holiday_pipeline_collect_duration_seconds", nil); got != 3 {
		t.Errorf("duration samples = %v", got)
	}
	if _, series := value(t, m, "holiday_pipeline_last_success_timestamp_seconds", nil); series != 1 {
		t.Errorf("last success series = %d, failures must not set it", series)
	}
}

func TestObserveFetchAndMigration(t *testing.T) {
	m := NewMetrics()
	m.ObserveFetch("nager", nil)
	m.ObserveFetch("nager", errors.New("boom"))
	m.ObserveFetch("nager", errors.New("boom"))
	m.ObserveMigration("success", 4)
	m.ObserveMigration("failed", 0)

	if got, _ := value(t, m, "holiday_pipeline_provider_fetch_total", map[string]string{"provider": "nager", "result": "error"}); got != 2 {
		t.Errorf("fetch errors = %v", got)
	}
	got, series := value(t, m, "holiday_pipeline_migration_entries_total", map[string]string{"outcome": "success"})
	if got != 4 {
		t.Errorf("migrated = %v", got)
	}
	if series != 1 {
		t.Errorf("zero counts should not create series, got %d", series)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveFetch("nager", nil)
	m.ObserveFallback("raw_cache")
	m.ObserveCollect("US", "provider", 1, time.Second)
	m.ObserveDropped(3)
	m.ObserveMigration("success", 1)
	if m.Handler() == nil {
		t.Error("nil metrics should still serve a handler")
	}
}
