package migration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"holiday-pipeline/src/helpers"
	"holiday-pipeline/src/models"
	"holiday-pipeline/src/storage"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

// fakeTarget is an in-memory IMigrationTarget with failure injection.
type fakeTarget struct {
	rows       []models.MMigrationTargetRecord
	pingErr    error
	failInsert map[string]bool // by holiday name
	deleteErr  error
	inserts    int
	deletes    int
	findCalls  int
}

func (f *fakeTarget) Open(context.Context) error       { return nil }
func (f *fakeTarget) Initialize(context.Context) error { return nil }
func (f *fakeTarget) Ping(context.Context) error       { return f.pingErr }
func (f *fakeTarget) Close() error                     { return nil }

func (f *fakeTarget) FindExisting(_ context.Context, name, country, locale string) (bool, error) {
	f.findCalls++
	for _, r := range f.rows {
		if r.HolidayName == name && r.CountryName == country && r.Locale == locale {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTarget) Insert(_ context.Context, rec models.MMigrationTargetRecord) error {
	f.inserts++
	if f.failInsert[rec.HolidayName] {
		return fmt.Errorf("constraint violation")
	}
	f.rows = append(f.rows, rec)
	return nil
}

func (f *fakeTarget) DeleteByModifiedBy(_ context.Context, by string) (int64, error) {
	f.deletes++
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	kept := f.rows[:0]
	var n int64
	for _, r := range f.rows {
		if r.ModifiedBy == by {
			n++
			continue
		}
		kept = append(kept, r)
	}
	f.rows = kept
	return n, nil
}

func (f *fakeTarget) CountByModifiedBy(_ context.Context, by string) (int64, error) {
	var n int64
	for _, r := range f.rows {
		if r.ModifiedBy == by {
			n++
		}
	}
	return n, nil
}

func (f *fakeTarget) Sample(_ context.Context, limit int) ([]models.MMigrationTargetRecord, error) {
	if len(f.rows) < limit {
		limit = len(f.rows)
	}
	return f.rows[:limit], nil
}

// -----------------------------------------------------------------------------

const sourceKey = "description-cache.json"

var runAt = time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, source string, target *fakeTarget, opts models.MMigrationOptions) (*Engine, *storage.MemoryStorage) {
	t.Helper()
	ctx := context.Background()
	src := storage.NewMemoryStorage()
	if source != "" {
		if err := src.Put(ctx, sourceKey, []byte(source)); err != nil {
			t.Fatal(err)
		}
	}
	backups := storage.NewMemoryStorage()
	opts.SourceKey = sourceKey
	e := NewEngine(src, backups, target, opts, nil)
	e.Clock = &fakeClock{now: runAt}
	e.Sleep = func(context.Context, time.Duration) error { return nil }
	return e, backups
}

func entryJSON(name, country, locale, desc string) string {
	return fmt.Sprintf(`{"holidayName":%q,"countryName":%q,"locale":%q,"description":%q,"confidence":0.9}`, name, country, locale, desc)
}

// -----------------------------------------------------------------------------

func TestRunSingleEntry(t *testing.T) {
	source := `{"a":{"holidayId":"US-2025-07-04-9","holidayName":"Independence Day","countryName":"United States",
		"locale":"ko","description":"미국 독립기념일","confidence":0.95,
		"generatedAt":"2025-07-28T04:56:09.346Z","lastUsed":"2025-07-29T08:29:09.974Z"}}`
	target := &fakeTarget{}
	e, backups := newEngine(t, source, target, models.MMigrationOptions{BatchSize: 50, AIModel: "gpt-4o"})

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Success != 1 || result.Failed != 0 || result.Skipped != 0 || len(result.Errors) != 0 {
		t.Errorf("result = %+v", result)
	}
	if result.RunID == "" {
		t.Error("run id not set")
	}

	if len(target.rows) != 1 {
		t.Fatalf("target has %d rows", len(target.rows))
	}
	row := target.rows[0]
	if row.HolidayID != "US-2025-07-04-9" || row.HolidayName != "Independence Day" || row.CountryName != "United States" || row.Locale != "ko" {
		t.Errorf("identity fields = %+v", row)
	}
	if row.Confidence != 0.95 || row.ModifiedBy != models.MigrationMarker || row.IsManual || row.AIModel != "gpt-4o" {
		t.Errorf("metadata fields = %+v", row)
	}
	if want := time.Date(2025, 7, 28, 4, 56, 9, 346_000_000, time.UTC); !row.GeneratedAt.Equal(want) {
		t.Errorf("generated_at = %v", row.GeneratedAt)
	}
	if want := time.Date(2025, 7, 29, 8, 29, 9, 974_000_000, time.UTC); !row.LastUsed.Equal(want) {
		t.Errorf("last_used = %v", row.LastUsed)
	}
	if !row.CreatedAt.Equal(runAt) || !row.UpdatedAt.Equal(runAt) || !row.ModifiedAt.Equal(runAt) {
		t.Errorf("run timestamps = %v %v %v", row.CreatedAt, row.UpdatedAt, row.ModifiedAt)
	}

	data, found, _ := backups.Get(context.Background(), BackupKey(runAt))
	if !found {
		t.Fatal("backup not written")
	}
	var backup models.MMigrationBackup
	if err := json.Unmarshal(data, &backup); err != nil {
		t.Fatal(err)
	}
	if backup.Metadata.TotalEntries != 1 || backup.Metadata.MigrationVersion != Version {
		t.Errorf("backup metadata = %+v", backup.Metadata)
	}
	var original map[string]json.RawMessage
	if err := json.Unmarshal(backup.OriginalData, &original); err != nil || len(original) != 1 {
		t.Errorf("backup original data = %s (%v)", backup.OriginalData, err)
	}
}

func TestRunDefaultsMissingTimestamps(t *testing.T) {
	target := &fakeTarget{}
	e, _ := newEngine(t, `{"k":`+entryJSON("Diwali", "India", "en", "Festival of lights")+`}`, target, models.MMigrationOptions{})

	if _, err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	row := target.rows[0]
	if !row.GeneratedAt.Equal(runAt) || !row.LastUsed.Equal(runAt) || row.AIModel != "unknown" {
		t.Errorf("row = %+v", row)
	}
}

func TestRunSkipExisting(t *testing.T) {
	target := &fakeTarget{rows: []models.MMigrationTargetRecord{
		{HolidayName: "Christmas", CountryName: "Germany", Locale: "de", ModifiedBy: "manual"},
	}}
	source := `{
		"x":` + entryJSON("Christmas", "Germany", "de", "Weihnachten") + `,
		"y":` + entryJSON("Christmas", "Germany", "en", "Christmas Day") + `
	}`
	e, _ := newEngine(t, source, target, models.MMigrationOptions{SkipExisting: true})

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Skipped != 1 || result.Success != 1 {
		t.Errorf("result = %+v", result)
	}
	if target.findCalls != 2 || target.inserts != 1 {
		t.Errorf("find=%d insert=%d", target.findCalls, target.inserts)
	}
}

func TestRunWithoutSkipExistingDoesNotLookUp(t *testing.T) {
	target := &fakeTarget{}
	e, _ := newEngine(t, `{"x":`+entryJSON("Easter", "France", "fr", "Pâques")+`}`, target, models.MMigrationOptions{})
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if target.findCalls != 0 {
		t.Errorf("FindExisting called %d times", target.findCalls)
	}
}

func TestRunRollbackOnBatchFailure(t *testing.T) {
	var parts []string
	for i := 0; i < 4; i++ {
		parts = append(parts, fmt.Sprintf("%q:%s", fmt.Sprintf("k%d", i), entryJSON(fmt.Sprintf("Holiday %d", i), "Japan", "ja", "desc")))
	}
	target := &fakeTarget{
		rows:       []models.MMigrationTargetRecord{{HolidayName: "Manual", ModifiedBy: "editor"}},
		failInsert: map[string]bool{"Holiday 3": true},
	}
	e, _ := newEngine(t, "{"+strings.Join(parts, ",")+"}", target, models.MMigrationOptions{BatchSize: 2, RollbackOnError: true})

	result, err := e.Run(context.Background())
	if !errors.Is(err, helpers.ErrRolledBack) {
		t.Fatalf("err = %v, want ErrRolledBack", err)
	}
	if result.Success != 3 || result.Failed != 1 || len(result.Errors) != 1 {
		t.Errorf("result = %+v", result)
	}
	if !strings.HasPrefix(result.Errors[0], "Holiday 3 (Japan): ") {
		t.Errorf("error message = %q", result.Errors[0])
	}
	if n, _ := target.CountByModifiedBy(context.Background(), models.MigrationMarker); n != 0 {
		t.Errorf("%d marker rows remain after rollback", n)
	}
	if len(target.rows) != 1 || target.rows[0].ModifiedBy != "editor" {
		t.Errorf("rows not tagged by the migration must survive: %+v", target.rows)
	}
}

func TestRunRollbackDeleteFailure(t *testing.T) {
	target := &fakeTarget{
		failInsert: map[string]bool{"Bad": true},
		deleteErr:  errors.New("connection reset"),
	}
	e, _ := newEngine(t, `{"a":`+entryJSON("Bad", "Peru", "es", "d")+`}`, target, models.MMigrationOptions{RollbackOnError: true})

	_, err := e.Run(context.Background())
	if !errors.Is(err, helpers.ErrRolledBack) {
		t.Errorf("err = %v", err)
	}
	var migErr *helpers.MigrationError
	if !errors.As(err, &migErr) {
		t.Errorf("delete failure should be joined: %v", err)
	}
}

func TestRunFailuresWithoutRollbackContinue(t *testing.T) {
	target := &fakeTarget{failInsert: map[string]bool{"A": true}}
	source := `{"1":` + entryJSON("A", "Chile", "es", "d") + `,"2":` + entryJSON("B", "Chile", "es", "d") + `}`
	e, _ := newEngine(t, source, target, models.MMigrationOptions{BatchSize: 1})

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Failed != 1 || result.Success != 1 || target.deletes != 0 {
		t.Errorf("result = %+v deletes=%d", result, target.deletes)
	}
}

func TestRunDryRun(t *testing.T) {
	target := &fakeTarget{}
	source := `{"1":` + entryJSON("A", "Kenya", "sw", "d") + `,"2":` + entryJSON("B", "Kenya", "sw", "d") + `}`
	e, backups := newEngine(t, source, target, models.MMigrationOptions{DryRun: true, RollbackOnError: true})

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !result.DryRun || result.WouldMigrate != 2 || result.Success != 0 {
		t.Errorf("result = %+v", result)
	}
	if target.inserts != 0 || target.deletes != 0 {
		t.Errorf("dry run touched the target: inserts=%d deletes=%d", target.inserts, target.deletes)
	}
	if keys, _ := backups.List(context.Background(), ""); len(keys) != 0 {
		t.Errorf("dry run wrote backups: %v", keys)
	}
}

func TestRunCountsInvalidEntries(t *testing.T) {
	target := &fakeTarget{}
	source := `{
		"ok":` + entryJSON("Vesak", "Sri Lanka", "si", "Full moon") + `,
		"blank":` + entryJSON("Poya", "Sri Lanka", "si", "   ") + `,
		"noname":{"countryName":"Sri Lanka","description":"d"},
		"scalar":"not an object"
	}`
	e, _ := newEngine(t, source, target, models.MMigrationOptions{})

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Invalid != 3 || result.Success != 1 {
		t.Errorf("result = %+v", result)
	}
}

func TestRunSourceErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   error
	}{
		{"missing file", "", helpers.ErrSourceNotFound},
		{"invalid json", `{"a":`, helpers.ErrInvalidSourceJSON},
		{"not a map", `[1,2]`, helpers.ErrInvalidSourceJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := &fakeTarget{}
			e, _ := newEngine(t, tt.source, target, models.MMigrationOptions{})
			_, err := e.Run(context.Background())
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if target.inserts != 0 {
				t.Error("nothing should be inserted")
			}
		})
	}
}

func TestRunTargetUnreachable(t *testing.T) {
	target := &fakeTarget{pingErr: errors.New("dial tcp: connection refused")}
	e, backups := newEngine(t, `{"a":`+entryJSON("A", "B", "c", "d")+`}`, target, models.MMigrationOptions{DryRun: true})

	_, err := e.Run(context.Background())
	if !errors.Is(err, helpers.ErrTargetUnreachable) {
		t.Errorf("err = %v", err)
	}
	if keys, _ := backups.List(context.Background(), ""); len(keys) != 0 {
		t.Errorf("backups = %v", keys)
	}
}

func TestBackupKey(t *testing.T) {
	ts := time.Date(2025, 7, 30, 9, 15, 2, 123_000_000, time.UTC)
	if got := BackupKey(ts); got != "backup-2025-07-30T09-15-02.123Z.json" {
		t.Errorf("BackupKey = %s", got)
	}
}
