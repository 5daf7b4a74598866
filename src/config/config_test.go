package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"holiday-pipeline/src/models"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvProvider, EnvAPIKey, EnvDatabaseURL, EnvBatchSize, EnvDryRun, EnvSkipExisting, EnvRollbackOnError, EnvVerbose} {
		t.Setenv(k, "")
	}
}

func defaults() *Config {
	c := &Config{MConfig: &models.MConfig{}}
	c.ApplyDefaults()
	return c
}

// -----------------------------------------------------------------------------

func TestNewConfigLayersYAMLEnvFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "config.yaml")
	os.WriteFile(yamlPath, []byte(`
name: test-pipeline
port: 9100
provider:
  name: calendarific
collection:
  countries: [US, FR]
  years: [2024, 2025]
`), 0644)
	envPath := filepath.Join(dir, ".env")
	os.WriteFile(envPath, []byte("HOLIDAY_API_KEY=from-dotenv\n"), 0644)

	clearEnv(t)
	os.Unsetenv(EnvAPIKey)
	t.Setenv(EnvDatabaseURL, "postgres://u:p@localhost:5432/holidays?sslmode=disable")
	t.Setenv(EnvDryRun, "true")

	cfg, err := NewConfig(yamlPath, envPath)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Name != "test-pipeline" || cfg.Port != 9100 || cfg.Provider.Name != models.ProviderCalendarific {
		t.Errorf("yaml fields = %+v", cfg.MConfig)
	}
	if cfg.Provider.APIKey != "from-dotenv" {
		t.Errorf("api key = %q", cfg.Provider.APIKey)
	}
	if cfg.Migration.DBType != "postgres" || !cfg.Migration.DryRun {
		t.Errorf("migration = %+v", cfg.Migration)
	}
	if cfg.Network.MaxAttempts != 3 || cfg.Collection.RawCacheTTLHours != 720 || cfg.Migration.BatchSize != 50 {
		t.Errorf("defaults not applied: %+v", cfg.MConfig)
	}
}

func TestNewConfigMissingFile(t *testing.T) {
	if _, err := NewConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestApplyEnv(t *testing.T) {
	c := defaults()
	err := c.ApplyEnv(envMap(map[string]string{
		EnvProvider:        "NAGER",
		EnvBatchSize:       "10",
		EnvSkipExisting:    "1",
		EnvRollbackOnError: "false",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if c.Provider.Name != "nager" || c.Migration.BatchSize != 10 || !c.Migration.SkipExisting || c.Migration.RollbackOnError {
		t.Errorf("config = %+v", c.MConfig)
	}

	if err := c.ApplyEnv(envMap(map[string]string{EnvBatchSize: "ten"})); err == nil {
		t.Error("non-numeric batch size should fail")
	}
	if err := c.ApplyEnv(envMap(map[string]string{EnvVerbose: "maybe"})); err == nil {
		t.Error("non-boolean flag should fail")
	}
}

func TestDatabaseURLKeepsExplicitType(t *testing.T) {
	c := defaults()
	c.ApplyEnv(envMap(map[string]string{EnvDatabaseURL: "postgres://x"}))
	if c.Migration.DBType != "sqlite" {
		t.Errorf("db type = %s, explicit sqlite should win", c.Migration.DBType)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"low port", func(c *Config) { c.Port = 80 }, "port"},
		{"unknown provider", func(c *Config) { c.Provider.Name = "google" }, "unknown provider"},
		{"calendarific without key", func(c *Config) { c.Provider.Name = models.ProviderCalendarific }, "api key"},
		{"minio without bucket", func(c *Config) { c.Storage.Backend = "minio"; c.Storage.Minio.Endpoint = "localhost:9000" }, "minio"},
		{"bad country", func(c *Config) { c.Collection.Countries = []string{"USA"} }, "alpha-2"},
		{"bad year", func(c *Config) { c.Collection.Years = []int{1492} }, "year"},
		{"zero batch", func(c *Config) { c.Migration.BatchSize = 0 }, "batch size"},
		{"postgres without dsn", func(c *Config) { c.Migration.DBType = "postgres" }, "connection string"},
		{"unknown db", func(c *Config) { c.Migration.DBType = "mysql" }, "database type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			tt.mutate(c)
			err := c.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "saved.yaml")
	c := defaults()
	c.Collection.Countries = []string{"JP"}
	if err := c.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := NewConfig(path, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Collection.Countries) != 1 || loaded.Collection.Countries[0] != "JP" {
		t.Errorf("countries = %v", loaded.Collection.Countries)
	}
}
