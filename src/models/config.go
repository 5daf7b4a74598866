package models

// MConfig Structure
type MConfig struct {
	Name       string            `yaml:"name"`
	Host       string            `yaml:"host"`
	Port       int               `yaml:"port"`
	LogLevel   string            `yaml:"log_level"`
	Provider   MProviderConfig   `yaml:"provider"`
	Network    MNetworkConfig    `yaml:"network"`
	Storage    MStorageConfig    `yaml:"storage"`
	Collection MCollectionConfig `yaml:"collection"`
	Migration  MMigrationConfig  `yaml:"migration"`
}

type MProviderConfig struct {
	Name    string `yaml:"name"` // calendarific | nager
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"` // Required for calendarific
}

type MNetworkConfig struct {
	Proxies           []string `yaml:"proxies"`
	RequestTimeout    int      `yaml:"timeout"` // seconds
	MaxAttempts       int      `yaml:"max_attempts"`
	RetryBaseDelayMs  int      `yaml:"retry_base_delay_ms"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	Burst             int      `yaml:"burst"`
	UserAgent         string   `yaml:"user_agent"`
}

type MStorageConfig struct {
	Backend           string       `yaml:"backend"` // file | minio | memory
	DataDir           string       `yaml:"data_dir"`
	RawCacheDir       string       `yaml:"raw_cache_dir"`
	CollectorCacheDir string       `yaml:"collector_cache_dir"`
	Minio             MMinioConfig `yaml:"minio"`
}

type MMinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type MCollectionConfig struct {
	Countries         []string `yaml:"countries"`
	Years             []int    `yaml:"years"`
	RequestDelayMs    int      `yaml:"request_delay_ms"`
	YearDelayMs       int      `yaml:"year_delay_ms"`
	RawCacheTTLHours  int      `yaml:"raw_cache_ttl_hours"`
	DualCacheTTLHours int      `yaml:"dual_cache_ttl_hours"`
	ExchangeAudit     bool     `yaml:"exchange_audit"`
}

type MMigrationConfig struct {
	SourcePath         string `yaml:"source_path"`
	BackupDir          string `yaml:"backup_dir"`
	LogPath            string `yaml:"log_path"`
	BatchSize          int    `yaml:"batch_size"`
	BatchDelayMs       int    `yaml:"batch_delay_ms"`
	DryRun             bool   `yaml:"dry_run"`
	SkipExisting       bool   `yaml:"skip_existing"`
	RollbackOnError    bool   `yaml:"rollback_on_error"`
	Verbose            bool   `yaml:"verbose"`
	DBType             string `yaml:"db_type"` // sqlite | postgres
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	AIModel            string `yaml:"ai_model"`
}
