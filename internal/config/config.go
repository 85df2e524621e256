package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Rate-limit window modes. The daily window counts successful events
// within the current UTC day; all_time preserves the behavior of the
// system this one was migrated from.
const (
	RateLimitWindowDaily   = "daily"
	RateLimitWindowAllTime = "all_time"
)

// ApprovalModelAutoExecute is the only approval model under which the
// orchestrator may execute without a human decision pass.
const ApprovalModelAutoExecute = "single-policy-approval-then-auto-execute"

// Config aggregates application settings that may be sourced from files
// or environment variables.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port int `mapstructure:"port"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig contains the asynq broker address.
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// WorkerConfig contains asynq worker settings.
type WorkerConfig struct {
	Concurrency int    `mapstructure:"concurrency"`
	CycleCron   string `mapstructure:"cycle_cron"`
}

// SnapshotConfig controls the tracking exporter. Upload requires the
// MinIO section to be configured.
type SnapshotConfig struct {
	Path   string `mapstructure:"path"`
	Upload bool   `mapstructure:"upload"`
}

// MinIOConfig contains connection options for MinIO/S3-compatible
// storage holding exported snapshots.
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Bucket          string `mapstructure:"bucket"`
}

// PipelineConfig carries execution preferences and scoring priors that
// are configuration, not targeting policy: the auto-execution double
// opt-in, the rate-limit window, plan re-execution, and the source and
// geography priority lists feeding the scorer.
type PipelineConfig struct {
	SourceConfigID          string   `mapstructure:"source_config_id"`
	WrittenApprovalReceived bool     `mapstructure:"written_approval_received"`
	ApprovalModel           string   `mapstructure:"approval_model"`
	AllowPlanReexecution    bool     `mapstructure:"allow_plan_reexecution"`
	RateLimitWindow         string   `mapstructure:"rate_limit_window"`
	GeographyPriority       []string `mapstructure:"geography_priority"`
	InternationalPriority   []string `mapstructure:"international_priority"`
	DomesticCities          []string `mapstructure:"domestic_cities"`
	SourcePriority          []string `mapstructure:"source_priority"`
}

// AutoExecuteEnabled reports whether the daily cycle may decide and
// execute batches without a human pass. Both flags must be set; a
// single toggle is not enough to enable autonomous sends.
func (p PipelineConfig) AutoExecuteEnabled() bool {
	return p.WrittenApprovalReceived && p.ApprovalModel == ApprovalModelAutoExecute
}

// sourceLabels maps internal source keys to the human-readable labels
// used in the source priority list.
var sourceLabels = map[string]string{
	"company_site":            "Company career pages (direct)",
	"wellfound":               "Wellfound",
	"yc_jobs":                 "Y Combinator Work at a Startup",
	"builtin":                 "Built In",
	"venture_capital_careers": "Venture Capital Careers",
	"devex":                   "Devex",
	"impactpool":              "Impactpool",
	"world_bank":              "World Bank careers",
	"imf":                     "IMF recruitment",
	"un":                      "UN Careers Portal",
	"adb":                     "ADB Consultant Management System",
	"linkedin":                "LinkedIn",
	"job_board":               "Built In",
}

// SourceWeights derives the additive scoring bonus per source from the
// configured priority order: rank 0 earns the full 20 points scaled by
// list length, unlisted sources earn a flat 3.0.
func (p PipelineConfig) SourceWeights() map[string]float64 {
	priorities := p.SourcePriority
	total := len(priorities)
	if total == 0 {
		total = 1
	}

	rank := make(map[string]int, len(priorities))
	for i, label := range priorities {
		rank[label] = i
	}

	weights := make(map[string]float64, len(sourceLabels))
	for key, label := range sourceLabels {
		if r, ok := rank[label]; ok {
			weights[key] = round2(float64(total-r) / float64(total) * 20.0)
		} else {
			weights[key] = 3.0
		}
	}
	return weights
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Addr returns the host:port address of the Redis broker.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Load reads configuration solely from environment variables (with
// defaults). It returns a plain value so engines receive an explicitly
// constructed configuration instead of a process-wide singleton.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Holder hands out the current configuration and supports an explicit
// reload, invoked from the API rather than happening implicitly.
type Holder struct {
	mu  sync.RWMutex
	cfg *Config
}

// NewHolder wraps an already-loaded configuration.
func NewHolder(cfg *Config) *Holder {
	return &Holder{cfg: cfg}
}

// Current returns the active configuration.
func (h *Holder) Current() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

// Reload re-reads the environment and swaps the active configuration.
// The previous configuration stays active when loading fails.
func (h *Holder) Reload() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	h.cfg = cfg
	h.mu.Unlock()
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "careerhuntin")
	v.SetDefault("database.user", "careerhuntin")
	v.SetDefault("database.password", "careerhuntin")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("worker.concurrency", 10)
	v.SetDefault("worker.cycle_cron", "0 7 * * *")
	v.SetDefault("snapshot.path", "data/tracker_snapshot.csv")
	v.SetDefault("snapshot.upload", false)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "snapshots")
	v.SetDefault("pipeline.source_config_id", "daily-autonomous")
	v.SetDefault("pipeline.written_approval_received", false)
	v.SetDefault("pipeline.approval_model", ApprovalModelAutoExecute)
	v.SetDefault("pipeline.allow_plan_reexecution", false)
	v.SetDefault("pipeline.rate_limit_window", RateLimitWindowDaily)
	v.SetDefault("pipeline.geography_priority", []string{"Mumbai", "Gurugram", "Bangalore", "International"})
	v.SetDefault("pipeline.international_priority", []string{"UK", "US", "Singapore", "Netherlands"})
	v.SetDefault("pipeline.domestic_cities", []string{"mumbai", "gurugram", "bangalore"})
	v.SetDefault("pipeline.source_priority", []string{
		"Venture Capital Careers",
		"Company career pages (direct)",
		"Wellfound",
		"Y Combinator Work at a Startup",
		"IMF recruitment",
		"World Bank careers",
		"Devex",
		"Built In",
		"LinkedIn",
	})
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                           "API_PORT",
		"database.host":                      "DATABASE_HOST",
		"database.port":                      "DATABASE_PORT",
		"database.name":                      "POSTGRES_DB",
		"database.user":                      "POSTGRES_USER",
		"database.password":                  "POSTGRES_PASSWORD",
		"database.sslmode":                   "DATABASE_SSLMODE",
		"redis.host":                         "REDIS_HOST",
		"redis.port":                         "REDIS_PORT",
		"worker.concurrency":                 "WORKER_CONCURRENCY",
		"worker.cycle_cron":                  "WORKER_CYCLE_CRON",
		"snapshot.path":                      "SNAPSHOT_PATH",
		"snapshot.upload":                    "SNAPSHOT_UPLOAD",
		"minio.endpoint":                     "MINIO_ENDPOINT",
		"minio.access_key_id":                "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":            "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":                      "MINIO_USE_SSL",
		"minio.bucket":                       "MINIO_BUCKET",
		"pipeline.source_config_id":          "PIPELINE_SOURCE_CONFIG_ID",
		"pipeline.written_approval_received": "PIPELINE_WRITTEN_APPROVAL_RECEIVED",
		"pipeline.approval_model":            "PIPELINE_APPROVAL_MODEL",
		"pipeline.allow_plan_reexecution":    "PIPELINE_ALLOW_PLAN_REEXECUTION",
		"pipeline.rate_limit_window":         "PIPELINE_RATE_LIMIT_WINDOW",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.SSLMode == "" {
		return errors.New("database sslmode is required")
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.Worker.Concurrency <= 0 {
		return errors.New("worker concurrency must be positive")
	}
	if strings.TrimSpace(cfg.Snapshot.Path) == "" {
		return errors.New("snapshot path is required")
	}
	switch cfg.Pipeline.RateLimitWindow {
	case RateLimitWindowDaily, RateLimitWindowAllTime:
	default:
		return fmt.Errorf("invalid rate limit window %q", cfg.Pipeline.RateLimitWindow)
	}
	if cfg.Snapshot.Upload {
		if cfg.MinIO.Endpoint == "" {
			return errors.New("minio endpoint is required when snapshot upload is enabled")
		}
		if cfg.MinIO.AccessKeyID == "" {
			return errors.New("minio access key id is required when snapshot upload is enabled")
		}
		if cfg.MinIO.SecretAccessKey == "" {
			return errors.New("minio secret access key is required when snapshot upload is enabled")
		}
		if cfg.MinIO.Bucket == "" {
			return errors.New("minio bucket is required when snapshot upload is enabled")
		}
	}
	return nil
}
