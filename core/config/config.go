package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Valkey     ValkeyConfig
	Scheduler  SchedulerConfig
	Optimizer  OptimizerConfig
	Content    ContentConfig
	Insights   InsightsConfig
	Notify     NotifyConfig
	WorkerPool WorkerPoolConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	BasicAuth          []string
	BasePath           string
	BaseDir            string
	CorsAllowedOrigins []string
	ServerID           string
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string // File path for SQLite, DB Name for Postgres
}

type ValkeyConfig struct {
	Enabled   bool
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

type SchedulerConfig struct {
	Enabled          bool
	SweepSpec        string
	ClaimTTL         time.Duration
	LeaseTTL         time.Duration
	ConflictWindow   time.Duration
	AutoResolve      bool
	BatchSize        int
	MaxIterations    int
	ResolveAttempts  int
	MonitorRetention int
}

type OptimizerConfig struct {
	DefaultRangeDays int
}

// ContentConfig points at the read-only content database. An empty DSN reuses
// the schedule database.
type ContentConfig struct {
	Driver string
	DSN    string
	Table  string
}

type InsightsConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type NotifyConfig struct {
	NatsURL       string
	NatsSubject   string
	WebhookURLs   []string
	WebhookSecret string
	RatePerSec    float64
	Burst         int
}

type WorkerPoolConfig struct {
	Size      int
	QueueSize int
}

// Global provides access to the loaded configuration globally.
var Global *Config

// LoadConfig loads configuration from Environment Variables or defaults.
func LoadConfig() (*Config, error) {
	baseDir := getEnv("APP_BASE_DIR", "storages")

	debug := false
	if v := os.Getenv("APP_DEBUG"); v == "true" || v == "1" || v == "on" {
		debug = true
	} else if v := os.Getenv("DEBUG"); v == "true" || v == "1" {
		debug = true
	}

	var basicAuth []string
	if v := os.Getenv("APP_BASIC_AUTH"); v != "" {
		basicAuth = strings.Split(v, ",")
	}

	corsOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if v := os.Getenv("APP_CORS_ALLOWED_ORIGINS"); v != "" {
		corsOrigins = strings.Split(v, ",")
	}

	appCfg := AppConfig{
		Version:            "v1.0.0",
		Port:               getEnv("APP_PORT", "3000"),
		Debug:              debug,
		Environment:        getEnv("APP_ENV", "development"),
		BasicAuth:          basicAuth,
		BasePath:           getEnv("APP_BASE_PATH", ""),
		BaseDir:            baseDir,
		CorsAllowedOrigins: corsOrigins,
		ServerID:           getEnv("SERVER_ID", ""),
	}

	dbCfg := DatabaseConfig{
		Driver:   getEnv("DB_DRIVER", "sqlite"),
		Name:     getEnv("DB_NAME", filepath.Join(baseDir, "schedule.db")),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
	}

	valkeyCfg := ValkeyConfig{
		Enabled:   getEnvBool("VALKEY_ENABLED", false),
		Address:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
		Password:  getEnv("VALKEY_PASSWORD", ""),
		DB:        getEnvInt("VALKEY_DB", 0),
		KeyPrefix: getEnv("VALKEY_KEY_PREFIX", "click:"),
	}

	schedCfg := SchedulerConfig{
		Enabled:          getEnvBool("SCHEDULER_ENABLED", true),
		SweepSpec:        getEnv("SCHEDULER_SWEEP_SPEC", "@every 1m"),
		ClaimTTL:         getEnvDuration("SCHEDULER_CLAIM_TTL", 2*time.Minute),
		LeaseTTL:         getEnvDuration("SCHEDULER_LEASE_TTL", 2*time.Minute),
		ConflictWindow:   getEnvDuration("SCHEDULER_CONFLICT_WINDOW", 2*time.Hour),
		AutoResolve:      getEnvBool("SCHEDULER_AUTO_RESOLVE", false),
		BatchSize:        getEnvInt("SCHEDULER_BATCH_SIZE", 100),
		MaxIterations:    getEnvInt("SCHEDULER_MAX_ITERATIONS", 400),
		ResolveAttempts:  getEnvInt("SCHEDULER_RESOLVE_ATTEMPTS", 10),
		MonitorRetention: getEnvInt("SCHEDULER_MONITOR_RETENTION", 100),
	}

	var webhooks []string
	if v := os.Getenv("NOTIFY_WEBHOOK_URLS"); v != "" {
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				webhooks = append(webhooks, u)
			}
		}
	}

	cfg := &Config{
		App:       appCfg,
		Database:  dbCfg,
		Valkey:    valkeyCfg,
		Scheduler: schedCfg,
		Optimizer: OptimizerConfig{DefaultRangeDays: getEnvInt("OPTIMIZER_DEFAULT_RANGE_DAYS", 7)},
		Content: ContentConfig{
			Driver: getEnv("CONTENT_DB_DRIVER", ""),
			DSN:    getEnv("CONTENT_DB_DSN", ""),
			Table:  getEnv("CONTENT_DB_TABLE", "contents"),
		},
		Insights: InsightsConfig{
			BaseURL: getEnv("INSIGHTS_BASE_URL", ""),
			Token:   getEnv("INSIGHTS_TOKEN", ""),
			Timeout: getEnvDuration("INSIGHTS_TIMEOUT", 5*time.Second),
		},
		Notify: NotifyConfig{
			NatsURL:       getEnv("NATS_URL", ""),
			NatsSubject:   getEnv("NATS_SUBJECT_PREFIX", "click.schedule"),
			WebhookURLs:   webhooks,
			WebhookSecret: getEnv("NOTIFY_WEBHOOK_SECRET", ""),
			RatePerSec:    getEnvFloat("NOTIFY_RATE_PER_SEC", 20),
			Burst:         getEnvInt("NOTIFY_BURST", 50),
		},
		WorkerPool: WorkerPoolConfig{
			Size:      getEnvInt("WORKER_POOL_SIZE", 8),
			QueueSize: getEnvInt("WORKER_QUEUE_SIZE", 256),
		},
	}

	Global = cfg
	return cfg, nil
}
