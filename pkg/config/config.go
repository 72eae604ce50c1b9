package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Loads        LoadsConfig
	Cron         CronConfig
}

// Load reads every setting from the environment, fills the DSN from its
// parts when FLEET_DB_DSN is unset, and rejects inconsistent combinations.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// validate reports every problem at once so a bad deploy is fixed in one pass.
func (c *Config) validate() error {
	var err error
	check := func(ok bool, msg string) {
		if !ok {
			err = multierr.Append(err, errors.New(msg))
		}
	}
	check(c.Outbox.MaxAttempts > 0, "FLEET_OUTBOX_MAX_ATTEMPTS must be positive")
	check(c.Outbox.BatchSize > 0, "FLEET_OUTBOX_PUBLISH_BATCH_SIZE must be positive")
	check(c.Loads.MaxWriteAttempts > 0, "FLEET_LOADS_MAX_WRITE_ATTEMPTS must be positive")
	check(c.Loads.WriteRateLimit >= 0, "FLEET_LOADS_WRITE_RATE_LIMIT must not be negative")
	check(c.Cron.Interval > 0, "FLEET_CRON_INTERVAL must be positive")
	check(c.Cron.LockTTL >= c.Cron.Interval, "FLEET_CRON_LOCK_TTL must cover FLEET_CRON_INTERVAL")
	check(c.Cron.JobTimeout >= 0, "FLEET_CRON_JOB_TIMEOUT must not be negative")
	check(!c.App.IsProd() || len(c.JWT.Secret) >= minProdSecretLen, "FLEET_JWT_SECRET is too short for prod")
	return err
}

type AppConfig struct {
	Env          string `envconfig:"FLEET_APP_ENV" required:"true"`
	Port         string `envconfig:"FLEET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FLEET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FLEET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FLEET_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FLEET_DB_DSN"`
	Driver string `envconfig:"FLEET_DB_DRIVER" default:"postgres"`

	// Used only when DSN is empty.
	Host     string `envconfig:"FLEET_DB_HOST"`
	Port     int    `envconfig:"FLEET_DB_PORT" default:"5432"`
	User     string `envconfig:"FLEET_DB_USER"`
	Password string `envconfig:"FLEET_DB_PASSWORD"`
	Name     string `envconfig:"FLEET_DB_NAME"`
	SSLMode  string `envconfig:"FLEET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FLEET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FLEET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FLEET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FLEET_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"FLEET_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FLEET_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FLEET_REDIS_ADDR"`
	Password     string        `envconfig:"FLEET_REDIS_PASSWORD"`
	DB           int           `envconfig:"FLEET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FLEET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FLEET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FLEET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FLEET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FLEET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig describes the tokens minted by the identity provider. This service
// only verifies them.
type JWTConfig struct {
	Secret            string `envconfig:"FLEET_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FLEET_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FLEET_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"FLEET_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FLEET_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"FLEET_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"FLEET_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	LoadsTopic        string `envconfig:"FLEET_PUBSUB_LOADS_TOPIC" default:"fleet-load-events"`
	LoadsSubscription string `envconfig:"FLEET_PUBSUB_LOADS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FLEET_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FLEET_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FLEET_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"FLEET_OUTBOX_RETENTION_DAYS" default:"30"`
}

// LoadsConfig tunes the load write path.
type LoadsConfig struct {
	MaxWriteAttempts int           `envconfig:"FLEET_LOADS_MAX_WRITE_ATTEMPTS" default:"3"`
	WriteRateLimit   int           `envconfig:"FLEET_LOADS_WRITE_RATE_LIMIT" default:"120"`
	WriteRateWindow  time.Duration `envconfig:"FLEET_LOADS_WRITE_RATE_WINDOW" default:"1m"`
	ProjectCacheTTL  time.Duration `envconfig:"FLEET_LOADS_PROJECT_CACHE_TTL" default:"5m"`
	AbandonedLoadAge time.Duration `envconfig:"FLEET_LOADS_ABANDONED_AGE" default:"168h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"FLEET_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"FLEET_CRON_LOCK_TTL" default:"25h"`
	// JobTimeout of zero lets a job run for the whole interval.
	JobTimeout time.Duration `envconfig:"FLEET_CRON_JOB_TIMEOUT" default:"0"`
}
