package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix  = ""
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	QueryLimit   QueryRateLimitConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Eventing     EventingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"UPLOADGENIE_APP_ENV" required:"true"`
	Port         string `envconfig:"UPLOADGENIE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"UPLOADGENIE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"UPLOADGENIE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"UPLOADGENIE_DB_DSN"`
	Driver string `envconfig:"UPLOADGENIE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"UPLOADGENIE_DB_HOST"`
	LegacyPort     int    `envconfig:"UPLOADGENIE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"UPLOADGENIE_DB_USER"`
	LegacyPassword string `envconfig:"UPLOADGENIE_DB_PASSWORD"`
	LegacyName     string `envconfig:"UPLOADGENIE_DB_NAME"`
	LegacySSLMode  string `envconfig:"UPLOADGENIE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"UPLOADGENIE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"UPLOADGENIE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"UPLOADGENIE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"UPLOADGENIE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("database DSN or host/user/name settings are required")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.LegacyUser, d.LegacyPassword),
		Host:   fmt.Sprintf("%s:%d", d.LegacyHost, d.LegacyPort),
		Path:   d.LegacyName,
	}
	q := u.Query()
	q.Set("sslmode", d.LegacySSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"UPLOADGENIE_REDIS_URL"`
	Address      string        `envconfig:"UPLOADGENIE_REDIS_ADDR"`
	Password     string        `envconfig:"UPLOADGENIE_REDIS_PASSWORD"`
	DB           int           `envconfig:"UPLOADGENIE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"UPLOADGENIE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"UPLOADGENIE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"UPLOADGENIE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"UPLOADGENIE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"UPLOADGENIE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// QueryRateLimitConfig throttles the unauthenticated tracker query surface.
type QueryRateLimitConfig struct {
	Window  time.Duration `envconfig:"UPLOADGENIE_QUERY_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit int           `envconfig:"UPLOADGENIE_QUERY_RATE_LIMIT_IP_LIMIT" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"UPLOADGENIE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"UPLOADGENIE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"UPLOADGENIE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"UPLOADGENIE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"UPLOADGENIE_PUBSUB_DOMAIN_TOPIC" default:"upload-genie-domain"`
	DomainSubscription string `envconfig:"UPLOADGENIE_PUBSUB_DOMAIN_SUBSCRIPTION" default:"upload-genie-domain-notifier"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"UPLOADGENIE_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"UPLOADGENIE_OUTBOX_POLL_INTERVAL_MS" default:"500"`
	MaxAttempts    int `envconfig:"UPLOADGENIE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"UPLOADGENIE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}
