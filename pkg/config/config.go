package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Idempotency  IdempotencyConfig
	Cron         CronConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
		return &cfg, nil
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env             string        `envconfig:"LAUNDRYDESK_APP_ENV" required:"true"`
	Port            string        `envconfig:"LAUNDRYDESK_APP_PORT" default:"8080"`
	LogLevel        string        `envconfig:"LAUNDRYDESK_LOG_LEVEL" default:"info"`
	LogWarnStack    bool          `envconfig:"LAUNDRYDESK_LOG_WARN_STACK" default:"false"`
	ShutdownTimeout time.Duration `envconfig:"LAUNDRYDESK_SHUTDOWN_TIMEOUT" default:"15s"`
	// MetricsAddr is where background workers serve /metrics; empty disables it.
	MetricsAddr string `envconfig:"LAUNDRYDESK_WORKER_METRICS_ADDR"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"LAUNDRYDESK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN        string `envconfig:"LAUNDRYDESK_DB_DSN"`
	Driver     string `envconfig:"LAUNDRYDESK_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"LAUNDRYDESK_SQLITE_PATH" default:"laundrydesk.db"`

	LegacyHost     string `envconfig:"LAUNDRYDESK_DB_HOST"`
	LegacyPort     int    `envconfig:"LAUNDRYDESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LAUNDRYDESK_DB_USER"`
	LegacyPassword string `envconfig:"LAUNDRYDESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"LAUNDRYDESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"LAUNDRYDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LAUNDRYDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LAUNDRYDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LAUNDRYDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LAUNDRYDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LAUNDRYDESK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LAUNDRYDESK_REDIS_ADDR"`
	Password     string        `envconfig:"LAUNDRYDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"LAUNDRYDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LAUNDRYDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LAUNDRYDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LAUNDRYDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LAUNDRYDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LAUNDRYDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig holds the shared secret used to verify access tokens minted by the
// auth service.
type JWTConfig struct {
	Secret            string `envconfig:"LAUNDRYDESK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LAUNDRYDESK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LAUNDRYDESK_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"LAUNDRYDESK_CORS_ALLOWED_ORIGINS" default:"*"`
}

// RateLimitConfig caps requests per actor (or client IP) in a fixed window.
type RateLimitConfig struct {
	Requests int           `envconfig:"LAUNDRYDESK_RATE_LIMIT_REQUESTS" default:"300"`
	Window   time.Duration `envconfig:"LAUNDRYDESK_RATE_LIMIT_WINDOW" default:"1m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LAUNDRYDESK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LAUNDRYDESK_AUTO_MIGRATE" default:"false"`
}

type IdempotencyConfig struct {
	TTL         time.Duration `envconfig:"LAUNDRYDESK_IDEMPOTENCY_TTL" default:"24h"`
	ConsumerTTL time.Duration `envconfig:"LAUNDRYDESK_CONSUMER_IDEMPOTENCY_TTL" default:"168h"`
}

type CronConfig struct {
	Interval             time.Duration `envconfig:"LAUNDRYDESK_CRON_INTERVAL" default:"15m"`
	LockTTL              time.Duration `envconfig:"LAUNDRYDESK_CRON_LOCK_TTL" default:"10m"`
	StaleRegisterAfter   time.Duration `envconfig:"LAUNDRYDESK_CRON_STALE_REGISTER_AFTER" default:"18h"`
	LowStockWarnFactor   float64       `envconfig:"LAUNDRYDESK_CRON_LOW_STOCK_WARN_FACTOR" default:"1.25"`
	LowStockAlertEnabled bool          `envconfig:"LAUNDRYDESK_CRON_LOW_STOCK_ALERTS" default:"true"`
	OutboxRetentionDays  int           `envconfig:"LAUNDRYDESK_CRON_OUTBOX_RETENTION_DAYS" default:"30"`

	// NotificationRetentionDays applies to read notifications only.
	NotificationRetentionDays int `envconfig:"LAUNDRYDESK_CRON_NOTIFICATION_RETENTION_DAYS" default:"90"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"LAUNDRYDESK_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic    string `envconfig:"LAUNDRYDESK_PUBSUB_ORDERS_TOPIC" default:"laundrydesk-orders"`
	InventoryTopic string `envconfig:"LAUNDRYDESK_PUBSUB_INVENTORY_TOPIC" default:"laundrydesk-inventory"`
	CashTopic      string `envconfig:"LAUNDRYDESK_PUBSUB_CASH_TOPIC" default:"laundrydesk-cash"`

	InventoryAlertsSubscription string `envconfig:"LAUNDRYDESK_PUBSUB_INVENTORY_ALERTS_SUBSCRIPTION" default:"laundrydesk-inventory-alerts"`
	CashAlertsSubscription      string `envconfig:"LAUNDRYDESK_PUBSUB_CASH_ALERTS_SUBSCRIPTION" default:"laundrydesk-cash-alerts"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"LAUNDRYDESK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"LAUNDRYDESK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"LAUNDRYDESK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
