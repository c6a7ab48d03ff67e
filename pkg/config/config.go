package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "salora"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Stripe       StripeConfig
	Checkout     CheckoutConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"SALORA_APP_ENV" required:"true"`
	Port         string `envconfig:"SALORA_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SALORA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SALORA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"SALORA_DB_DSN"`

	Host     string `envconfig:"SALORA_DB_HOST"`
	Port     int    `envconfig:"SALORA_DB_PORT" default:"5432"`
	User     string `envconfig:"SALORA_DB_USER"`
	Password string `envconfig:"SALORA_DB_PASSWORD"`
	Name     string `envconfig:"SALORA_DB_NAME"`
	SSLMode  string `envconfig:"SALORA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SALORA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SALORA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SALORA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SALORA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.Host == "" || db.User == "" || db.Name == "" {
		return fmt.Errorf("database config requires either SALORA_DB_DSN or host/user/name")
	}
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(db.User, db.Password),
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	query := dsn.Query()
	query.Set("sslmode", db.SSLMode)
	dsn.RawQuery = query.Encode()
	db.DSN = dsn.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"SALORA_REDIS_URL"`
	Address      string        `envconfig:"SALORA_REDIS_ADDR"`
	Password     string        `envconfig:"SALORA_REDIS_PASSWORD"`
	DB           int           `envconfig:"SALORA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SALORA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SALORA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SALORA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SALORA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SALORA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type StripeConfig struct {
	APIKey string `envconfig:"SALORA_STRIPE_API_KEY"`
	Env    string `envconfig:"SALORA_STRIPE_ENV" default:"test"`

	SuccessURL string `envconfig:"SALORA_STRIPE_SUCCESS_URL"`
	CancelURL  string `envconfig:"SALORA_STRIPE_CANCEL_URL"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CheckoutConfig struct {
	// OrderNumberPrefix prefixes generated order numbers, e.g. SO-2026-000042.
	OrderNumberPrefix string `envconfig:"SALORA_ORDER_NUMBER_PREFIX" default:"SO"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"SALORA_CRON_INTERVAL" default:"1h"`
	// PendingOrderTTL is how long an unpaid pending order survives before the
	// sweeper cancels it.
	PendingOrderTTL time.Duration `envconfig:"SALORA_PENDING_ORDER_TTL" default:"240h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SALORA_AUTO_MIGRATE" default:"false"`
}
