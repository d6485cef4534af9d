package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "KIOSA"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "KIOSA_APP_ENV"
	EnvPort   = "KIOSA_APP_PORT"
	EnvDBDSN  = "KIOSA_DB_DSN"
	EnvDBHost = "KIOSA_DB_HOST"
	EnvDBUser = "KIOSA_DB_USER"
	EnvDBName = "KIOSA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Gateway      GatewayConfig
	Payments     PaymentsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Eventing     EventingConfig
	Outbox       OutboxConfig
	Cron         CronConfig
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
	Env          string `envconfig:"KIOSA_APP_ENV" required:"true"`
	Port         string `envconfig:"KIOSA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KIOSA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KIOSA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"KIOSA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"KIOSA_DB_DSN"`
	Driver string `envconfig:"KIOSA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"KIOSA_DB_HOST"`
	LegacyPort     int    `envconfig:"KIOSA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KIOSA_DB_USER"`
	LegacyPassword string `envconfig:"KIOSA_DB_PASSWORD"`
	LegacyName     string `envconfig:"KIOSA_DB_NAME"`
	LegacySSLMode  string `envconfig:"KIOSA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KIOSA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KIOSA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KIOSA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KIOSA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KIOSA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KIOSA_REDIS_ADDR"`
	Password     string        `envconfig:"KIOSA_REDIS_PASSWORD"`
	DB           int           `envconfig:"KIOSA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KIOSA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KIOSA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KIOSA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KIOSA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KIOSA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"KIOSA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"KIOSA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"KIOSA_JWT_EXPIRATION_MINUTES" default:"60"`
}

// Expiration returns the staff token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"KIOSA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"KIOSA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"KIOSA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"KIOSA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"KIOSA_ARGON_KEY_LEN" default:"32"`
}

type RateLimitConfig struct {
	CallbackWindow time.Duration `envconfig:"KIOSA_RATE_LIMIT_CALLBACK_WINDOW" default:"1m"`
	CallbackLimit  int           `envconfig:"KIOSA_RATE_LIMIT_CALLBACK_LIMIT" default:"60"`
	VerifyWindow   time.Duration `envconfig:"KIOSA_RATE_LIMIT_VERIFY_WINDOW" default:"1m"`
	VerifyLimit    int           `envconfig:"KIOSA_RATE_LIMIT_VERIFY_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"KIOSA_AUTO_MIGRATE" default:"false"`
}

// GatewayConfig holds the payment gateway credentials. The status-check
// capability is considered configured only when both values are present.
type GatewayConfig struct {
	BaseURL   string        `envconfig:"KIOSA_GATEWAY_BASE_URL"`
	SecretKey string        `envconfig:"KIOSA_GATEWAY_SECRET_KEY"`
	Timeout   time.Duration `envconfig:"KIOSA_GATEWAY_TIMEOUT" default:"10s"`
}

// Configured reports whether the gateway status API can be called.
func (g GatewayConfig) Configured() bool {
	return strings.TrimSpace(g.BaseURL) != "" && strings.TrimSpace(g.SecretKey) != ""
}

type PaymentsConfig struct {
	UnpaidOrderTTL time.Duration `envconfig:"KIOSA_PAYMENTS_UNPAID_ORDER_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"KIOSA_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"KIOSA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"KIOSA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic              string `envconfig:"KIOSA_PUBSUB_ORDERS_TOPIC" default:"kiosa-order-events"`
	NotificationSubscription string `envconfig:"KIOSA_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"kiosa-notification-worker"`
}

type EventingConfig struct {
	ConsumerIdempotencyTTL time.Duration `envconfig:"KIOSA_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"KIOSA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"KIOSA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"KIOSA_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval                  time.Duration `envconfig:"KIOSA_CRON_INTERVAL" default:"1h"`
	OutboxRetentionDays       int           `envconfig:"KIOSA_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	NotificationRetentionDays int           `envconfig:"KIOSA_CRON_NOTIFICATION_RETENTION_DAYS" default:"90"`
	RedeliveryBatchSize       int           `envconfig:"KIOSA_CRON_REDELIVERY_BATCH_SIZE" default:"100"`
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
