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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	BNA          BNAConfig
	Checkout     CheckoutConfig
	Features     FeaturesConfig
	FeatureFlags FeatureFlagsConfig
	Webhook      WebhookConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.BNA.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BNAGW_APP_ENV" required:"true"`
	Port         string `envconfig:"BNAGW_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BNAGW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BNAGW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BNAGW_DB_DSN"`
	Driver string `envconfig:"BNAGW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BNAGW_DB_HOST"`
	LegacyPort     int    `envconfig:"BNAGW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BNAGW_DB_USER"`
	LegacyPassword string `envconfig:"BNAGW_DB_PASSWORD"`
	LegacyName     string `envconfig:"BNAGW_DB_NAME"`
	LegacySSLMode  string `envconfig:"BNAGW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BNAGW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BNAGW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BNAGW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BNAGW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BNAGW_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BNAGW_REDIS_ADDR"`
	Password     string        `envconfig:"BNAGW_REDIS_PASSWORD"`
	DB           int           `envconfig:"BNAGW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BNAGW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BNAGW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BNAGW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BNAGW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BNAGW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BNAGW_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BNAGW_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BNAGW_JWT_EXPIRATION_MINUTES" default:"60"`
}

// BNAConfig holds the vendor API credentials and environment selection.
type BNAConfig struct {
	Env           string        `envconfig:"BNAGW_BNA_ENV" default:"dev"`
	AccessKey     string        `envconfig:"BNAGW_BNA_ACCESS_KEY" required:"true"`
	SecretKey     string        `envconfig:"BNAGW_BNA_SECRET_KEY" required:"true"`
	IframeID      string        `envconfig:"BNAGW_BNA_IFRAME_ID" required:"true"`
	WebhookSecret string        `envconfig:"BNAGW_BNA_WEBHOOK_SECRET"`
	Timeout       time.Duration `envconfig:"BNAGW_BNA_TIMEOUT" default:"30s"`
}

// Environment returns the normalized vendor environment (dev/staging/production).
func (b BNAConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(b.Env))
	if env == "" {
		return BNAEnvDev
	}
	return env
}

func (b BNAConfig) validate() error {
	switch b.Environment() {
	case BNAEnvDev, BNAEnvStaging, BNAEnvProduction:
		return nil
	default:
		return fmt.Errorf("bna environment must be one of %s, %s, %s", BNAEnvDev, BNAEnvStaging, BNAEnvProduction)
	}
}

// CheckoutConfig tunes the hosted-checkout token lifecycle. Tokens are
// single-use and short-lived; stale ones are swept so abandoned checkouts
// do not keep a payable token on the order.
type CheckoutConfig struct {
	TokenTTL      time.Duration `envconfig:"BNAGW_CHECKOUT_TOKEN_TTL" default:"24h"`
	SweepInterval time.Duration `envconfig:"BNAGW_CHECKOUT_TOKEN_SWEEP_INTERVAL" default:"15m"`
}

// FeaturesConfig mirrors the gateway's checkout feature toggles: which
// optional shopper fields are collected and sent to the vendor.
type FeaturesConfig struct {
	Phone           bool `envconfig:"BNAGW_FEATURE_PHONE" default:"false"`
	Birthdate       bool `envconfig:"BNAGW_FEATURE_BIRTHDATE" default:"false"`
	BillingAddress  bool `envconfig:"BNAGW_FEATURE_BILLING_ADDRESS" default:"true"`
	ShippingAddress bool `envconfig:"BNAGW_FEATURE_SHIPPING_ADDRESS" default:"false"`
	Subscriptions   bool `envconfig:"BNAGW_FEATURE_SUBSCRIPTIONS" default:"false"`
	Debug           bool `envconfig:"BNAGW_FEATURE_DEBUG" default:"false"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BNAGW_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BNAGW_AUTO_MIGRATE" default:"false"`
}

// WebhookConfig tunes the webhook idempotency guard and per-order lock.
type WebhookConfig struct {
	IdempotencyTTL time.Duration `envconfig:"BNAGW_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
	OrderLockTTL   time.Duration `envconfig:"BNAGW_WEBHOOK_ORDER_LOCK_TTL" default:"30s"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"BNAGW_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"BNAGW_PUBSUB_DOMAIN_TOPIC" default:"bna-gateway-events"`
	DomainSubscription string `envconfig:"BNAGW_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BNAGW_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BNAGW_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BNAGW_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
