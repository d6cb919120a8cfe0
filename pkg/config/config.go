package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "BEATVAULT_DB_DSN"
	EnvDBHost = "BEATVAULT_DB_HOST"
	EnvDBUser = "BEATVAULT_DB_USER"
	EnvDBName = "BEATVAULT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Session      SessionConfig
	OTP          OTPConfig
	PayPal       PayPalConfig
	LemonSqueezy LemonSqueezyConfig
	R2           R2Config
	Resend       ResendConfig
	Downloads    DownloadConfig
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
	Env          string `envconfig:"BEATVAULT_APP_ENV" required:"true"`
	Port         string `envconfig:"BEATVAULT_APP_PORT" required:"true"`
	PublicURL    string `envconfig:"BEATVAULT_PUBLIC_URL" required:"true"`
	LogLevel     string `envconfig:"BEATVAULT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BEATVAULT_LOG_WARN_STACK" default:"false"`

	// CORSOrigins is the comma-separated list of allowed storefront origins.
	CORSOrigins []string `envconfig:"BEATVAULT_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BEATVAULT_DB_DSN"`
	Driver string `envconfig:"BEATVAULT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BEATVAULT_DB_HOST"`
	LegacyPort     int    `envconfig:"BEATVAULT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BEATVAULT_DB_USER"`
	LegacyPassword string `envconfig:"BEATVAULT_DB_PASSWORD"`
	LegacyName     string `envconfig:"BEATVAULT_DB_NAME"`
	LegacySSLMode  string `envconfig:"BEATVAULT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BEATVAULT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BEATVAULT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BEATVAULT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BEATVAULT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BEATVAULT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BEATVAULT_REDIS_ADDR"`
	Password     string        `envconfig:"BEATVAULT_REDIS_PASSWORD"`
	DB           int           `envconfig:"BEATVAULT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BEATVAULT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BEATVAULT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BEATVAULT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BEATVAULT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BEATVAULT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SessionConfig drives the signed admin session cookie.
type SessionConfig struct {
	Secret       string `envconfig:"BEATVAULT_SESSION_SECRET" required:"true"`
	Issuer       string `envconfig:"BEATVAULT_SESSION_ISSUER" default:"beatvault"`
	TTLMinutes   int    `envconfig:"BEATVAULT_SESSION_TTL_MINUTES" default:"60"`
	CookieName   string `envconfig:"BEATVAULT_SESSION_COOKIE_NAME" default:"admin_session"`
	CookieSecure bool   `envconfig:"BEATVAULT_SESSION_COOKIE_SECURE" default:"true"`
}

// TTL returns the session lifetime.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

type OTPConfig struct {
	CodeLength    int           `envconfig:"BEATVAULT_OTP_CODE_LENGTH" default:"6"`
	TTL           time.Duration `envconfig:"BEATVAULT_OTP_TTL" default:"5m"`
	RequestWindow time.Duration `envconfig:"BEATVAULT_OTP_REQUEST_WINDOW" default:"10m"`
	RequestLimit  int           `envconfig:"BEATVAULT_OTP_REQUEST_LIMIT" default:"3"`
}

type PayPalConfig struct {
	APIURL       string `envconfig:"BEATVAULT_PAYPAL_API_URL" default:"https://api-m.sandbox.paypal.com"`
	ClientID     string `envconfig:"BEATVAULT_PAYPAL_CLIENT_ID" required:"true"`
	ClientSecret string `envconfig:"BEATVAULT_PAYPAL_CLIENT_SECRET" required:"true"`
}

type LemonSqueezyConfig struct {
	APIURL        string `envconfig:"BEATVAULT_LEMONSQUEEZY_API_URL" default:"https://api.lemonsqueezy.com"`
	APIKey        string `envconfig:"BEATVAULT_LEMONSQUEEZY_API_KEY"`
	StoreID       string `envconfig:"BEATVAULT_LEMONSQUEEZY_STORE_ID"`
	VariantID     string `envconfig:"BEATVAULT_LEMONSQUEEZY_VARIANT_ID"`
	WebhookSecret string `envconfig:"BEATVAULT_LEMONSQUEEZY_WEBHOOK_SECRET" required:"true"`

	// EventTTL bounds the webhook idempotency window in Redis.
	EventTTL time.Duration `envconfig:"BEATVAULT_LEMONSQUEEZY_EVENT_TTL" default:"720h"`
}

// R2Config points at the S3-compatible asset bucket.
type R2Config struct {
	AccountID       string        `envconfig:"BEATVAULT_R2_ACCOUNT_ID" required:"true"`
	AccessKeyID     string        `envconfig:"BEATVAULT_R2_ACCESS_KEY_ID" required:"true"`
	SecretAccessKey string        `envconfig:"BEATVAULT_R2_SECRET_ACCESS_KEY" required:"true"`
	Bucket          string        `envconfig:"BEATVAULT_R2_BUCKET" required:"true"`
	PublicBaseURL   string        `envconfig:"BEATVAULT_R2_PUBLIC_BASE_URL" required:"true"`
	UploadURLExpiry time.Duration `envconfig:"BEATVAULT_R2_UPLOAD_URL_EXPIRY" default:"15m"`
}

type ResendConfig struct {
	APIKey    string `envconfig:"BEATVAULT_RESEND_API_KEY"`
	FromEmail string `envconfig:"BEATVAULT_RESEND_FROM_EMAIL" default:"beats@beatvault.io"`
}

type DownloadConfig struct {
	// BaseURL is the prefix for addon deliverables keyed by addon type and beat id.
	BaseURL string `envconfig:"BEATVAULT_DOWNLOAD_BASE_URL" required:"true"`
	// TokenTTL is the fixed redemption window granted to every purchase.
	TokenTTL time.Duration `envconfig:"BEATVAULT_DOWNLOAD_TOKEN_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BEATVAULT_AUTO_MIGRATE" default:"false"`
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
