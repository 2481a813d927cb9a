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

	EnvDBDSN  = "JARIECOM_DB_DSN"
	EnvDBHost = "JARIECOM_DB_HOST"
	EnvDBUser = "JARIECOM_DB_USER"
	EnvDBName = "JARIECOM_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	OTP          OTPConfig
	Mpesa        MpesaConfig
	IntaSend     IntaSendConfig
	SMS          SMSConfig
	Cloudinary   CloudinaryConfig
	Payments     PaymentsConfig
	Cron         CronConfig
	RateLimit    RateLimitConfig
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
	Env          string `envconfig:"JARIECOM_APP_ENV" required:"true"`
	Port         string `envconfig:"JARIECOM_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"JARIECOM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"JARIECOM_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"JARIECOM_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"JARIECOM_DB_DSN"`
	Driver string `envconfig:"JARIECOM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"JARIECOM_DB_HOST"`
	LegacyPort     int    `envconfig:"JARIECOM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"JARIECOM_DB_USER"`
	LegacyPassword string `envconfig:"JARIECOM_DB_PASSWORD"`
	LegacyName     string `envconfig:"JARIECOM_DB_NAME"`
	LegacySSLMode  string `envconfig:"JARIECOM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"JARIECOM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"JARIECOM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"JARIECOM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"JARIECOM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"JARIECOM_REDIS_URL" required:"true"`
	Address      string        `envconfig:"JARIECOM_REDIS_ADDR"`
	Password     string        `envconfig:"JARIECOM_REDIS_PASSWORD"`
	DB           int           `envconfig:"JARIECOM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"JARIECOM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"JARIECOM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"JARIECOM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"JARIECOM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"JARIECOM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"JARIECOM_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"JARIECOM_JWT_ISSUER" default:"jariecom"`
	ExpirationMinutes int    `envconfig:"JARIECOM_JWT_EXPIRATION_MINUTES" default:"10080"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"JARIECOM_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"JARIECOM_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"JARIECOM_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"JARIECOM_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"JARIECOM_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"JARIECOM_AUTO_MIGRATE" default:"false"`
}

type OTPConfig struct {
	TTL        time.Duration `envconfig:"JARIECOM_OTP_TTL" default:"5m"`
	SendLimit  int           `envconfig:"JARIECOM_OTP_SEND_LIMIT" default:"3"`
	SendWindow time.Duration `envconfig:"JARIECOM_OTP_SEND_WINDOW" default:"1h"`
	CodeLength int           `envconfig:"JARIECOM_OTP_CODE_LENGTH" default:"6"`
}

type MpesaConfig struct {
	ConsumerKey    string `envconfig:"JARIECOM_MPESA_CONSUMER_KEY"`
	ConsumerSecret string `envconfig:"JARIECOM_MPESA_CONSUMER_SECRET"`
	Shortcode      string `envconfig:"JARIECOM_MPESA_SHORTCODE"`
	Passkey        string `envconfig:"JARIECOM_MPESA_PASSKEY"`
	Env            string `envconfig:"JARIECOM_MPESA_ENV" default:"sandbox"`
	CallbackURL    string `envconfig:"JARIECOM_MPESA_CALLBACK_URL"`
}

// Environment returns the normalized Daraja environment (sandbox/production).
func (m MpesaConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(m.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type IntaSendConfig struct {
	SecretKey      string `envconfig:"JARIECOM_INTASEND_SECRET_KEY"`
	PublishableKey string `envconfig:"JARIECOM_INTASEND_PUBLISHABLE_KEY"`
	Env            string `envconfig:"JARIECOM_INTASEND_ENV" default:"sandbox"`
	WebhookSecret  string `envconfig:"JARIECOM_INTASEND_WEBHOOK_SECRET"`
}

// Environment returns the normalized IntaSend environment (sandbox/live).
func (i IntaSendConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(i.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type SMSConfig struct {
	Username string `envconfig:"JARIECOM_AT_USERNAME"`
	APIKey   string `envconfig:"JARIECOM_AT_API_KEY"`
	SenderID string `envconfig:"JARIECOM_AT_SENDER_ID"`
	Env      string `envconfig:"JARIECOM_AT_ENV" default:"sandbox"`
}

// Configured reports whether real Africa's Talking credentials are present.
// When false the SMS client degrades to a mock sender.
func (s SMSConfig) Configured() bool {
	return strings.TrimSpace(s.Username) != "" && strings.TrimSpace(s.APIKey) != ""
}

type CloudinaryConfig struct {
	URL        string `envconfig:"JARIECOM_CLOUDINARY_URL"`
	FolderRoot string `envconfig:"JARIECOM_CLOUDINARY_FOLDER_ROOT" default:"jariecom"`
}

type PaymentsConfig struct {
	PollInterval time.Duration `envconfig:"JARIECOM_PAYMENT_POLL_INTERVAL" default:"5s"`
	PollTimeout  time.Duration `envconfig:"JARIECOM_PAYMENT_POLL_TIMEOUT" default:"2m"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"JARIECOM_CRON_INTERVAL" default:"1m"`
	LockTTL  time.Duration `envconfig:"JARIECOM_CRON_LOCK_TTL" default:"5m"`
}

type RateLimitConfig struct {
	AuthLimit    int           `envconfig:"JARIECOM_RATE_AUTH_LIMIT" default:"10"`
	AuthWindow   time.Duration `envconfig:"JARIECOM_RATE_AUTH_WINDOW" default:"1m"`
	PublicLimit  int           `envconfig:"JARIECOM_RATE_PUBLIC_LIMIT" default:"60"`
	PublicWindow time.Duration `envconfig:"JARIECOM_RATE_PUBLIC_WINDOW" default:"1m"`
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
