package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	PayOS         PayOSConfig
	Sendgrid      SendgridConfig
	Google        GoogleConfig
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
	Env          string `envconfig:"AUTOPARTS_APP_ENV" required:"true"`
	Port         string `envconfig:"AUTOPARTS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AUTOPARTS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AUTOPARTS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"AUTOPARTS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"AUTOPARTS_DB_DSN"`
	Driver string `envconfig:"AUTOPARTS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AUTOPARTS_DB_HOST"`
	LegacyPort     int    `envconfig:"AUTOPARTS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AUTOPARTS_DB_USER"`
	LegacyPassword string `envconfig:"AUTOPARTS_DB_PASSWORD"`
	LegacyName     string `envconfig:"AUTOPARTS_DB_NAME"`
	LegacySSLMode  string `envconfig:"AUTOPARTS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AUTOPARTS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AUTOPARTS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AUTOPARTS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AUTOPARTS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AUTOPARTS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AUTOPARTS_REDIS_ADDR"`
	Password     string        `envconfig:"AUTOPARTS_REDIS_PASSWORD"`
	DB           int           `envconfig:"AUTOPARTS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AUTOPARTS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AUTOPARTS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AUTOPARTS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AUTOPARTS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AUTOPARTS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"AUTOPARTS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"AUTOPARTS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"AUTOPARTS_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AUTOPARTS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AUTOPARTS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AUTOPARTS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AUTOPARTS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AUTOPARTS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"AUTOPARTS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUserLimit  int           `envconfig:"AUTOPARTS_AUTH_RATE_LIMIT_LOGIN_USER_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"AUTOPARTS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow    time.Duration `envconfig:"AUTOPARTS_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupUserLimit int           `envconfig:"AUTOPARTS_AUTH_RATE_LIMIT_SIGNUP_USER_LIMIT" default:"3"`
	SignupIPLimit   int           `envconfig:"AUTOPARTS_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"AUTOPARTS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"AUTOPARTS_AUTO_MIGRATE" default:"false"`
}

type PayOSConfig struct {
	BaseURL     string        `envconfig:"AUTOPARTS_PAYOS_BASE_URL" default:"https://api-merchant.payos.vn"`
	ClientID    string        `envconfig:"AUTOPARTS_PAYOS_CLIENT_ID"`
	APIKey      string        `envconfig:"AUTOPARTS_PAYOS_API_KEY"`
	ChecksumKey string        `envconfig:"AUTOPARTS_PAYOS_CHECKSUM_KEY"`
	ReturnURL   string        `envconfig:"AUTOPARTS_PAYOS_RETURN_URL" default:"http://localhost:3000/success"`
	CancelURL   string        `envconfig:"AUTOPARTS_PAYOS_CANCEL_URL" default:"http://localhost:3000/cancel"`
	HTTPTimeout time.Duration `envconfig:"AUTOPARTS_PAYOS_HTTP_TIMEOUT" default:"15s"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"AUTOPARTS_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"AUTOPARTS_SENDGRID_FROM_EMAIL"`
}

type GoogleConfig struct {
	ClientID string `envconfig:"AUTOPARTS_GOOGLE_CLIENT_ID"`
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
