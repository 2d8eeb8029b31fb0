package config

// EnvPrefix is the envconfig prefix shared by every setting.
const EnvPrefix = "autoparts"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names, used by tests and error messages.
const (
	EnvAppEnv     = "AUTOPARTS_APP_ENV"
	EnvPort       = "AUTOPARTS_APP_PORT"
	EnvDBDSN      = "AUTOPARTS_DB_DSN"
	EnvDBHost     = "AUTOPARTS_DB_HOST"
	EnvDBUser     = "AUTOPARTS_DB_USER"
	EnvDBName     = "AUTOPARTS_DB_NAME"
	EnvRedisURL   = "AUTOPARTS_REDIS_URL"
	EnvJWTSecret  = "AUTOPARTS_JWT_SECRET"
	EnvJWTIssuer  = "AUTOPARTS_JWT_ISSUER"
	EnvJWTExpMins = "AUTOPARTS_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
