package config

// EnvPrefix is passed to envconfig; every field tag below carries the full name.
const EnvPrefix = "LAUNDRYDESK"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "LAUNDRYDESK_APP_ENV"
	EnvPort       = "LAUNDRYDESK_APP_PORT"
	EnvDBDSN      = "LAUNDRYDESK_DB_DSN"
	EnvDBHost     = "LAUNDRYDESK_DB_HOST"
	EnvDBUser     = "LAUNDRYDESK_DB_USER"
	EnvDBName     = "LAUNDRYDESK_DB_NAME"
	EnvRedisURL   = "LAUNDRYDESK_REDIS_URL"
	EnvJWTSecret  = "LAUNDRYDESK_JWT_SECRET"
	EnvJWTIssuer  = "LAUNDRYDESK_JWT_ISSUER"
	EnvUseSQLite  = "LAUNDRYDESK_USE_SQLITE"
	EnvSQLitePath = "LAUNDRYDESK_SQLITE_PATH"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
