package config

const (
	EnvPrefix = "STOCKROOM"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvAppEnv   = "STOCKROOM_APP_ENV"
	EnvPort     = "STOCKROOM_APP_PORT"
	EnvLogLevel = "STOCKROOM_LOG_LEVEL"

	EnvDBDSN    = "STOCKROOM_DB_DSN"
	EnvDBDriver = "STOCKROOM_DB_DRIVER"
	EnvDBHost   = "STOCKROOM_DB_HOST"
	EnvDBUser   = "STOCKROOM_DB_USER"
	EnvDBName   = "STOCKROOM_DB_NAME"

	EnvRedisURL = "STOCKROOM_REDIS_URL"

	EnvJWTSecret  = "STOCKROOM_JWT_SECRET"
	EnvJWTIssuer  = "STOCKROOM_JWT_ISSUER"
	EnvJWTExpMins = "STOCKROOM_JWT_EXPIRATION_MINUTES"

	EnvLowStockThreshold   = "STOCKROOM_LOW_STOCK_THRESHOLD"
	EnvAuditDefaultPerPage = "STOCKROOM_AUDIT_DEFAULT_PER_PAGE"
	EnvAuditMaxPerPage     = "STOCKROOM_AUDIT_MAX_PER_PAGE"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
