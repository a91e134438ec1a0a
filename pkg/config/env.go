package config

const (
	EnvPrefix = "KIMIPOS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "KIMIPOS_APP_ENV"
	EnvPort     = "KIMIPOS_APP_PORT"
	EnvLogLevel = "KIMIPOS_LOG_LEVEL"

	EnvDBDSN  = "KIMIPOS_DB_DSN"
	EnvDBHost = "KIMIPOS_DB_HOST"
	EnvDBUser = "KIMIPOS_DB_USER"
	EnvDBName = "KIMIPOS_DB_NAME"

	EnvSQLitePath = "KIMIPOS_SQLITE_PATH"
	EnvUseSQLite  = "KIMIPOS_USE_SQLITE"

	EnvRedisURL = "KIMIPOS_REDIS_URL"

	EnvPrintMode       = "KIMIPOS_PRINT_MODE"
	EnvPrintGatewayURL = "KIMIPOS_PRINT_GATEWAY_URL"
	EnvPrintTimeout    = "KIMIPOS_PRINT_TIMEOUT"
	EnvPrintAddresses  = "KIMIPOS_PRINT_ADDRESSES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

// Print modes select the submitter used by the print router.
const (
	PrintModeGateway = "gateway"
	PrintModeESCPOS  = "escpos"
	PrintModeNetwork = "network"
	PrintModeNone    = "none"
)
