package config

// EnvPrefix is the envconfig prefix; individual fields pin explicit names so
// the prefix only matters for ad-hoc lookups.
const EnvPrefix = "BNAGW"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Vendor API environments select the hosted-checkout base URL.
const (
	BNAEnvDev        = "dev"
	BNAEnvStaging    = "staging"
	BNAEnvProduction = "production"
)

// Environment variable names shared between Load, tests, and error messages.
const (
	EnvAppEnv = "BNAGW_APP_ENV"
	EnvPort   = "BNAGW_APP_PORT"

	EnvDBDSN  = "BNAGW_DB_DSN"
	EnvDBHost = "BNAGW_DB_HOST"
	EnvDBUser = "BNAGW_DB_USER"
	EnvDBName = "BNAGW_DB_NAME"

	EnvRedisURL = "BNAGW_REDIS_URL"

	EnvJWTSecret = "BNAGW_JWT_SECRET"
	EnvJWTIssuer = "BNAGW_JWT_ISSUER"

	EnvBNAEnv           = "BNAGW_BNA_ENV"
	EnvBNAAccessKey     = "BNAGW_BNA_ACCESS_KEY"
	EnvBNASecretKey     = "BNAGW_BNA_SECRET_KEY"
	EnvBNAIframeID      = "BNAGW_BNA_IFRAME_ID"
	EnvBNAWebhookSecret = "BNAGW_BNA_WEBHOOK_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
