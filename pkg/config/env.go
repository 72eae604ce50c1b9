package config

// EnvPrefix is passed to envconfig; every field carries an explicit name so the
// prefix only matters for unnamed fields.
const EnvPrefix = "FLEET"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "FLEET_APP_ENV"
	EnvPort       = "FLEET_APP_PORT"
	EnvDBDSN      = "FLEET_DB_DSN"
	EnvDBHost     = "FLEET_DB_HOST"
	EnvDBUser     = "FLEET_DB_USER"
	EnvDBName     = "FLEET_DB_NAME"
	EnvRedisURL   = "FLEET_REDIS_URL"
	EnvJWTSecret  = "FLEET_JWT_SECRET"
	EnvJWTIssuer  = "FLEET_JWT_ISSUER"
	EnvLoadsTopic = "FLEET_PUBSUB_LOADS_TOPIC"
)

// minProdSecretLen is the shortest HMAC secret accepted in prod.
const minProdSecretLen = 16
