package config

// EnvPrefix is handed to envconfig; every field also names its full variable.
const EnvPrefix = "TUNEDASH"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "TUNEDASH_APP_ENV"
	EnvPort     = "TUNEDASH_APP_PORT"
	EnvLogLevel = "TUNEDASH_LOG_LEVEL"

	EnvDBDSN  = "TUNEDASH_DB_DSN"
	EnvDBHost = "TUNEDASH_DB_HOST"
	EnvDBUser = "TUNEDASH_DB_USER"
	EnvDBName = "TUNEDASH_DB_NAME"

	EnvUseSQLite   = "TUNEDASH_USE_SQLITE"
	EnvAutoMigrate = "TUNEDASH_AUTO_MIGRATE"

	EnvRedisURL = "TUNEDASH_REDIS_URL"

	EnvJWTSecret = "TUNEDASH_JWT_SECRET"
	EnvJWTIssuer = "TUNEDASH_JWT_ISSUER"

	EnvFeedSource          = "TUNEDASH_FEED_SOURCE"
	EnvFeedRemoteBaseURL   = "TUNEDASH_FEED_REMOTE_BASE_URL"
	EnvFeedPersistTimeout  = "TUNEDASH_FEED_PERSIST_TIMEOUT"
	EnvFeedRemotePageSize  = "TUNEDASH_FEED_REMOTE_PAGE_SIZE"
	EnvFeedSessionTTL      = "TUNEDASH_FEED_SESSION_TTL"
	EnvGCPProjectID        = "TUNEDASH_GCP_PROJECT_ID"
	EnvPubSubNotifTopic    = "TUNEDASH_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotifSub      = "TUNEDASH_PUBSUB_NOTIFICATION_SUBSCRIPTION"
	EnvRetentionDays       = "TUNEDASH_NOTIFICATION_RETENTION_DAYS"
	EnvEventIdempotencyTTL = "TUNEDASH_EVENTING_IDEMPOTENCY_TTL"
)

// legacyDBEnvVars must all be set when no DSN is configured.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
