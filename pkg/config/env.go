package config

// EnvPrefix is handed to envconfig; every field also carries its full variable name.
const EnvPrefix = "VB"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "VB_APP_ENV"
	EnvPort     = "VB_APP_PORT"
	EnvLogLevel = "VB_LOG_LEVEL"

	EnvDBDSN  = "VB_DB_DSN"
	EnvDBHost = "VB_DB_HOST"
	EnvDBUser = "VB_DB_USER"
	EnvDBName = "VB_DB_NAME"

	EnvRedisURL = "VB_REDIS_URL"

	EnvJWTSecret  = "VB_JWT_SECRET"
	EnvJWTIssuer  = "VB_JWT_ISSUER"
	EnvJWTExpMins = "VB_JWT_EXPIRATION_MINUTES"

	EnvUseSQLite = "VB_USE_SQLITE"

	EnvFreeShippingThreshold = "VB_FREE_SHIPPING_THRESHOLD"
	EnvShippingFee           = "VB_SHIPPING_FEE"
	EnvTaxRate               = "VB_TAX_RATE"
	EnvCouponsFile           = "VB_COUPONS_FILE"

	EnvPubSubOrdersTopic = "VB_PUBSUB_ORDERS_TOPIC"
	EnvStripeAPIKey      = "VB_STRIPE_API_KEY"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
