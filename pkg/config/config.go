package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Commerce     CommerceConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	Stripe       StripeConfig
	Razorpay     RazorpayConfig
	PayPal       PayPalConfig
	PhonePe      PhonePeConfig
	Square       SquareConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env            string   `envconfig:"VB_APP_ENV" required:"true"`
	Port           string   `envconfig:"VB_APP_PORT" required:"true"`
	LogLevel       string   `envconfig:"VB_LOG_LEVEL" default:"info"`
	LogWarnStack   bool     `envconfig:"VB_LOG_WARN_STACK" default:"false"`
	LogFormat      string   `envconfig:"VB_LOG_FORMAT"`
	AllowedOrigins []string `envconfig:"VB_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	MetricsAddr    string   `envconfig:"VB_METRICS_ADDR"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"VB_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"VB_DB_DSN"`
	Driver string `envconfig:"VB_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"VB_DB_HOST"`
	Port     int    `envconfig:"VB_DB_PORT" default:"5432"`
	User     string `envconfig:"VB_DB_USER"`
	Password string `envconfig:"VB_DB_PASSWORD"`
	Name     string `envconfig:"VB_DB_NAME"`
	SSLMode  string `envconfig:"VB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VB_REDIS_URL"`
	Address      string        `envconfig:"VB_REDIS_ADDR"`
	Password     string        `envconfig:"VB_REDIS_PASSWORD"`
	DB           int           `envconfig:"VB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig describes the tokens minted by the identity provider. The API only verifies them.
type JWTConfig struct {
	Secret            string `envconfig:"VB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VB_JWT_EXPIRATION_MINUTES" default:"60"`
}

// TokenTTL bounds how long a revoked token id is remembered.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type RateLimitConfig struct {
	Window time.Duration `envconfig:"VB_RATE_LIMIT_WINDOW" default:"1m"`
	Limit  int           `envconfig:"VB_RATE_LIMIT_PER_IP" default:"120"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"VB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"VB_AUTO_MIGRATE" default:"false"`
}

// CommerceConfig holds the pricing rules applied to carts and orders.
type CommerceConfig struct {
	FreeShippingThreshold string        `envconfig:"VB_FREE_SHIPPING_THRESHOLD" default:"500"`
	ShippingFee           string        `envconfig:"VB_SHIPPING_FEE" default:"40"`
	TaxRate               string        `envconfig:"VB_TAX_RATE" default:"0.18"`
	Carrier               string        `envconfig:"VB_CARRIER" default:"Victory Express"`
	DeliveryDays          int           `envconfig:"VB_DELIVERY_DAYS" default:"3"`
	CouponsFile           string        `envconfig:"VB_COUPONS_FILE"`
	FrontendURL           string        `envconfig:"VB_FRONTEND_URL" default:"http://localhost:3000"`
	UnpaidOrderTTL        time.Duration `envconfig:"VB_UNPAID_ORDER_TTL" default:"24h"`
	CatalogCacheTTL       time.Duration `envconfig:"VB_CATALOG_CACHE_TTL" default:"60s"`
}

// Pricing parses the decimal pricing knobs.
func (c CommerceConfig) Pricing() (threshold, fee, rate decimal.Decimal, err error) {
	if threshold, err = decimal.NewFromString(c.FreeShippingThreshold); err != nil {
		return threshold, fee, rate, fmt.Errorf("invalid %s: %w", EnvFreeShippingThreshold, err)
	}
	if fee, err = decimal.NewFromString(c.ShippingFee); err != nil {
		return threshold, fee, rate, fmt.Errorf("invalid %s: %w", EnvShippingFee, err)
	}
	if rate, err = decimal.NewFromString(c.TaxRate); err != nil {
		return threshold, fee, rate, fmt.Errorf("invalid %s: %w", EnvTaxRate, err)
	}
	return threshold, fee, rate, nil
}

type GCPConfig struct {
	ProjectID              string `envconfig:"VB_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"VB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"VB_GOOGLE_APPLICATION_CREDENTIALS"`
}

// PubSubConfig names the topics and the analytics subscriptions. AnalyticsSubscription
// is attached to the orders topic, AnalyticsPaymentsSubscription to the payments topic.
type PubSubConfig struct {
	OrdersTopic                   string `envconfig:"VB_PUBSUB_ORDERS_TOPIC" default:"vb-order-events"`
	PaymentsTopic                 string `envconfig:"VB_PUBSUB_PAYMENTS_TOPIC" default:"vb-payment-events"`
	AnalyticsSubscription         string `envconfig:"VB_PUBSUB_ANALYTICS_SUBSCRIPTION" default:"vb-analytics"`
	AnalyticsPaymentsSubscription string `envconfig:"VB_PUBSUB_ANALYTICS_PAYMENTS_SUBSCRIPTION" default:"vb-analytics-payments"`
	// MessageOrdering publishes with the aggregate id as ordering key.
	MessageOrdering bool `envconfig:"VB_PUBSUB_MESSAGE_ORDERING" default:"true"`
}

type BigQueryConfig struct {
	Dataset        string        `envconfig:"VB_BIGQUERY_DATASET" default:"victorybazaar"`
	OrderTable     string        `envconfig:"VB_BIGQUERY_ORDER_TABLE" default:"order_events"`
	PaymentTable   string        `envconfig:"VB_BIGQUERY_PAYMENT_TABLE" default:"payment_events"`
	IdempotencyTTL time.Duration `envconfig:"VB_ANALYTICS_IDEMPOTENCY_TTL" default:"720h"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"VB_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"VB_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"VB_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"VB_OUTBOX_RETENTION" default:"168h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"VB_CRON_INTERVAL" default:"5m"`
	LockTTL  time.Duration `envconfig:"VB_CRON_LOCK_TTL" default:"4m"`
}

type StripeConfig struct {
	APIKey string `envconfig:"VB_STRIPE_API_KEY"`
	Secret string `envconfig:"VB_STRIPE_WEBHOOK_SECRET"`
	Env    string `envconfig:"VB_STRIPE_ENV" default:"test"`
}

func (s StripeConfig) Enabled() bool { return strings.TrimSpace(s.APIKey) != "" }

type RazorpayConfig struct {
	KeyID         string `envconfig:"VB_RAZORPAY_KEY_ID"`
	KeySecret     string `envconfig:"VB_RAZORPAY_KEY_SECRET"`
	WebhookSecret string `envconfig:"VB_RAZORPAY_WEBHOOK_SECRET"`
	BaseURL       string `envconfig:"VB_RAZORPAY_BASE_URL" default:"https://api.razorpay.com"`
}

func (r RazorpayConfig) Enabled() bool { return r.KeyID != "" && r.KeySecret != "" }

type PayPalConfig struct {
	ClientID     string `envconfig:"VB_PAYPAL_CLIENT_ID"`
	ClientSecret string `envconfig:"VB_PAYPAL_CLIENT_SECRET"`
	Mode         string `envconfig:"VB_PAYPAL_MODE" default:"sandbox"`
	INRPerUSD    string `envconfig:"VB_PAYPAL_INR_PER_USD" default:"83"`
	ReturnURL    string `envconfig:"VB_PAYPAL_RETURN_URL"`
	CancelURL    string `envconfig:"VB_PAYPAL_CANCEL_URL"`
}

func (p PayPalConfig) Enabled() bool { return p.ClientID != "" && p.ClientSecret != "" }

// BaseURL resolves the REST host for the configured mode.
func (p PayPalConfig) BaseURL() string {
	if strings.EqualFold(strings.TrimSpace(p.Mode), "live") {
		return "https://api-m.paypal.com"
	}
	return "https://api-m.sandbox.paypal.com"
}

type PhonePeConfig struct {
	MerchantID  string `envconfig:"VB_PHONEPE_MERCHANT_ID"`
	SaltKey     string `envconfig:"VB_PHONEPE_SALT_KEY"`
	SaltIndex   string `envconfig:"VB_PHONEPE_SALT_INDEX" default:"1"`
	BaseURL     string `envconfig:"VB_PHONEPE_BASE_URL" default:"https://api-preprod.phonepe.com/apis/pg-sandbox"`
	CallbackURL string `envconfig:"VB_PHONEPE_CALLBACK_URL"`
	RedirectURL string `envconfig:"VB_PHONEPE_REDIRECT_URL"`
}

func (p PhonePeConfig) Enabled() bool { return p.MerchantID != "" && p.SaltKey != "" }

type SquareConfig struct {
	AccessToken   string `envconfig:"VB_SQUARE_ACCESS_TOKEN"`
	WebhookSecret string `envconfig:"VB_SQUARE_WEBHOOK_SECRET"`
	LocationID    string `envconfig:"VB_SQUARE_LOCATION_ID"`
	WebhookURL    string `envconfig:"VB_SQUARE_WEBHOOK_URL"`
	Env           string `envconfig:"VB_SQUARE_ENV" default:"sandbox"`
}

func (s SquareConfig) Enabled() bool { return strings.TrimSpace(s.AccessToken) != "" }

func (db *DBConfig) ensureDSN(sqlite bool) error {
	if db.DSN != "" {
		return nil
	}
	if sqlite {
		db.DSN = "file:victorybazaar.db?cache=shared"
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
