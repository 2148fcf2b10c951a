package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "OOPRATO"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "OOPRATO_APP_ENV"
	EnvPort     = "OOPRATO_APP_PORT"
	EnvDBDSN    = "OOPRATO_DB_DSN"
	EnvDBHost   = "OOPRATO_DB_HOST"
	EnvDBUser   = "OOPRATO_DB_USER"
	EnvDBName   = "OOPRATO_DB_NAME"
	EnvRedisURL = "OOPRATO_REDIS_URL"

	EnvGCPProjectID       = "OOPRATO_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic  = "OOPRATO_PUBSUB_ORDERS_TOPIC"
	EnvPubSubRefundsTopic = "OOPRATO_PUBSUB_REFUNDS_TOPIC"

	EnvWhatsAppBaseURL = "OOPRATO_WHATSAPP_BASE_URL"
	EnvWhatsAppAPIKey  = "OOPRATO_WHATSAPP_API_KEY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	Outbox        OutboxConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	WhatsApp      WhatsAppConfig
	Notifications NotificationsConfig
	Loyalty       LoyaltyConfig
	Delivery      DeliveryConfig
	Housekeeping  HousekeepingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Loyalty.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"OOPRATO_APP_ENV" required:"true"`
	Port         string `envconfig:"OOPRATO_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"OOPRATO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OOPRATO_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"OOPRATO_LOG_FORMAT" default:"json"`

	CORSOrigins []string `envconfig:"OOPRATO_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN        string `envconfig:"OOPRATO_DB_DSN"`
	SQLitePath string `envconfig:"OOPRATO_DB_SQLITE_PATH" default:"ooprato.db"`

	LegacyHost     string `envconfig:"OOPRATO_DB_HOST"`
	LegacyPort     int    `envconfig:"OOPRATO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"OOPRATO_DB_USER"`
	LegacyPassword string `envconfig:"OOPRATO_DB_PASSWORD"`
	LegacyName     string `envconfig:"OOPRATO_DB_NAME"`
	LegacySSLMode  string `envconfig:"OOPRATO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"OOPRATO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OOPRATO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OOPRATO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OOPRATO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OOPRATO_REDIS_URL"`
	Address      string        `envconfig:"OOPRATO_REDIS_ADDR"`
	Password     string        `envconfig:"OOPRATO_REDIS_PASSWORD"`
	DB           int           `envconfig:"OOPRATO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OOPRATO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OOPRATO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OOPRATO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OOPRATO_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"OOPRATO_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"OOPRATO_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"OOPRATO_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	NotificationIdempotencyTTL time.Duration `envconfig:"OOPRATO_EVENTING_NOTIFICATION_IDEMPOTENCY_TTL" default:"168h"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"OOPRATO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"OOPRATO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"OOPRATO_OUTBOX_MAX_ATTEMPTS" default:"10"`
	// Concurrency bounds how many orders publish in parallel within a batch.
	Concurrency int `envconfig:"OOPRATO_OUTBOX_PUBLISH_CONCURRENCY" default:"8"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"OOPRATO_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic  string `envconfig:"OOPRATO_PUBSUB_ORDERS_TOPIC" default:"ooprato-order-events"`
	RefundsTopic string `envconfig:"OOPRATO_PUBSUB_REFUNDS_TOPIC" default:"ooprato-refund-requests"`
}

type WhatsAppConfig struct {
	BaseURL     string        `envconfig:"OOPRATO_WHATSAPP_BASE_URL"`
	APIKey      string        `envconfig:"OOPRATO_WHATSAPP_API_KEY"`
	SendTimeout time.Duration `envconfig:"OOPRATO_WHATSAPP_SEND_TIMEOUT" default:"10s"`
}

// Enabled reports whether the Evolution API endpoint is configured.
func (w WhatsAppConfig) Enabled() bool {
	return strings.TrimSpace(w.BaseURL) != "" && strings.TrimSpace(w.APIKey) != ""
}

type NotificationsConfig struct {
	ChannelTimeout time.Duration `envconfig:"OOPRATO_NOTIFICATIONS_CHANNEL_TIMEOUT" default:"8s"`
}

// LoyaltyConfig holds the earning rules. Tier thresholds are lifetime earned
// points; multipliers are applied to the base earn amount.
type LoyaltyConfig struct {
	PointsPerCurrencyUnit string `envconfig:"OOPRATO_LOYALTY_POINTS_PER_UNIT" default:"1"`
	SilverThreshold       int    `envconfig:"OOPRATO_LOYALTY_SILVER_THRESHOLD" default:"500"`
	GoldThreshold         int    `envconfig:"OOPRATO_LOYALTY_GOLD_THRESHOLD" default:"1500"`
	DiamondThreshold      int    `envconfig:"OOPRATO_LOYALTY_DIAMOND_THRESHOLD" default:"5000"`
	BronzeMultiplier      string `envconfig:"OOPRATO_LOYALTY_BRONZE_MULTIPLIER" default:"1"`
	SilverMultiplier      string `envconfig:"OOPRATO_LOYALTY_SILVER_MULTIPLIER" default:"1.25"`
	GoldMultiplier        string `envconfig:"OOPRATO_LOYALTY_GOLD_MULTIPLIER" default:"1.5"`
	DiamondMultiplier     string `envconfig:"OOPRATO_LOYALTY_DIAMOND_MULTIPLIER" default:"2"`
	ReferralMinOrderValue string `envconfig:"OOPRATO_LOYALTY_REFERRAL_MIN_ORDER" default:"30"`
	ReferralRewardPoints  int    `envconfig:"OOPRATO_LOYALTY_REFERRAL_REWARD_POINTS" default:"100"`
}

func (l LoyaltyConfig) validate() error {
	for name, raw := range map[string]string{
		"points per unit":    l.PointsPerCurrencyUnit,
		"bronze multiplier":  l.BronzeMultiplier,
		"silver multiplier":  l.SilverMultiplier,
		"gold multiplier":    l.GoldMultiplier,
		"diamond multiplier": l.DiamondMultiplier,
		"referral min order": l.ReferralMinOrderValue,
	} {
		value, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("loyalty %s: %w", name, err)
		}
		if value.IsNegative() {
			return fmt.Errorf("loyalty %s must be non-negative", name)
		}
	}
	if !(l.SilverThreshold <= l.GoldThreshold && l.GoldThreshold <= l.DiamondThreshold) {
		return fmt.Errorf("loyalty tier thresholds must be ascending")
	}
	if l.ReferralRewardPoints < 0 {
		return fmt.Errorf("loyalty referral reward must be non-negative")
	}
	return nil
}

type DeliveryConfig struct {
	DefaultPreparationMinutes int    `envconfig:"OOPRATO_DELIVERY_DEFAULT_PREP_MINUTES" default:"30"`
	CourierSpeedKmh           string `envconfig:"OOPRATO_DELIVERY_COURIER_SPEED_KMH" default:"25"`
	HandoffBufferMinutes      int    `envconfig:"OOPRATO_DELIVERY_HANDOFF_BUFFER_MINUTES" default:"5"`
}

// HousekeepingConfig drives the cron worker.
type HousekeepingConfig struct {
	Interval                  time.Duration `envconfig:"OOPRATO_HOUSEKEEPING_INTERVAL" default:"1h"`
	LockTTL                   time.Duration `envconfig:"OOPRATO_HOUSEKEEPING_LOCK_TTL" default:"55m"`
	NotificationRetentionDays int           `envconfig:"OOPRATO_HOUSEKEEPING_NOTIFICATION_RETENTION_DAYS" default:"30"`
	OutboxRetentionDays       int           `envconfig:"OOPRATO_HOUSEKEEPING_OUTBOX_RETENTION_DAYS" default:"14"`
	StaleOrderTTL             time.Duration `envconfig:"OOPRATO_HOUSEKEEPING_STALE_ORDER_TTL" default:"2h"`
	StaleOrderBatchSize       int           `envconfig:"OOPRATO_HOUSEKEEPING_STALE_ORDER_BATCH" default:"100"`
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
