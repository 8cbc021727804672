package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "SETTLE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	AuthRateLimit AuthRateLimitConfig
	Protocol      ProtocolConfig
	Journal       JournalConfig
	PubSub        PubSubConfig
	GCP           GCPConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Protocol.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SETTLE_APP_ENV" required:"true"`
	Port         string `envconfig:"SETTLE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SETTLE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SETTLE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SETTLE_DB_DSN"`
	Driver string `envconfig:"SETTLE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SETTLE_DB_HOST"`
	Port     int    `envconfig:"SETTLE_DB_PORT" default:"5432"`
	User     string `envconfig:"SETTLE_DB_USER"`
	Password string `envconfig:"SETTLE_DB_PASSWORD"`
	Name     string `envconfig:"SETTLE_DB_NAME"`
	SSLMode  string `envconfig:"SETTLE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SETTLE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SETTLE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SETTLE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SETTLE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SETTLE_REDIS_URL" required:"true"`
	Password     string        `envconfig:"SETTLE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SETTLE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SETTLE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SETTLE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SETTLE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SETTLE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SETTLE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SETTLE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SETTLE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SETTLE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type AuthRateLimitConfig struct {
	Window      time.Duration `envconfig:"SETTLE_AUTH_RATE_LIMIT_WINDOW" default:"1m"`
	CallerLimit int           `envconfig:"SETTLE_AUTH_RATE_LIMIT_CALLER_LIMIT" default:"60"`
	IPLimit     int           `envconfig:"SETTLE_AUTH_RATE_LIMIT_IP_LIMIT" default:"120"`
}

// ProtocolConfig carries the economic parameters the engine is constructed
// with. Bounds mirror the on-ledger invariants: the protocol fee can be
// reconfigured at runtime by the administrator but never above MaxProtocolFeeBps.
type ProtocolConfig struct {
	FeeCollectorID    string        `envconfig:"SETTLE_PROTOCOL_FEE_COLLECTOR_ID" required:"true"`
	ProtocolFeeBps    int64         `envconfig:"SETTLE_PROTOCOL_FEE_BPS" default:"50"`
	MaxProtocolFeeBps int64         `envconfig:"SETTLE_MAX_PROTOCOL_FEE_BPS" default:"1000"`
	MaxPlatformFeeBps int64         `envconfig:"SETTLE_MAX_PLATFORM_FEE_BPS" default:"500"`
	MaxSplits         int           `envconfig:"SETTLE_MAX_SPLITS" default:"20"`
	PriceCapBps       int64         `envconfig:"SETTLE_PRICE_CAP_BPS" default:"30000"`
	RefundWindow      time.Duration `envconfig:"SETTLE_REFUND_WINDOW" default:"2160h"`
	SnapshotInterval  time.Duration `envconfig:"SETTLE_SNAPSHOT_INTERVAL" default:"1m"`
}

func (p ProtocolConfig) validate() error {
	if _, err := uuid.Parse(p.FeeCollectorID); err != nil {
		return fmt.Errorf("fee collector id: %w", err)
	}
	if p.ProtocolFeeBps < 0 || p.ProtocolFeeBps > p.MaxProtocolFeeBps {
		return fmt.Errorf("protocol fee %d bps outside [0, %d]", p.ProtocolFeeBps, p.MaxProtocolFeeBps)
	}
	if p.MaxSplits <= 0 {
		return fmt.Errorf("max splits must be positive")
	}
	if p.PriceCapBps < 10_000 {
		return fmt.Errorf("price cap %d bps below the identity multiplier", p.PriceCapBps)
	}
	if p.RefundWindow <= 0 {
		return fmt.Errorf("refund window must be positive")
	}
	return nil
}

type JournalConfig struct {
	BatchSize      int `envconfig:"SETTLE_JOURNAL_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SETTLE_JOURNAL_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SETTLE_JOURNAL_MAX_ATTEMPTS" default:"10"`
}

type PubSubConfig struct {
	JournalTopic        string `envconfig:"SETTLE_PUBSUB_JOURNAL_TOPIC" default:"settlement-journal"`
	JournalSubscription string `envconfig:"SETTLE_PUBSUB_JOURNAL_SUBSCRIPTION"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"SETTLE_GCP_PROJECT_ID"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SETTLE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if strings.EqualFold(db.Driver, "sqlite") {
		db.DSN = "file::memory:?cache=shared"
		return nil
	}

	missing := []string{}
	for env, value := range map[string]string{
		"SETTLE_DB_HOST": db.Host,
		"SETTLE_DB_USER": db.User,
		"SETTLE_DB_NAME": db.Name,
	} {
		if value == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either SETTLE_DB_DSN or %s are required", strings.Join(missing, ", "))
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
