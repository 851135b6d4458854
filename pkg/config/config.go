package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Feed         FeedConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Retention    RetentionConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Feed.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TUNEDASH_APP_ENV" required:"true"`
	Port         string `envconfig:"TUNEDASH_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"TUNEDASH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TUNEDASH_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"TUNEDASH_CORS_ALLOWED_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	var out []string
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

type DBConfig struct {
	DSN    string `envconfig:"TUNEDASH_DB_DSN"`
	Driver string `envconfig:"TUNEDASH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TUNEDASH_DB_HOST"`
	LegacyPort     int    `envconfig:"TUNEDASH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TUNEDASH_DB_USER"`
	LegacyPassword string `envconfig:"TUNEDASH_DB_PASSWORD"`
	LegacyName     string `envconfig:"TUNEDASH_DB_NAME"`
	LegacySSLMode  string `envconfig:"TUNEDASH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TUNEDASH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TUNEDASH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TUNEDASH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TUNEDASH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TUNEDASH_REDIS_URL"`
	Address      string        `envconfig:"TUNEDASH_REDIS_ADDR"`
	Password     string        `envconfig:"TUNEDASH_REDIS_PASSWORD"`
	DB           int           `envconfig:"TUNEDASH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TUNEDASH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TUNEDASH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TUNEDASH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TUNEDASH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TUNEDASH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies access tokens minted by the identity service.
type JWTConfig struct {
	Secret string `envconfig:"TUNEDASH_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"TUNEDASH_JWT_ISSUER" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TUNEDASH_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TUNEDASH_AUTO_MIGRATE" default:"false"`
}

const (
	FeedSourceDatabase = "database"
	FeedSourceRemote   = "remote"
	FeedSourceRedis    = "redis"
)

// FeedConfig selects where dashboard sessions read notifications from.
type FeedConfig struct {
	Source         string        `envconfig:"TUNEDASH_FEED_SOURCE" default:"database"`
	RemoteBaseURL  string        `envconfig:"TUNEDASH_FEED_REMOTE_BASE_URL"`
	RemoteTimeout  time.Duration `envconfig:"TUNEDASH_FEED_REMOTE_TIMEOUT" default:"15s"`
	RemotePageSize int           `envconfig:"TUNEDASH_FEED_REMOTE_PAGE_SIZE" default:"100"`
	PersistTimeout time.Duration `envconfig:"TUNEDASH_FEED_PERSIST_TIMEOUT" default:"10s"`
	SessionTTL     time.Duration `envconfig:"TUNEDASH_FEED_SESSION_TTL" default:"30m"`
}

// SourceKind returns the normalized source name.
func (f FeedConfig) SourceKind() string {
	kind := strings.ToLower(strings.TrimSpace(f.Source))
	if kind == "" {
		return FeedSourceDatabase
	}
	return kind
}

func (f FeedConfig) validate() error {
	if f.SessionTTL < 0 {
		return fmt.Errorf("%s must not be negative", EnvFeedSessionTTL)
	}
	switch f.SourceKind() {
	case FeedSourceDatabase, FeedSourceRedis:
		return nil
	case FeedSourceRemote:
		if strings.TrimSpace(f.RemoteBaseURL) == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvFeedRemoteBaseURL, EnvFeedSource, FeedSourceRemote)
		}
		if _, err := url.ParseRequestURI(f.RemoteBaseURL); err != nil {
			return fmt.Errorf("invalid %s: %w", EnvFeedRemoteBaseURL, err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported %s %q", EnvFeedSource, f.Source)
	}
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"TUNEDASH_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TUNEDASH_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"TUNEDASH_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TUNEDASH_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"TUNEDASH_PUBSUB_NOTIFICATION_TOPIC" default:"tunedash-notification-events"`
	NotificationSubscription string `envconfig:"TUNEDASH_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"tunedash-notification-worker"`
}

type RetentionConfig struct {
	NotificationDays int `envconfig:"TUNEDASH_NOTIFICATION_RETENTION_DAYS" default:"90"`
}

// NotificationMaxAge returns how long read notifications are kept.
func (r RetentionConfig) NotificationMaxAge() time.Duration {
	days := r.NotificationDays
	if days <= 0 {
		days = 90
	}
	return time.Duration(days) * 24 * time.Hour
}

func (db *DBConfig) ensureDSN(sqlite bool) error {
	if sqlite {
		db.Driver = "sqlite"
		return nil
	}
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
