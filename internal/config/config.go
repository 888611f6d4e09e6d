package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/trackadmission/go-services/pkg/logger"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	MongoDB    MongoDBConfig
	Redis      RedisConfig
	Keycloak   KeycloakConfig
	JWT        JWTConfig
	RateLimit  RateLimitConfig
	Versioning VersioningConfig
	Cache      CacheConfig
	Site       SiteConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// MongoDBConfig carries the driver pool settings and the connection manager's
// retry and keep-alive behaviour.
type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration

	ServerSelectionTimeout time.Duration
	SocketTimeout          time.Duration
	HeartbeatInterval      time.Duration
	MaxConnIdleTime        time.Duration
	MaxPoolSize            uint64
	MinPoolSize            uint64
	MaxConnecting          uint64

	MaxRetries     int
	RetryBaseDelay time.Duration
	PingInterval   time.Duration
	StalePingAfter time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type KeycloakConfig struct {
	URL          string
	Realm        string
	ClientID     string
	ClientSecret string
}

type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// VersioningConfig is the retention policy stamped on new content and the
// schedule of the housekeeping job that enforces it.
type VersioningConfig struct {
	MaxVersions        int
	KeepMajorChanges   bool
	AutoPurgeAfterDays int
	PurgeSchedule      string
}

type CacheConfig struct {
	PostTTL     time.Duration
	CategoryTTL time.Duration
}

// SiteConfig is the public site the sitemap links to.
type SiteConfig struct {
	URL string
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5001")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "trackadmission")
	viper.SetDefault("MONGODB_TIMEOUT", 30)
	viper.SetDefault("MONGODB_SERVER_SELECTION_TIMEOUT", 30)
	viper.SetDefault("MONGODB_SOCKET_TIMEOUT", 75)
	viper.SetDefault("MONGODB_HEARTBEAT_SECONDS", 20)
	viper.SetDefault("MONGODB_MAX_IDLE_SECONDS", 300)
	viper.SetDefault("MONGODB_MAX_POOL_SIZE", 10)
	viper.SetDefault("MONGODB_MIN_POOL_SIZE", 3)
	viper.SetDefault("MONGODB_MAX_CONNECTING", 5)
	viper.SetDefault("MONGODB_MAX_RETRIES", 3)
	viper.SetDefault("MONGODB_RETRY_BASE_MS", 1000)
	viper.SetDefault("MONGODB_PING_INTERVAL_SECONDS", 60)
	viper.SetDefault("MONGODB_STALE_PING_MINUTES", 10)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("JWT_ACCESS_TOKEN_TTL", 15)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_USE_REDIS", false)
	viper.SetDefault("RATE_LIMIT_RPS", 1.0)
	viper.SetDefault("RATE_LIMIT_BURST", 5)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	viper.SetDefault("VERSIONING_MAX_VERSIONS", 30)
	viper.SetDefault("VERSIONING_KEEP_MAJOR_CHANGES", true)
	viper.SetDefault("VERSIONING_AUTO_PURGE_DAYS", 90)
	viper.SetDefault("VERSIONING_PURGE_SCHEDULE", "@every 1h")
	viper.SetDefault("CACHE_POST_TTL_SECONDS", 300)
	viper.SetDefault("CACHE_CATEGORY_TTL_SECONDS", 3600)
	viper.SetDefault("SITE_URL", "https://after12th.icnn.in")

	uri := viper.GetString("MONGODB_URI")
	if uri == "" {
		return nil, fmt.Errorf("environment variable MONGODB_URI is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:                    uri,
			Database:               viper.GetString("MONGODB_DATABASE"),
			Timeout:                time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
			ServerSelectionTimeout: time.Duration(viper.GetInt("MONGODB_SERVER_SELECTION_TIMEOUT")) * time.Second,
			SocketTimeout:          time.Duration(viper.GetInt("MONGODB_SOCKET_TIMEOUT")) * time.Second,
			HeartbeatInterval:      time.Duration(viper.GetInt("MONGODB_HEARTBEAT_SECONDS")) * time.Second,
			MaxConnIdleTime:        time.Duration(viper.GetInt("MONGODB_MAX_IDLE_SECONDS")) * time.Second,
			MaxPoolSize:            uint64(viper.GetInt("MONGODB_MAX_POOL_SIZE")),
			MinPoolSize:            uint64(viper.GetInt("MONGODB_MIN_POOL_SIZE")),
			MaxConnecting:          uint64(viper.GetInt("MONGODB_MAX_CONNECTING")),
			MaxRetries:             viper.GetInt("MONGODB_MAX_RETRIES"),
			RetryBaseDelay:         time.Duration(viper.GetInt("MONGODB_RETRY_BASE_MS")) * time.Millisecond,
			PingInterval:           time.Duration(viper.GetInt("MONGODB_PING_INTERVAL_SECONDS")) * time.Second,
			StalePingAfter:         time.Duration(viper.GetInt("MONGODB_STALE_PING_MINUTES")) * time.Minute,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Keycloak: KeycloakConfig{
			URL:          viper.GetString("KEYCLOAK_URL"),
			Realm:        viper.GetString("KEYCLOAK_REALM"),
			ClientID:     viper.GetString("KEYCLOAK_CLIENT_ID"),
			ClientSecret: viper.GetString("KEYCLOAK_CLIENT_SECRET"),
		},
		JWT: JWTConfig{
			Secret:         os.Getenv("JWT_SECRET"),
			AccessTokenTTL: time.Duration(viper.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Versioning: VersioningConfig{
			MaxVersions:        viper.GetInt("VERSIONING_MAX_VERSIONS"),
			KeepMajorChanges:   viper.GetBool("VERSIONING_KEEP_MAJOR_CHANGES"),
			AutoPurgeAfterDays: viper.GetInt("VERSIONING_AUTO_PURGE_DAYS"),
			PurgeSchedule:      viper.GetString("VERSIONING_PURGE_SCHEDULE"),
		},
		Cache: CacheConfig{
			PostTTL:     time.Duration(viper.GetInt("CACHE_POST_TTL_SECONDS")) * time.Second,
			CategoryTTL: time.Duration(viper.GetInt("CACHE_CATEGORY_TTL_SECONDS")) * time.Second,
		},
		Site: SiteConfig{URL: viper.GetString("SITE_URL")},
	}

	// Basic validation
	if cfg.JWT.Secret == "" && cfg.Keycloak.URL == "" {
		logger.Warnf("neither JWT_SECRET nor KEYCLOAK_URL is set; dashboard routes will reject every request")
	}
	if cfg.MongoDB.MaxRetries < 1 {
		cfg.MongoDB.MaxRetries = 1
	}

	return cfg, nil
}
