// Package config defines curator's configuration.
package config

import (
	"fmt"
	"time"

	infraconfig "github.com/jcaisse/curated-content-portal-sub001/infrastructure/config"
	infracontext "github.com/jcaisse/curated-content-portal-sub001/infrastructure/context"
	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/logger"
	"github.com/jcaisse/curated-content-portal-sub001/internal/crawl"
	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
	"github.com/jcaisse/curated-content-portal-sub001/internal/moderation"
)

// DefaultPath is read when neither --config nor CONFIG_PATH is given.
const DefaultPath = "config.yml"

const (
	defaultServiceName    = "curator"
	defaultServiceVersion = "dev"
	defaultFetchTimeout   = 30 * time.Second
	defaultUserAgent      = "curator/1.0"
	defaultItemsPerSource = 50
	defaultFetchAttempts  = 3
)

// Config is the complete service configuration.
type Config struct {
	Service    ServiceConfig              `yaml:"service"`
	Server     infraconfig.ServerConfig   `yaml:"server"`
	Database   infraconfig.DatabaseConfig `yaml:"database"`
	Redis      infraconfig.RedisConfig    `yaml:"redis"`
	Auth       AuthConfig                 `yaml:"auth"`
	Crawl      CrawlConfig                `yaml:"crawl"`
	Moderation ModerationConfig           `yaml:"moderation"`
	Logging    logger.Config              `yaml:"logging"`
}

// ServiceConfig identifies the running service.
type ServiceConfig struct {
	Name            string        `env:"SERVICE_NAME"    yaml:"name"`
	Version         string        `env:"SERVICE_VERSION" yaml:"version"`
	Debug           bool          `env:"APP_DEBUG"       yaml:"debug"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AuthConfig configures bearer-token authentication. An empty secret
// disables authentication.
type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"`
}

// CrawlConfig configures discovery and scheduling.
type CrawlConfig struct {
	// Schedule is a cron spec for crawling every active crawler. Empty disables scheduling.
	Schedule          string        `env:"CRAWL_SCHEDULE"             yaml:"schedule"`
	FetchTimeout      time.Duration `env:"CRAWL_FETCH_TIMEOUT"        yaml:"fetch_timeout"`
	FetchMaxAttempts  int           `env:"CRAWL_FETCH_MAX_ATTEMPTS"   yaml:"fetch_max_attempts"`
	UserAgent         string        `env:"CRAWL_USER_AGENT"           yaml:"user_agent"`
	MaxItemsPerSource int           `env:"CRAWL_MAX_ITEMS_PER_SOURCE" yaml:"max_items_per_source"`
	// RequestsPerSecond caps outbound fetches. Zero disables the limit.
	RequestsPerSecond    float64 `env:"CRAWL_REQUESTS_PER_SECOND" yaml:"requests_per_second"`
	DefaultMinMatchScore float64 `yaml:"default_min_match_score"`
}

// ModerationConfig configures bulk moderation.
type ModerationConfig struct {
	BatchChunkSize int `env:"MODERATION_BATCH_CHUNK_SIZE" yaml:"batch_chunk_size"`
}

// Load reads, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	cfg, err := infraconfig.LoadWithDefaults(path, setDefaults)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = defaultServiceName
	}
	if cfg.Service.Version == "" {
		cfg.Service.Version = defaultServiceVersion
	}
	if cfg.Service.ShutdownTimeout == 0 {
		cfg.Service.ShutdownTimeout = infracontext.DefaultShutdownTimeout
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	cfg.Server.SetDefaults()
	cfg.Database.SetDefaults()
	if cfg.Database.User == "" {
		cfg.Database.User = "curator"
	}
	if cfg.Database.Database == "" {
		cfg.Database.Database = "curator"
	}
	cfg.Redis.SetDefaults()

	if cfg.Crawl.FetchTimeout == 0 {
		cfg.Crawl.FetchTimeout = defaultFetchTimeout
	}
	if cfg.Crawl.UserAgent == "" {
		cfg.Crawl.UserAgent = defaultUserAgent
	}
	if cfg.Crawl.MaxItemsPerSource == 0 {
		cfg.Crawl.MaxItemsPerSource = defaultItemsPerSource
	}
	if cfg.Crawl.FetchMaxAttempts == 0 {
		cfg.Crawl.FetchMaxAttempts = defaultFetchAttempts
	}
	if cfg.Crawl.DefaultMinMatchScore == 0 {
		cfg.Crawl.DefaultMinMatchScore = domain.DefaultMinMatchScore
	}

	if cfg.Moderation.BatchChunkSize == 0 {
		cfg.Moderation.BatchChunkSize = moderation.DefaultChunkSize
	}

	cfg.Logging.SetDefaults()
	if cfg.Service.Debug {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}
}

// Validate checks ranges and formats.
func (c *Config) Validate() error {
	if err := infraconfig.ValidatePort("server.port", c.Server.Port); err != nil {
		return err
	}
	if err := infraconfig.ValidatePort("database.port", c.Database.Port); err != nil {
		return err
	}
	if err := infraconfig.ValidateRequired("database.host", c.Database.Host); err != nil {
		return err
	}
	if err := infraconfig.ValidateRequired("database.database", c.Database.Database); err != nil {
		return err
	}
	if c.Redis.Enabled {
		if err := infraconfig.ValidateRequired("redis.address", c.Redis.Address); err != nil {
			return err
		}
	}
	if err := infraconfig.ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}

	if c.Crawl.Schedule != "" {
		if _, err := crawl.ParseSchedule(c.Crawl.Schedule); err != nil {
			return &infraconfig.ValidationError{Field: "crawl.schedule", Message: err.Error()}
		}
	}
	if c.Crawl.DefaultMinMatchScore < 0 || c.Crawl.DefaultMinMatchScore > 1 {
		return &infraconfig.ValidationError{Field: "crawl.default_min_match_score", Message: "must be between 0 and 1"}
	}
	if c.Crawl.MaxItemsPerSource < 0 {
		return &infraconfig.ValidationError{Field: "crawl.max_items_per_source", Message: "must not be negative"}
	}
	if c.Crawl.RequestsPerSecond < 0 {
		return &infraconfig.ValidationError{Field: "crawl.requests_per_second", Message: "must not be negative"}
	}
	if c.Crawl.FetchMaxAttempts < 0 {
		return &infraconfig.ValidationError{Field: "crawl.fetch_max_attempts", Message: "must not be negative"}
	}
	if c.Crawl.FetchTimeout < 0 {
		return &infraconfig.ValidationError{Field: "crawl.fetch_timeout", Message: "must not be negative"}
	}
	if c.Moderation.BatchChunkSize <= 0 {
		return &infraconfig.ValidationError{Field: "moderation.batch_chunk_size", Message: "must be positive"}
	}
	return nil
}
