package bootstrap

import (
	"errors"
	"fmt"

	infraconfig "github.com/jcaisse/curated-content-portal-sub001/infrastructure/config"
	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/logger"
	"github.com/jcaisse/curated-content-portal-sub001/internal/config"
)

var errConfigRequired = errors.New("config is required")

// CommandDeps holds what every command needs.
type CommandDeps struct {
	Config *config.Config
	Logger logger.Logger
}

// NewCommandDeps loads the configuration at configPath (CONFIG_PATH or
// config.yml when empty) and creates the logger. debug forces debug logging.
func NewCommandDeps(configPath string, debug bool) (*CommandDeps, error) {
	if configPath == "" {
		configPath = infraconfig.GetConfigPath(config.DefaultPath)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Service.Debug = true
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	}

	log, err := CreateLogger(cfg)
	if err != nil {
		return nil, err
	}
	return &CommandDeps{Config: cfg, Logger: log}, nil
}

// CreateLogger builds the service logger tagged with service and version.
func CreateLogger(cfg *config.Config) (logger.Logger, error) {
	if cfg == nil {
		return nil, errConfigRequired
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(
		logger.String("service", cfg.Service.Name),
		logger.String("version", cfg.Service.Version),
	), nil
}
