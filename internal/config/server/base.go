package server

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type BaseServerConfig struct {
	ShutdownTimeout string `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	Log      LogServerConfig      `mapstructure:"log"      yaml:"log"`
	Metadata MetadataServerConfig `mapstructure:"metadata" yaml:"metadata"`
	HTTP     HTTPServerConfig     `mapstructure:"http"     yaml:"http"`
	Uploads  UploadsServerConfig  `mapstructure:"uploads"  yaml:"uploads"`
	Auth     AuthServerConfig     `mapstructure:"auth"     yaml:"auth"`
}

// LogServerConfig controls the output of the agent logger.
type LogServerConfig struct {
	Level      string                  `mapstructure:"level"       yaml:"level"`
	TimeFormat string                  `mapstructure:"time_format" yaml:"time_format"`
	File       string                  `mapstructure:"file"        yaml:"file"`
	NoColor    bool                    `mapstructure:"no_color"    yaml:"no_color"`
	JSON       bool                    `mapstructure:"json"        yaml:"json"`
	NoTerminal bool                    `mapstructure:"no_terminal" yaml:"no_terminal"`
	Rotation   LogServerRotationConfig `mapstructure:"rotation"    yaml:"rotation"`
}

// LogServerRotationConfig is passed to lumberjack when a log file is set.
type LogServerRotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"     yaml:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"  yaml:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"      yaml:"max_age"`
	Compress   bool `mapstructure:"compress"     yaml:"compress"`
}

func LoadServerConfig() (*BaseServerConfig, error) {
	cfg := &BaseServerConfig{}

	setDefaults()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate rejects configurations the agent cannot start with.
func (cfg *BaseServerConfig) Validate() error {
	if _, err := time.ParseDuration(cfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("shutdown_timeout: %w", err)
	}

	switch cfg.Metadata.Type {
	case MetadataTypeSQLite:
		if cfg.Metadata.SQLite.Path == "" {
			return fmt.Errorf("metadata.sqlite.path is required")
		}
	case MetadataTypePostgres:
		if cfg.Metadata.Postgres.DSN == "" {
			return fmt.Errorf("metadata.postgres.dsn is required")
		}
	default:
		return fmt.Errorf("unsupported metadata.type '%s'", cfg.Metadata.Type)
	}

	if cfg.Uploads.Directory == "" {
		return fmt.Errorf("uploads.directory is required")
	}
	if cfg.Uploads.MaxSize <= 0 {
		return fmt.Errorf("uploads.max_size must be positive")
	}

	return nil
}
