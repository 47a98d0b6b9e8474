// Package config loads tool configuration from file, environment, and
// defaults, in ascending precedence of defaults < file < environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full tool configuration.
type Config struct {
	Output  OutputConfig  `mapstructure:"output"`
	Source  SourceConfig  `mapstructure:"source"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// OutputConfig controls where and how reports are written.
type OutputConfig struct {
	// Dir is the directory report files are written under.
	Dir string `mapstructure:"dir"`

	// Format is one of text, csv, json, yaml.
	Format string `mapstructure:"format"`
}

// SourceConfig controls event-log access.
type SourceConfig struct {
	// Glob filters files when a directory is given as input.
	Glob string `mapstructure:"glob"`

	// Concurrency bounds parallel application analyses.
	Concurrency int `mapstructure:"concurrency"`

	S3 S3Config `mapstructure:"s3"`
}

// S3Config configures the S3 log store.
type S3Config struct {
	Region         string  `mapstructure:"region"`
	Endpoint       string  `mapstructure:"endpoint"`
	Profile        string  `mapstructure:"profile"`
	ForcePathStyle bool    `mapstructure:"force_path_style"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	MaxKeys        int     `mapstructure:"max_keys"`
}

// ServerConfig configures the report HTTP server.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration. path may name an explicit config file;
// when empty, a sparkqual.yaml in the working directory is used if
// present. Environment variables use the SPARKQUAL_ prefix with
// underscores, e.g. SPARKQUAL_OUTPUT_FORMAT.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("output.dir", "sparkqual-output")
	v.SetDefault("output.format", "text")
	v.SetDefault("source.glob", "**/*")
	v.SetDefault("source.concurrency", 4)
	v.SetDefault("source.s3.max_keys", 1000)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("logging.level", "info")

	v.SetEnvPrefix("SPARKQUAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("sparkqual")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
