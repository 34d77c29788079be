package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Graph     GraphConfig     `yaml:"graph" mapstructure:"graph"`
	Artifacts ArtifactsConfig `yaml:"artifacts" mapstructure:"artifacts"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	Model             string  `yaml:"model" mapstructure:"model"`
	MaxTokens         int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// GraphConfig configures the property-graph backend.
type GraphConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// ArtifactsConfig configures where order summaries are written.
type ArtifactsConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"`
	Bucket  string `yaml:"bucket" mapstructure:"bucket"`
	Region  string `yaml:"region" mapstructure:"region"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
}

// PipelineConfig configures per-order processing.
type PipelineConfig struct {
	TopN                int `yaml:"top_n" mapstructure:"top_n"`
	MaxConcurrentOrders int `yaml:"max_concurrent_orders" mapstructure:"max_concurrent_orders"`
}

// ServerConfig configures the advisory HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FREIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("anthropic.requests_per_second", 2)
	v.SetDefault("anthropic.burst", 1)
	v.SetDefault("graph.driver", "sqlite")
	v.SetDefault("graph.path", "freight.db")
	v.SetDefault("artifacts.backend", "fs")
	v.SetDefault("artifacts.bucket", "freight-artifacts")
	v.SetDefault("artifacts.dir", "artifacts-data")
	v.SetDefault("pipeline.top_n", 2)
	v.SetDefault("pipeline.max_concurrent_orders", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that everything the given mode needs is present. Modes are
// "process" (full pipeline), "recommend" (graph reads only) and "serve".
func (c *Config) Validate(mode string) error {
	var problems []string

	graphNeeds := func() {
		switch c.Graph.Driver {
		case "sqlite":
			if c.Graph.Path == "" {
				problems = append(problems, "graph.path is required for the sqlite driver")
			}
		case "postgres":
			if c.Graph.DatabaseURL == "" {
				problems = append(problems, "graph.database_url is required for the postgres driver")
			}
		default:
			problems = append(problems, fmt.Sprintf("graph.driver %q is not one of sqlite, postgres", c.Graph.Driver))
		}
	}

	collaboratorNeeds := func() {
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
		if c.Anthropic.MaxTokens <= 0 {
			problems = append(problems, "anthropic.max_tokens must be > 0")
		}
	}

	artifactNeeds := func() {
		switch c.Artifacts.Backend {
		case "s3":
			if c.Artifacts.Bucket == "" {
				problems = append(problems, "artifacts.bucket is required for the s3 backend")
			}
		case "fs":
			if c.Artifacts.Dir == "" {
				problems = append(problems, "artifacts.dir is required for the fs backend")
			}
		default:
			problems = append(problems, fmt.Sprintf("artifacts.backend %q is not one of s3, fs", c.Artifacts.Backend))
		}
	}

	switch mode {
	case "process":
		collaboratorNeeds()
		graphNeeds()
		artifactNeeds()
		if c.Pipeline.MaxConcurrentOrders < 1 || c.Pipeline.MaxConcurrentOrders > 50 {
			problems = append(problems, "pipeline.max_concurrent_orders must be between 1 and 50")
		}
	case "recommend":
		graphNeeds()
		if c.Pipeline.TopN < 1 {
			problems = append(problems, "pipeline.top_n must be >= 1")
		}
	case "serve":
		collaboratorNeeds()
		graphNeeds()
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
