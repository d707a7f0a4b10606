// Package config loads application configuration from file and environment
// and owns the global logger setup.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Queue     QueueConfig     `yaml:"queue" mapstructure:"queue"`
	Provider  ProviderConfig  `yaml:"provider" mapstructure:"provider"`
	Resume    ResumeConfig    `yaml:"resume" mapstructure:"resume"`
	Scheduler SchedulerConfig `yaml:"scheduler" mapstructure:"scheduler"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the document store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// QueueConfig configures the re-enqueue transport.
type QueueConfig struct {
	Driver   string `yaml:"driver" mapstructure:"driver"`
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	Key      string `yaml:"key" mapstructure:"key"`
}

// ProviderConfig configures the upstream enrichment client.
type ProviderConfig struct {
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	Key       string  `yaml:"key" mapstructure:"key"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst     int     `yaml:"burst" mapstructure:"burst"`
}

// ResumeConfig holds the orchestrator's caps and budgets.
type ResumeConfig struct {
	MaxCycles         int `yaml:"max_cycles" mapstructure:"max_cycles"`
	MaxAttempts       int `yaml:"max_attempts" mapstructure:"max_attempts"`
	LowQualityCap     int `yaml:"low_quality_cap" mapstructure:"low_quality_cap"`
	LockLeaseSecs     int `yaml:"lock_lease_secs" mapstructure:"lock_lease_secs"`
	RunBudgetSecs     int `yaml:"run_budget_secs" mapstructure:"run_budget_secs"`
	RecordConcurrency int `yaml:"record_concurrency" mapstructure:"record_concurrency"`
}

// LockLease returns the lease duration.
func (r ResumeConfig) LockLease() time.Duration {
	return time.Duration(r.LockLeaseSecs) * time.Second
}

// RunBudget returns the per-invocation wall-clock budget.
func (r ResumeConfig) RunBudget() time.Duration {
	return time.Duration(r.RunBudgetSecs) * time.Second
}

// SchedulerConfig points at the optional scheduling policy file.
type SchedulerConfig struct {
	PolicyPath string `yaml:"policy_path" mapstructure:"policy_path"`
}

// ServerConfig configures the HTTP server.
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
	v.SetEnvPrefix("RESUME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "resume.db")
	v.SetDefault("queue.driver", "memory")
	v.SetDefault("queue.key", "resume:pending")
	v.SetDefault("provider.rate_limit", 2.0)
	v.SetDefault("provider.burst", 2)
	v.SetDefault("resume.max_cycles", 10)
	v.SetDefault("resume.max_attempts", 3)
	v.SetDefault("resume.low_quality_cap", 2)
	v.SetDefault("resume.lock_lease_secs", 60)
	v.SetDefault("resume.run_budget_secs", 120)
	v.SetDefault("resume.record_concurrency", 4)
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

// Validate checks that the settings a command depends on are present.
// mode is "run", "worker", or "serve".
func (c *Config) Validate(mode string) error {
	var missing []string

	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		missing = append(missing, "store.database_url")
	}

	switch mode {
	case "run", "worker":
		if c.Provider.BaseURL == "" {
			missing = append(missing, "provider.base_url")
		}
	}

	if mode == "worker" && c.Queue.Driver == "redis" && c.Queue.RedisURL == "" {
		missing = append(missing, "queue.redis_url")
	}

	if len(missing) > 0 {
		return eris.Errorf("config: missing required settings for %s: %s", mode, strings.Join(missing, ", "))
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
