package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"fxbot/internal/engine"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const envPrefix = "FXBOT"

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Sessions SessionsConfig `mapstructure:"sessions"`
	Backtest BacktestConfig `mapstructure:"backtest"`
	Exchange ExchangeConfig `mapstructure:"exchange"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig is optional. An empty Addr disables the status mirror.
type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	StatusTTL time.Duration `mapstructure:"status_ttl"`
}

type SessionsConfig struct {
	Path string `mapstructure:"path"`
}

type BacktestConfig struct {
	InitialBalance   string `mapstructure:"initial_balance"`
	FeeRate          string `mapstructure:"fee_rate"`
	Warmup           int    `mapstructure:"warmup"`
	CancelCheckEvery int    `mapstructure:"cancel_check_every"`
	MaxConcurrent    int    `mapstructure:"max_concurrent"`
	Progress         bool   `mapstructure:"progress"`
}

type ExchangeConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Dev   bool   `mapstructure:"dev"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.url", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.status_ttl", 24*time.Hour)
	v.SetDefault("sessions.path", "sessions.db")
	v.SetDefault("backtest.initial_balance", "10000")
	v.SetDefault("backtest.fee_rate", "0.001")
	v.SetDefault("backtest.warmup", 50)
	v.SetDefault("backtest.cancel_check_every", 100)
	v.SetDefault("backtest.max_concurrent", 2)
	v.SetDefault("backtest.progress", false)
	v.SetDefault("exchange.timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dev", false)
}

// Load reads path (when it exists) and then applies FXBOT_* environment
// overrides, e.g. FXBOT_DATABASE_URL for database.url. An empty path means
// ./config.yaml, which may be missing.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = "config.yaml"
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !(errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := decimal.NewFromString(c.Backtest.InitialBalance); err != nil {
		return fmt.Errorf("backtest.initial_balance %q: %w", c.Backtest.InitialBalance, err)
	}
	if _, err := decimal.NewFromString(c.Backtest.FeeRate); err != nil {
		return fmt.Errorf("backtest.fee_rate %q: %w", c.Backtest.FeeRate, err)
	}
	if c.Backtest.MaxConcurrent <= 0 {
		return fmt.Errorf("backtest.max_concurrent must be positive, got %d", c.Backtest.MaxConcurrent)
	}
	return nil
}

// RunConfig converts the backtest section into engine settings.
func (c *Config) RunConfig() *engine.RunConfig {
	return engine.NewRunConfig(
		decimal.RequireFromString(c.Backtest.InitialBalance),
		decimal.RequireFromString(c.Backtest.FeeRate),
		c.Backtest.Warmup,
		c.Backtest.CancelCheckEvery,
	).WithProgress(c.Backtest.Progress)
}
