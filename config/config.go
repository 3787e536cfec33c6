package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`
	DB struct {
		DSN          string `mapstructure:"dsn"`
		MaxOpenConns int    `mapstructure:"max_open_conns"`
	} `mapstructure:"db"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Accrual struct {
		Schedule  string `mapstructure:"schedule"`
		Timezone  string `mapstructure:"timezone"`
		Workers   int    `mapstructure:"workers"`
		BatchSize int    `mapstructure:"batch_size"`
	} `mapstructure:"accrual"`
	Seed struct {
		Enabled    bool   `mapstructure:"enabled"`
		AdminPhone string `mapstructure:"admin_phone"`
	} `mapstructure:"seed"`
}

// Location resolves the accrual timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Accrual.Timezone)
}

// Load reads configs/config.yaml (if present) under dir, then INVEST_* env overrides.
func Load(dir string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("db.dsn", "host=localhost user=postgres password=postgres dbname=invest port=5432 sslmode=disable")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("accrual.schedule", "0 0 * * *")
	v.SetDefault("accrual.timezone", "UTC")
	v.SetDefault("accrual.workers", 4)
	v.SetDefault("accrual.batch_size", 100)
	v.SetDefault("seed.enabled", false)
	v.SetDefault("seed.admin_phone", "+33123456789")

	v.SetEnvPrefix("INVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Accrual.Workers < 1 {
		cfg.Accrual.Workers = 1
	}
	if cfg.Accrual.BatchSize < 1 {
		cfg.Accrual.BatchSize = 100
	}
	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("accrual.timezone: %w", err)
	}
	return &cfg, nil
}
