package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"FinAlpha/internal/model"
	"FinAlpha/internal/risk"
)

// DefaultPath is used when neither --config nor CONFIG_PATH is given.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Source   string `yaml:"source" validate:"oneof=yahoo eodhd mock"`
		APIKey   string `yaml:"api_key" validate:"required_if=Source eodhd"`
		BaseURL  string `yaml:"base_url" validate:"omitempty,url"`
		Exchange string `yaml:"exchange"`
		Lookback string `yaml:"lookback"`
	} `yaml:"data_source"`
	Risk  risk.Config `yaml:"risk"`
	Cache struct {
		TTL           time.Duration `yaml:"ttl" validate:"gte=0"`
		RedisAddr     string        `yaml:"redis_addr" validate:"omitempty,hostname_port"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db" validate:"gte=0"`
	} `yaml:"cache"`
	RateLimit struct {
		RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gt=0"`
		Burst             int     `yaml:"burst" validate:"gte=1"`
	} `yaml:"rate_limit"`
	Breaker struct {
		ConsecutiveFailures uint32        `yaml:"consecutive_failures" validate:"gte=1"`
		OpenTimeout         time.Duration `yaml:"open_timeout" validate:"gt=0"`
	} `yaml:"breaker"`
	Screener struct {
		Workers  int      `yaml:"workers" validate:"gte=1,lte=32"`
		TopN     int      `yaml:"top_n" validate:"gte=1"`
		Universe []string `yaml:"universe" validate:"dive,required"`
	} `yaml:"screener"`
	Watchlist []string `yaml:"watchlist" validate:"dive,required"`
	Schedule  struct {
		DailyCron  string `yaml:"daily_cron" validate:"required"`
		WeeklyCron string `yaml:"weekly_cron" validate:"required"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr" validate:"required"`
	} `yaml:"server"`
	LogLevel string `yaml:"log_level" validate:"oneof=trace debug info warn error"`
	Proxy    string `yaml:"proxy" validate:"omitempty,url"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{Risk: risk.DefaultConfig()}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FINALPHA_SOURCE"); v != "" {
		c.DataSource.Source = v
	}
	if v := os.Getenv("EODHD_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) applyDefaults() {
	c.DataSource.Source = strings.ToLower(c.DataSource.Source)
	if c.DataSource.Source == "" {
		c.DataSource.Source = "yahoo"
	}
	if c.DataSource.Lookback == "" {
		c.DataSource.Lookback = string(model.DefaultLookback)
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 15 * time.Minute
	}
	if c.RateLimit.RequestsPerSecond == 0 {
		c.RateLimit.RequestsPerSecond = 2
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 5
	}
	if c.Breaker.ConsecutiveFailures == 0 {
		c.Breaker.ConsecutiveFailures = 3
	}
	if c.Breaker.OpenTimeout == 0 {
		c.Breaker.OpenTimeout = 60 * time.Second
	}
	if c.Screener.Workers == 0 {
		c.Screener.Workers = 4
	}
	if c.Screener.TopN == 0 {
		c.Screener.TopN = 5
	}
	if c.Schedule.DailyCron == "" {
		c.Schedule.DailyCron = "0 30 22 * * 1-5"
	}
	if c.Schedule.WeeklyCron == "" {
		c.Schedule.WeeklyCron = "0 0 8 * * 1"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/finalpha.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Lookback returns the configured default history window.
func (c *Config) Lookback() model.Lookback {
	lb, err := model.ParseLookback(c.DataSource.Lookback)
	if err != nil {
		return model.DefaultLookback
	}
	return lb
}

// Validate checks field constraints and the risk section.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config: %w", err)
	}
	if _, err := model.ParseLookback(c.DataSource.Lookback); err != nil {
		return fmt.Errorf("data_source.lookback: %w", err)
	}
	if err := c.Risk.Validate(); err != nil {
		return fmt.Errorf("risk: %w", err)
	}
	return nil
}

// ValidateTelegram checks the fields the watch daemon needs.
func (c *Config) ValidateTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}
