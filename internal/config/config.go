package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Provider struct {
		Name            string `yaml:"name"`
		BaseURL         string `yaml:"base_url"`
		Proxy           string `yaml:"proxy"`
		FetchTimeoutSec int    `yaml:"fetch_timeout_sec"`
		MinIntervalSec  int    `yaml:"min_interval_sec"`
		HistoryYears    int    `yaml:"history_years"`
	} `yaml:"provider"`
	Watchlist struct {
		DefaultSymbols []string `yaml:"default_symbols"`
	} `yaml:"watchlist"`
	Schedule struct {
		SyncCron          string `yaml:"sync_cron"`
		InitialBackoffSec int    `yaml:"initial_backoff_sec"`
		MaxBackoffSec     int    `yaml:"max_backoff_sec"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Display struct {
		Mode string `yaml:"mode"`
	} `yaml:"display"`
}

// Path returns CONFIG_PATH or the default location.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("STOCKHAWK_PROVIDER"); v != "" {
		cfg.Provider.Name = v
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Provider.Proxy = v
	}
	if v := os.Getenv("FETCH_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Provider.FetchTimeoutSec = n
		}
	}
	if v := os.Getenv("DEFAULT_SYMBOLS"); v != "" {
		cfg.Watchlist.DefaultSymbols = strings.Split(v, ",")
	}
	if v := os.Getenv("CRON_SYNC"); v != "" {
		cfg.Schedule.SyncCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DISPLAY_MODE"); v != "" {
		cfg.Display.Mode = v
	}

	// Defaults
	if cfg.Provider.Name == "" {
		cfg.Provider.Name = "yahoo"
	}
	if cfg.Provider.FetchTimeoutSec == 0 {
		cfg.Provider.FetchTimeoutSec = 30
	}
	if cfg.Provider.HistoryYears == 0 {
		cfg.Provider.HistoryYears = 2
	}
	if cfg.Watchlist.DefaultSymbols == nil {
		cfg.Watchlist.DefaultSymbols = []string{"AAPL", "GOOG", "MSFT"}
	}
	if cfg.Schedule.SyncCron == "" {
		cfg.Schedule.SyncCron = "0 */5 * * * *"
	}
	if cfg.Schedule.InitialBackoffSec == 0 {
		cfg.Schedule.InitialBackoffSec = 10
	}
	if cfg.Schedule.MaxBackoffSec == 0 {
		cfg.Schedule.MaxBackoffSec = 300
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/stockhawk.db"
	}
	if cfg.Display.Mode == "" {
		cfg.Display.Mode = "absolute"
	}

	return cfg, nil
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case "yahoo", "mock":
	default:
		return fmt.Errorf("provider.name must be yahoo or mock, got %q", c.Provider.Name)
	}
	if c.Provider.FetchTimeoutSec <= 0 {
		return fmt.Errorf("provider.fetch_timeout_sec must be positive")
	}
	if c.Provider.MinIntervalSec < 0 {
		return fmt.Errorf("provider.min_interval_sec must not be negative")
	}
	if c.Provider.HistoryYears <= 0 {
		return fmt.Errorf("provider.history_years must be positive")
	}
	if c.Schedule.InitialBackoffSec <= 0 {
		return fmt.Errorf("schedule.initial_backoff_sec must be positive")
	}
	if c.Schedule.MaxBackoffSec < c.Schedule.InitialBackoffSec {
		return fmt.Errorf("schedule.max_backoff_sec must be >= initial_backoff_sec")
	}
	if c.Database.SQLitePath == "" {
		return fmt.Errorf("database.sqlite_path is required")
	}
	switch strings.ToLower(c.Display.Mode) {
	case "absolute", "percentage":
	default:
		return fmt.Errorf("display.mode must be absolute or percentage, got %q", c.Display.Mode)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether notices and commands go through Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
