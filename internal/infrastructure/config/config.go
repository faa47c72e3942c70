package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"xspread/internal/domain/model"
)

// 环境变量中的敏感配置
const (
	EnvTelegramToken = "TELEGRAM_BOT_TOKEN"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvPostgresDSN   = "POSTGRES_DSN"
)

type Config struct {
	App struct {
		UpdateIntervalMs  int `toml:"update_interval_ms"`
		CallTimeoutMs     int `toml:"call_timeout_ms"`
		MaxParallelVenues int `toml:"max_parallel_venues"`
	} `toml:"app"`

	Spread struct {
		MinChange float64 `toml:"min_change"` // 与上次通知相比的最小变化（百分点）
		MinValue  float64 `toml:"min_value"`  // 全局最小价差
	} `toml:"spread"`

	Venues struct {
		Enabled          []string `toml:"enabled"`
		CheckDexScreener bool     `toml:"check_dexscreener"`
	} `toml:"venues"`

	// Exchanges 每个交易所的端点，键为交易所名称（小写）
	Exchanges map[string]ExchangeConfig `toml:"exchanges"`

	Telegram struct {
		Enabled        bool   `toml:"enabled"`
		APIURL         string `toml:"api_url"`
		PollTimeoutSec int    `toml:"poll_timeout_sec"`
		// NoticeChats 启动/关闭通知额外发送到的会话（例如管理员）
		NoticeChats []int64 `toml:"notice_chats"`
		Token       string  `toml:"-"`
	} `toml:"telegram"`

	Log struct {
		Level      string `toml:"level"`
		File       string `toml:"file"`
		MaxSizeMB  int    `toml:"max_size_mb"`
		MaxBackups int    `toml:"max_backups"`
		MaxAgeDays int    `toml:"max_age_days"`
	} `toml:"log"`

	Storage struct {
		SQLite struct {
			Enabled bool   `toml:"enabled"`
			Path    string `toml:"path"`
		} `toml:"sqlite"`

		Redis struct {
			Enabled       bool   `toml:"enabled"`
			Addr          string `toml:"addr"`
			DB            int    `toml:"db"`
			Prefix        string `toml:"prefix"`
			TTLSeconds    int    `toml:"ttl_seconds"`
			SignalStream  string `toml:"signal_stream"`
			SignalChannel string `toml:"signal_channel"`
			Password      string `toml:"-"`
		} `toml:"redis"`

		Postgres struct {
			Enabled bool   `toml:"enabled"`
			DSN     string `toml:"-"`
		} `toml:"postgres"`
	} `toml:"storage"`
}

type ExchangeConfig struct {
	RestURL    string  `toml:"rest_url"`
	FuturesURL string  `toml:"futures_url"`
	WsURL      string  `toml:"ws_url"`
	WsEnabled  bool    `toml:"ws_enabled"`
	RatePerSec float64 `toml:"rate_per_sec"`
}

// Load 读取 TOML 配置；同目录或工作目录下的 .env 会先加载到环境变量（已存在的变量不覆盖）
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Telegram.Token = strings.TrimSpace(os.Getenv(EnvTelegramToken))
	cfg.Storage.Redis.Password = os.Getenv(EnvRedisPassword)
	cfg.Storage.Postgres.DSN = strings.TrimSpace(os.Getenv(EnvPostgresDSN))
}

func applyDefaults(cfg *Config) {
	if cfg.App.UpdateIntervalMs <= 0 {
		cfg.App.UpdateIntervalMs = 10000
	}
	if cfg.App.CallTimeoutMs <= 0 {
		cfg.App.CallTimeoutMs = 5000
	}
	if cfg.App.MaxParallelVenues <= 0 {
		cfg.App.MaxParallelVenues = 4
	}
	if cfg.Spread.MinChange <= 0 {
		cfg.Spread.MinChange = 1.0
	}
	if cfg.Spread.MinValue <= 0 {
		cfg.Spread.MinValue = 1.0
	}
	if len(cfg.Venues.Enabled) == 0 {
		for _, v := range model.AllVenues {
			if !v.IsAggregator() {
				cfg.Venues.Enabled = append(cfg.Venues.Enabled, string(v))
			}
		}
	}
	if cfg.Exchanges == nil {
		cfg.Exchanges = make(map[string]ExchangeConfig)
	}
	if cfg.Telegram.APIURL == "" {
		cfg.Telegram.APIURL = "https://api.telegram.org"
	}
	if cfg.Telegram.PollTimeoutSec <= 0 {
		cfg.Telegram.PollTimeoutSec = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = 100
	}
	if cfg.Log.MaxBackups <= 0 {
		cfg.Log.MaxBackups = 5
	}
	if cfg.Log.MaxAgeDays <= 0 {
		cfg.Log.MaxAgeDays = 14
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = "data/xspread.db"
	}
	if cfg.Storage.Redis.Addr == "" {
		cfg.Storage.Redis.Addr = "127.0.0.1:6379"
	}
	if cfg.Storage.Redis.Prefix == "" {
		cfg.Storage.Redis.Prefix = "xspread"
	}
	if cfg.Storage.Redis.TTLSeconds <= 0 {
		cfg.Storage.Redis.TTLSeconds = 3600
	}
}

func validate(cfg *Config) error {
	venues, err := normalizeVenues(cfg.Venues.Enabled)
	if err != nil {
		return err
	}
	if len(venues) == 0 {
		return errors.New("venues.enabled is empty")
	}
	cfg.Venues.Enabled = venues

	normalized := make(map[string]ExchangeConfig, len(cfg.Exchanges))
	for name, ex := range cfg.Exchanges {
		v, err := model.ParseVenue(name)
		if err != nil {
			return fmt.Errorf("exchanges.%s: %w", name, err)
		}
		if ex.WsEnabled && strings.TrimSpace(ex.WsURL) == "" {
			return fmt.Errorf("exchanges.%s.ws_url empty but ws enabled", name)
		}
		if ex.RatePerSec < 0 {
			return fmt.Errorf("exchanges.%s.rate_per_sec must be >= 0", name)
		}
		normalized[string(v)] = ex
	}
	cfg.Exchanges = normalized

	if cfg.Telegram.Enabled && cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram enabled but %s is not set", EnvTelegramToken)
	}
	if cfg.Storage.Postgres.Enabled && cfg.Storage.Postgres.DSN == "" {
		return fmt.Errorf("storage.postgres enabled but %s is not set", EnvPostgresDSN)
	}
	return nil
}

// normalizeVenues 小写、去重、校验名称
func normalizeVenues(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		if strings.TrimSpace(s) == "" {
			continue
		}
		v, err := model.ParseVenue(s)
		if err != nil {
			return nil, fmt.Errorf("venues.enabled: %w", err)
		}
		if _, ok := seen[string(v)]; ok {
			continue
		}
		seen[string(v)] = struct{}{}
		out = append(out, string(v))
	}
	return out, nil
}

// GetEnabledExchanges 启用的交易所，按规范顺序排列；check_dexscreener 打开时追加 dexscreener
func (c *Config) GetEnabledExchanges() []model.Venue {
	enabled := make(map[model.Venue]bool, len(c.Venues.Enabled))
	for _, s := range c.Venues.Enabled {
		enabled[model.Venue(s)] = true
	}
	if c.Venues.CheckDexScreener {
		enabled[model.VenueDexScreener] = true
	}

	var out []model.Venue
	for _, v := range model.AllVenues {
		if enabled[v] {
			out = append(out, v)
		}
	}
	return out
}

// Exchange 某个交易所的端点配置，未配置时返回零值
func (c *Config) Exchange(v model.Venue) ExchangeConfig {
	return c.Exchanges[string(v)]
}

func (c *Config) UpdateInterval() time.Duration {
	return time.Duration(c.App.UpdateIntervalMs) * time.Millisecond
}

func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.App.CallTimeoutMs) * time.Millisecond
}
