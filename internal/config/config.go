package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	infraconfig "stockquote-service/internal/infrastructure/config"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Common
	Env             string        `yaml:"env"`
	LogLevel        string        `yaml:"log_level"`
	LogFile         string        `yaml:"log_file"`
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// Engine
	MaxWorkers       int           `yaml:"max_workers"`
	RefreshInterval  time.Duration `yaml:"refresh_interval"`
	ProviderTimeout  time.Duration `yaml:"provider_timeout"`
	CapTimeout       time.Duration `yaml:"cap_timeout"`
	Providers        []string      `yaml:"providers"`
	MarketCap        bool          `yaml:"market_cap"`
	Watchlist        []string      `yaml:"watchlist"`
	Priority         []string      `yaml:"priority"`
	MaxMonitorStocks int           `yaml:"max_monitor_stocks"`
	TradingHoursOnly bool          `yaml:"trading_hours_only"`
	// Provider endpoints
	SinaBase      string `yaml:"sina_base"`
	NeteaseBase   string `yaml:"netease_base"`
	TencentBase   string `yaml:"tencent_base"`
	EastmoneyBase string `yaml:"eastmoney_base"`
	// Storage
	Storage     string `yaml:"storage"`
	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`
	SinkBuffer  int    `yaml:"sink_buffer"`
	// Redis (idempotency + snapshot mirror); disabled when RedisAddr is empty
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	RedisTTL      time.Duration `yaml:"redis_ttl"`
	// NSQ bridge; disabled when NSQAddr is empty
	NSQAddr  string `yaml:"nsq_addr"`
	NSQTopic string `yaml:"nsq_topic"`
	// Alerts and session jobs
	AlertRulesFile   string `yaml:"alert_rules_file"`
	SessionCronOpen  string `yaml:"session_cron_open"`
	SessionCronClose string `yaml:"session_cron_close"`
}

var knownProviders = map[string]bool{"sina": true, "netease": true, "tencent": true, "fake": true}

func Defaults() Config {
	return Config{
		Env:              "local",
		LogLevel:         "info",
		Port:             infraconfig.DefaultHTTPPort,
		ShutdownTimeout:  infraconfig.DefaultShutdownTimeout,
		MaxWorkers:       infraconfig.DefaultMaxWorkers,
		RefreshInterval:  infraconfig.DefaultRefreshInterval,
		ProviderTimeout:  infraconfig.DefaultProviderTimeout,
		CapTimeout:       infraconfig.DefaultCapTimeout,
		Providers:        []string{"sina", "netease", "tencent"},
		MarketCap:        true,
		MaxMonitorStocks: infraconfig.DefaultMaxMonitor,
		Storage:          "none",
		SQLitePath:       "stockquote.db",
		SinkBuffer:       infraconfig.DefaultSinkBuffer,
		RedisTTL:         infraconfig.DefaultRedisTTL,
		NSQTopic:         infraconfig.DefaultNSQTopic,
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func durMS(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func boolDef(key string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return b
}

func listDef(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Load applies defaults, then the YAML file named by CONFIG_FILE, then
// environment variables, and validates the result.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.Env = getEnv("ENV", cfg.Env)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.ShutdownTimeout = durMS("SHUTDOWN_TIMEOUT_MS", cfg.ShutdownTimeout)

	cfg.MaxWorkers = atoiDef(getEnv("MAX_WORKERS", ""), cfg.MaxWorkers)
	cfg.RefreshInterval = durMS("REFRESH_INTERVAL_MS", cfg.RefreshInterval)
	cfg.ProviderTimeout = durMS("PROVIDER_TIMEOUT_MS", cfg.ProviderTimeout)
	cfg.CapTimeout = durMS("CAP_TIMEOUT_MS", cfg.CapTimeout)
	cfg.Providers = listDef("PROVIDERS", cfg.Providers)
	cfg.MarketCap = boolDef("MARKET_CAP", cfg.MarketCap)
	cfg.Watchlist = listDef("WATCHLIST", cfg.Watchlist)
	cfg.Priority = listDef("PRIORITY", cfg.Priority)
	cfg.MaxMonitorStocks = atoiDef(getEnv("MAX_MONITOR_STOCKS", ""), cfg.MaxMonitorStocks)
	cfg.TradingHoursOnly = boolDef("TRADING_HOURS_ONLY", cfg.TradingHoursOnly)

	cfg.SinaBase = getEnv("SINA_BASE", cfg.SinaBase)
	cfg.NeteaseBase = getEnv("NETEASE_BASE", cfg.NeteaseBase)
	cfg.TencentBase = getEnv("TENCENT_BASE", cfg.TencentBase)
	cfg.EastmoneyBase = getEnv("EASTMONEY_BASE", cfg.EastmoneyBase)

	cfg.Storage = getEnv("STORAGE", cfg.Storage)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.SQLitePath = getEnv("SQLITE_PATH", cfg.SQLitePath)
	cfg.SinkBuffer = atoiDef(getEnv("SINK_BUFFER", ""), cfg.SinkBuffer)

	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = atoiDef(getEnv("REDIS_DB", ""), cfg.RedisDB)
	cfg.RedisTTL = durMS("REDIS_TTL_MS", cfg.RedisTTL)

	cfg.NSQAddr = getEnv("NSQ_ADDR", cfg.NSQAddr)
	cfg.NSQTopic = getEnv("NSQ_TOPIC", cfg.NSQTopic)

	cfg.AlertRulesFile = getEnv("ALERT_RULES_FILE", cfg.AlertRulesFile)
	cfg.SessionCronOpen = getEnv("SESSION_CRON_OPEN", cfg.SessionCronOpen)
	cfg.SessionCronClose = getEnv("SESSION_CRON_CLOSE", cfg.SessionCronClose)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.MaxWorkers < 1 {
		errs = append(errs, fmt.Errorf("max_workers must be >= 1, got %d", c.MaxWorkers))
	}
	if c.MaxMonitorStocks < 1 {
		errs = append(errs, fmt.Errorf("max_monitor_stocks must be >= 1, got %d", c.MaxMonitorStocks))
	}
	if c.RefreshInterval <= 0 {
		errs = append(errs, errors.New("refresh_interval must be positive"))
	}
	if len(c.Providers) == 0 {
		errs = append(errs, errors.New("at least one provider is required"))
	}
	for _, p := range c.Providers {
		if !knownProviders[p] {
			errs = append(errs, fmt.Errorf("unknown provider %q", p))
		}
	}
	if len(c.Watchlist) > c.MaxMonitorStocks {
		errs = append(errs, fmt.Errorf("watchlist has %d symbols, limit is %d", len(c.Watchlist), c.MaxMonitorStocks))
	}
	switch c.Storage {
	case "none", "sqlite":
	case "pg":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for STORAGE=pg"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage %q", c.Storage))
	}
	return errors.Join(errs...)
}
